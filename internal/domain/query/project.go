package query

import (
	"encoding/json"
)

// Output returns the page data, narrowed to the selected fields when a
// select was requested.
func (r *Result[T]) Output() (interface{}, error) {
	if len(r.selected) == 0 {
		return r.Data, nil
	}
	return Project(r.Data, r.selected, r.keep...)
}

// Project converts rows to JSON objects holding only fields, the id and any
// keep keys.
func Project[T any](rows []T, fields []string, keep ...string) ([]map[string]interface{}, error) {
	allowed := map[string]bool{"id": true}
	for _, f := range fields {
		allowed[f] = true
	}
	for _, k := range keep {
		allowed[k] = true
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}
		var m map[string]interface{}
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		for k := range m {
			if !allowed[k] {
				delete(m, k)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

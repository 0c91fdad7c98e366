// Package query turns list-endpoint query strings into filtered, sorted and
// paginated SQL.
//
//	GET /api/v1/bootcamps?averageCost[gte]=1000&housing=true&select=name&sort=-averageCost&page=2&limit=10
//
// Every key other than select, sort, limit and page is a filter on a field
// declared by the Resource. A bare key is an equality test; a bracketed
// operator (gt, gte, lt, lte, in) selects a comparison.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 25

	// MaxPage and MaxLimit bound the requested window so the offset stays
	// representable.
	MaxPage  = 1_000_000
	MaxLimit = 1000

	// DefaultSort orders newest first.
	DefaultSort = "-createdAt"
)

// ErrMalformed is returned for filters that name unknown fields or operators
// or carry values of the wrong type. It carries no error kind and surfaces
// as a server error.
var ErrMalformed = errors.New("malformed query")

var reserved = map[string]bool{
	"select": true,
	"sort":   true,
	"limit":  true,
	"page":   true,
}

var operatorKey = regexp.MustCompile(`^([A-Za-z0-9_.]+)\[([A-Za-z]+)\]$`)

type Kind int

const (
	String Kind = iota
	Number
	Bool
	Time
	UUID
	// StringList is a JSON array of strings. Equality and in match records
	// holding any of the given values.
	StringList
)

type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
)

var operators = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
	"in":  OpIn,
}

// Field maps a JSON field name to its column.
type Field struct {
	Column string
	Kind   Kind
}

// Resource describes a listable table.
type Resource struct {
	Table   string
	Columns []string
	Fields  map[string]Field
	// Keep names output keys that survive any select projection, such as
	// populated relations.
	Keep []string
}

type Filter struct {
	Field  string
	Op     Op
	Values []interface{}
}

type SortKey struct {
	Field string
	Desc  bool
}

type Params struct {
	Filters []Filter
	Select  []string
	Sort    []SortKey
	Page    int
	Limit   int
}

// StartIndex is the number of records skipped before the current page.
func (p Params) StartIndex() int {
	return (p.Page - 1) * p.Limit
}

// Parse builds Params from a request's query string.
func Parse(values url.Values, res Resource) (Params, error) {
	p := Params{
		Page:  min(parsePositiveInt(values.Get("page"), DefaultPage), MaxPage),
		Limit: min(parsePositiveInt(values.Get("limit"), DefaultLimit), MaxLimit),
	}

	if sel := values.Get("select"); sel != "" {
		p.Select = splitList(sel)
	}

	sortSpec := values.Get("sort")
	if sortSpec == "" {
		sortSpec = DefaultSort
	}
	for _, key := range splitList(sortSpec) {
		desc := strings.HasPrefix(key, "-")
		name := strings.TrimPrefix(key, "-")
		if _, ok := res.Fields[name]; !ok {
			return Params{}, fmt.Errorf("%w: cannot sort by %q", ErrMalformed, name)
		}
		p.Sort = append(p.Sort, SortKey{Field: name, Desc: desc})
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if !reserved[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		f, err := parseFilter(key, values[key], res)
		if err != nil {
			return Params{}, err
		}
		p.Filters = append(p.Filters, f)
	}
	return p, nil
}

func parseFilter(key string, raw []string, res Resource) (Filter, error) {
	name, op := key, OpEq
	if m := operatorKey.FindStringSubmatch(key); m != nil {
		o, ok := operators[m[2]]
		if !ok {
			return Filter{}, fmt.Errorf("%w: unknown operator %q", ErrMalformed, m[2])
		}
		name, op = m[1], o
	}

	field, ok := res.Fields[name]
	if !ok {
		return Filter{}, fmt.Errorf("%w: cannot filter by %q", ErrMalformed, name)
	}
	if field.Kind == StringList && op != OpEq && op != OpIn {
		return Filter{}, fmt.Errorf("%w: %q does not support %s", ErrMalformed, name, op)
	}

	var operands []string
	if op == OpIn {
		for _, r := range raw {
			operands = append(operands, splitList(r)...)
		}
	} else if len(raw) > 0 {
		// Repeated keys keep the last value.
		operands = []string{raw[len(raw)-1]}
	}
	if len(operands) == 0 {
		return Filter{}, fmt.Errorf("%w: %q has no value", ErrMalformed, key)
	}

	values := make([]interface{}, 0, len(operands))
	for _, s := range operands {
		v, err := convert(s, field.Kind)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: %q: %v", ErrMalformed, key, err)
		}
		values = append(values, v)
	}
	return Filter{Field: name, Op: op, Values: values}, nil
}

func convert(s string, kind Kind) (interface{}, error) {
	switch kind {
	case Number:
		return strconv.ParseFloat(s, 64)
	case Bool:
		return strconv.ParseBool(s)
	case Time:
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
		return time.Parse("2006-01-02", s)
	case UUID:
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	default:
		return s, nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositiveInt(s string, defaultVal int) int {
	if val, err := strconv.Atoi(s); err == nil && val > 0 {
		return val
	}
	return defaultVal
}

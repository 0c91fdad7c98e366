package query

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var camps = Resource{
	Table:   "bootcamps",
	Columns: []string{"id", "name", "average_cost", "housing"},
	Fields: map[string]Field{
		"id":             {Column: "id", Kind: UUID},
		"name":           {Column: "name", Kind: String},
		"averageCost":    {Column: "average_cost", Kind: Number},
		"housing":        {Column: "housing", Kind: Bool},
		"createdAt":      {Column: "created_at", Kind: Time},
		"location.state": {Column: "state", Kind: String},
		"careers":        {Column: "careers", Kind: StringList},
	},
	Keep: []string{"courses"},
}

type camp struct {
	ID          string   `db:"id" json:"id"`
	Name        string   `db:"name" json:"name"`
	AverageCost float64  `db:"average_cost" json:"averageCost"`
	Housing     bool     `db:"housing" json:"housing"`
	Courses     []string `db:"-" json:"courses,omitempty"`
}

func mustParse(t *testing.T, raw string) Params {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	p, err := Parse(values, camps)
	require.NoError(t, err)
	return p
}

func TestParse_Defaults(t *testing.T) {
	p := mustParse(t, "")

	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, []SortKey{{Field: "createdAt", Desc: true}}, p.Sort)
	assert.Empty(t, p.Filters)
	assert.Empty(t, p.Select)
}

func TestParse_FiltersAndOptions(t *testing.T) {
	p := mustParse(t, "averageCost[gte]=1000&housing=true&select=name,averageCost&sort=name,-averageCost&page=2&limit=10")

	want := []Filter{
		{Field: "averageCost", Op: OpGte, Values: []interface{}{1000.0}},
		{Field: "housing", Op: OpEq, Values: []interface{}{true}},
	}
	if diff := cmp.Diff(want, p.Filters); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"name", "averageCost"}, p.Select)
	assert.Equal(t, []SortKey{{Field: "name"}, {Field: "averageCost", Desc: true}}, p.Sort)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 10, p.StartIndex())
}

func TestParse_InCollectsEveryValue(t *testing.T) {
	p := mustParse(t, "name[in]=a,b&name[in]=c")

	require.Len(t, p.Filters, 1)
	assert.Equal(t, OpIn, p.Filters[0].Op)
	assert.Equal(t, []interface{}{"a", "b", "c"}, p.Filters[0].Values)
}

func TestParse_RepeatedKeyKeepsLastValue(t *testing.T) {
	p := mustParse(t, "name=first&name=second")

	require.Len(t, p.Filters, 1)
	assert.Equal(t, []interface{}{"second"}, p.Filters[0].Values)
}

func TestParse_NestedField(t *testing.T) {
	p := mustParse(t, "location.state=MA")

	require.Len(t, p.Filters, 1)
	assert.Equal(t, "location.state", p.Filters[0].Field)
}

func TestParse_InvalidPagingFallsBack(t *testing.T) {
	p := mustParse(t, "page=-3&limit=abc")

	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown field", "color=red"},
		{"unknown operator", "averageCost[ne]=1"},
		{"bad number", "averageCost[gt]=cheap"},
		{"bad bool", "housing=maybe"},
		{"bad uuid", "id=42"},
		{"bad time", "createdAt[gte]=yesterday"},
		{"unknown sort", "sort=-color"},
		{"range on a list", "careers[gt]=Business"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)
			_, err = Parse(values, camps)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}
}

func TestSelectSQL(t *testing.T) {
	p := mustParse(t, "averageCost[gte]=1000&housing=true&sort=-averageCost&page=2&limit=10")

	sql, args, err := SelectSQL(camps, p)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, name, average_cost, housing FROM bootcamps WHERE average_cost >= $1 AND housing = $2 ORDER BY average_cost DESC LIMIT 10 OFFSET 10",
		sql)
	assert.Equal(t, []interface{}{1000.0, true}, args)

	sql, args, err = CountSQL(camps, p)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM bootcamps WHERE average_cost >= $1 AND housing = $2", sql)
	assert.Equal(t, []interface{}{1000.0, true}, args)
}

func TestSelectSQL_In(t *testing.T) {
	p := mustParse(t, "name[in]=a,b&sort=name")

	sql, args, err := SelectSQL(camps, p)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, name, average_cost, housing FROM bootcamps WHERE name IN ($1,$2) ORDER BY name ASC LIMIT 25 OFFSET 0",
		sql)
	assert.Equal(t, []interface{}{"a", "b"}, args)
}

func TestSelectSQL_StringListMatchesAnyValue(t *testing.T) {
	for _, raw := range []string{"careers[in]=Business,UI/UX", "careers=Business"} {
		t.Run(raw, func(t *testing.T) {
			p := mustParse(t, raw+"&sort=name")

			sql, args, err := SelectSQL(camps, p)
			require.NoError(t, err)
			assert.Equal(t,
				"SELECT id, name, average_cost, housing FROM bootcamps WHERE careers ?| $1::text[] ORDER BY name ASC LIMIT 25 OFFSET 0",
				sql)
			require.Len(t, args, 1)
			assert.Contains(t, args[0], "Business")
		})
	}
}

func TestParse_PagingIsBounded(t *testing.T) {
	p := mustParse(t, "page=922337203685477581&limit=99999999")

	assert.Equal(t, MaxPage, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)

	sql, _, err := SelectSQL(camps, p)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "LIMIT 1000 OFFSET 999999000"), sql)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name               string
		page, limit, total int
		want               Pagination
	}{
		{"single page", 1, 25, 3, Pagination{}},
		{"first of many", 1, 10, 25, Pagination{Next: &PageRef{Page: 2, Limit: 10}}},
		{"middle", 2, 10, 25, Pagination{Next: &PageRef{Page: 3, Limit: 10}, Prev: &PageRef{Page: 1, Limit: 10}}},
		{"last", 3, 10, 25, Pagination{Prev: &PageRef{Page: 2, Limit: 10}}},
		{"exact boundary", 2, 10, 20, Pagination{Prev: &PageRef{Page: 1, Limit: 10}}},
		{"past the end", 5, 10, 3, Pagination{Prev: &PageRef{Page: 4, Limit: 10}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tt.page, tt.limit, tt.total)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("pagination mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProject(t *testing.T) {
	rows := []camp{{ID: "1", Name: "Devworks", AverageCost: 9000, Housing: true, Courses: []string{"c1"}}}

	got, err := Project(rows, []string{"name"}, "courses")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[string]interface{}{
		"id":      "1",
		"name":    "Devworks",
		"courses": []interface{}{"c1"},
	}, got[0])
}

func TestFind(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	p := mustParse(t, "housing=true&select=name&sort=name&limit=2")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bootcamps WHERE housing = $1")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, average_cost, housing FROM bootcamps WHERE housing = $1 ORDER BY name ASC LIMIT 2 OFFSET 0")).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "average_cost", "housing"}).
			AddRow("1", "Alpha", 1000.0, true).
			AddRow("2", "Beta", 2000.0, true))

	var populated int
	populate := func(ctx context.Context, rows []camp) error {
		for i := range rows {
			rows[i].Courses = []string{"course-" + rows[i].ID}
		}
		populated = len(rows)
		return nil
	}

	res, err := Find[camp](context.Background(), db, camps, p, populate)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 2, populated)
	assert.Equal(t, Pagination{Next: &PageRef{Page: 2, Limit: 2}}, res.Pagination)

	out, err := res.Output()
	require.NoError(t, err)
	projected, ok := out.([]map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"id":      "1",
		"name":    "Alpha",
		"courses": []interface{}{"course-1"},
	}, projected[0])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_Empty(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bootcamps")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, average_cost, housing FROM bootcamps ORDER BY created_at DESC LIMIT 25 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "average_cost", "housing"}))

	res, err := Find[camp](context.Background(), db, camps, mustParse(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Count)
	assert.NotNil(t, res.Data)
	assert.Equal(t, Pagination{}, res.Pagination)
	require.NoError(t, mock.ExpectationsWereMet())
}

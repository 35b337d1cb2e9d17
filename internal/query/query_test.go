package query_test

import (
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-server/internal/query"
)

type record struct {
	id    int64
	name  string
	pages int
	born  time.Time
}

func sorting() *query.Sorting[record] {
	return query.NewSorting("id", func(r record) int64 { return r.id }).
		Text("name", "name", func(r record) string { return r.name }).
		Int("pages", "pages", func(r record) int { return r.pages })
}

func fixtures() []record {
	return []record{
		{id: 3, name: "Carla", pages: 100, born: date(1990, 5, 1)},
		{id: 1, name: "alice", pages: 50, born: date(1985, 1, 10)},
		{id: 2, name: "Bob", pages: 100, born: date(2000, 12, 31)},
		{id: 4, name: "ALICIA", pages: 300, born: date(1990, 5, 2)},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ids(items []record) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.id)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func Test_Apply_AllCriteriaOmitted_ReturnsEveryRecordInIDOrder(t *testing.T) {
	page, err := query.Apply(fixtures(), query.Where[record](), sorting(), query.PageRequest{Index: 0, Size: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(page.Items))
}

func Test_Apply_SingleEqualityCriterion_ReturnsExactSubset(t *testing.T) {
	f := query.Where(query.Equal("pages", ptr(100), func(r record) int { return r.pages }))

	page, err := query.Apply(fixtures(), f, sorting(), query.PageRequest{Size: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, []int64{2, 3}, ids(page.Items))
}

func Test_Apply_NilCriteriaImposeNoConstraint(t *testing.T) {
	var absent *int
	f := query.Where(
		query.Equal("pages", absent, func(r record) int { return r.pages }),
		query.ContainsFold[record]("name", nil, func(r record) string { return r.name }),
		query.DateRange[record]("born", nil, nil, func(r record) time.Time { return r.born }),
	)

	assert.True(t, f.IsEmpty())

	page, err := query.Apply(fixtures(), f, sorting(), query.PageRequest{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)
}

func Test_Apply_ContainsFold_IsCaseInsensitiveSubstring(t *testing.T) {
	f := query.Where(query.ContainsFold("name", ptr("ALI"), func(r record) string { return r.name }))

	page, err := query.Apply(fixtures(), f, sorting(), query.PageRequest{Size: 10})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids(page.Items))
}

func Test_Apply_DateRange(t *testing.T) {
	born := func(r record) time.Time { return r.born }

	tests := []struct {
		name string
		from *time.Time
		to   *time.Time
		want []int64
	}{
		{name: "both_bounds_inclusive", from: ptr(date(1990, 5, 1)), to: ptr(date(1990, 5, 2)), want: []int64{3, 4}},
		{name: "only_start", from: ptr(date(1990, 5, 2)), want: []int64{2, 4}},
		{name: "only_end", to: ptr(date(1985, 1, 10)), want: []int64{1}},
		{name: "clock_part_ignored", from: ptr(time.Date(2000, 12, 31, 23, 0, 0, 0, time.UTC)), want: []int64{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := query.Where(query.DateRange("born", tt.from, tt.to, born))

			page, err := query.Apply(fixtures(), f, sorting(), query.PageRequest{Size: 10})

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func Test_Apply_CriteriaAreCombinedWithAnd(t *testing.T) {
	f := query.Where(
		query.Equal("pages", ptr(100), func(r record) int { return r.pages }),
		query.ContainsFold("name", ptr("b"), func(r record) string { return r.name }),
	)

	page, err := query.Apply(fixtures(), f, sorting(), query.PageRequest{Size: 10})

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(page.Items))
}

func Test_Apply_Pagination(t *testing.T) {
	tests := []struct {
		name  string
		req   query.PageRequest
		want  []int64
		total int64
	}{
		{name: "first_page", req: query.PageRequest{Index: 0, Size: 3}, want: []int64{1, 2, 3}, total: 4},
		{name: "second_page_partial", req: query.PageRequest{Index: 1, Size: 3}, want: []int64{4}, total: 4},
		{name: "beyond_last_page_is_empty", req: query.PageRequest{Index: 7, Size: 3}, want: []int64{}, total: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := query.Apply(fixtures(), query.Where[record](), sorting(), tt.req)

			require.NoError(t, err)
			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func Test_Apply_EmptyResult_IsNotAnError(t *testing.T) {
	f := query.Where(query.Equal("pages", ptr(999), func(r record) int { return r.pages }))

	page, err := query.Apply(fixtures(), f, sorting(), query.PageRequest{Size: 5})

	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total)
	assert.Empty(t, page.Items)
}

func Test_Apply_Sorting(t *testing.T) {
	tests := []struct {
		name string
		sort string
		want []int64
	}{
		{name: "text_by_code_point", sort: "name", want: []int64{4, 2, 3, 1}},
		{name: "text_descending", sort: "-name", want: []int64{1, 3, 2, 4}},
		{name: "ties_broken_by_id", sort: "pages", want: []int64{1, 2, 3, 4}},
		{name: "ties_broken_by_id_when_descending", sort: "-pages", want: []int64{4, 2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := query.Apply(fixtures(), query.Where[record](), sorting(), query.NewPageRequest(0, 10, tt.sort))

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func Test_Apply_IsStableAcrossCalls(t *testing.T) {
	req := query.NewPageRequest(0, 2, "pages")

	first, err := query.Apply(fixtures(), query.Where[record](), sorting(), req)
	require.NoError(t, err)

	for range 5 {
		again, err := query.Apply(fixtures(), query.Where[record](), sorting(), req)
		require.NoError(t, err)
		assert.Equal(t, ids(first.Items), ids(again.Items))
	}
}

func Test_Apply_RejectsInvalidPageRequests(t *testing.T) {
	tests := []struct {
		name string
		req  query.PageRequest
	}{
		{name: "negative_index", req: query.PageRequest{Index: -1, Size: 10}},
		{name: "zero_size", req: query.PageRequest{Index: 0, Size: 0}},
		{name: "too_large", req: query.PageRequest{Index: 0, Size: query.MaxPageSize + 1}},
		{name: "unknown_sort_key", req: query.PageRequest{Index: 0, Size: 10, Sort: "password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := query.Apply(fixtures(), query.Where[record](), sorting(), tt.req)

			assert.ErrorIs(t, err, query.ErrInvalidPage)
		})
	}
}

func Test_ParseSort(t *testing.T) {
	key, desc := query.ParseSort("-title")
	assert.Equal(t, "title", key)
	assert.True(t, desc)

	key, desc = query.ParseSort("year")
	assert.Equal(t, "year", key)
	assert.False(t, desc)
}

func Test_CalculateMeta(t *testing.T) {
	meta := query.CalculateMeta(45, 1, 20)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 2, meta.LastPage)

	empty := query.CalculateMeta(0, 0, 20)
	assert.Equal(t, 0, empty.TotalPages)
	assert.Equal(t, 0, empty.LastPage)
}

func Test_Filter_Expression_RendersSQL(t *testing.T) {
	f := query.Where(
		query.Equal("pages", ptr(100), func(r record) int { return r.pages }),
		query.ContainsFold("name", ptr("Al_"), func(r record) string { return r.name }),
		query.DateRange("born", ptr(date(1990, 1, 1)), nil, func(r record) time.Time { return r.born }),
	)

	order, err := sorting().OrderBy(query.NewPageRequest(0, 10, "-name"), "C")
	require.NoError(t, err)

	sql, args, err := goqu.Dialect("postgres").
		From("records").
		Where(f.Expression()).
		Order(order...).
		Prepared(true).
		ToSQL()

	require.NoError(t, err)
	assert.Contains(t, sql, `"pages" = $1`)
	assert.Contains(t, sql, `LOWER("name") LIKE $2 ESCAPE '\'`)
	assert.Contains(t, sql, `"born" >= $3`)
	assert.Contains(t, sql, `ORDER BY "name" COLLATE "C" DESC, "id" ASC`)
	assert.Equal(t, []any{int64(100), `%al\_%`, "1990-01-01"}, args)
}

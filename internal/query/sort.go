package query

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// SortKey maps a public sort name to a column and an in-memory comparator.
type SortKey[T any] struct {
	Name    string
	Column  string
	Compare func(a, b T) int
	Text    bool
}

// Sorting is the safelist of sort keys for one record type. Every ordering
// ends with the identifier ascending, so results are stable across calls
// against unchanged data.
type Sorting[T any] struct {
	idColumn   string
	id         func(T) int64
	defaultKey string
	keys       map[string]SortKey[T]
}

func NewSorting[T any](idColumn string, id func(T) int64) *Sorting[T] {
	s := &Sorting[T]{
		idColumn:   idColumn,
		id:         id,
		defaultKey: "id",
		keys:       make(map[string]SortKey[T]),
	}

	s.keys["id"] = SortKey[T]{
		Name:    "id",
		Column:  idColumn,
		Compare: func(a, b T) int { return cmp.Compare(id(a), id(b)) },
	}

	return s
}

// Text registers a string key, compared by code point.
func (s *Sorting[T]) Text(name, column string, get func(T) string) *Sorting[T] {
	s.keys[name] = SortKey[T]{
		Name:    name,
		Column:  column,
		Compare: func(a, b T) int { return strings.Compare(get(a), get(b)) },
		Text:    true,
	}
	return s
}

func (s *Sorting[T]) Int(name, column string, get func(T) int) *Sorting[T] {
	s.keys[name] = SortKey[T]{
		Name:    name,
		Column:  column,
		Compare: func(a, b T) int { return cmp.Compare(get(a), get(b)) },
	}
	return s
}

func (s *Sorting[T]) Keys() []string {
	names := make([]string, 0, len(s.keys))
	for k := range s.keys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the key for name, or the default key when name is empty.
func (s *Sorting[T]) Resolve(name string) (SortKey[T], error) {
	if name == "" {
		name = s.defaultKey
	}

	key, ok := s.keys[name]
	if !ok {
		return SortKey[T]{}, fmt.Errorf("%w: unknown sort key %q (allowed: %s)", ErrInvalidPage, name, strings.Join(s.Keys(), ", "))
	}

	return key, nil
}

func (s *Sorting[T]) sortBy(items []T, key SortKey[T], desc bool) {
	slices.SortStableFunc(items, func(a, b T) int {
		c := key.Compare(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(s.id(a), s.id(b))
	})
}

// OrderBy renders the ordering for SQL backends. collation, when set, is
// applied to text columns (e.g. "C" on postgres for code point order).
func (s *Sorting[T]) OrderBy(p PageRequest, collation string) ([]exp.OrderedExpression, error) {
	key, err := s.Resolve(p.Sort)
	if err != nil {
		return nil, err
	}

	var col exp.Orderable = goqu.C(key.Column)
	if key.Text && collation != "" {
		col = goqu.L(fmt.Sprintf(`? COLLATE "%s"`, collation), goqu.C(key.Column))
	}

	primary := col.Asc()
	if p.Descending {
		primary = col.Desc()
	}

	if key.Column == s.idColumn {
		return []exp.OrderedExpression{primary}, nil
	}

	return []exp.OrderedExpression{primary, goqu.C(s.idColumn).Asc()}, nil
}

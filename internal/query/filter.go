// Package query implements the optional-criteria filter and pagination
// model shared by book and user searches. A Filter is evaluated either in
// memory (Matches) or rendered to SQL (Expression) so every storage backend
// applies the same semantics.
package query

import (
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

/***** Condition *****/

// Condition is a single criterion narrowing a search. A nil *Condition
// stands for an omitted criterion and never excludes anything.
type Condition[T any] struct {
	column string
	match  func(T) bool
	expr   exp.Expression
}

func (c *Condition[T]) Column() string {
	return c.column
}

func (c *Condition[T]) Matches(v T) bool {
	return c.match(v)
}

func (c *Condition[T]) Expression() exp.Expression {
	return c.expr
}

// Equal matches records whose field equals *value exactly.
func Equal[T any, V comparable](column string, value *V, get func(T) V) *Condition[T] {
	if value == nil {
		return nil
	}

	want := *value

	return &Condition[T]{
		column: column,
		match:  func(v T) bool { return get(v) == want },
		expr:   goqu.C(column).Eq(want),
	}
}

// ContainsFold matches records whose field contains *value, ignoring case.
func ContainsFold[T any](column string, value *string, get func(T) string) *Condition[T] {
	if value == nil {
		return nil
	}

	needle := strings.ToLower(*value)
	pattern := "%" + escapeLike(needle) + "%"

	return &Condition[T]{
		column: column,
		match:  func(v T) bool { return strings.Contains(strings.ToLower(get(v)), needle) },
		expr:   goqu.L(`LOWER(?) LIKE ? ESCAPE '\'`, goqu.C(column), pattern),
	}
}

// DateRange matches records whose date lies in the inclusive [from, to]
// window. Either bound may be nil. Dates are compared by calendar day and
// the SQL column is expected to hold ISO-8601 dates (YYYY-MM-DD).
func DateRange[T any](column string, from, to *time.Time, get func(T) time.Time) *Condition[T] {
	if from == nil && to == nil {
		return nil
	}

	var exprs []exp.Expression
	if from != nil {
		exprs = append(exprs, goqu.C(column).Gte(from.Format(time.DateOnly)))
	}
	if to != nil {
		exprs = append(exprs, goqu.C(column).Lte(to.Format(time.DateOnly)))
	}

	return &Condition[T]{
		column: column,
		match: func(v T) bool {
			day := TruncateDay(get(v))
			if from != nil && day.Before(TruncateDay(*from)) {
				return false
			}
			if to != nil && day.After(TruncateDay(*to)) {
				return false
			}
			return true
		},
		expr: goqu.And(exprs...),
	}
}

// TruncateDay drops the clock part of t, keeping its calendar date.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

/***** Filter *****/

// Filter is the logical AND of its conditions. The zero value matches
// every record.
type Filter[T any] struct {
	conditions []*Condition[T]
}

// Where builds a Filter from the supplied conditions, dropping the omitted
// (nil) ones.
func Where[T any](conditions ...*Condition[T]) Filter[T] {
	return Filter[T]{}.And(conditions...)
}

func (f Filter[T]) And(conditions ...*Condition[T]) Filter[T] {
	out := make([]*Condition[T], 0, len(f.conditions)+len(conditions))
	out = append(out, f.conditions...)

	for _, c := range conditions {
		if c != nil {
			out = append(out, c)
		}
	}

	return Filter[T]{conditions: out}
}

func (f Filter[T]) Conditions() []*Condition[T] {
	return f.conditions
}

func (f Filter[T]) IsEmpty() bool {
	return len(f.conditions) == 0
}

func (f Filter[T]) Matches(v T) bool {
	for _, c := range f.conditions {
		if !c.Matches(v) {
			return false
		}
	}
	return true
}

// Expression renders the filter as a goqu WHERE expression.
func (f Filter[T]) Expression() exp.ExpressionList {
	exprs := make([]exp.Expression, 0, len(f.conditions))
	for _, c := range f.conditions {
		exprs = append(exprs, c.Expression())
	}
	return goqu.And(exprs...)
}

package query

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPage = errors.New("invalid page request")

const (
	DefaultPageSize = 20
	MaxPageSize     = 500
)

// PageRequest selects a slice of a filtered, sorted result set. Index is
// zero-based.
type PageRequest struct {
	Index      int    `json:"page"`
	Size       int    `json:"size"`
	Sort       string `json:"sort,omitempty"`
	Descending bool   `json:"descending,omitempty"`
}

func NewPageRequest(index, size int, sort string) PageRequest {
	key, desc := ParseSort(sort)
	return PageRequest{
		Index:      index,
		Size:       size,
		Sort:       key,
		Descending: desc,
	}
}

// ParseSort splits "-title" into ("title", true) and "title" into
// ("title", false).
func ParseSort(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(raw, "-"); ok {
		return after, true
	}
	return raw, false
}

func (p PageRequest) Offset() int {
	return p.Index * p.Size
}

func (p PageRequest) Validate() error {
	if p.Index < 0 {
		return fmt.Errorf("%w: page index must not be negative", ErrInvalidPage)
	}
	if p.Size < 1 {
		return fmt.Errorf("%w: page size must be at least 1", ErrInvalidPage)
	}
	if p.Size > MaxPageSize {
		return fmt.Errorf("%w: page size must be at most %d", ErrInvalidPage, MaxPageSize)
	}
	return nil
}

// Page is one slice of a search result plus the total number of matches.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Index int   `json:"page"`
	Size  int   `json:"size"`
}

type Meta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	TotalPages  int   `json:"total_pages"`
}

func (p *Page[T]) Meta() *Meta {
	return CalculateMeta(p.Total, p.Index, p.Size)
}

func CalculateMeta(total int64, page, size int) *Meta {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	totalPages := int(total) / size
	if int(total)%size != 0 {
		totalPages++
	}

	lastPage := totalPages - 1
	if lastPage < 0 {
		lastPage = 0
	}

	return &Meta{
		CurrentPage: page,
		PerPage:     size,
		Total:       total,
		LastPage:    lastPage,
		TotalPages:  totalPages,
	}
}

// Apply runs the whole search pipeline in memory: filter, sort, slice.
func Apply[T any](items []T, f Filter[T], s *Sorting[T], p PageRequest) (*Page[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key, err := s.Resolve(p.Sort)
	if err != nil {
		return nil, err
	}

	matched := make([]T, 0, len(items))
	for _, it := range items {
		if f.Matches(it) {
			matched = append(matched, it)
		}
	}

	s.sortBy(matched, key, p.Descending)

	page := &Page[T]{
		Items: []T{},
		Total: int64(len(matched)),
		Index: p.Index,
		Size:  p.Size,
	}

	start := p.Offset()
	if start >= len(matched) {
		return page, nil
	}

	end := min(start+p.Size, len(matched))
	page.Items = append(page.Items, matched[start:end]...)

	return page, nil
}

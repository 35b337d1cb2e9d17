package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"catalog-server/internal/domain"
	"catalog-server/internal/query"
)

func GetString(q url.Values, key string, def string) string {
	if v := q.Get(key); v != "" {
		return v
	}
	return def
}

// GetInt falls back to def when key is absent and rejects anything that
// is not an integer.
func GetInt(q url.Values, key string, def int) (int, error) {
	n, err := OptInt(q, key)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return def, nil
	}
	return *n, nil
}

// OptString returns nil when key is absent or blank, so "" and a missing
// parameter both mean "no criterion".
func OptString(q url.Values, key string) *string {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil
	}
	return &v
}

func OptInt(q url.Values, key string) (*int, error) {
	v := OptString(q, key)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return &n, nil
}

func OptDate(q url.Values, key string) (*time.Time, error) {
	v := OptString(q, key)
	if v == nil {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *v)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: "must be a date (YYYY-MM-DD)"}
	}
	return &t, nil
}

// GetPage reads page (zero-based), size and sort. Only the syntax is
// checked here; range checks are left to the search itself.
func GetPage(q url.Values) (query.PageRequest, error) {
	index, err := GetInt(q, "page", 0)
	if err != nil {
		return query.PageRequest{}, err
	}
	size, err := GetInt(q, "size", query.DefaultPageSize)
	if err != nil {
		return query.PageRequest{}, err
	}
	return query.NewPageRequest(index, size, GetString(q, "sort", "")), nil
}

func pathID(raw, field string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return id, nil
}

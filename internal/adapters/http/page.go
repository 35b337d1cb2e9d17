package http

import (
	"catalog-server/internal/adapters/http/response"
	"catalog-server/internal/query"
)

// pageResponse keeps "data" an array even when a page is empty.
func pageResponse[T any](items []T, meta *query.Meta) *response.Response {
	if items == nil {
		items = []T{}
	}
	return &response.Response{
		Message: "OK",
		Data:    items,
		Meta:    meta,
	}
}

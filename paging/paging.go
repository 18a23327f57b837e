// Package paging provides cursor pagination over search_after sort
// values. A cursor is the base64 encoding of the last hit's sort key,
// so pages stay stable while documents are written.
package paging

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Params holds the unified pagination parameters.
type Params struct {
	Cursor string `json:"cursor"`
	Limit  int    `json:"limit"`
}

// Result holds one page of items.
type Result[T any] struct {
	Items       []T    `json:"items"`
	Total       int64  `json:"total,omitempty"`
	NextCursor  string `json:"next,omitempty"`
	HasNextPage bool   `json:"has_next"`
}

// NormalizeParams ensures that Limit is within an acceptable range.
func NormalizeParams(params Params) Params {
	if params.Limit <= 0 || params.Limit > 1024 {
		params.Limit = 256
	}
	return params
}

// EncodeCursor encodes a hit's sort values to a cursor string.
func EncodeCursor(sortValues []any) string {
	if len(sortValues) == 0 {
		return ""
	}
	b, err := json.Marshal(sortValues)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(b)
}

// DecodeCursor decodes a cursor string back into search_after values.
func DecodeCursor(cursor string) ([]any, error) {
	if cursor == "" {
		return nil, nil
	}
	b, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("paging: invalid cursor: %w", err)
	}
	var values []any
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("paging: invalid cursor: %w", err)
	}
	return values, nil
}

// PagingFunc fetches one page. It receives the decoded search_after
// values (nil for the first page) and should fetch limit items,
// returning the sort values of each item in order.
type PagingFunc[T any] func(searchAfter []any, limit int) (items []T, total int64, sorts [][]any, err error)

// Paginate applies cursor pagination using the provided PagingFunc.
// It over-fetches by one item to detect whether a next page exists; the
// cursor is taken from the last item that stays on the page.
func Paginate[T any](params Params, paginateFunc PagingFunc[T]) (*Result[T], error) {
	params = NormalizeParams(params)

	searchAfter, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	items, total, sorts, err := paginateFunc(searchAfter, params.Limit+1)
	if err != nil {
		return nil, fmt.Errorf("pagination error: %w", err)
	}

	hasNextPage := false
	if len(items) > params.Limit {
		hasNextPage = true
		items = items[:params.Limit]
	}
	if items == nil {
		items = make([]T, 0)
	}

	next := ""
	if hasNextPage && len(sorts) >= len(items) && len(items) > 0 {
		next = EncodeCursor(sorts[len(items)-1])
	}

	return &Result[T]{
		Items:       items,
		Total:       total,
		NextCursor:  next,
		HasNextPage: hasNextPage,
	}, nil
}

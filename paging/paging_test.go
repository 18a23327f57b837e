package paging

import (
	"errors"
	"fmt"
	"testing"
)

func TestNormalizeParams(t *testing.T) {
	if p := NormalizeParams(Params{Limit: 0}); p.Limit != 256 {
		t.Fatalf("zero limit must default to 256, got %d", p.Limit)
	}
	if p := NormalizeParams(Params{Limit: 5000}); p.Limit != 256 {
		t.Fatalf("oversized limit must fall back to 256, got %d", p.Limit)
	}
	if p := NormalizeParams(Params{Limit: 42}); p.Limit != 42 {
		t.Fatalf("valid limit must be kept, got %d", p.Limit)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	values := []any{"2024-01-01T00:00:00Z", float64(17)}
	cursor := EncodeCursor(values)
	if cursor == "" {
		t.Fatalf("cursor must not be empty")
	}

	decoded, err := DecodeCursor(cursor)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 || decoded[0] != values[0] || decoded[1] != values[1] {
		t.Fatalf("round trip mismatch: %v", decoded)
	}

	if EncodeCursor(nil) != "" {
		t.Fatalf("empty sort values must encode to an empty cursor")
	}
	if v, err := DecodeCursor(""); err != nil || v != nil {
		t.Fatalf("empty cursor must decode to nil, got %v %v", v, err)
	}
	if _, err := DecodeCursor("!!not-base64!!"); err == nil {
		t.Fatalf("invalid cursor must fail")
	}
}

func TestPaginate_DetectsNextPage(t *testing.T) {
	// 25 items total, pages of 10. Each item sorts by its own value.
	fetch := func(searchAfter []any, limit int) ([]int, int64, [][]any, error) {
		start := 0
		if len(searchAfter) == 1 {
			start = int(searchAfter[0].(float64)) + 1
		}
		var items []int
		var sorts [][]any
		for i := start; i < 25 && len(items) < limit; i++ {
			items = append(items, i)
			sorts = append(sorts, []any{i})
		}
		return items, 25, sorts, nil
	}

	var pages [][]int
	cursor := ""
	for {
		result, err := Paginate(Params{Cursor: cursor, Limit: 10}, fetch)
		if err != nil {
			t.Fatalf("paginate: %v", err)
		}
		pages = append(pages, result.Items)
		if !result.HasNextPage {
			if result.NextCursor != "" {
				t.Fatalf("last page must not carry a cursor")
			}
			break
		}
		if result.NextCursor == "" {
			t.Fatalf("next page flagged without a cursor")
		}
		cursor = result.NextCursor
	}

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if len(pages[0]) != 10 || len(pages[1]) != 10 || len(pages[2]) != 5 {
		t.Fatalf("unexpected page sizes: %d %d %d", len(pages[0]), len(pages[1]), len(pages[2]))
	}
	if pages[1][0] != 10 || pages[2][0] != 20 {
		t.Fatalf("pages must continue where the cursor left off: %v %v", pages[1][0], pages[2][0])
	}
}

func TestPaginate_EmptyResult(t *testing.T) {
	result, err := Paginate(Params{Limit: 10}, func([]any, int) ([]string, int64, [][]any, error) {
		return nil, 0, nil, nil
	})
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}
	if result.Items == nil || len(result.Items) != 0 || result.HasNextPage {
		t.Fatalf("unexpected empty result: %+v", result)
	}
}

func TestPaginate_FetchErrorWrapped(t *testing.T) {
	sentinel := errors.New("cluster down")
	_, err := Paginate(Params{Limit: 10}, func([]any, int) ([]string, int64, [][]any, error) {
		return nil, 0, nil, fmt.Errorf("search: %w", sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("fetch error must be wrapped, got %v", err)
	}
}

package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestStream_DrainsAllBatchesAndClearsScroll(t *testing.T) {
	fake := newFakeBackend()
	fake.searchQueue = []*Result{
		{ScrollID: "s1", Hits: []Hit{
			{ID: "a", Source: json.RawMessage(`{}`)},
			{ID: "b", Source: json.RawMessage(`{}`)},
		}},
		{ScrollID: "s2", Hits: []Hit{
			{ID: "c", Source: json.RawMessage(`{}`)},
		}},
		{ScrollID: "s2"}, // empty batch terminates the stream
	}
	ops := New(fake, WithAutoCreateIndex(false))

	var ids []string
	for item := range ops.Stream(context.Background(), SearchRequest{Indices: []string{"articles"}}) {
		if item.Err != nil {
			t.Fatalf("stream error: %v", item.Err)
		}
		ids = append(ids, item.Hit.ID)
	}

	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Fatalf("unexpected hit ids: %v", ids)
	}
	if fake.callCount("scroll") != 2 {
		t.Fatalf("expected two scroll continuations, calls: %v", fake.calls)
	}

	fake.mu.Lock()
	cleared := append([]string(nil), fake.cleared...)
	fake.mu.Unlock()
	if len(cleared) != 1 || cleared[0] != "s2" {
		t.Fatalf("latest scroll id must be cleared, got %v", cleared)
	}
}

func TestStream_SurfacesScrollError(t *testing.T) {
	fake := newFakeBackend()
	fake.searchQueue = []*Result{
		{ScrollID: "s1", Hits: []Hit{{ID: "a"}}},
	}
	// The queue is now empty; make the continuation fail instead of
	// returning an empty batch.
	fake.scrollErr = NewError(500, "search_phase_execution_exception", "boom")
	ops := New(fake, WithAutoCreateIndex(false))

	var streamErr error
	for item := range ops.Stream(context.Background(), SearchRequest{Indices: []string{"articles"}}) {
		if item.Err != nil {
			streamErr = item.Err
		}
	}

	var respErr *Error
	if !errors.As(streamErr, &respErr) || respErr.Status != 500 {
		t.Fatalf("expected response error from scroll, got %v", streamErr)
	}
}

func TestStream_StopsOnContextCancel(t *testing.T) {
	fake := newFakeBackend()
	fake.searchQueue = []*Result{
		{ScrollID: "s1", Hits: []Hit{{ID: "a"}, {ID: "b"}, {ID: "c"}}},
	}
	ops := New(fake, WithAutoCreateIndex(false))

	cctx, cancel := context.WithCancel(context.Background())
	ch := ops.Stream(cctx, SearchRequest{Indices: []string{"articles"}})

	first := <-ch
	if first.Err != nil || first.Hit.ID != "a" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return // channel closed after cancellation
			}
		case <-deadline:
			t.Fatalf("stream did not terminate after cancel")
		}
	}
}

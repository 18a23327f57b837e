package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestBulkProcessor_FlushByCount(t *testing.T) {
	fake := newFakeBackend()
	ops := New(fake, WithAutoCreateIndex(false))

	flushed := make(chan *BulkResult, 4)
	p := NewBulkProcessor(ops, ProcessorConfig{
		Index:         "articles",
		FlushActions:  2,
		FlushInterval: time.Hour, // count must trigger, not the timer
		OnFlush: func(r *BulkResult, err error) {
			if err != nil {
				t.Errorf("flush error: %v", err)
			}
			flushed <- r
		},
	})

	for i := 0; i < 4; i++ {
		if err := p.Add(context.Background(), BulkOp{Action: BulkIndex, ID: "d", Document: map[string]any{}}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case r := <-flushed:
			if len(r.Items) != 2 {
				t.Fatalf("expected batches of 2, got %d", len(r.Items))
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("flush %d did not happen", i)
		}
	}

	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	stats := p.Stats()
	if stats.Added != 4 || stats.Flushed != 4 || stats.Flushes != 2 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestBulkProcessor_ManualFlushAndCloseDrain(t *testing.T) {
	fake := newFakeBackend()
	ops := New(fake, WithAutoCreateIndex(false))

	flushed := make(chan struct{}, 4)
	p := NewBulkProcessor(ops, ProcessorConfig{
		Index:         "articles",
		FlushActions:  100,
		FlushInterval: time.Hour,
		OnFlush:       func(*BulkResult, error) { flushed <- struct{}{} },
	})

	if err := p.Add(context.Background(), BulkOp{Action: BulkIndex, ID: "a", Document: map[string]any{}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	p.Flush()
	select {
	case <-flushed:
	case <-time.After(2 * time.Second):
		t.Fatalf("manual flush did not run")
	}

	// A remaining partial batch is flushed on close.
	if err := p.Add(context.Background(), BulkOp{Action: BulkDelete, ID: "b"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-flushed:
	case <-time.After(2 * time.Second):
		t.Fatalf("close did not flush the remaining batch")
	}

	if err := p.Add(context.Background(), BulkOp{}); !errors.Is(err, ErrProcessorClosed) {
		t.Fatalf("expected ErrProcessorClosed after close, got %v", err)
	}
	if got := p.Stats().Flushed; got != 2 {
		t.Fatalf("expected 2 flushed operations, got %d", got)
	}
}

func TestBulkProcessor_ConcurrentAddAndClose(t *testing.T) {
	fake := newFakeBackend()
	ops := New(fake, WithAutoCreateIndex(false))

	p := NewBulkProcessor(ops, ProcessorConfig{Index: "articles", FlushActions: 8})

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ; i++ {
				err := p.Add(context.Background(), BulkOp{Action: BulkIndex, ID: "d", Document: map[string]any{}})
				if errors.Is(err, ErrProcessorClosed) {
					return
				}
				if err != nil {
					t.Errorf("add %d: %v", i, err)
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	wg.Wait()

	stats := p.Stats()
	if stats.Flushed != stats.Added {
		t.Fatalf("close lost operations: %+v", stats)
	}
}

func TestBulkProcessor_CountsItemFailures(t *testing.T) {
	fake := newFakeBackend()
	fake.bulkResult = &BulkResult{Items: []BulkItem{
		{Action: BulkIndex, ID: "ok", Status: 200},
		{Action: BulkIndex, ID: "bad", Status: 409, Err: NewError(409, "version_conflict_engine_exception", "conflict")},
	}}
	ops := New(fake, WithAutoCreateIndex(false))

	done := make(chan error, 1)
	p := NewBulkProcessor(ops, ProcessorConfig{
		Index:        "articles",
		FlushActions: 2,
		OnFlush:      func(_ *BulkResult, err error) { done <- err },
	})

	for _, id := range []string{"ok", "bad"} {
		if err := p.Add(context.Background(), BulkOp{Action: BulkIndex, ID: id, Document: map[string]any{}}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	select {
	case err := <-done:
		var bulkErr *BulkError
		if !errors.As(err, &bulkErr) {
			t.Fatalf("expected *BulkError, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("flush did not run")
	}

	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	stats := p.Stats()
	if stats.Failed != 1 || stats.Flushed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

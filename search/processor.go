package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ProcessorConfig tunes a BulkProcessor.
type ProcessorConfig struct {
	// Index receives operations whose own Index is empty.
	Index string
	// FlushActions flushes once the batch reaches this many operations.
	FlushActions int
	// FlushInterval flushes partial batches on a timer.
	FlushInterval time.Duration
	// FlushTimeout bounds each bulk request.
	FlushTimeout time.Duration
	// Workers is the number of concurrent flushes.
	Workers int
	// OnFlush observes every flush outcome; it must not block long.
	OnFlush func(*BulkResult, error)
}

func (c *ProcessorConfig) withDefaults() ProcessorConfig {
	out := *c
	if out.FlushActions <= 0 {
		out.FlushActions = 500
	}
	if out.FlushInterval <= 0 {
		out.FlushInterval = 5 * time.Second
	}
	if out.FlushTimeout <= 0 {
		out.FlushTimeout = 30 * time.Second
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	return out
}

// ProcessorStats are cumulative counters of a BulkProcessor.
type ProcessorStats struct {
	Added   int64
	Flushed int64
	Failed  int64
	Flushes int64
}

var ErrProcessorClosed = errors.New("bulk processor closed")

// BulkProcessor batches operations in the background and flushes them
// by count or interval. Safe for concurrent Add calls.
type BulkProcessor struct {
	ops *Operations
	cfg ProcessorConfig

	in      chan BulkOp
	kick    chan struct{}
	sem     chan struct{}
	loopWg  sync.WaitGroup
	flushWg sync.WaitGroup
	closed  atomic.Bool
	closeMu sync.RWMutex

	added, flushed, failed, flushes atomic.Int64
}

// NewBulkProcessor starts a processor bound to one index.
func NewBulkProcessor(o *Operations, cfg ProcessorConfig) *BulkProcessor {
	c := cfg.withDefaults()
	p := &BulkProcessor{
		ops:  o,
		cfg:  c,
		in:   make(chan BulkOp, c.FlushActions*2),
		kick: make(chan struct{}, 1),
		sem:  make(chan struct{}, c.Workers),
	}
	p.loopWg.Add(1)
	go p.loop()
	return p
}

// Add queues one operation. It blocks only when the buffer is full.
func (p *BulkProcessor) Add(ctx context.Context, op BulkOp) error {
	// The read lock keeps Close from closing the channel between the
	// closed check and the send.
	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed.Load() {
		return ErrProcessorClosed
	}
	select {
	case p.in <- op:
		p.added.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush forces the current batch out without waiting for the timer.
func (p *BulkProcessor) Flush() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Close stops the processor, flushes the remaining batch and waits for
// in-flight flushes, bounded by ctx.
func (p *BulkProcessor) Close(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.closeMu.Lock()
	close(p.in)
	p.closeMu.Unlock()
	p.loopWg.Wait()

	done := make(chan struct{})
	go func() {
		p.flushWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns cumulative counters.
func (p *BulkProcessor) Stats() ProcessorStats {
	return ProcessorStats{
		Added:   p.added.Load(),
		Flushed: p.flushed.Load(),
		Failed:  p.failed.Load(),
		Flushes: p.flushes.Load(),
	}
}

func (p *BulkProcessor) loop() {
	defer p.loopWg.Done()

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]BulkOp, 0, p.cfg.FlushActions)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		p.dispatch(batch)
		batch = make([]BulkOp, 0, p.cfg.FlushActions)
	}
	// drain pulls every already-queued operation into the batch without
	// blocking, so a timer or manual flush never races a queued Add.
	// It reports whether the input channel is still open.
	drain := func() bool {
		for {
			select {
			case op, ok := <-p.in:
				if !ok {
					return false
				}
				batch = append(batch, op)
				if len(batch) >= p.cfg.FlushActions {
					flush()
				}
			default:
				return true
			}
		}
	}

	for {
		select {
		case op, ok := <-p.in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, op)
			if len(batch) >= p.cfg.FlushActions {
				flush()
			}
		case <-ticker.C:
			open := drain()
			flush()
			if !open {
				return
			}
		case <-p.kick:
			open := drain()
			flush()
			if !open {
				return
			}
		}
	}
}

func (p *BulkProcessor) dispatch(batch []BulkOp) {
	p.sem <- struct{}{}
	p.flushWg.Add(1)
	go func(ops []BulkOp) {
		defer func() {
			<-p.sem
			p.flushWg.Done()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.FlushTimeout)
		defer cancel()

		result, err := p.ops.Bulk(ctx, p.cfg.Index, ops)
		p.flushes.Add(1)
		if err != nil {
			var bulkErr *BulkError
			if errors.As(err, &bulkErr) {
				p.failed.Add(int64(len(bulkErr.Items)))
				p.flushed.Add(int64(len(ops) - len(bulkErr.Items)))
			} else {
				p.failed.Add(int64(len(ops)))
			}
			p.ops.log.WithError(err).Warn("bulk flush failed")
		} else {
			p.flushed.Add(int64(len(ops)))
		}
		if p.cfg.OnFlush != nil {
			p.cfg.OnFlush(result, err)
		}
	}(batch)
}

package search

import (
	"context"
	"time"
)

const defaultScrollKeep = 5 * time.Minute

// StreamHit carries either a hit or a terminal error.
type StreamHit struct {
	Hit Hit
	Err error
}

// Stream runs a scrolled search and delivers hits over a channel until
// the result set is exhausted, an error occurs or ctx is cancelled.
// The scroll context is cleared on exit. The channel is always closed.
func (o *Operations) Stream(ctx context.Context, req SearchRequest) <-chan StreamHit {
	if req.Scroll <= 0 {
		req.Scroll = defaultScrollKeep
	}
	out := make(chan StreamHit)

	go func() {
		defer close(out)

		result, err := o.Search(ctx, req)
		if err != nil {
			o.emit(ctx, out, StreamHit{Err: err})
			return
		}
		scrollID := result.ScrollID
		defer func() {
			if scrollID != "" {
				// Clearing uses a fresh context: the stream's may
				// already be cancelled.
				clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := o.ClearScroll(clearCtx, scrollID); err != nil {
					o.log.WithError(err).Debug("failed to clear scroll")
				}
			}
		}()

		for {
			if len(result.Hits) == 0 {
				return
			}
			for _, hit := range result.Hits {
				if !o.emit(ctx, out, StreamHit{Hit: hit}) {
					return
				}
			}
			if result.ScrollID != "" {
				scrollID = result.ScrollID
			}
			result, err = o.Scroll(ctx, scrollID, req.Scroll)
			if err != nil {
				o.emit(ctx, out, StreamHit{Err: err})
				return
			}
		}
	}()

	return out
}

func (o *Operations) emit(ctx context.Context, out chan<- StreamHit, item StreamHit) bool {
	select {
	case out <- item:
		return true
	case <-ctx.Done():
		return false
	}
}

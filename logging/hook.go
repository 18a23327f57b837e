package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink stores one log document in an index. It decouples the hook from
// the operations layer, which itself logs through this package.
type Sink func(ctx context.Context, index string, doc map[string]any) error

// IndexHook is a logrus hook that ships entries to a search index,
// optionally rotating the index daily.
type IndexHook struct {
	sink        Sink
	index       string
	rotateDaily bool
	timeout     time.Duration
	levels      []logrus.Level
}

// HookOption configures an IndexHook.
type HookOption func(*IndexHook)

// WithRotateDaily appends a -2006.01.02 suffix to the index name.
func WithRotateDaily() HookOption {
	return func(h *IndexHook) { h.rotateDaily = true }
}

// WithHookLevels restricts the levels the hook fires for.
func WithHookLevels(levels ...logrus.Level) HookOption {
	return func(h *IndexHook) {
		if len(levels) > 0 {
			h.levels = levels
		}
	}
}

// WithHookTimeout bounds each write. Default is 5s.
func WithHookTimeout(d time.Duration) HookOption {
	return func(h *IndexHook) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewIndexHook builds a hook that writes entries through sink. The
// default levels stop at Info: the operations layer reports its own
// failures at Debug, and shipping those through the same sink would
// loop.
func NewIndexHook(sink Sink, index string, opts ...HookOption) *IndexHook {
	h := &IndexHook{
		sink:    sink,
		index:   index,
		timeout: 5 * time.Second,
		levels: []logrus.Level{
			logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel,
			logrus.WarnLevel, logrus.InfoLevel,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fire implements logrus.Hook.
func (h *IndexHook) Fire(entry *logrus.Entry) error {
	doc := map[string]any{
		"@timestamp": entry.Time.UTC().Format(time.RFC3339Nano),
		"level":      entry.Level.String(),
		"message":    entry.Message,
	}
	for k, v := range entry.Data {
		doc[k] = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	if err := h.sink(ctx, h.indexName(), doc); err != nil {
		return fmt.Errorf("logging: failed to index log entry: %w", err)
	}
	return nil
}

// Levels implements logrus.Hook.
func (h *IndexHook) Levels() []logrus.Level {
	return h.levels
}

func (h *IndexHook) indexName() string {
	if !h.rotateDaily {
		return h.index
	}
	return fmt.Sprintf("%s-%s", h.index, time.Now().Format("2006.01.02"))
}

package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncobase/esodm/logging"
	"github.com/ncobase/esodm/schema"
)

const tracerName = "github.com/ncobase/esodm"

// Operations is the template applications hold: it wraps one backend
// with index-name prefixing, auto index creation, metrics, tracing and
// an optional circuit breaker.
type Operations struct {
	backend    Backend
	collector  Collector
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
	log        *logrus.Entry
	prefix     string
	autoCreate bool
	settings   *schema.IndexSettings
	idGen      schema.IDGenerator

	indexCache map[string]bool
	cacheMu    sync.RWMutex
}

// Option configures Operations.
type Option func(*Operations)

// WithPrefix prepends `prefix-` to every index name.
func WithPrefix(prefix string) Option {
	return func(o *Operations) { o.prefix = prefix }
}

// WithCollector installs a metrics collector.
func WithCollector(c Collector) Option {
	return func(o *Operations) {
		if c != nil {
			o.collector = c
		}
	}
}

// WithAutoCreateIndex controls creating missing indices before writes.
func WithAutoCreateIndex(enabled bool) Option {
	return func(o *Operations) { o.autoCreate = enabled }
}

// WithIndexSettings sets the settings used for auto-created indices.
func WithIndexSettings(s *schema.IndexSettings) Option {
	return func(o *Operations) { o.settings = s }
}

// WithIDGenerator sets the generator for documents saved without an id.
func WithIDGenerator(gen schema.IDGenerator) Option {
	return func(o *Operations) {
		if gen != nil {
			o.idGen = gen
		}
	}
}

// WithBreaker wraps every backend call in a circuit breaker. Pass the
// zero Settings value for the defaults.
func WithBreaker(st gobreaker.Settings) Option {
	return func(o *Operations) {
		if st.Name == "" {
			st.Name = "esodm-" + string(o.backend.Kind())
		}
		o.breaker = gobreaker.NewCircuitBreaker(st)
	}
}

// WithLogger routes operation logging through the given entry.
func WithLogger(entry *logrus.Entry) Option {
	return func(o *Operations) {
		if entry != nil {
			o.log = entry
		}
	}
}

// New wraps a backend in an Operations template.
func New(backend Backend, opts ...Option) *Operations {
	o := &Operations{
		backend:    backend,
		collector:  NoOpCollector{},
		tracer:     otel.Tracer(tracerName),
		autoCreate: true,
		settings:   schema.DefaultIndexSettings(),
		idGen:      schema.DefaultIDGenerator,
		indexCache: make(map[string]bool),
	}
	o.log = logging.Component("search").WithField("backend", string(backend.Kind()))
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Backend returns the wrapped backend.
func (o *Operations) Backend() Backend { return o.backend }

// Kind returns the backend kind.
func (o *Operations) Kind() Kind { return o.backend.Kind() }

// Prefix returns the configured index prefix.
func (o *Operations) Prefix() string { return o.prefix }

// IndexName resolves the full index name, prefix included.
func (o *Operations) IndexName(index string) string {
	if o.prefix == "" {
		return index
	}
	return fmt.Sprintf("%s-%s", o.prefix, index)
}

func (o *Operations) indexNames(indices []string) []string {
	if o.prefix == "" {
		return indices
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = o.IndexName(idx)
	}
	return out
}

// do wraps one backend call with tracing, breaker, metrics and logging.
func (o *Operations) do(ctx context.Context, op, index string, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "esodm."+op, trace.WithAttributes(
		attribute.String("db.system", string(o.backend.Kind())),
		attribute.String("db.operation", op),
		attribute.String("db.index", index),
	))
	defer span.End()

	start := time.Now()
	var err error
	if o.breaker != nil {
		_, err = o.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
	} else {
		err = fn(ctx)
	}
	duration := time.Since(start)

	o.collector.Operation(string(o.backend.Kind()), op, duration, err)
	if err != nil {
		span.RecordError(err)
		o.log.WithFields(logrus.Fields{
			"operation": op,
			"index":     index,
			"duration":  duration,
		}).WithError(err).Debug("operation failed")
	}
	return err
}

// Ping checks backend reachability.
func (o *Operations) Ping(ctx context.Context) error {
	return o.do(ctx, "ping", "", o.backend.Ping)
}

// IndexDoc stores one document, creating the index first when auto
// creation is on and the type's mapping is known.
func (o *Operations) IndexDoc(ctx context.Context, req IndexRequest) (*IndexResult, error) {
	req.Index = o.IndexName(req.Index)
	if err := o.maybeCreateIndex(ctx, req.Index, req.Document); err != nil {
		return nil, err
	}
	var result *IndexResult
	err := o.do(ctx, "index", req.Index, func(ctx context.Context) error {
		var err error
		result, err = o.backend.Index(ctx, req)
		return err
	})
	return result, err
}

// Get fetches one document.
func (o *Operations) Get(ctx context.Context, req GetRequest) (*GetResult, error) {
	req.Index = o.IndexName(req.Index)
	var result *GetResult
	err := o.do(ctx, "get", req.Index, func(ctx context.Context) error {
		var err error
		result, err = o.backend.Get(ctx, req)
		return err
	})
	return result, err
}

// MultiGet fetches several documents from one index.
func (o *Operations) MultiGet(ctx context.Context, index string, ids []string) ([]GetResult, error) {
	index = o.IndexName(index)
	var results []GetResult
	err := o.do(ctx, "mget", index, func(ctx context.Context) error {
		var err error
		results, err = o.backend.MultiGet(ctx, index, ids)
		return err
	})
	return results, err
}

// Exists reports whether a document exists.
func (o *Operations) Exists(ctx context.Context, index, id string) (bool, error) {
	index = o.IndexName(index)
	var exists bool
	err := o.do(ctx, "exists", index, func(ctx context.Context) error {
		var err error
		exists, err = o.backend.Exists(ctx, index, id)
		return err
	})
	return exists, err
}

// Update applies a partial document or script update.
func (o *Operations) Update(ctx context.Context, req UpdateRequest) error {
	req.Index = o.IndexName(req.Index)
	return o.do(ctx, "update", req.Index, func(ctx context.Context) error {
		return o.backend.Update(ctx, req)
	})
}

// Delete removes one document.
func (o *Operations) Delete(ctx context.Context, req DeleteRequest) error {
	req.Index = o.IndexName(req.Index)
	return o.do(ctx, "delete", req.Index, func(ctx context.Context) error {
		return o.backend.Delete(ctx, req)
	})
}

// DeleteByQuery removes every document matching a query body.
func (o *Operations) DeleteByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	indices = o.indexNames(indices)
	var affected int64
	err := o.do(ctx, "delete_by_query", joinIndices(indices), func(ctx context.Context) error {
		var err error
		affected, err = o.backend.DeleteByQuery(ctx, indices, body)
		return err
	})
	return affected, err
}

// UpdateByQuery applies a scripted update to matching documents.
func (o *Operations) UpdateByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	indices = o.indexNames(indices)
	var affected int64
	err := o.do(ctx, "update_by_query", joinIndices(indices), func(ctx context.Context) error {
		var err error
		affected, err = o.backend.UpdateByQuery(ctx, indices, body)
		return err
	})
	return affected, err
}

// Count counts documents matching a query body.
func (o *Operations) Count(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	indices = o.indexNames(indices)
	var count int64
	err := o.do(ctx, "count", joinIndices(indices), func(ctx context.Context) error {
		var err error
		count, err = o.backend.Count(ctx, indices, body)
		return err
	})
	return count, err
}

// Search runs a search request.
func (o *Operations) Search(ctx context.Context, req SearchRequest) (*Result, error) {
	req.Indices = o.indexNames(req.Indices)
	var result *Result
	err := o.do(ctx, "search", joinIndices(req.Indices), func(ctx context.Context) error {
		var err error
		result, err = o.backend.Search(ctx, req)
		return err
	})
	if result != nil {
		result.Backend = o.backend.Kind()
	}
	return result, err
}

// Scroll continues a scroll started by Search with a Scroll duration.
func (o *Operations) Scroll(ctx context.Context, scrollID string, keep time.Duration) (*Result, error) {
	var result *Result
	err := o.do(ctx, "scroll", "", func(ctx context.Context) error {
		var err error
		result, err = o.backend.Scroll(ctx, scrollID, keep)
		return err
	})
	if result != nil {
		result.Backend = o.backend.Kind()
	}
	return result, err
}

// ClearScroll releases a scroll context.
func (o *Operations) ClearScroll(ctx context.Context, scrollID string) error {
	return o.do(ctx, "clear_scroll", "", func(ctx context.Context) error {
		return o.backend.ClearScroll(ctx, scrollID)
	})
}

// Bulk executes a batch of operations against one index. The returned
// error is a *BulkError when only individual items failed.
func (o *Operations) Bulk(ctx context.Context, index string, ops []BulkOp) (*BulkResult, error) {
	index = o.IndexName(index)
	for i := range ops {
		if ops[i].Index != "" {
			ops[i].Index = o.IndexName(ops[i].Index)
		}
	}
	if err := o.maybeCreateIndex(ctx, index, nil); err != nil {
		return nil, err
	}
	var result *BulkResult
	err := o.do(ctx, "bulk", index, func(ctx context.Context) error {
		var err error
		result, err = o.backend.Bulk(ctx, index, ops)
		return err
	})
	if err != nil {
		return result, err
	}
	return result, AsBulkError(result)
}

// maybeCreateIndex creates a missing index before a write when auto
// creation is enabled, deriving mappings from the document type when
// one is available.
func (o *Operations) maybeCreateIndex(ctx context.Context, index string, document any) error {
	if !o.autoCreate {
		return nil
	}

	o.cacheMu.RLock()
	known := o.indexCache[index]
	o.cacheMu.RUnlock()
	if known {
		return nil
	}

	exists, err := o.backend.Indices().Exists(ctx, index)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	if !exists {
		body := map[string]any{"settings": o.settings.Settings()}
		if document != nil {
			if m, err := schema.For(document); err == nil {
				body = m.CreateBody(o.settings)
			}
		}
		if err := o.backend.Indices().Create(ctx, index, body); err != nil {
			if !isExistsErr(err) {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}
		o.log.WithField("index", index).Info("created index")
	}

	o.cacheMu.Lock()
	o.indexCache[index] = true
	o.cacheMu.Unlock()
	return nil
}

// InvalidateIndexCache drops the cached existence flags, e.g. after
// deleting indices out of band.
func (o *Operations) InvalidateIndexCache() {
	o.cacheMu.Lock()
	o.indexCache = make(map[string]bool)
	o.cacheMu.Unlock()
}

func joinIndices(indices []string) string {
	switch len(indices) {
	case 0:
		return ""
	case 1:
		return indices[0]
	}
	return fmt.Sprintf("%s+%d", indices[0], len(indices)-1)
}

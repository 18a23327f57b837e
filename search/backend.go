package search

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Backend is the transport seam: the document, search and index calls
// one client library implements. Driver packages register a Factory in
// their init() and are selected by Kind.
type Backend interface {
	Kind() Kind
	Ping(ctx context.Context) error

	Index(ctx context.Context, req IndexRequest) (*IndexResult, error)
	Get(ctx context.Context, req GetRequest) (*GetResult, error)
	MultiGet(ctx context.Context, index string, ids []string) ([]GetResult, error)
	Exists(ctx context.Context, index, id string) (bool, error)
	Update(ctx context.Context, req UpdateRequest) error
	Delete(ctx context.Context, req DeleteRequest) error
	DeleteByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error)
	UpdateByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error)
	Count(ctx context.Context, indices []string, body map[string]any) (int64, error)

	Search(ctx context.Context, req SearchRequest) (*Result, error)
	Scroll(ctx context.Context, scrollID string, keep time.Duration) (*Result, error)
	ClearScroll(ctx context.Context, scrollID string) error

	Bulk(ctx context.Context, index string, ops []BulkOp) (*BulkResult, error)

	Indices() IndicesBackend
}

// IndicesBackend covers index administration: metadata CRUD, aliases
// and index templates.
type IndicesBackend interface {
	Create(ctx context.Context, index string, body map[string]any) error
	Delete(ctx context.Context, indices ...string) error
	Exists(ctx context.Context, index string) (bool, error)
	Refresh(ctx context.Context, indices ...string) error

	GetMapping(ctx context.Context, index string) (map[string]any, error)
	PutMapping(ctx context.Context, index string, mapping map[string]any) error
	GetSettings(ctx context.Context, index string) (map[string]any, error)
	PutSettings(ctx context.Context, index string, settings map[string]any) error

	UpdateAliases(ctx context.Context, actions []AliasAction) error
	GetAliases(ctx context.Context, index string) (map[string][]string, error)

	PutIndexTemplate(ctx context.Context, name string, body map[string]any) error
	GetIndexTemplate(ctx context.Context, name string) (map[string]any, error)
	DeleteIndexTemplate(ctx context.Context, name string) error
}

// Factory creates a Backend from a driver connection or config value.
// This is called by driver packages in their init() functions.
type Factory func(conn any) (Backend, error)

var (
	factories   = make(map[Kind]Factory)
	factoriesMu sync.RWMutex
)

// RegisterFactory registers a backend factory for a kind.
func RegisterFactory(kind Kind, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[kind] = factory
}

// NewBackend builds a backend of the given kind from a connection
// value the driver understands.
func NewBackend(kind Kind, conn any) (Backend, error) {
	factoriesMu.RLock()
	factory, ok := factories[kind]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, kind)
	}
	return factory(conn)
}

// RegisteredKinds returns the kinds with registered factories.
func RegisteredKinds() []Kind {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	kinds := make([]Kind, 0, len(factories))
	for kind := range factories {
		kinds = append(kinds, kind)
	}
	return kinds
}

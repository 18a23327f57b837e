// Package repository provides a typed persistence facade for one mapped
// entity type. A Repository derives its index name and mappings from the
// entity's struct tags and delegates to a search.Operations template.
package repository

import (
	"context"
	"errors"

	"github.com/ncobase/esodm/mapping"
	"github.com/ncobase/esodm/paging"
	"github.com/ncobase/esodm/query"
	"github.com/ncobase/esodm/schema"
	"github.com/ncobase/esodm/search"
	"github.com/ncobase/esodm/validation"
)

// Repository persists entities of one mapped type.
type Repository[T any] struct {
	ops      *search.Operations
	meta     *schema.Metadata
	index    string
	validate bool
}

// Option configures a Repository.
type Option func(*config)

type config struct {
	index    string
	validate bool
}

// WithIndex overrides the index name derived from the entity type.
func WithIndex(name string) Option {
	return func(c *config) { c.index = name }
}

// WithValidation validates entities before every write.
func WithValidation() Option {
	return func(c *config) { c.validate = true }
}

// New builds a repository for T. T must be a mapped struct type.
func New[T any](ops *search.Operations, opts ...Option) (*Repository[T], error) {
	var zero T
	meta, err := schema.For(&zero)
	if err != nil {
		return nil, err
	}

	cfg := config{index: meta.Index}
	if idx, ok := any(&zero).(schema.Indexed); ok {
		if name := idx.IndexName(); name != "" {
			cfg.index = name
		}
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Repository[T]{
		ops:      ops,
		meta:     meta,
		index:    cfg.index,
		validate: cfg.validate,
	}, nil
}

// Index returns the logical index name, before prefixing.
func (r *Repository[T]) Index() string { return r.index }

// Operations exposes the underlying template for calls the repository
// does not cover.
func (r *Repository[T]) Operations() *search.Operations { return r.ops }

// EnsureIndex creates the index with type-derived settings and mappings
// when it does not exist yet.
func (r *Repository[T]) EnsureIndex(ctx context.Context) error {
	io := r.ops.Indices(r.index)
	exists, err := io.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = io.CreateForType(ctx, new(T), nil)
	if err != nil && errors.Is(err, search.ErrIndexExists) {
		return nil
	}
	return err
}

// Refresh makes recent writes searchable.
func (r *Repository[T]) Refresh(ctx context.Context) error {
	return r.ops.Indices(r.index).Refresh(ctx)
}

// Save indexes one entity, generating an id when needed and writing the
// assigned id and version back into the entity.
func (r *Repository[T]) Save(ctx context.Context, entity *T) (*search.IndexResult, error) {
	if r.validate {
		if err := validation.Validate(entity); err != nil {
			return nil, err
		}
	}
	return search.Save(ctx, r.ops, entity)
}

// SaveAll indexes entities through one bulk request.
func (r *Repository[T]) SaveAll(ctx context.Context, entities []*T) (*search.BulkResult, error) {
	if r.validate {
		for _, entity := range entities {
			if err := validation.Validate(entity); err != nil {
				return nil, err
			}
		}
	}
	return search.SaveAll(ctx, r.ops, entities)
}

// Get fetches one entity by id. Missing documents return ErrNotFound.
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	return search.GetAs[T](ctx, r.ops, id, r.index)
}

// MultiGet fetches several entities by id. Missing ids are skipped.
func (r *Repository[T]) MultiGet(ctx context.Context, ids []string) ([]*T, error) {
	results, err := r.ops.MultiGet(ctx, r.index, ids)
	if err != nil {
		return nil, err
	}
	entities := make([]*T, 0, len(results))
	for _, res := range results {
		if !res.Found {
			continue
		}
		entity := new(T)
		if err := mapping.Decode(res.Source, entity); err != nil {
			return nil, err
		}
		if r.meta.IDField() != nil {
			_ = mapping.SetID(entity, res.ID)
		}
		mapping.SetVersion(entity, res.Version)
		entities = append(entities, entity)
	}
	return entities, nil
}

// Exists reports whether a document with the id exists.
func (r *Repository[T]) Exists(ctx context.Context, id string) (bool, error) {
	return r.ops.Exists(ctx, r.index, id)
}

// Update applies a partial document update to one entity.
func (r *Repository[T]) Update(ctx context.Context, id string, doc map[string]any) error {
	return r.ops.Update(ctx, search.UpdateRequest{Index: r.index, ID: id, Doc: doc})
}

// UpdateScript applies a scripted update to one entity.
func (r *Repository[T]) UpdateScript(ctx context.Context, id string, script *search.Script) error {
	return r.ops.Update(ctx, search.UpdateRequest{Index: r.index, ID: id, Script: script})
}

// Delete removes one entity by id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.ops.Delete(ctx, search.DeleteRequest{Index: r.index, ID: id})
}

// DeleteByQuery removes every entity matching the query.
func (r *Repository[T]) DeleteByQuery(ctx context.Context, q query.Query) (int64, error) {
	return r.ops.DeleteByQuery(ctx, []string{r.index}, map[string]any{"query": q})
}

// DeleteAll removes every entity in the index.
func (r *Repository[T]) DeleteAll(ctx context.Context) (int64, error) {
	return r.DeleteByQuery(ctx, query.MatchAll())
}

// Count counts entities, optionally narrowed by a query.
func (r *Repository[T]) Count(ctx context.Context, q ...query.Query) (int64, error) {
	var body map[string]any
	if len(q) > 0 {
		body = map[string]any{"query": q[0]}
	}
	return r.ops.Count(ctx, []string{r.index}, body)
}

// Search runs a query and decodes the hits into entities.
func (r *Repository[T]) Search(ctx context.Context, src *query.Source) (*search.TypedResult[T], error) {
	return search.Search[T](ctx, r.ops, src, r.index)
}

// SearchPage runs a from/size paged search.
func (r *Repository[T]) SearchPage(ctx context.Context, src *query.Source, page, size int) (*search.Page[T], error) {
	return search.SearchPage[T](ctx, r.ops, src, page, size, r.index)
}

// Paginate pages through results with search_after cursors. The source
// should carry a deterministic sort; _doc order is used when it does
// not.
func (r *Repository[T]) Paginate(ctx context.Context, src *query.Source, params paging.Params) (*paging.Result[*T], error) {
	return paging.Paginate(params, func(searchAfter []any, limit int) ([]*T, int64, [][]any, error) {
		body := src.Build()
		if _, ok := body["sort"]; !ok {
			body["sort"] = []any{"_doc"}
		}
		body["size"] = limit
		if len(searchAfter) > 0 {
			body["search_after"] = searchAfter
		} else {
			delete(body, "search_after")
		}

		result, err := r.ops.Search(ctx, search.SearchRequest{Indices: []string{r.index}, Body: body})
		if err != nil {
			return nil, 0, nil, err
		}

		items := make([]*T, 0, len(result.Hits))
		sorts := make([][]any, 0, len(result.Hits))
		for _, hit := range result.Hits {
			entity := new(T)
			if len(hit.Source) > 0 {
				if err := mapping.Decode(hit.Source, entity); err != nil {
					return nil, 0, nil, err
				}
			}
			if r.meta.IDField() != nil && hit.ID != "" {
				_ = mapping.SetID(entity, hit.ID)
			}
			items = append(items, entity)
			sorts = append(sorts, hit.Sort)
		}
		return items, result.Total, sorts, nil
	})
}

// Item is one element of an iteration stream.
type Item[T any] struct {
	Entity *T
	Err    error
}

// Iterate streams every matching entity through a channel, scrolling
// under the hood. The channel closes when the result set is exhausted,
// an error is emitted, or ctx is done.
func (r *Repository[T]) Iterate(ctx context.Context, src *query.Source) <-chan Item[T] {
	out := make(chan Item[T])
	hits := r.ops.Stream(ctx, search.SearchRequest{Indices: []string{r.index}, Body: src.Build()})

	go func() {
		defer close(out)
		for sh := range hits {
			if sh.Err != nil {
				select {
				case out <- Item[T]{Err: sh.Err}:
				case <-ctx.Done():
				}
				return
			}
			entity := new(T)
			if len(sh.Hit.Source) > 0 {
				if err := mapping.Decode(sh.Hit.Source, entity); err != nil {
					select {
					case out <- Item[T]{Err: err}:
					case <-ctx.Done():
					}
					return
				}
			}
			if r.meta.IDField() != nil && sh.Hit.ID != "" {
				_ = mapping.SetID(entity, sh.Hit.ID)
			}
			select {
			case out <- Item[T]{Entity: entity}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

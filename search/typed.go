package search

import (
	"context"
	"fmt"

	"github.com/ncobase/esodm/mapping"
	"github.com/ncobase/esodm/query"
	"github.com/ncobase/esodm/schema"
)

// TypedHit pairs a decoded entity with its hit metadata.
type TypedHit[T any] struct {
	Entity    *T
	ID        string
	Score     float64
	Highlight map[string][]string
	Sort      []any
}

// TypedResult is a search result with entities decoded from _source.
type TypedResult[T any] struct {
	Total        int64
	MaxScore     float64
	Hits         []TypedHit[T]
	Aggregations map[string]any
	ScrollID     string
}

// Page is one page of decoded entities.
type Page[T any] struct {
	Items      []*T
	Total      int64
	Page       int // zero based
	Size       int
	TotalPages int
}

// HasNext reports whether another page follows.
func (p *Page[T]) HasNext() bool { return p.Page+1 < p.TotalPages }

// Search runs a query against the indices mapped for T and decodes the
// hits into entities. Hit metadata (_id, _version) is written back into
// the entity's tagged fields.
func Search[T any](ctx context.Context, o *Operations, src *query.Source, indices ...string) (*TypedResult[T], error) {
	var zero T
	meta, err := schema.For(&zero)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		indices = []string{indexNameFor(&zero, meta)}
	}

	result, err := o.Search(ctx, SearchRequest{Indices: indices, Body: src.Build()})
	if err != nil {
		return nil, err
	}
	return decodeTyped[T](result, meta)
}

func decodeTyped[T any](result *Result, meta *schema.Metadata) (*TypedResult[T], error) {
	typed := &TypedResult[T]{
		Total:    result.Total,
		MaxScore: result.MaxScore,
		Hits:     make([]TypedHit[T], 0, len(result.Hits)),
		ScrollID: result.ScrollID,
	}
	if len(result.Aggregations) > 0 {
		typed.Aggregations = make(map[string]any, len(result.Aggregations))
		for name, raw := range result.Aggregations {
			typed.Aggregations[name] = raw
		}
	}
	for _, hit := range result.Hits {
		entity := new(T)
		if len(hit.Source) > 0 {
			if err := mapping.Decode(hit.Source, entity); err != nil {
				return nil, fmt.Errorf("decode hit %s: %w", hit.ID, err)
			}
		}
		applyHitMetadata(entity, hit, meta)
		typed.Hits = append(typed.Hits, TypedHit[T]{
			Entity:    entity,
			ID:        hit.ID,
			Score:     hit.Score,
			Highlight: hit.Highlight,
			Sort:      hit.Sort,
		})
	}
	return typed, nil
}

// SearchPage runs a from/size paged search and decodes one page.
func SearchPage[T any](ctx context.Context, o *Operations, src *query.Source, page, size int, indices ...string) (*Page[T], error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	src.From(page * size).Size(size)

	result, err := Search[T](ctx, o, src, indices...)
	if err != nil {
		return nil, err
	}
	items := make([]*T, len(result.Hits))
	for i, hit := range result.Hits {
		items[i] = hit.Entity
	}
	totalPages := int((result.Total + int64(size) - 1) / int64(size))
	return &Page[T]{
		Items:      items,
		Total:      result.Total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
	}, nil
}

// GetAs fetches one document and decodes it into T. ErrNotFound is
// returned for missing documents.
func GetAs[T any](ctx context.Context, o *Operations, id string, index ...string) (*T, error) {
	entity := new(T)
	meta, err := schema.For(entity)
	if err != nil {
		return nil, err
	}
	idx := indexNameFor(entity, meta)
	if len(index) > 0 {
		idx = index[0]
	}

	result, err := o.Get(ctx, GetRequest{Index: idx, ID: id})
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Found {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, idx, id)
	}
	if err := mapping.Decode(result.Source, entity); err != nil {
		return nil, err
	}
	if meta.IDField() != nil {
		_ = mapping.SetID(entity, result.ID)
	}
	mapping.SetVersion(entity, result.Version)
	return entity, nil
}

// Save indexes one entity: the index name comes from the type, the id
// from the id-tagged field (generated when empty) and the body from the
// mapped fields. The assigned id is written back into the entity.
func Save[T any](ctx context.Context, o *Operations, entity *T) (*IndexResult, error) {
	meta, err := schema.For(entity)
	if err != nil {
		return nil, err
	}

	id := ""
	if meta.IDField() != nil {
		id, err = mapping.ID(entity)
		if err != nil {
			return nil, err
		}
		if id == "" {
			id = o.idGen()
			if err := mapping.SetID(entity, id); err != nil {
				return nil, err
			}
		}
	}

	doc, err := mapping.Encode(entity)
	if err != nil {
		return nil, err
	}

	result, err := o.IndexDoc(ctx, IndexRequest{
		Index:    indexNameFor(entity, meta),
		ID:       id,
		Routing:  mapping.Routing(entity),
		Document: doc,
	})
	if err != nil {
		return nil, err
	}
	if result != nil {
		if meta.IDField() != nil && result.ID != "" {
			_ = mapping.SetID(entity, result.ID)
		}
		mapping.SetVersion(entity, result.Version)
	}
	return result, nil
}

// SaveAll indexes entities through one bulk request. Ids are generated
// for entities that lack one. Item failures surface as a *BulkError.
func SaveAll[T any](ctx context.Context, o *Operations, entities []*T) (*BulkResult, error) {
	if len(entities) == 0 {
		return &BulkResult{}, nil
	}
	meta, err := schema.For(entities[0])
	if err != nil {
		return nil, err
	}
	index := indexNameFor(entities[0], meta)

	ops := make([]BulkOp, 0, len(entities))
	for _, entity := range entities {
		id := ""
		if meta.IDField() != nil {
			id, err = mapping.ID(entity)
			if err != nil {
				return nil, err
			}
			if id == "" {
				id = o.idGen()
				if err := mapping.SetID(entity, id); err != nil {
					return nil, err
				}
			}
		}
		doc, err := mapping.Encode(entity)
		if err != nil {
			return nil, err
		}
		ops = append(ops, BulkOp{
			Action:   BulkIndex,
			ID:       id,
			Routing:  mapping.Routing(entity),
			Document: doc,
		})
	}
	return o.Bulk(ctx, index, ops)
}

func applyHitMetadata[T any](entity *T, hit Hit, meta *schema.Metadata) {
	if meta.IDField() != nil && hit.ID != "" {
		_ = mapping.SetID(entity, hit.ID)
	}
	if hit.Version > 0 {
		mapping.SetVersion(entity, hit.Version)
	}
}

func indexNameFor(entity any, meta *schema.Metadata) string {
	if idx, ok := entity.(schema.Indexed); ok {
		if name := idx.IndexName(); name != "" {
			return name
		}
	}
	return meta.Index
}

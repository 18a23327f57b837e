package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/ncobase/esodm/schema"
)

// IndexOperations administers one index: creation, mappings, settings,
// aliases and refresh. Obtain one from Operations.Indices.
type IndexOperations struct {
	ops   *Operations
	index string // full name, prefix applied
}

// Indices returns the administration facade for an index.
func (o *Operations) Indices(index string) *IndexOperations {
	return &IndexOperations{ops: o, index: o.IndexName(index)}
}

// Name returns the full index name.
func (io *IndexOperations) Name() string { return io.index }

// Create creates the index with an optional body of settings/mappings.
func (io *IndexOperations) Create(ctx context.Context, body map[string]any) error {
	return io.ops.do(ctx, "indices.create", io.index, func(ctx context.Context) error {
		return io.ops.backend.Indices().Create(ctx, io.index, body)
	})
}

// CreateForType creates the index with settings and mappings derived
// from a mapped struct type.
func (io *IndexOperations) CreateForType(ctx context.Context, entity any, settings *schema.IndexSettings) error {
	m, err := schema.For(entity)
	if err != nil {
		return err
	}
	if settings == nil {
		settings = io.ops.settings
	}
	return io.Create(ctx, m.CreateBody(settings))
}

// EnsureCreated creates the index when missing; an existing index is
// not an error.
func (io *IndexOperations) EnsureCreated(ctx context.Context, body map[string]any) error {
	exists, err := io.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = io.Create(ctx, body)
	if err != nil && errors.Is(err, ErrIndexExists) {
		return nil
	}
	return err
}

// Delete removes the index.
func (io *IndexOperations) Delete(ctx context.Context) error {
	err := io.ops.do(ctx, "indices.delete", io.index, func(ctx context.Context) error {
		return io.ops.backend.Indices().Delete(ctx, io.index)
	})
	if err == nil {
		io.ops.InvalidateIndexCache()
	}
	return err
}

// Exists reports whether the index exists.
func (io *IndexOperations) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := io.ops.do(ctx, "indices.exists", io.index, func(ctx context.Context) error {
		var err error
		exists, err = io.ops.backend.Indices().Exists(ctx, io.index)
		return err
	})
	return exists, err
}

// Refresh makes recent writes searchable.
func (io *IndexOperations) Refresh(ctx context.Context) error {
	return io.ops.do(ctx, "indices.refresh", io.index, func(ctx context.Context) error {
		return io.ops.backend.Indices().Refresh(ctx, io.index)
	})
}

// GetMapping fetches the current mapping.
func (io *IndexOperations) GetMapping(ctx context.Context) (map[string]any, error) {
	var mapping map[string]any
	err := io.ops.do(ctx, "indices.get_mapping", io.index, func(ctx context.Context) error {
		var err error
		mapping, err = io.ops.backend.Indices().GetMapping(ctx, io.index)
		return err
	})
	return mapping, err
}

// PutMapping updates the mapping in place. Only additive changes are
// accepted by the cluster.
func (io *IndexOperations) PutMapping(ctx context.Context, mapping map[string]any) error {
	return io.ops.do(ctx, "indices.put_mapping", io.index, func(ctx context.Context) error {
		return io.ops.backend.Indices().PutMapping(ctx, io.index, mapping)
	})
}

// PutMappingForType updates the mapping from a mapped struct type.
func (io *IndexOperations) PutMappingForType(ctx context.Context, entity any) error {
	m, err := schema.For(entity)
	if err != nil {
		return err
	}
	return io.PutMapping(ctx, m.Mapping())
}

// GetSettings fetches the current settings.
func (io *IndexOperations) GetSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	err := io.ops.do(ctx, "indices.get_settings", io.index, func(ctx context.Context) error {
		var err error
		settings, err = io.ops.backend.Indices().GetSettings(ctx, io.index)
		return err
	})
	return settings, err
}

// PutSettings updates dynamic settings.
func (io *IndexOperations) PutSettings(ctx context.Context, settings map[string]any) error {
	return io.ops.do(ctx, "indices.put_settings", io.index, func(ctx context.Context) error {
		return io.ops.backend.Indices().PutSettings(ctx, io.index, settings)
	})
}

// AddAlias points an alias at the index.
func (io *IndexOperations) AddAlias(ctx context.Context, alias string) error {
	return io.updateAliases(ctx, []AliasAction{{Type: "add", Index: io.index, Alias: alias}})
}

// RemoveAlias removes an alias from the index.
func (io *IndexOperations) RemoveAlias(ctx context.Context, alias string) error {
	return io.updateAliases(ctx, []AliasAction{{Type: "remove", Index: io.index, Alias: alias}})
}

// SwapAlias atomically moves an alias from another index to this one,
// the zero-downtime reindex handover.
func (io *IndexOperations) SwapAlias(ctx context.Context, alias, fromIndex string) error {
	return io.updateAliases(ctx, []AliasAction{
		{Type: "remove", Index: io.ops.IndexName(fromIndex), Alias: alias},
		{Type: "add", Index: io.index, Alias: alias},
	})
}

func (io *IndexOperations) updateAliases(ctx context.Context, actions []AliasAction) error {
	return io.ops.do(ctx, "indices.update_aliases", io.index, func(ctx context.Context) error {
		return io.ops.backend.Indices().UpdateAliases(ctx, actions)
	})
}

// Aliases lists the aliases of the index.
func (io *IndexOperations) Aliases(ctx context.Context) ([]string, error) {
	var aliases []string
	err := io.ops.do(ctx, "indices.get_alias", io.index, func(ctx context.Context) error {
		byIndex, err := io.ops.backend.Indices().GetAliases(ctx, io.index)
		if err != nil {
			return err
		}
		aliases = byIndex[io.index]
		return nil
	})
	return aliases, err
}

// PutTemplate stores a composable index template on the cluster. The
// template name is not prefixed; patterns inside the body should be.
func (o *Operations) PutTemplate(ctx context.Context, name string, body map[string]any) error {
	return o.do(ctx, "indices.put_index_template", name, func(ctx context.Context) error {
		return o.backend.Indices().PutIndexTemplate(ctx, name, body)
	})
}

// GetTemplate fetches an index template.
func (o *Operations) GetTemplate(ctx context.Context, name string) (map[string]any, error) {
	var body map[string]any
	err := o.do(ctx, "indices.get_index_template", name, func(ctx context.Context) error {
		var err error
		body, err = o.backend.Indices().GetIndexTemplate(ctx, name)
		return err
	})
	return body, err
}

// DeleteTemplate removes an index template.
func (o *Operations) DeleteTemplate(ctx context.Context, name string) error {
	return o.do(ctx, "indices.delete_index_template", name, func(ctx context.Context) error {
		return o.backend.Indices().DeleteIndexTemplate(ctx, name)
	})
}

// TemplateForType renders an index template body that applies a mapped
// struct's mappings to every index matching the patterns.
func TemplateForType(entity any, settings *schema.IndexSettings, patterns ...string) (map[string]any, error) {
	m, err := schema.For(entity)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		patterns = []string{fmt.Sprintf("%s*", m.Index)}
	}
	tmpl := map[string]any{
		"index_patterns": patterns,
		"template":       m.CreateBody(settings),
	}
	return tmpl, nil
}

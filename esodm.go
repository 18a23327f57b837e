// Package esodm maps annotated Go structs to Elasticsearch documents
// and exposes typed document, search and index administration
// operations over interchangeable backend drivers.
package esodm

import (
	"context"
	"fmt"

	"github.com/ncobase/esodm/config"
	"github.com/ncobase/esodm/logging"
	"github.com/ncobase/esodm/schema"
	"github.com/ncobase/esodm/search"
	"github.com/ncobase/esodm/search/elastic"
	"github.com/ncobase/esodm/search/elastic7"
	"github.com/ncobase/esodm/search/opensearch"
)

// Open connects the configured default backend and wraps it in an
// operations template carrying the configured prefix, auto creation and
// index settings. Extra options are applied on top.
func Open(cfg *config.Config, opts ...search.Option) (*search.Operations, error) {
	backend, err := OpenBackend(search.Kind(cfg.DefaultBackend), cfg)
	if err != nil {
		return nil, err
	}

	options := []search.Option{
		search.WithPrefix(cfg.IndexPrefix),
		search.WithAutoCreateIndex(cfg.AutoCreateIndex),
		search.WithIndexSettings(indexSettings(cfg.IndexSettings)),
	}
	options = append(options, opts...)
	return search.New(backend, options...), nil
}

// OpenBackend connects one backend kind using its config section.
func OpenBackend(kind search.Kind, cfg *config.Config) (search.Backend, error) {
	switch kind {
	case search.KindElasticsearch:
		if cfg.Elasticsearch == nil {
			return nil, fmt.Errorf("no elasticsearch configuration")
		}
		return search.NewBackend(kind, &elastic.Config{
			Addresses:  cfg.Elasticsearch.Addresses,
			Username:   cfg.Elasticsearch.Username,
			Password:   cfg.Elasticsearch.Password,
			CloudID:    cfg.Elasticsearch.CloudID,
			APIKey:     cfg.Elasticsearch.APIKey,
			MaxRetries: cfg.Elasticsearch.MaxRetries,
		})
	case search.KindElasticsearch7:
		if cfg.Elasticsearch7 == nil {
			return nil, fmt.Errorf("no elasticsearch7 configuration")
		}
		return search.NewBackend(kind, &elastic7.Config{
			Addresses:  cfg.Elasticsearch7.Addresses,
			Username:   cfg.Elasticsearch7.Username,
			Password:   cfg.Elasticsearch7.Password,
			MaxRetries: cfg.Elasticsearch7.MaxRetries,
		})
	case search.KindOpenSearch:
		if cfg.OpenSearch == nil {
			return nil, fmt.Errorf("no opensearch configuration")
		}
		return search.NewBackend(kind, &opensearch.Config{
			Addresses:  cfg.OpenSearch.Addresses,
			Username:   cfg.OpenSearch.Username,
			Password:   cfg.OpenSearch.Password,
			Insecure:   cfg.OpenSearch.InsecureSkipTLS,
			MaxRetries: cfg.OpenSearch.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("%w: %s", search.ErrBackendNotFound, kind)
	}
}

// NewLogHook builds a logrus hook that ships application log entries
// into an index through ops, so logs land next to the documents they
// describe. Attach it with logrus.AddHook.
func NewLogHook(ops *search.Operations, index string, opts ...logging.HookOption) *logging.IndexHook {
	sink := func(ctx context.Context, index string, doc map[string]any) error {
		_, err := ops.IndexDoc(ctx, search.IndexRequest{Index: index, Document: doc})
		return err
	}
	return logging.NewIndexHook(sink, index, opts...)
}

func indexSettings(s *config.IndexSettings) *schema.IndexSettings {
	out := schema.DefaultIndexSettings()
	if s == nil {
		return out
	}
	if s.Shards > 0 {
		out.Shards = s.Shards
	}
	if s.Replicas >= 0 {
		out.Replicas = s.Replicas
	}
	if s.RefreshInterval != "" {
		out.RefreshInterval = s.RefreshInterval
	}
	return out
}

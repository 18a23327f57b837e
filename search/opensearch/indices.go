package opensearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/ncobase/esodm/search"
)

// Indices returns the index administration surface.
func (b *Backend) Indices() search.IndicesBackend {
	return (*indicesBackend)(b)
}

type indicesBackend Backend

func (ib *indicesBackend) backend() *Backend { return (*Backend)(ib) }

func (ib *indicesBackend) Create(ctx context.Context, index string, body map[string]any) error {
	if ib.client == nil {
		return errors.New("opensearch client is nil")
	}
	createReq := opensearchapi.IndicesCreateReq{Index: index}
	if len(body) > 0 {
		reader, err := jsonBody(body)
		if err != nil {
			return err
		}
		createReq.Body = reader
	}
	if _, err := ib.client.Indices.Create(ctx, createReq); err != nil {
		var structErr *opensearch.StructError
		if errors.As(err, &structErr) && structErr.Err.Type == "resource_already_exists_exception" {
			return fmt.Errorf("%s: %w", structErr.Err.Type, search.ErrIndexExists)
		}
		return fmt.Errorf("opensearch create index error: %w", err)
	}
	return nil
}

func (ib *indicesBackend) Delete(ctx context.Context, indices ...string) error {
	if ib.client == nil {
		return errors.New("opensearch client is nil")
	}
	deleteReq := opensearchapi.IndicesDeleteReq{Indices: indices}
	if _, err := ib.client.Indices.Delete(ctx, deleteReq); err != nil {
		var structErr *opensearch.StructError
		if errors.As(err, &structErr) && structErr.Err.Type == "index_not_found_exception" {
			return fmt.Errorf("%s: %w", structErr.Err.Type, search.ErrIndexNotFound)
		}
		return fmt.Errorf("opensearch delete index error: %w", err)
	}
	return nil
}

func (ib *indicesBackend) Exists(ctx context.Context, index string) (bool, error) {
	if ib.client == nil {
		return false, errors.New("opensearch client is nil")
	}
	existsReq := opensearchapi.IndicesExistsReq{Indices: []string{index}}
	res, err := ib.client.Indices.Exists(ctx, existsReq)
	if err != nil {
		if res != nil && res.StatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("opensearch index exists error: %w", err)
	}
	return res.StatusCode == 200, nil
}

func (ib *indicesBackend) Refresh(ctx context.Context, indices ...string) error {
	return ib.backend().doDiscard(ctx, rawRequest{method: "POST", path: indexPath(indices, "/_refresh")})
}

func (ib *indicesBackend) GetMapping(ctx context.Context, index string) (map[string]any, error) {
	res, err := ib.backend().do(ctx, rawRequest{method: "GET", path: "/" + index + "/_mapping"})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeIndexSection(res.Body, index, "mappings")
}

func (ib *indicesBackend) PutMapping(ctx context.Context, index string, mapping map[string]any) error {
	reader, err := jsonBody(mapping)
	if err != nil {
		return err
	}
	return ib.backend().doDiscard(ctx, rawRequest{method: "PUT", path: "/" + index + "/_mapping", body: reader})
}

func (ib *indicesBackend) GetSettings(ctx context.Context, index string) (map[string]any, error) {
	res, err := ib.backend().do(ctx, rawRequest{method: "GET", path: "/" + index + "/_settings"})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeIndexSection(res.Body, index, "settings")
}

func (ib *indicesBackend) PutSettings(ctx context.Context, index string, settings map[string]any) error {
	reader, err := jsonBody(settings)
	if err != nil {
		return err
	}
	return ib.backend().doDiscard(ctx, rawRequest{method: "PUT", path: "/" + index + "/_settings", body: reader})
}

func (ib *indicesBackend) UpdateAliases(ctx context.Context, actions []search.AliasAction) error {
	reader, err := jsonBody(search.AliasActionsBody(actions))
	if err != nil {
		return err
	}
	return ib.backend().doDiscard(ctx, rawRequest{method: "POST", path: "/_aliases", body: reader})
}

func (ib *indicesBackend) GetAliases(ctx context.Context, index string) (map[string][]string, error) {
	res, err := ib.backend().do(ctx, rawRequest{method: "GET", path: "/" + index + "/_alias"})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeAliasesResponse(res.Body)
}

func (ib *indicesBackend) PutIndexTemplate(ctx context.Context, name string, body map[string]any) error {
	reader, err := jsonBody(body)
	if err != nil {
		return err
	}
	return ib.backend().doDiscard(ctx, rawRequest{
		method: "PUT",
		path:   "/_index_template/" + url.PathEscape(name),
		body:   reader,
	})
}

func (ib *indicesBackend) GetIndexTemplate(ctx context.Context, name string) (map[string]any, error) {
	res, err := ib.backend().do(ctx, rawRequest{method: "GET", path: "/_index_template/" + url.PathEscape(name)})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("opensearch parsing error: %w", err)
	}
	return out, nil
}

func (ib *indicesBackend) DeleteIndexTemplate(ctx context.Context, name string) error {
	return ib.backend().doDiscard(ctx, rawRequest{method: "DELETE", path: "/_index_template/" + url.PathEscape(name)})
}

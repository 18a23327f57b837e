package elastic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ncobase/esodm/search"
)

// Indices returns the index administration surface.
func (b *Backend) Indices() search.IndicesBackend {
	return (*indicesBackend)(b)
}

type indicesBackend Backend

func (ib *indicesBackend) backend() *Backend { return (*Backend)(ib) }

func (ib *indicesBackend) Create(ctx context.Context, index string, body map[string]any) error {
	apiReq := esapi.IndicesCreateRequest{Index: index}
	if len(body) > 0 {
		reader, err := jsonBody(body)
		if err != nil {
			return err
		}
		apiReq.Body = reader
	}
	return ib.backend().performDiscard(ctx, apiReq)
}

func (ib *indicesBackend) Delete(ctx context.Context, indices ...string) error {
	return ib.backend().performDiscard(ctx, esapi.IndicesDeleteRequest{Index: indices})
}

func (ib *indicesBackend) Exists(ctx context.Context, index string) (bool, error) {
	res, err := ib.backend().performRaw(ctx, esapi.IndicesExistsRequest{Index: []string{index}})
	if err != nil {
		return false, err
	}
	defer closeBody(res.Body)
	return res.StatusCode == 200, nil
}

func (ib *indicesBackend) Refresh(ctx context.Context, indices ...string) error {
	return ib.backend().performDiscard(ctx, esapi.IndicesRefreshRequest{Index: indices})
}

func (ib *indicesBackend) GetMapping(ctx context.Context, index string) (map[string]any, error) {
	res, err := ib.backend().perform(ctx, esapi.IndicesGetMappingRequest{Index: []string{index}})
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
	return ib.backend().performDiscard(ctx, esapi.IndicesPutMappingRequest{
		Index: []string{index},
		Body:  reader,
	})
}

func (ib *indicesBackend) GetSettings(ctx context.Context, index string) (map[string]any, error) {
	res, err := ib.backend().perform(ctx, esapi.IndicesGetSettingsRequest{Index: []string{index}})
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
	return ib.backend().performDiscard(ctx, esapi.IndicesPutSettingsRequest{
		Index: []string{index},
		Body:  reader,
	})
}

func (ib *indicesBackend) UpdateAliases(ctx context.Context, actions []search.AliasAction) error {
	reader, err := jsonBody(search.AliasActionsBody(actions))
	if err != nil {
		return err
	}
	return ib.backend().performDiscard(ctx, esapi.IndicesUpdateAliasesRequest{Body: reader})
}

func (ib *indicesBackend) GetAliases(ctx context.Context, index string) (map[string][]string, error) {
	res, err := ib.backend().perform(ctx, esapi.IndicesGetAliasRequest{Index: []string{index}})
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
	return ib.backend().performDiscard(ctx, esapi.IndicesPutIndexTemplateRequest{
		Name: name,
		Body: reader,
	})
}

func (ib *indicesBackend) GetIndexTemplate(ctx context.Context, name string) (map[string]any, error) {
	res, err := ib.backend().perform(ctx, esapi.IndicesGetIndexTemplateRequest{Name: name})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("elasticsearch parsing error: %w", err)
	}
	return out, nil
}

func (ib *indicesBackend) DeleteIndexTemplate(ctx context.Context, name string) error {
	return ib.backend().performDiscard(ctx, esapi.IndicesDeleteIndexTemplateRequest{Name: name})
}

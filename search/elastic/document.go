package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ncobase/esodm/search"
)

func jsonBody(v any) (io.Reader, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("error encoding body: %w", err)
	}
	return &buf, nil
}

func refreshParam(refresh bool) string {
	if refresh {
		return "true"
	}
	return ""
}

func intPtr(v *int64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

// Index stores one document.
func (b *Backend) Index(ctx context.Context, req search.IndexRequest) (*search.IndexResult, error) {
	body, err := jsonBody(req.Document)
	if err != nil {
		return nil, err
	}

	apiReq := esapi.IndexRequest{
		Index:         req.Index,
		DocumentID:    req.ID,
		Body:          body,
		Routing:       req.Routing,
		Refresh:       refreshParam(req.Refresh),
		IfSeqNo:       intPtr(req.IfSeqNo),
		IfPrimaryTerm: intPtr(req.IfPrimaryTerm),
	}
	if req.OpTypeCreate {
		apiReq.OpType = "create"
	}

	res, err := b.perform(ctx, apiReq)
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeIndexResponse(res.Body)
}

// Get fetches one document; a missing document reports Found=false.
func (b *Backend) Get(ctx context.Context, req search.GetRequest) (*search.GetResult, error) {
	res, err := b.performRaw(ctx, esapi.GetRequest{
		Index:      req.Index,
		DocumentID: req.ID,
		Routing:    req.Routing,
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)

	if res.StatusCode == 404 {
		return &search.GetResult{Found: false, Index: req.Index, ID: req.ID}, nil
	}
	if res.IsError() {
		return nil, search.DecodeErrorResponse(res.StatusCode, res.Body)
	}
	return search.DecodeGetResponse(res.Body)
}

// MultiGet fetches several documents by id from one index.
func (b *Backend) MultiGet(ctx context.Context, index string, ids []string) ([]search.GetResult, error) {
	body, err := jsonBody(map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	res, err := b.perform(ctx, esapi.MgetRequest{Index: index, Body: body})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeMultiGetResponse(res.Body)
}

// Exists reports whether a document exists.
func (b *Backend) Exists(ctx context.Context, index, id string) (bool, error) {
	res, err := b.performRaw(ctx, esapi.ExistsRequest{Index: index, DocumentID: id})
	if err != nil {
		return false, err
	}
	defer closeBody(res.Body)
	switch res.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, search.DecodeErrorResponse(res.StatusCode, res.Body)
	}
}

// Update applies a partial document or script update.
func (b *Backend) Update(ctx context.Context, req search.UpdateRequest) error {
	payload := map[string]any{}
	if req.Script != nil {
		payload["script"] = req.Script
	} else if req.Doc != nil {
		payload["doc"] = req.Doc
		if req.DocAsUpsert {
			payload["doc_as_upsert"] = true
		}
	}
	if req.Upsert != nil {
		payload["upsert"] = req.Upsert
	}

	body, err := jsonBody(payload)
	if err != nil {
		return err
	}

	apiReq := esapi.UpdateRequest{
		Index:      req.Index,
		DocumentID: req.ID,
		Body:       body,
		Routing:    req.Routing,
		Refresh:    refreshParam(req.Refresh),
	}
	if req.RetryOnConflict > 0 {
		retries := req.RetryOnConflict
		apiReq.RetryOnConflict = &retries
	}
	return b.performDiscard(ctx, apiReq)
}

// Delete removes one document.
func (b *Backend) Delete(ctx context.Context, req search.DeleteRequest) error {
	return b.performDiscard(ctx, esapi.DeleteRequest{
		Index:         req.Index,
		DocumentID:    req.ID,
		Routing:       req.Routing,
		Refresh:       refreshParam(req.Refresh),
		IfSeqNo:       intPtr(req.IfSeqNo),
		IfPrimaryTerm: intPtr(req.IfPrimaryTerm),
	})
}

// DeleteByQuery removes every matching document.
func (b *Backend) DeleteByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return 0, err
	}
	res, err := b.perform(ctx, esapi.DeleteByQueryRequest{Index: indices, Body: reader})
	if err != nil {
		return 0, err
	}
	defer closeBody(res.Body)
	return search.DecodeByQueryResponse(res.Body)
}

// UpdateByQuery applies a scripted update to matching documents.
func (b *Backend) UpdateByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return 0, err
	}
	res, err := b.perform(ctx, esapi.UpdateByQueryRequest{Index: indices, Body: reader})
	if err != nil {
		return 0, err
	}
	defer closeBody(res.Body)
	return search.DecodeByQueryResponse(res.Body)
}

// Count counts matching documents.
func (b *Backend) Count(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	apiReq := esapi.CountRequest{Index: indices}
	if len(body) > 0 {
		reader, err := jsonBody(body)
		if err != nil {
			return 0, err
		}
		apiReq.Body = reader
	}
	res, err := b.perform(ctx, apiReq)
	if err != nil {
		return 0, err
	}
	defer closeBody(res.Body)
	return search.DecodeCountResponse(res.Body)
}

// Bulk executes a batch of operations.
func (b *Backend) Bulk(ctx context.Context, index string, ops []search.BulkOp) (*search.BulkResult, error) {
	body, err := search.BuildBulkBody(index, ops)
	if err != nil {
		return nil, err
	}
	res, err := b.perform(ctx, esapi.BulkRequest{Index: index, Body: strings.NewReader(body)})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeBulkResponse(res.Body)
}

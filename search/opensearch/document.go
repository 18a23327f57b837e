package opensearch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/ncobase/esodm/search"
)

// Index stores one document.
func (b *Backend) Index(ctx context.Context, req search.IndexRequest) (*search.IndexResult, error) {
	body, err := jsonBody(req.Document)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if req.Routing != "" {
		params.Set("routing", req.Routing)
	}
	if req.Refresh {
		params.Set("refresh", "true")
	}
	if req.OpTypeCreate {
		params.Set("op_type", "create")
	}
	if req.IfSeqNo != nil {
		params.Set("if_seq_no", strconv.FormatInt(*req.IfSeqNo, 10))
	}
	if req.IfPrimaryTerm != nil {
		params.Set("if_primary_term", strconv.FormatInt(*req.IfPrimaryTerm, 10))
	}

	raw := rawRequest{method: "POST", path: "/" + req.Index + "/_doc", params: params, body: body}
	if req.ID != "" {
		raw.method = "PUT"
		raw.path = docPath(req.Index, req.ID)
	}
	res, err := b.do(ctx, raw)
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeIndexResponse(res.Body)
}

// Get fetches one document; a missing document reports Found=false.
func (b *Backend) Get(ctx context.Context, req search.GetRequest) (*search.GetResult, error) {
	params := url.Values{}
	if req.Routing != "" {
		params.Set("routing", req.Routing)
	}
	res, err := b.doRaw(ctx, rawRequest{method: "GET", path: docPath(req.Index, req.ID), params: params})
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
	res, err := b.do(ctx, rawRequest{method: "POST", path: "/" + index + "/_mget", body: body})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeMultiGetResponse(res.Body)
}

// Exists reports whether a document exists.
func (b *Backend) Exists(ctx context.Context, index, id string) (bool, error) {
	res, err := b.doRaw(ctx, rawRequest{method: "HEAD", path: docPath(index, id)})
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

	params := url.Values{}
	if req.Routing != "" {
		params.Set("routing", req.Routing)
	}
	if req.Refresh {
		params.Set("refresh", "true")
	}
	if req.RetryOnConflict > 0 {
		params.Set("retry_on_conflict", strconv.Itoa(req.RetryOnConflict))
	}
	return b.doDiscard(ctx, rawRequest{
		method: "POST",
		path:   "/" + req.Index + "/_update/" + url.PathEscape(req.ID),
		params: params,
		body:   body,
	})
}

// Delete removes one document.
func (b *Backend) Delete(ctx context.Context, req search.DeleteRequest) error {
	if req.IfSeqNo == nil && req.IfPrimaryTerm == nil && req.Routing == "" && b.client != nil {
		deleteReq := opensearchapi.DocumentDeleteReq{
			Index:      req.Index,
			DocumentID: req.ID,
		}
		if req.Refresh {
			deleteReq.Params = opensearchapi.DocumentDeleteParams{Refresh: "true"}
		}
		if _, err := b.client.Document.Delete(ctx, deleteReq); err != nil {
			return fmt.Errorf("opensearch deletion error: %w", translateStructError(err))
		}
		return nil
	}

	params := url.Values{}
	if req.Routing != "" {
		params.Set("routing", req.Routing)
	}
	if req.Refresh {
		params.Set("refresh", "true")
	}
	if req.IfSeqNo != nil {
		params.Set("if_seq_no", strconv.FormatInt(*req.IfSeqNo, 10))
	}
	if req.IfPrimaryTerm != nil {
		params.Set("if_primary_term", strconv.FormatInt(*req.IfPrimaryTerm, 10))
	}
	return b.doDiscard(ctx, rawRequest{method: "DELETE", path: docPath(req.Index, req.ID), params: params})
}

// DeleteByQuery removes every matching document.
func (b *Backend) DeleteByQuery(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	reader, err := jsonBody(body)
	if err != nil {
		return 0, err
	}
	res, err := b.do(ctx, rawRequest{method: "POST", path: indexPath(indices, "/_delete_by_query"), body: reader})
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
	res, err := b.do(ctx, rawRequest{method: "POST", path: indexPath(indices, "/_update_by_query"), body: reader})
	if err != nil {
		return 0, err
	}
	defer closeBody(res.Body)
	return search.DecodeByQueryResponse(res.Body)
}

// Count counts matching documents.
func (b *Backend) Count(ctx context.Context, indices []string, body map[string]any) (int64, error) {
	raw := rawRequest{method: "POST", path: indexPath(indices, "/_count")}
	if len(body) > 0 {
		reader, err := jsonBody(body)
		if err != nil {
			return 0, err
		}
		raw.body = reader
	}
	res, err := b.do(ctx, raw)
	if err != nil {
		return 0, err
	}
	defer closeBody(res.Body)
	return search.DecodeCountResponse(res.Body)
}

// Search runs a query body, optionally opening a scroll context.
func (b *Backend) Search(ctx context.Context, req search.SearchRequest) (*search.Result, error) {
	body, err := jsonBody(req.Body)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	if req.Routing != "" {
		params.Set("routing", req.Routing)
	}
	if req.Scroll > 0 {
		params.Set("scroll", scrollParam(req.Scroll))
	}
	res, err := b.do(ctx, rawRequest{
		method: "POST",
		path:   indexPath(req.Indices, "/_search"),
		params: params,
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeSearchResponse(res.Body)
}

// Scroll fetches the next scroll batch.
func (b *Backend) Scroll(ctx context.Context, scrollID string, keep time.Duration) (*search.Result, error) {
	body, err := jsonBody(map[string]any{"scroll": scrollParam(keep), "scroll_id": scrollID})
	if err != nil {
		return nil, err
	}
	res, err := b.do(ctx, rawRequest{method: "POST", path: "/_search/scroll", body: body})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeSearchResponse(res.Body)
}

// ClearScroll releases a scroll context.
func (b *Backend) ClearScroll(ctx context.Context, scrollID string) error {
	body, err := jsonBody(map[string]any{"scroll_id": []string{scrollID}})
	if err != nil {
		return err
	}
	return b.doDiscard(ctx, rawRequest{method: "DELETE", path: "/_search/scroll", body: body})
}

// Bulk executes a batch of operations.
func (b *Backend) Bulk(ctx context.Context, index string, ops []search.BulkOp) (*search.BulkResult, error) {
	body, err := search.BuildBulkBody(index, ops)
	if err != nil {
		return nil, err
	}
	res, err := b.do(ctx, rawRequest{
		method: "POST",
		path:   "/" + index + "/_bulk",
		body:   strings.NewReader(body),
	})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeBulkResponse(res.Body)
}

// scrollParam renders a keep-alive in milliseconds so sub-second
// durations survive the conversion.
func scrollParam(keep time.Duration) string {
	return strconv.FormatInt(int64(keep/time.Millisecond), 10) + "ms"
}

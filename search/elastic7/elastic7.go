// Package elastic7 implements the search.Backend interface on top of
// the go-elasticsearch v7 client, for clusters still on the 7.x line.
package elastic7

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	elasticsearch7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/ncobase/esodm/search"
)

func init() {
	search.RegisterFactory(search.KindElasticsearch7, func(conn any) (search.Backend, error) {
		switch c := conn.(type) {
		case *elasticsearch7.Client:
			return NewBackend(c), nil
		case *Config:
			return Dial(c)
		case Config:
			return Dial(&c)
		default:
			return nil, fmt.Errorf("elastic7: expected *elasticsearch.Client or *elastic7.Config, got %T", conn)
		}
	})
}

// Config holds connection settings for the v7 client.
type Config struct {
	Addresses  []string
	Username   string
	Password   string
	MaxRetries int
}

// Backend adapts a go-elasticsearch v7 client to search.Backend.
type Backend struct {
	client *elasticsearch7.Client
}

// NewBackend wraps an existing client.
func NewBackend(client *elasticsearch7.Client) *Backend {
	return &Backend{client: client}
}

// Dial builds a client from config and wraps it.
func Dial(cfg *Config) (*Backend, error) {
	es, err := elasticsearch7.NewClient(elasticsearch7.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch v7 client creation error: %w", err)
	}
	return &Backend{client: es}, nil
}

// Client exposes the raw client.
func (b *Backend) Client() *elasticsearch7.Client { return b.client }

// Kind identifies this driver.
func (b *Backend) Kind() search.Kind { return search.KindElasticsearch7 }

// Ping checks cluster reachability.
func (b *Backend) Ping(ctx context.Context) error {
	res, err := b.perform(ctx, esapi.PingRequest{})
	if err != nil {
		return err
	}
	closeBody(res.Body)
	return nil
}

// performRaw runs one esapi request but leaves status handling to the
// caller, for endpoints where a 404 is a regular answer.
func (b *Backend) performRaw(ctx context.Context, req esapi.Request) (*esapi.Response, error) {
	if b.client == nil {
		return nil, errors.New("elasticsearch v7 client is nil")
	}
	res, err := req.Do(ctx, b.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch v7 request error: %w", err)
	}
	return res, nil
}

func (b *Backend) perform(ctx context.Context, req esapi.Request) (*esapi.Response, error) {
	res, err := b.performRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		defer closeBody(res.Body)
		return nil, search.DecodeErrorResponse(res.StatusCode, res.Body)
	}
	return res, nil
}

func (b *Backend) performDiscard(ctx context.Context, req esapi.Request) error {
	res, err := b.perform(ctx, req)
	if err != nil {
		return err
	}
	closeBody(res.Body)
	return nil
}

func closeBody(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, body)
		_ = body.Close()
	}
}

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
	res, err := b.performRaw(ctx, esapi.GetRequest{Index: req.Index, DocumentID: req.ID, Routing: req.Routing})
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

// Search runs a query body, optionally opening a scroll context.
func (b *Backend) Search(ctx context.Context, req search.SearchRequest) (*search.Result, error) {
	body, err := jsonBody(req.Body)
	if err != nil {
		return nil, err
	}
	apiReq := esapi.SearchRequest{
		Index:  req.Indices,
		Body:   body,
		Scroll: req.Scroll,
	}
	if req.Routing != "" {
		apiReq.Routing = []string{req.Routing}
	}
	res, err := b.perform(ctx, apiReq)
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeSearchResponse(res.Body)
}

// Scroll fetches the next scroll batch.
func (b *Backend) Scroll(ctx context.Context, scrollID string, keep time.Duration) (*search.Result, error) {
	res, err := b.perform(ctx, esapi.ScrollRequest{ScrollID: scrollID, Scroll: keep})
	if err != nil {
		return nil, err
	}
	defer closeBody(res.Body)
	return search.DecodeSearchResponse(res.Body)
}

// ClearScroll releases a scroll context.
func (b *Backend) ClearScroll(ctx context.Context, scrollID string) error {
	return b.performDiscard(ctx, esapi.ClearScrollRequest{ScrollID: []string{scrollID}})
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

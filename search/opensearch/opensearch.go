// Package opensearch implements the search.Backend interface on top of
// the opensearch-go client.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/ncobase/esodm/search"
)

func init() {
	search.RegisterFactory(search.KindOpenSearch, func(conn any) (search.Backend, error) {
		switch c := conn.(type) {
		case *opensearchapi.Client:
			return NewBackend(c), nil
		case *Config:
			return Dial(c)
		case Config:
			return Dial(&c)
		default:
			return nil, fmt.Errorf("opensearch: expected *opensearchapi.Client or *opensearch.Config, got %T", conn)
		}
	})
}

// Config holds connection settings for the OpenSearch client.
type Config struct {
	Addresses  []string
	Username   string
	Password   string
	Insecure   bool
	MaxRetries int
}

// Backend adapts an opensearch-go client to search.Backend.
type Backend struct {
	client *opensearchapi.Client
}

// NewBackend wraps an existing client.
func NewBackend(client *opensearchapi.Client) *Backend {
	return &Backend{client: client}
}

// Dial builds a client from config and wraps it.
func Dial(cfg *Config) (*Backend, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Insecure,
		},
	}
	client, err := opensearchapi.NewClient(
		opensearchapi.Config{
			Client: opensearch.Config{
				Addresses:  cfg.Addresses,
				Username:   cfg.Username,
				Password:   cfg.Password,
				Transport:  transport,
				MaxRetries: cfg.MaxRetries,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("opensearch client creation error: %w", err)
	}
	return &Backend{client: client}, nil
}

// Client exposes the raw client.
func (b *Backend) Client() *opensearchapi.Client { return b.client }

// Kind identifies this driver.
func (b *Backend) Kind() search.Kind { return search.KindOpenSearch }

// Ping checks cluster reachability through the cluster health API.
func (b *Backend) Ping(ctx context.Context) error {
	if b.client == nil {
		return errors.New("opensearch client is nil")
	}
	healthReq := opensearchapi.ClusterHealthReq{}
	if _, err := b.client.Cluster.Health(ctx, &healthReq); err != nil {
		return fmt.Errorf("opensearch health check error: %w", err)
	}
	return nil
}

// rawRequest covers the endpoints the typed client is not used for.
// The base client resolves the relative path against a cluster node.
type rawRequest struct {
	method string
	path   string
	params url.Values
	body   io.Reader
}

func (r rawRequest) GetRequest() (*http.Request, error) {
	path := r.path
	if len(r.params) > 0 {
		path += "?" + r.params.Encode()
	}
	req, err := http.NewRequest(r.method, path, r.body)
	if err != nil {
		return nil, err
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// doRaw performs a request but leaves status handling to the caller,
// for endpoints where a 404 is a regular answer.
func (b *Backend) doRaw(ctx context.Context, req rawRequest) (*opensearch.Response, error) {
	if b.client == nil {
		return nil, errors.New("opensearch client is nil")
	}
	res, err := b.client.Client.Do(ctx, req, nil)
	if err != nil {
		return nil, fmt.Errorf("opensearch request error: %w", translateStructError(err))
	}
	return res, nil
}

func (b *Backend) do(ctx context.Context, req rawRequest) (*opensearch.Response, error) {
	res, err := b.doRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		defer closeBody(res.Body)
		return nil, search.DecodeErrorResponse(res.StatusCode, res.Body)
	}
	return res, nil
}

func (b *Backend) doDiscard(ctx context.Context, req rawRequest) error {
	res, err := b.do(ctx, req)
	if err != nil {
		return err
	}
	closeBody(res.Body)
	return nil
}

// translateStructError maps the client's structured errors onto the
// shared sentinels so callers can errors.Is across drivers.
func translateStructError(err error) error {
	var structErr *opensearch.StructError
	if !errors.As(err, &structErr) {
		return err
	}
	switch structErr.Err.Type {
	case "resource_already_exists_exception":
		return fmt.Errorf("%s: %w", structErr.Err.Type, search.ErrIndexExists)
	case "index_not_found_exception":
		return fmt.Errorf("%s: %w", structErr.Err.Type, search.ErrIndexNotFound)
	default:
		return err
	}
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

func docPath(index, id string) string {
	return "/" + index + "/_doc/" + url.PathEscape(id)
}

func indexPath(indices []string, suffix string) string {
	return "/" + strings.Join(indices, ",") + suffix
}

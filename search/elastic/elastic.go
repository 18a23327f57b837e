// Package elastic implements the search.Backend interface on top of
// the official go-elasticsearch v8 client.
package elastic

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ncobase/esodm/search"
)

func init() {
	search.RegisterFactory(search.KindElasticsearch, func(conn any) (search.Backend, error) {
		switch c := conn.(type) {
		case *elasticsearch.Client:
			return NewBackend(c), nil
		case *Config:
			return Dial(c)
		case Config:
			return Dial(&c)
		default:
			return nil, fmt.Errorf("elastic: expected *elasticsearch.Client or *elastic.Config, got %T", conn)
		}
	})
}

// Config holds connection settings for the v8 client.
type Config struct {
	Addresses  []string
	Username   string
	Password   string
	CloudID    string
	APIKey     string
	MaxRetries int
}

// Backend adapts a go-elasticsearch v8 client to search.Backend.
type Backend struct {
	client *elasticsearch.Client
}

// NewBackend wraps an existing client.
func NewBackend(client *elasticsearch.Client) *Backend {
	return &Backend{client: client}
}

// Dial builds a client from config and wraps it.
func Dial(cfg *Config) (*Backend, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  cfg.Addresses,
		Username:   cfg.Username,
		Password:   cfg.Password,
		CloudID:    cfg.CloudID,
		APIKey:     cfg.APIKey,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation error: %w", err)
	}
	return &Backend{client: es}, nil
}

// Client exposes the raw client for calls outside the Backend surface.
func (b *Backend) Client() *elasticsearch.Client { return b.client }

// Kind identifies this driver.
func (b *Backend) Kind() search.Kind { return search.KindElasticsearch }

// Ping checks cluster reachability.
func (b *Backend) Ping(ctx context.Context) error {
	if b.client == nil {
		return errors.New("elasticsearch client is nil")
	}
	res, err := esapi.PingRequest{}.Do(ctx, b.client)
	if err != nil {
		return err
	}
	defer closeBody(res.Body)
	if res.IsError() {
		return search.NewError(res.StatusCode, "", "ping failed")
	}
	return nil
}

// performRaw runs one esapi request but leaves status handling to the
// caller, for endpoints where a 404 is a regular answer.
func (b *Backend) performRaw(ctx context.Context, req esapi.Request) (*esapi.Response, error) {
	if b.client == nil {
		return nil, errors.New("elasticsearch client is nil")
	}
	res, err := req.Do(ctx, b.client)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch request error: %w", err)
	}
	return res, nil
}

// perform runs one esapi request and converts non-2xx responses into
// *search.Error. Callers own the returned body.
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

// performDiscard is perform for calls whose body is not needed.
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

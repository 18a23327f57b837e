package elastic

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/ncobase/esodm/search"
)

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

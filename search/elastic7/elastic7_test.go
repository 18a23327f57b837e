package elastic7

import (
	"context"
	"strings"
	"testing"

	"github.com/ncobase/esodm/search"
)

func TestNilClient_ReturnsError(t *testing.T) {
	b := NewBackend(nil)
	ctx := context.Background()

	if err := b.Ping(ctx); err == nil || !strings.Contains(err.Error(), "client is nil") {
		t.Fatalf("expected nil-client error from Ping, got %v", err)
	}
	if _, err := b.Get(ctx, search.GetRequest{Index: "articles", ID: "1"}); err == nil || !strings.Contains(err.Error(), "client is nil") {
		t.Fatalf("expected nil-client error from Get, got %v", err)
	}
	if _, err := b.Exists(ctx, "articles", "1"); err == nil || !strings.Contains(err.Error(), "client is nil") {
		t.Fatalf("expected nil-client error from Exists, got %v", err)
	}
	if _, err := b.Indices().Exists(ctx, "articles"); err == nil || !strings.Contains(err.Error(), "client is nil") {
		t.Fatalf("expected nil-client error from Indices.Exists, got %v", err)
	}
}

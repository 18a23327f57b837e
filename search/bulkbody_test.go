package search

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("bad NDJSON line %q: %v", line, err)
	}
	return out
}

func TestBuildBulkBody(t *testing.T) {
	body, err := BuildBulkBody("articles", []BulkOp{
		{Action: BulkIndex, ID: "a1", Document: map[string]any{"title": "one"}},
		{Action: BulkUpdate, ID: "a2", Routing: "r1", Document: map[string]any{"title": "two"}},
		{Action: BulkDelete, ID: "a3", Index: "other"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasSuffix(body, "\n") {
		t.Fatalf("bulk body must end with a newline")
	}

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines (3 actions, 2 bodies), got %d:\n%s", len(lines), body)
	}

	index := decodeLine(t, lines[0])["index"].(map[string]any)
	if index["_id"] != "a1" {
		t.Fatalf("unexpected index header: %v", index)
	}
	if _, ok := index["_index"]; ok {
		t.Fatalf("default index must be left to the URL: %v", index)
	}
	doc := decodeLine(t, lines[1])
	if doc["title"] != "one" {
		t.Fatalf("unexpected document line: %v", doc)
	}

	update := decodeLine(t, lines[2])["update"].(map[string]any)
	if update["routing"] != "r1" {
		t.Fatalf("routing missing from update header: %v", update)
	}
	wrapped := decodeLine(t, lines[3])
	if _, ok := wrapped["doc"]; !ok {
		t.Fatalf("update body must wrap the partial document: %v", wrapped)
	}

	del := decodeLine(t, lines[4])["delete"].(map[string]any)
	if del["_index"] != "other" {
		t.Fatalf("non-default index must be on the action line: %v", del)
	}
}

func TestBuildBulkBody_DefaultsAndErrors(t *testing.T) {
	// A missing action defaults to index.
	body, err := BuildBulkBody("articles", []BulkOp{{ID: "a1", Document: map[string]any{}}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(body, `"index"`) {
		t.Fatalf("empty action must default to index: %s", body)
	}

	if _, err := BuildBulkBody("articles", []BulkOp{{Action: BulkAction("merge")}}); err == nil {
		t.Fatalf("unknown action must fail")
	}
}

package query

import (
	"encoding/json"
	"testing"
)

func TestBool_Build(t *testing.T) {
	q := NewBool().
		Must(Match("title", "go")).
		Filter(Term("status", "published")).
		MustNot(Exists("deleted_at")).
		Should(MatchPhrase("body", "error handling")).
		MinimumShouldMatch(1).
		Build()

	body, ok := q["bool"].(map[string]any)
	if !ok {
		t.Fatalf("expected bool clause, got %v", q)
	}
	if len(body["must"].([]Query)) != 1 {
		t.Fatalf("unexpected must: %v", body["must"])
	}
	if len(body["filter"].([]Query)) != 1 {
		t.Fatalf("unexpected filter: %v", body["filter"])
	}
	if len(body["must_not"].([]Query)) != 1 {
		t.Fatalf("unexpected must_not: %v", body["must_not"])
	}
	if body["minimum_should_match"] != 1 {
		t.Fatalf("unexpected minimum_should_match: %v", body["minimum_should_match"])
	}
}

func TestBool_EmptySectionsOmitted(t *testing.T) {
	q := NewBool().Must(MatchAll()).Build()
	body := q["bool"].(map[string]any)
	for _, key := range []string{"should", "must_not", "filter", "minimum_should_match"} {
		if _, ok := body[key]; ok {
			t.Fatalf("empty section %q must be omitted", key)
		}
	}
}

func TestRange_Build(t *testing.T) {
	q := NewRange("age").Gte(18).Lt(65).Build()
	r := q["range"].(map[string]any)
	bounds := r["age"].(map[string]any)
	if bounds["gte"] != 18 || bounds["lt"] != 65 {
		t.Fatalf("unexpected bounds: %v", bounds)
	}
	if _, ok := bounds["gt"]; ok {
		t.Fatalf("unset bounds must be omitted")
	}
}

func TestTermAndTerms(t *testing.T) {
	q := Term("status", "active")
	inner := q["term"].(map[string]any)["status"].(map[string]any)
	if inner["value"] != "active" {
		t.Fatalf("unexpected term: %v", q)
	}

	q = Terms("tag", "a", "b")
	values := q["terms"].(map[string]any)["tag"].([]any)
	if len(values) != 2 || values[0] != "a" {
		t.Fatalf("unexpected terms: %v", q)
	}
}

func TestRaw_PassesThroughJSON(t *testing.T) {
	raw := Raw(json.RawMessage(`{"match":{"title":"go"}}`))
	out, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal raw: %v", err)
	}
	if string(out) != `{"match":{"title":"go"}}` {
		t.Fatalf("raw clause must pass through unchanged, got %s", out)
	}
}

func TestQueryString_Fields(t *testing.T) {
	q := QueryString("go AND error", "title", "body")
	body := q["query_string"].(map[string]any)
	if body["query"] != "go AND error" {
		t.Fatalf("unexpected query: %v", body)
	}
	fields := body["fields"].([]string)
	if len(fields) != 2 {
		t.Fatalf("unexpected fields: %v", fields)
	}

	q = QueryString("go")
	if _, ok := q["query_string"].(map[string]any)["fields"]; ok {
		t.Fatalf("fields must be omitted when empty")
	}
}

func TestNested_WrapsPathAndQuery(t *testing.T) {
	q := Nested("comments", Match("comments.author", "ann"))
	body := q["nested"].(map[string]any)
	if body["path"] != "comments" {
		t.Fatalf("unexpected path: %v", body)
	}
	if _, ok := body["query"].(Query); !ok {
		t.Fatalf("expected wrapped query, got %T", body["query"])
	}
}

func TestFromFilter_ClauseShapes(t *testing.T) {
	filter := map[string]any{
		"status": "active",
		"tags":   []string{"go", "search"},
		"age":    map[string]any{"gte": 18, "lt": 65},
	}

	clauses := FromFilter(filter)
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(clauses))
	}

	// FromFilter sorts by field name: age, status, tags.
	if _, ok := clauses[0]["range"]; !ok {
		t.Fatalf("expected range clause first, got %v", clauses[0])
	}
	if _, ok := clauses[1]["term"]; !ok {
		t.Fatalf("expected term clause second, got %v", clauses[1])
	}
	if _, ok := clauses[2]["terms"]; !ok {
		t.Fatalf("expected terms clause third, got %v", clauses[2])
	}
}

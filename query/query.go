// Package query builds search request bodies. Builders return plain
// map payloads so callers can compose them freely and drivers can
// marshal them straight onto the wire.
package query

import "encoding/json"

// Query is a single query clause in wire form.
type Query map[string]any

// MatchAll matches every document.
func MatchAll() Query {
	return Query{"match_all": map[string]any{}}
}

// Match builds a full-text match clause.
func Match(field string, value any) Query {
	return Query{"match": map[string]any{field: value}}
}

// MatchPhrase builds a phrase match clause.
func MatchPhrase(field string, value any) Query {
	return Query{"match_phrase": map[string]any{field: value}}
}

// MultiMatch searches one value across several fields. Fields may carry
// boosts in the `name^2` form.
func MultiMatch(value any, fields ...string) Query {
	return Query{"multi_match": map[string]any{
		"query":  value,
		"fields": fields,
	}}
}

// Term builds an exact term clause.
func Term(field string, value any) Query {
	return Query{"term": map[string]any{field: map[string]any{"value": value}}}
}

// Terms builds a terms clause matching any of the given values.
func Terms(field string, values ...any) Query {
	return Query{"terms": map[string]any{field: values}}
}

// IDs matches documents by id.
func IDs(ids ...string) Query {
	return Query{"ids": map[string]any{"values": ids}}
}

// Exists matches documents that have a value for field.
func Exists(field string) Query {
	return Query{"exists": map[string]any{"field": field}}
}

// Prefix builds a prefix clause.
func Prefix(field, value string) Query {
	return Query{"prefix": map[string]any{field: map[string]any{"value": value}}}
}

// Wildcard builds a wildcard clause (`*` and `?` patterns).
func Wildcard(field, pattern string) Query {
	return Query{"wildcard": map[string]any{field: map[string]any{"value": pattern}}}
}

// Regexp builds a regexp clause.
func Regexp(field, pattern string) Query {
	return Query{"regexp": map[string]any{field: map[string]any{"value": pattern}}}
}

// QueryString builds a query_string clause over the given fields.
func QueryString(qs string, fields ...string) Query {
	body := map[string]any{"query": qs}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return Query{"query_string": body}
}

// Nested wraps a query against a nested path.
func Nested(path string, q Query) Query {
	return Query{"nested": map[string]any{"path": path, "query": q}}
}

// Raw wraps a caller-provided JSON clause unchanged.
func Raw(body json.RawMessage) Query {
	return Query{"__raw__": body}
}

// MarshalJSON lets Raw clauses pass through without double encoding.
func (q Query) MarshalJSON() ([]byte, error) {
	if raw, ok := q["__raw__"].(json.RawMessage); ok && len(q) == 1 {
		return raw, nil
	}
	return json.Marshal(map[string]any(q))
}

// Range builds range clauses field by field.
type Range struct {
	field  string
	bounds map[string]any
}

// NewRange starts a range clause on field.
func NewRange(field string) *Range {
	return &Range{field: field, bounds: map[string]any{}}
}

func (r *Range) Gt(v any) *Range  { r.bounds["gt"] = v; return r }
func (r *Range) Gte(v any) *Range { r.bounds["gte"] = v; return r }
func (r *Range) Lt(v any) *Range  { r.bounds["lt"] = v; return r }
func (r *Range) Lte(v any) *Range { r.bounds["lte"] = v; return r }

// Format sets the date format used to parse the bounds.
func (r *Range) Format(f string) *Range { r.bounds["format"] = f; return r }

// Build renders the range clause.
func (r *Range) Build() Query {
	return Query{"range": map[string]any{r.field: r.bounds}}
}

// Bool composes clauses into a bool query.
type Bool struct {
	must, should, mustNot, filter []Query
	minimumShouldMatch            any
}

// NewBool starts an empty bool query.
func NewBool() *Bool { return &Bool{} }

func (b *Bool) Must(qs ...Query) *Bool    { b.must = append(b.must, qs...); return b }
func (b *Bool) Should(qs ...Query) *Bool  { b.should = append(b.should, qs...); return b }
func (b *Bool) MustNot(qs ...Query) *Bool { b.mustNot = append(b.mustNot, qs...); return b }
func (b *Bool) Filter(qs ...Query) *Bool  { b.filter = append(b.filter, qs...); return b }

// MinimumShouldMatch sets the minimum_should_match parameter; it
// accepts an int or a percentage string.
func (b *Bool) MinimumShouldMatch(v any) *Bool {
	b.minimumShouldMatch = v
	return b
}

// Build renders the bool clause.
func (b *Bool) Build() Query {
	body := map[string]any{}
	if len(b.must) > 0 {
		body["must"] = b.must
	}
	if len(b.should) > 0 {
		body["should"] = b.should
	}
	if len(b.mustNot) > 0 {
		body["must_not"] = b.mustNot
	}
	if len(b.filter) > 0 {
		body["filter"] = b.filter
	}
	if b.minimumShouldMatch != nil {
		body["minimum_should_match"] = b.minimumShouldMatch
	}
	return Query{"bool": body}
}

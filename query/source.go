package query

import "encoding/json"

// Source assembles a complete search body: query, paging, sorting,
// source filtering, highlighting and aggregations.
type Source struct {
	query          Query
	from, size     *int
	sorts          []map[string]any
	includes       []string
	excludes       []string
	highlight      map[string]any
	aggs           map[string]any
	searchAfter    []any
	trackTotalHits any
	minScore       *float64
	collapse       string
}

// NewSource starts a search body around a query clause.
func NewSource(q Query) *Source {
	return &Source{query: q}
}

// Query replaces the query clause.
func (s *Source) Query(q Query) *Source { s.query = q; return s }

// From sets the paging offset.
func (s *Source) From(n int) *Source { s.from = &n; return s }

// Size sets the page size.
func (s *Source) Size(n int) *Source { s.size = &n; return s }

// Sort adds a field sort.
func (s *Source) Sort(field string, ascending bool) *Source {
	order := "desc"
	if ascending {
		order = "asc"
	}
	s.sorts = append(s.sorts, map[string]any{field: map[string]any{"order": order}})
	return s
}

// SortByScore sorts by relevance, descending.
func (s *Source) SortByScore() *Source {
	s.sorts = append(s.sorts, map[string]any{"_score": map[string]any{"order": "desc"}})
	return s
}

// Include restricts _source to the given fields.
func (s *Source) Include(fields ...string) *Source {
	s.includes = append(s.includes, fields...)
	return s
}

// Exclude drops fields from _source.
func (s *Source) Exclude(fields ...string) *Source {
	s.excludes = append(s.excludes, fields...)
	return s
}

// Highlight enables highlighting for fields with <em> tags.
func (s *Source) Highlight(fields ...string) *Source {
	return s.HighlightTagged("<em>", "</em>", fields...)
}

// HighlightTagged enables highlighting with custom pre/post tags.
func (s *Source) HighlightTagged(preTag, postTag string, fields ...string) *Source {
	hf := map[string]any{}
	for _, f := range fields {
		hf[f] = map[string]any{}
	}
	s.highlight = map[string]any{
		"pre_tags":  []string{preTag},
		"post_tags": []string{postTag},
		"fields":    hf,
	}
	return s
}

// Agg attaches a named aggregation.
func (s *Source) Agg(name string, a Agg) *Source {
	if s.aggs == nil {
		s.aggs = map[string]any{}
	}
	s.aggs[name] = a
	return s
}

// SearchAfter continues a sorted scan after the given sort values.
func (s *Source) SearchAfter(values ...any) *Source {
	s.searchAfter = values
	return s
}

// TrackTotalHits controls total hit counting; pass true or an int cap.
func (s *Source) TrackTotalHits(v any) *Source { s.trackTotalHits = v; return s }

// MinScore filters hits below the given score.
func (s *Source) MinScore(v float64) *Source { s.minScore = &v; return s }

// Collapse folds hits on a field.
func (s *Source) Collapse(field string) *Source { s.collapse = field; return s }

// Build renders the search body.
func (s *Source) Build() map[string]any {
	body := map[string]any{}
	if s.query != nil {
		body["query"] = s.query
	}
	if s.from != nil {
		body["from"] = *s.from
	}
	if s.size != nil {
		body["size"] = *s.size
	}
	if len(s.sorts) > 0 {
		body["sort"] = s.sorts
	}
	if len(s.includes) > 0 || len(s.excludes) > 0 {
		src := map[string]any{}
		if len(s.includes) > 0 {
			src["includes"] = s.includes
		}
		if len(s.excludes) > 0 {
			src["excludes"] = s.excludes
		}
		body["_source"] = src
	}
	if s.highlight != nil {
		body["highlight"] = s.highlight
	}
	if len(s.aggs) > 0 {
		body["aggs"] = s.aggs
	}
	if len(s.searchAfter) > 0 {
		body["search_after"] = s.searchAfter
	}
	if s.trackTotalHits != nil {
		body["track_total_hits"] = s.trackTotalHits
	}
	if s.minScore != nil {
		body["min_score"] = *s.minScore
	}
	if s.collapse != "" {
		body["collapse"] = map[string]any{"field": s.collapse}
	}
	return body
}

// JSON renders the search body as JSON.
func (s *Source) JSON() ([]byte, error) {
	return json.Marshal(s.Build())
}

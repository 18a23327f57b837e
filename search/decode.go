package search

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// The REST envelopes of Elasticsearch 7/8 and OpenSearch are wire
// compatible, so response decoding is shared by every driver.

type totalField struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// UnmarshalJSON accepts both the object form and the legacy plain
// number form of hits.total.
func (t *totalField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] != '{' {
		t.Relation = "eq"
		return json.Unmarshal(data, &t.Value)
	}
	type alias totalField
	return json.Unmarshal(data, (*alias)(t))
}

type searchEnvelope struct {
	Took     int64  `json:"took"`
	TimedOut bool   `json:"timed_out"`
	ScrollID string `json:"_scroll_id"`
	Hits     struct {
		Total    totalField `json:"total"`
		MaxScore *float64   `json:"max_score"`
		Hits     []struct {
			Index       string              `json:"_index"`
			ID          string              `json:"_id"`
			Score       *float64            `json:"_score"`
			Version     int64               `json:"_version"`
			SeqNo       int64               `json:"_seq_no"`
			PrimaryTerm int64               `json:"_primary_term"`
			Routing     string              `json:"_routing"`
			Source      json.RawMessage     `json:"_source"`
			Highlight   map[string][]string `json:"highlight"`
			Sort        []any               `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// DecodeSearchResponse decodes a search or scroll response body.
func DecodeSearchResponse(r io.Reader) (*Result, error) {
	var env searchEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}

	result := &Result{
		Total:         env.Hits.Total.Value,
		TotalRelation: env.Hits.Total.Relation,
		Hits:          make([]Hit, len(env.Hits.Hits)),
		Aggregations:  env.Aggregations,
		ScrollID:      env.ScrollID,
		Took:          time.Duration(env.Took) * time.Millisecond,
		TimedOut:      env.TimedOut,
	}
	if env.Hits.MaxScore != nil {
		result.MaxScore = *env.Hits.MaxScore
	}
	for i, h := range env.Hits.Hits {
		hit := Hit{
			Index:       h.Index,
			ID:          h.ID,
			Version:     h.Version,
			SeqNo:       h.SeqNo,
			PrimaryTerm: h.PrimaryTerm,
			Routing:     h.Routing,
			Source:      h.Source,
			Highlight:   h.Highlight,
			Sort:        h.Sort,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		result.Hits[i] = hit
	}
	return result, nil
}

type getEnvelope struct {
	Index       string          `json:"_index"`
	ID          string          `json:"_id"`
	Version     int64           `json:"_version"`
	SeqNo       int64           `json:"_seq_no"`
	PrimaryTerm int64           `json:"_primary_term"`
	Found       bool            `json:"found"`
	Source      json.RawMessage `json:"_source"`
}

// DecodeGetResponse decodes a get-document response body.
func DecodeGetResponse(r io.Reader) (*GetResult, error) {
	var env getEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("search: decode get response: %w", err)
	}
	return &GetResult{
		Found:       env.Found,
		Index:       env.Index,
		ID:          env.ID,
		Version:     env.Version,
		SeqNo:       env.SeqNo,
		PrimaryTerm: env.PrimaryTerm,
		Source:      env.Source,
	}, nil
}

// DecodeMultiGetResponse decodes an mget response body.
func DecodeMultiGetResponse(r io.Reader) ([]GetResult, error) {
	var env struct {
		Docs []getEnvelope `json:"docs"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("search: decode mget response: %w", err)
	}
	results := make([]GetResult, len(env.Docs))
	for i, d := range env.Docs {
		results[i] = GetResult{
			Found:       d.Found,
			Index:       d.Index,
			ID:          d.ID,
			Version:     d.Version,
			SeqNo:       d.SeqNo,
			PrimaryTerm: d.PrimaryTerm,
			Source:      d.Source,
		}
	}
	return results, nil
}

// DecodeIndexResponse decodes an index-document response body.
func DecodeIndexResponse(r io.Reader) (*IndexResult, error) {
	var env struct {
		ID          string `json:"_id"`
		Version     int64  `json:"_version"`
		SeqNo       int64  `json:"_seq_no"`
		PrimaryTerm int64  `json:"_primary_term"`
		Result      string `json:"result"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("search: decode index response: %w", err)
	}
	return &IndexResult{
		ID:          env.ID,
		Version:     env.Version,
		SeqNo:       env.SeqNo,
		PrimaryTerm: env.PrimaryTerm,
		Created:     env.Result == "created",
	}, nil
}

type bulkItemEnvelope struct {
	Index   string `json:"_index"`
	ID      string `json:"_id"`
	Version int64  `json:"_version"`
	Status  int    `json:"status"`
	Error   *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// DecodeBulkResponse decodes a bulk response body.
func DecodeBulkResponse(r io.Reader) (*BulkResult, error) {
	var env struct {
		Took   int64                         `json:"took"`
		Errors bool                          `json:"errors"`
		Items  []map[string]bulkItemEnvelope `json:"items"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("search: decode bulk response: %w", err)
	}

	result := &BulkResult{
		Took:  time.Duration(env.Took) * time.Millisecond,
		Items: make([]BulkItem, 0, len(env.Items)),
	}
	for _, entry := range env.Items {
		for action, item := range entry {
			out := BulkItem{
				Action:  BulkAction(action),
				Index:   item.Index,
				ID:      item.ID,
				Status:  item.Status,
				Version: item.Version,
			}
			if item.Error != nil {
				out.Err = NewError(item.Status, item.Error.Type, item.Error.Reason)
			}
			result.Items = append(result.Items, out)
		}
	}
	return result, nil
}

// DecodeCountResponse decodes a count response body.
func DecodeCountResponse(r io.Reader) (int64, error) {
	var env struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return 0, fmt.Errorf("search: decode count response: %w", err)
	}
	return env.Count, nil
}

// DecodeByQueryResponse decodes a delete-by-query or update-by-query
// response body, returning the number of affected documents.
func DecodeByQueryResponse(r io.Reader) (int64, error) {
	var env struct {
		Deleted int64 `json:"deleted"`
		Updated int64 `json:"updated"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return 0, fmt.Errorf("search: decode by-query response: %w", err)
	}
	return env.Deleted + env.Updated, nil
}

// DecodeIndexSection unwraps `{"<index>": {"<section>": {...}}}`
// envelopes returned by get-mapping and get-settings. When the exact
// index key is absent (e.g. the request went through an alias), the
// first entry is used.
func DecodeIndexSection(r io.Reader, index, section string) (map[string]any, error) {
	var env map[string]map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("search: decode %s response: %w", section, err)
	}

	entry, ok := env[index]
	if !ok {
		for _, v := range env {
			entry = v
			break
		}
	}
	raw, ok := entry[section]
	if !ok {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("search: decode %s response: %w", section, err)
	}
	return out, nil
}

// DecodeAliasesResponse decodes a get-alias response into a map of
// index name to alias names.
func DecodeAliasesResponse(r io.Reader) (map[string][]string, error) {
	var env map[string]struct {
		Aliases map[string]json.RawMessage `json:"aliases"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("search: decode aliases response: %w", err)
	}
	out := make(map[string][]string, len(env))
	for index, entry := range env {
		aliases := make([]string, 0, len(entry.Aliases))
		for alias := range entry.Aliases {
			aliases = append(aliases, alias)
		}
		out[index] = aliases
	}
	return out, nil
}

// AliasActionsBody renders alias actions as an update-aliases body.
func AliasActionsBody(actions []AliasAction) map[string]any {
	items := make([]map[string]any, len(actions))
	for i, a := range actions {
		items[i] = map[string]any{
			a.Type: map[string]any{"index": a.Index, "alias": a.Alias},
		}
	}
	return map[string]any{"actions": items}
}

// DecodeErrorResponse turns a non-2xx response body into an *Error.
func DecodeErrorResponse(status int, r io.Reader) error {
	var env struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return NewError(status, "", "")
	}
	return NewError(status, env.Error.Type, env.Error.Reason)
}

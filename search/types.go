// Package search defines the common operations surface over the
// supported backends. A Backend implements the transport-level calls
// for one client library; Operations layers index-name prefixing,
// auto index creation, metrics, tracing and resilience on top and is
// what applications are expected to hold.
package search

import (
	"encoding/json"
	"time"
)

// Kind identifies a backend driver.
type Kind string

const (
	KindElasticsearch  Kind = "elasticsearch"
	KindElasticsearch7 Kind = "elasticsearch7"
	KindOpenSearch     Kind = "opensearch"
)

// Hit is one search result.
type Hit struct {
	Index       string              `json:"index"`
	ID          string              `json:"id"`
	Score       float64             `json:"score"`
	Version     int64               `json:"version,omitempty"`
	SeqNo       int64               `json:"seq_no,omitempty"`
	PrimaryTerm int64               `json:"primary_term,omitempty"`
	Routing     string              `json:"routing,omitempty"`
	Source      json.RawMessage     `json:"source"`
	Highlight   map[string][]string `json:"highlight,omitempty"`
	Sort        []any               `json:"sort,omitempty"`
}

// Result is a decoded search response.
type Result struct {
	Total         int64                      `json:"total"`
	TotalRelation string                     `json:"total_relation"`
	MaxScore      float64                    `json:"max_score"`
	Hits          []Hit                      `json:"hits"`
	Aggregations  map[string]json.RawMessage `json:"aggregations,omitempty"`
	ScrollID      string                     `json:"scroll_id,omitempty"`
	Took          time.Duration              `json:"took"`
	TimedOut      bool                       `json:"timed_out"`
	Backend       Kind                       `json:"backend,omitempty"`
}

// GetResult is a decoded get response.
type GetResult struct {
	Found       bool            `json:"found"`
	Index       string          `json:"index"`
	ID          string          `json:"id"`
	Version     int64           `json:"version"`
	SeqNo       int64           `json:"seq_no"`
	PrimaryTerm int64           `json:"primary_term"`
	Source      json.RawMessage `json:"source"`
}

// IndexRequest stores one document.
type IndexRequest struct {
	Index   string
	ID      string // empty lets the backend assign one
	Routing string
	Refresh bool
	// OpTypeCreate fails the request when the id already exists.
	OpTypeCreate bool
	// IfSeqNo/IfPrimaryTerm enable optimistic concurrency control.
	IfSeqNo       *int64
	IfPrimaryTerm *int64
	Document      any
}

// IndexResult reports the outcome of an index call.
type IndexResult struct {
	ID          string `json:"id"`
	Version     int64  `json:"version"`
	SeqNo       int64  `json:"seq_no"`
	PrimaryTerm int64  `json:"primary_term"`
	Created     bool   `json:"created"`
}

// GetRequest fetches one document.
type GetRequest struct {
	Index   string
	ID      string
	Routing string
}

// Script is a painless script used by update calls.
type Script struct {
	Source string         `json:"source"`
	Lang   string         `json:"lang,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// UpdateRequest applies a partial document or a script to one document.
type UpdateRequest struct {
	Index           string
	ID              string
	Routing         string
	Refresh         bool
	Doc             any // partial document merge
	Script          *Script
	Upsert          any
	DocAsUpsert     bool
	RetryOnConflict int
}

// DeleteRequest removes one document.
type DeleteRequest struct {
	Index         string
	ID            string
	Routing       string
	Refresh       bool
	IfSeqNo       *int64
	IfPrimaryTerm *int64
}

// SearchRequest runs a query body against one or more indices.
type SearchRequest struct {
	Indices []string
	Body    map[string]any
	Routing string
	// Scroll keeps a scroll context alive for the given duration;
	// zero disables scrolling.
	Scroll time.Duration
}

// BulkAction is the action of one bulk line.
type BulkAction string

const (
	BulkIndex  BulkAction = "index"
	BulkCreate BulkAction = "create"
	BulkUpdate BulkAction = "update"
	BulkDelete BulkAction = "delete"
)

// BulkOp is one operation inside a bulk request. For BulkUpdate the
// Document is the partial document to merge.
type BulkOp struct {
	Action   BulkAction
	Index    string // empty falls back to the request-level index
	ID       string
	Routing  string
	Document any
}

// BulkItem is the per-operation outcome of a bulk request.
type BulkItem struct {
	Action  BulkAction `json:"action"`
	Index   string     `json:"index"`
	ID      string     `json:"id"`
	Status  int        `json:"status"`
	Version int64      `json:"version,omitempty"`
	Err     error      `json:"error,omitempty"`
}

// BulkResult is a decoded bulk response.
type BulkResult struct {
	Took  time.Duration `json:"took"`
	Items []BulkItem    `json:"items"`
}

// Failed returns the items that did not succeed.
func (r *BulkResult) Failed() []BulkItem {
	var failed []BulkItem
	for _, item := range r.Items {
		if item.Err != nil {
			failed = append(failed, item)
		}
	}
	return failed
}

// AliasAction is one entry of an update-aliases request.
type AliasAction struct {
	// Type is "add" or "remove".
	Type  string
	Index string
	Alias string
}

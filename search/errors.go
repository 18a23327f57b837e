package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNoBackendAvailable = errors.New("no search backend available")
	ErrBackendNotFound    = errors.New("search backend not found")
	ErrNotFound           = errors.New("document not found")
	ErrConflict           = errors.New("version conflict")
	ErrIndexExists        = errors.New("index already exists")
	ErrIndexNotFound      = errors.New("index not found")
)

// Error is a response-level failure reported by the cluster.
type Error struct {
	Status int    // HTTP status
	Kind   string // error type, e.g. version_conflict_engine_exception
	Reason string
}

func (e *Error) Error() string {
	if e.Kind == "" && e.Reason == "" {
		return fmt.Sprintf("search: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("search: %s (status %d): %s", e.Kind, e.Status, e.Reason)
}

// Is maps well-known statuses and error types onto sentinel errors so
// callers can use errors.Is without inspecting cluster responses.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == 404 && e.Kind != "index_not_found_exception"
	case ErrIndexNotFound:
		return e.Kind == "index_not_found_exception"
	case ErrConflict:
		return e.Status == 409
	case ErrIndexExists:
		return e.Kind == "resource_already_exists_exception"
	}
	return false
}

// NewError builds a response error.
func NewError(status int, kind, reason string) *Error {
	return &Error{Status: status, Kind: kind, Reason: reason}
}

func isExistsErr(err error) bool {
	return errors.Is(err, ErrIndexExists)
}

// BulkError aggregates the failed items of a bulk request keyed by
// document id.
type BulkError struct {
	Items map[string]error
}

func (e *BulkError) Error() string {
	ids := make([]string, 0, len(e.Items))
	for id := range e.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) > 5 {
		return fmt.Sprintf("search: bulk request failed for %d documents (first: %s)", len(ids), ids[0])
	}
	return fmt.Sprintf("search: bulk request failed for documents [%s]", strings.Join(ids, ", "))
}

// AsBulkError collects the failures of a bulk result into a BulkError,
// or returns nil when every item succeeded.
func AsBulkError(r *BulkResult) error {
	if r == nil {
		return nil
	}
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	items := make(map[string]error, len(failed))
	for _, item := range failed {
		items[item.ID] = item.Err
	}
	return &BulkError{Items: items}
}

package search

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BuildBulkBody renders operations as an NDJSON bulk request body.
// defaultIndex is used for operations without their own index; the
// action line then leaves _index to the URL-level default.
func BuildBulkBody(defaultIndex string, ops []BulkOp) (string, error) {
	var body strings.Builder
	enc := json.NewEncoder(&body)

	for i, op := range ops {
		action := op.Action
		if action == "" {
			action = BulkIndex
		}

		header := map[string]any{}
		if op.Index != "" && op.Index != defaultIndex {
			header["_index"] = op.Index
		}
		if op.ID != "" {
			header["_id"] = op.ID
		}
		if op.Routing != "" {
			header["routing"] = op.Routing
		}
		if err := enc.Encode(map[string]any{string(action): header}); err != nil {
			return "", fmt.Errorf("search: encode bulk action %d: %w", i, err)
		}

		switch action {
		case BulkIndex, BulkCreate:
			if err := enc.Encode(op.Document); err != nil {
				return "", fmt.Errorf("search: encode bulk document %d: %w", i, err)
			}
		case BulkUpdate:
			if err := enc.Encode(map[string]any{"doc": op.Document}); err != nil {
				return "", fmt.Errorf("search: encode bulk update %d: %w", i, err)
			}
		case BulkDelete:
			// no body line
		default:
			return "", fmt.Errorf("search: unknown bulk action %q", action)
		}
	}
	return body.String(), nil
}

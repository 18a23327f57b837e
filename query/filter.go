package query

import (
	"fmt"
	"sort"
)

// FromFilter converts a flat filter map into bool/filter clauses:
// scalar values become term clauses, slices become terms clauses and
// nested maps with gt/gte/lt/lte keys become range clauses. Keys are
// visited in sorted order so output is stable.
func FromFilter(filter map[string]any) []Query {
	if len(filter) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]Query, 0, len(filter))
	for _, field := range keys {
		clauses = append(clauses, filterClause(field, filter[field]))
	}
	return clauses
}

func filterClause(field string, value any) Query {
	switch v := value.(type) {
	case []any:
		return Terms(field, v...)
	case []string:
		vals := make([]any, len(v))
		for i, s := range v {
			vals[i] = s
		}
		return Terms(field, vals...)
	case map[string]any:
		if isRangeBounds(v) {
			r := NewRange(field)
			for op, bound := range v {
				switch op {
				case "gt":
					r.Gt(bound)
				case "gte":
					r.Gte(bound)
				case "lt":
					r.Lt(bound)
				case "lte":
					r.Lte(bound)
				case "format":
					r.Format(fmt.Sprint(bound))
				}
			}
			return r.Build()
		}
		return Query{"term": map[string]any{field: v}}
	default:
		return Term(field, v)
	}
}

func isRangeBounds(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		switch k {
		case "gt", "gte", "lt", "lte", "format":
		default:
			return false
		}
	}
	return true
}

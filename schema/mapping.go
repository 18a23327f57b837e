package schema

import "encoding/json"

// Mapping renders the `mappings` section of a create-index body.
func (m *Metadata) Mapping() map[string]any {
	return map[string]any{
		"properties": m.Properties(),
	}
}

// MappingJSON renders the mappings as JSON.
func (m *Metadata) MappingJSON() ([]byte, error) {
	return json.Marshal(m.Mapping())
}

// Properties renders the property map for every mapped field.
func (m *Metadata) Properties() map[string]any {
	return m.properties(map[*Metadata]bool{m: true})
}

func (m *Metadata) properties(rendering map[*Metadata]bool) map[string]any {
	props := make(map[string]any, len(m.Fields))
	for _, f := range m.Fields {
		if f.Ignore {
			continue
		}
		props[f.Wire] = f.property(rendering)
	}
	return props
}

func (f *Field) property(rendering map[*Metadata]bool) map[string]any {
	p := map[string]any{"type": string(f.Type)}

	switch f.Type {
	case TypeText:
		if f.Analyzer != "" {
			p["analyzer"] = f.Analyzer
		}
		if f.SearchAnalyzer != "" {
			p["search_analyzer"] = f.SearchAnalyzer
		}
		// Keep a raw keyword variant for sorting and aggregations.
		p["fields"] = map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		}
	case TypeDate:
		if f.Format != "" {
			p["format"] = f.Format
		}
	case TypeDenseVector:
		if f.Dims > 0 {
			p["dims"] = f.Dims
		}
	case TypeObject, TypeNested:
		// Self-referential types stop at the first repeat; dynamic
		// mapping covers the inner occurrences.
		if f.Object != nil && !rendering[f.Object] {
			rendering[f.Object] = true
			p["properties"] = f.Object.properties(rendering)
			delete(rendering, f.Object)
		}
	}

	if !f.Index {
		p["index"] = false
	}
	if f.Store {
		p["store"] = true
	}
	if f.CopyTo != "" {
		p["copy_to"] = f.CopyTo
	}
	return p
}

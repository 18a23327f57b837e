package schema

import "encoding/json"

// IndexSettings holds index-level defaults applied at creation time.
type IndexSettings struct {
	Shards          int            `json:"shards" yaml:"shards"`
	Replicas        int            `json:"replicas" yaml:"replicas"`
	RefreshInterval string         `json:"refresh_interval" yaml:"refresh_interval"`
	MaxResultWindow int            `json:"max_result_window" yaml:"max_result_window"`
	Analysis        map[string]any `json:"analysis" yaml:"analysis"`
}

// DefaultIndexSettings returns settings suitable for development clusters.
func DefaultIndexSettings() *IndexSettings {
	return &IndexSettings{
		Shards:          1,
		Replicas:        0,
		RefreshInterval: "1s",
	}
}

// Settings renders the `settings` section of a create-index body.
func (s *IndexSettings) Settings() map[string]any {
	out := map[string]any{}
	if s == nil {
		return out
	}
	if s.Shards > 0 {
		out["number_of_shards"] = s.Shards
	}
	if s.Replicas >= 0 {
		out["number_of_replicas"] = s.Replicas
	}
	if s.RefreshInterval != "" {
		out["refresh_interval"] = s.RefreshInterval
	}
	if s.MaxResultWindow > 0 {
		out["max_result_window"] = s.MaxResultWindow
	}
	if len(s.Analysis) > 0 {
		out["analysis"] = s.Analysis
	}
	return out
}

// CreateBody renders the full create-index body for a mapped type.
func (m *Metadata) CreateBody(settings *IndexSettings) map[string]any {
	body := map[string]any{
		"mappings": m.Mapping(),
	}
	if settings != nil {
		body["settings"] = settings.Settings()
	}
	return body
}

// CreateBodyJSON renders CreateBody as JSON.
func (m *Metadata) CreateBodyJSON(settings *IndexSettings) ([]byte, error) {
	return json.Marshal(m.CreateBody(settings))
}

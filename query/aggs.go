package query

// Agg is an aggregation clause, optionally carrying sub-aggregations.
type Agg map[string]any

// Sub attaches named sub-aggregations and returns the receiver.
func (a Agg) Sub(name string, sub Agg, more ...any) Agg {
	aggs, _ := a["aggs"].(map[string]any)
	if aggs == nil {
		aggs = map[string]any{}
		a["aggs"] = aggs
	}
	aggs[name] = sub
	// more holds alternating name/Agg pairs for convenience.
	for i := 0; i+1 < len(more); i += 2 {
		if n, ok := more[i].(string); ok {
			if s, ok := more[i+1].(Agg); ok {
				aggs[n] = s
			}
		}
	}
	return a
}

// TermsAgg buckets by exact field values.
func TermsAgg(field string, size int) Agg {
	body := map[string]any{"field": field}
	if size > 0 {
		body["size"] = size
	}
	return Agg{"terms": body}
}

// AvgAgg computes the average of a numeric field.
func AvgAgg(field string) Agg { return metricAgg("avg", field) }

// SumAgg computes the sum of a numeric field.
func SumAgg(field string) Agg { return metricAgg("sum", field) }

// MinAgg computes the minimum of a numeric field.
func MinAgg(field string) Agg { return metricAgg("min", field) }

// MaxAgg computes the maximum of a numeric field.
func MaxAgg(field string) Agg { return metricAgg("max", field) }

// StatsAgg computes count/min/max/avg/sum in one pass.
func StatsAgg(field string) Agg { return metricAgg("stats", field) }

// ValueCountAgg counts values of a field.
func ValueCountAgg(field string) Agg { return metricAgg("value_count", field) }

// CardinalityAgg estimates distinct values of a field.
func CardinalityAgg(field string) Agg { return metricAgg("cardinality", field) }

func metricAgg(kind, field string) Agg {
	return Agg{kind: map[string]any{"field": field}}
}

// DateHistogramAgg buckets by calendar interval, e.g. "1d" or "month".
func DateHistogramAgg(field, interval string) Agg {
	return Agg{"date_histogram": map[string]any{
		"field":             field,
		"calendar_interval": interval,
	}}
}

// HistogramAgg buckets a numeric field by fixed interval.
func HistogramAgg(field string, interval float64) Agg {
	return Agg{"histogram": map[string]any{
		"field":    field,
		"interval": interval,
	}}
}

// FilterAgg narrows a sub-aggregation scope with a query.
func FilterAgg(q Query) Agg {
	return Agg{"filter": q}
}

// NestedAgg aggregates inside a nested path.
func NestedAgg(path string) Agg {
	return Agg{"nested": map[string]any{"path": path}}
}

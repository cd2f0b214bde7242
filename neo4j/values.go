package neo4j

import (
	"github.com/asaidimu/go-cypher/core/query"
	driver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func toRecord(keys []string, values []any) query.Record {
	r := make(query.Record, len(keys))
	for i, k := range keys {
		if i < len(values) {
			r[k] = toValue(values[i])
		}
	}
	return r
}

// toValue replaces driver graph types with plain maps and lists so records
// can be marshalled and decoded like any other data.
func toValue(v any) any {
	switch t := v.(type) {
	case driver.Node:
		return map[string]any{
			"identity":   t.ElementId,
			"labels":     t.Labels,
			"properties": toValue(t.Props),
		}
	case driver.Relationship:
		return map[string]any{
			"identity":   t.ElementId,
			"start":      t.StartElementId,
			"end":        t.EndElementId,
			"label":      t.Type,
			"properties": toValue(t.Props),
		}
	case driver.Path:
		nodes := make([]any, len(t.Nodes))
		for i, n := range t.Nodes {
			nodes[i] = toValue(n)
		}
		rels := make([]any, len(t.Relationships))
		for i, r := range t.Relationships {
			rels[i] = toValue(r)
		}
		return map[string]any{"nodes": nodes, "relationships": rels}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = toValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = toValue(item)
		}
		return out
	default:
		return v
	}
}

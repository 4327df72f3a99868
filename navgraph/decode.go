package navgraph

import (
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Result columns understood by DecodePathRecord.
const (
	ColumnPath  = "path"
	ColumnNodes = "nodes"
	ColumnRels  = "rels"
)

// DecodePathRecord 将一行结果转换为 PathRecord。
// 路径取自 "path" 列，或由 "nodes" + "rels" 两列拼接；其余列放入 Values。
func DecodePathRecord(row map[string]any) (PathRecord, bool) {
	rec := PathRecord{Values: make(map[string]any, len(row))}
	for k, v := range row {
		if k == ColumnPath || k == ColumnNodes || k == ColumnRels {
			continue
		}
		rec.Values[k] = v
	}

	if raw, ok := row[ColumnPath]; ok {
		p, ok := decodePath(raw)
		if !ok {
			return PathRecord{}, false
		}
		rec.Path = p
		return rec, true
	}

	rawNodes, okN := row[ColumnNodes].([]any)
	rawRels, okR := row[ColumnRels].([]any)
	if !okN || !okR || len(rawNodes) != len(rawRels)+1 {
		return PathRecord{}, false
	}
	for _, n := range rawNodes {
		dn, ok := n.(neo4j.Node)
		if !ok {
			return PathRecord{}, false
		}
		rec.Path.Nodes = append(rec.Path.Nodes, fromDBNode(dn))
	}
	for _, r := range rawRels {
		dr, ok := r.(neo4j.Relationship)
		if !ok {
			return PathRecord{}, false
		}
		rec.Path.Relationships = append(rec.Path.Relationships, fromDBRelationship(dr))
	}
	return rec, true
}

func decodePath(v any) (Path, bool) {
	switch p := v.(type) {
	case neo4j.Path:
		out := Path{
			Nodes:         make([]Node, len(p.Nodes)),
			Relationships: make([]Relationship, len(p.Relationships)),
		}
		for i, n := range p.Nodes {
			out.Nodes[i] = fromDBNode(n)
		}
		for i, r := range p.Relationships {
			out.Relationships[i] = fromDBRelationship(r)
		}
		if len(out.Nodes) != len(out.Relationships)+1 {
			return Path{}, false
		}
		return out, true
	case Path:
		return p, true
	default:
		return Path{}, false
	}
}

func fromDBNode(n neo4j.Node) Node {
	return Node{ID: n.ElementId, Labels: n.Labels, Properties: n.Props}
}

func fromDBRelationship(r neo4j.Relationship) Relationship {
	return Relationship{
		ID:         r.ElementId,
		Type:       r.Type,
		StartID:    r.StartElementId,
		EndID:      r.EndElementId,
		Properties: r.Props,
	}
}

// =============================================================================
// 列值转换
// =============================================================================

// Float64s converts a stored embedding column to []float64.
func Float64s(v any) ([]float64, bool) {
	switch vec := v.(type) {
	case []float64:
		return vec, true
	case []float32:
		out := make([]float64, len(vec))
		for i, f := range vec {
			out[i] = float64(f)
		}
		return out, true
	case []any:
		out := make([]float64, len(vec))
		for i, e := range vec {
			switch f := e.(type) {
			case float64:
				out[i] = f
			case float32:
				out[i] = float64(f)
			case int64:
				out[i] = float64(f)
			case int:
				out[i] = float64(f)
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// Int64 converts an integer column.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	default:
		return 0, false
	}
}

// String converts a string column; nil becomes "".
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// Strings converts a list column to []string; a bare string becomes a
// one-element list.
func Strings(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if e == nil {
				continue
			}
			out = append(out, String(e))
		}
		return out
	default:
		return []string{fmt.Sprint(s)}
	}
}

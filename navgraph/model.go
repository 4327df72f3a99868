package navgraph

import (
	"fmt"
	"strings"
)

// Node 是图中的一个节点，ID 为 Neo4j elementId。
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// HasLabel reports whether the node carries label.
func (n Node) HasLabel(label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// String returns the string property key, or "" when missing.
func (n Node) String(key string) string {
	return stringProp(n.Properties, key)
}

// Relationship 是一条有向边。
type Relationship struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	StartID    string         `json:"start_id"`
	EndID      string         `json:"end_id"`
	Properties map[string]any `json:"properties,omitempty"`
}

// String returns the string property key, or "" when missing.
func (r Relationship) String(key string) string {
	return stringProp(r.Properties, key)
}

// Path 是节点与边交替组成的序列：len(Nodes) == len(Relationships)+1。
// Relationships[i] 连接 Nodes[i] 与 Nodes[i+1]。
type Path struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Len returns the number of relationships in the path.
func (p Path) Len() int {
	return len(p.Relationships)
}

// Start returns the first node of the path.
func (p Path) Start() (Node, bool) {
	if len(p.Nodes) == 0 {
		return Node{}, false
	}
	return p.Nodes[0], true
}

// End returns the last node of the path.
func (p Path) End() (Node, bool) {
	if len(p.Nodes) == 0 {
		return Node{}, false
	}
	return p.Nodes[len(p.Nodes)-1], true
}

// EdgeIDs returns the relationship ids in path order.
func (p Path) EdgeIDs() []string {
	ids := make([]string, len(p.Relationships))
	for i, r := range p.Relationships {
		ids[i] = r.ID
	}
	return ids
}

// String renders the path for logs, e.g. "a-[r1]->b".
func (p Path) String() string {
	var sb strings.Builder
	for i, n := range p.Nodes {
		if i > 0 && i-1 < len(p.Relationships) {
			fmt.Fprintf(&sb, "-[%s]->", p.Relationships[i-1].ID)
		}
		sb.WriteString(n.ID)
	}
	return sb.String()
}

// PathRecord 是路径查询返回的一行：路径本身加上其余列。
type PathRecord struct {
	Path   Path
	Values map[string]any
}

// Value returns column key of the record.
func (r PathRecord) Value(key string) (any, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// PageNode 是带 URL 模板的页面节点。
type PageNode struct {
	ID  string
	URL string
}

func stringProp(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

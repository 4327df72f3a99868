package navgraph

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

// pathOf builds a path whose relationships carry the given ids; the first
// node is tagged so tests can tell paths apart.
func pathOf(tag string, edgeIDs ...string) Path {
	p := Path{Nodes: []Node{{ID: tag}}}
	for i, id := range edgeIDs {
		p.Relationships = append(p.Relationships, Relationship{ID: id, Type: RelAction})
		p.Nodes = append(p.Nodes, Node{ID: fmt.Sprintf("%s-n%d", tag, i+1)})
	}
	return p
}

func tags(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.Nodes[0].ID
	}
	return out
}

func TestMaximalPaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []Path
		want  []string
	}{
		{
			name:  "subset dropped",
			paths: []Path{pathOf("A", "e1"), pathOf("B", "e1", "e2"), pathOf("C", "e3")},
			want:  []string{"B", "C"},
		},
		{
			name:  "duplicates keep first",
			paths: []Path{pathOf("A", "e1", "e2"), pathOf("B", "e2", "e1")},
			want:  []string{"A"},
		},
		{
			name:  "single node dropped when others exist",
			paths: []Path{pathOf("A"), pathOf("B", "e1")},
			want:  []string{"B"},
		},
		{
			name:  "overlap without containment keeps both",
			paths: []Path{pathOf("A", "e1", "e2"), pathOf("B", "e2", "e3")},
			want:  []string{"A", "B"},
		},
		{
			name:  "chain of prefixes",
			paths: []Path{pathOf("A", "e1"), pathOf("B", "e1", "e2"), pathOf("C", "e1", "e2", "e3")},
			want:  []string{"C"},
		},
		{
			name:  "empty",
			paths: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tags(MaximalPaths(tt.paths)))
		})
	}
}

func TestMaximalRecords_KeepsValues(t *testing.T) {
	records := []PathRecord{
		{Path: pathOf("A", "e1"), Values: map[string]any{"source_id": "s1"}},
		{Path: pathOf("B", "e1", "e2"), Values: map[string]any{"source_id": "s1"}},
	}

	got := MaximalRecords(records)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "B", got[0].Path.Nodes[0].ID)
		assert.Equal(t, "s1", got[0].Values["source_id"])
	}
}

func edgeSet(p Path) map[string]struct{} {
	s := make(map[string]struct{})
	for _, r := range p.Relationships {
		s[r.ID] = struct{}{}
	}
	return s
}

func genPaths() gopter.Gen {
	return gen.SliceOf(gen.SliceOf(gen.IntRange(0, 5))).Map(func(raw [][]int) []Path {
		paths := make([]Path, len(raw))
		for i, ids := range raw {
			seen := map[int]bool{}
			var edges []string
			for _, id := range ids {
				if !seen[id] {
					seen[id] = true
					edges = append(edges, "e"+strconv.Itoa(id))
				}
			}
			paths[i] = pathOf("p"+strconv.Itoa(i), edges...)
		}
		return paths
	})
}

func TestProperty_MaximalPaths(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("no survivor is strictly contained in an input path", prop.ForAll(
		func(paths []Path) bool {
			for _, s := range MaximalPaths(paths) {
				ss := edgeSet(s)
				for _, p := range paths {
					ps := edgeSet(p)
					if len(ss) < len(ps) && subset(ss, ps) {
						return false
					}
				}
			}
			return true
		},
		genPaths(),
	))

	properties.Property("every input is covered by a survivor", prop.ForAll(
		func(paths []Path) bool {
			survivors := MaximalPaths(paths)
			for _, p := range paths {
				covered := false
				for _, s := range survivors {
					if subset(edgeSet(p), edgeSet(s)) {
						covered = true
						break
					}
				}
				if !covered {
					return false
				}
			}
			return true
		},
		genPaths(),
	))

	properties.Property("idempotent and order preserving", prop.ForAll(
		func(paths []Path) bool {
			once := MaximalPaths(paths)
			twice := MaximalPaths(once)
			if fmt.Sprint(tags(once)) != fmt.Sprint(tags(twice)) {
				return false
			}
			last := -1
			for _, tag := range tags(once) {
				i, _ := strconv.Atoi(tag[1:])
				if i <= last {
					return false
				}
				last = i
			}
			return true
		},
		genPaths(),
	))

	properties.TestingRun(t)
}

func TestFlowConsistent(t *testing.T) {
	tagged := func(flows any) map[string]any { return map[string]any{PropFlows: flows} }

	tests := []struct {
		name string
		path Path
		want bool
	}{
		{
			name: "untagged passes",
			path: pathOf("A", "e1", "e2"),
			want: true,
		},
		{
			name: "shared flow",
			path: Path{
				Nodes: []Node{
					{ID: "a", Properties: tagged([]any{"checkout", "browse"})},
					{ID: "b", Properties: tagged([]any{"checkout"})},
				},
				Relationships: []Relationship{{ID: "r", Properties: tagged("checkout")}},
			},
			want: true,
		},
		{
			name: "disjoint flows",
			path: Path{
				Nodes: []Node{
					{ID: "a", Properties: tagged([]any{"checkout"})},
					{ID: "b", Properties: tagged([]any{"browse"})},
				},
				Relationships: []Relationship{{ID: "r"}},
			},
			want: false,
		},
		{
			name: "empty tag list counts as untagged",
			path: Path{
				Nodes: []Node{
					{ID: "a", Properties: tagged([]any{})},
					{ID: "b", Properties: tagged([]string{"browse"})},
				},
				Relationships: []Relationship{{ID: "r"}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlowConsistent(tt.path))
		})
	}

	kept := FilterFlowConsistent([]Path{tests[1].path, tests[2].path, tests[0].path})
	assert.Len(t, kept, 2)
}

func TestSortByLengthDesc_Stable(t *testing.T) {
	in := []Path{pathOf("A", "e1"), pathOf("B", "e1", "e2"), pathOf("C", "e3"), pathOf("D", "e4", "e5")}

	got := SortByLengthDesc(in)

	assert.Equal(t, []string{"B", "D", "A", "C"}, tags(got))
	assert.Equal(t, []string{"A", "B", "C", "D"}, tags(in), "input must not be reordered")
}

func TestPath_Accessors(t *testing.T) {
	p := pathOf("A", "e1", "e2")

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, []string{"e1", "e2"}, p.EdgeIDs())
	start, ok := p.Start()
	assert.True(t, ok)
	assert.Equal(t, "A", start.ID)
	end, ok := p.End()
	assert.True(t, ok)
	assert.Equal(t, "A-n2", end.ID)
	assert.Equal(t, "A-[e1]->A-n1-[e2]->A-n2", p.String())

	_, ok = Path{}.Start()
	assert.False(t, ok)
}

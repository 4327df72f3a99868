package grounding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/graphground/navgraph"
	"github.com/BaSui01/graphground/testutil"
	"github.com/BaSui01/graphground/testutil/fixtures"
	"github.com/BaSui01/graphground/testutil/mocks"
	"github.com/BaSui01/graphground/types"
)

func TestTaskEmbeddingRetriever_SimilarNodes(t *testing.T) {
	graph := fixtures.EmbeddingGraph()
	r := NewTaskEmbeddingRetriever(graph, goalEmbedder())
	assert.Equal(t, IterationLLMAugmentedGraph, r.Iteration())

	g, err := r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	require.NoError(t, err)
	require.NotNil(t, g)

	// 按相似度降序；恰为 0.75 的 emb-boundary 被排除
	assert.Equal(t,
		"Goal: Purchase an item (Similarity: 1.0000)\n1. Click Buy now\n2. Confirm order\n\n"+
			"Goal: Browse deals (Similarity: 0.8536)\n1. Open deals page",
		g.Text())

	for _, c := range graph.Calls() {
		if c.Query == navgraph.QueryForwardFromNodes {
			assert.Equal(t, []string{"emb-exact", "emb-high"}, c.Params[navgraph.ParamIDs])
		}
	}
}

func TestTaskEmbeddingRetriever_CapsAtTopK(t *testing.T) {
	graph := mocks.NewMemoryGraph().
		AddNode("g", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Fan out", navgraph.PropEmbed: fixtures.VecExact,
		})
	for _, id := range []string{"s1", "s2", "s3", "s4"} {
		graph.AddNode(id, []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "step " + id}).
			AddRelationship("g-"+id, "HAS_STEP", "g", id, nil)
	}
	r := NewTaskEmbeddingRetriever(graph, goalEmbedder())

	g, err := r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	require.NoError(t, err)
	require.NotNil(t, g)
	require.Len(t, g.Blocks, 3)
	assert.Equal(t, "Goal: Fan out (Similarity: 1.0000)\n1. step s1", g.Blocks[0])
	assert.Equal(t, "Goal: Fan out (Similarity: 1.0000)\n1. step s3", g.Blocks[2])
}

func TestTaskEmbeddingRetriever_ThresholdIsExclusive(t *testing.T) {
	graph := mocks.NewMemoryGraph().
		AddNode("b", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Boundary", navgraph.PropEmbed: fixtures.VecAt075,
		}).
		AddNode("s", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "step"}).
		AddRelationship("bs", "HAS_STEP", "b", "s", nil)
	r := NewTaskEmbeddingRetriever(graph, goalEmbedder())

	g, err := r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	require.NoError(t, err)
	assert.Nil(t, g)
	assert.Zero(t, graph.CallsTo(navgraph.QueryForwardFromNodes))

	// 阈值稍低时通过
	r = NewTaskEmbeddingRetriever(graph, goalEmbedder(), WithTaskEmbeddingThreshold(0.7499))
	g, err = r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "Goal: Boundary (Similarity: 0.7500)\n1. step", g.Text())
}

func TestTaskEmbeddingRetriever_SkipsMismatchedDimensions(t *testing.T) {
	graph := mocks.NewMemoryGraph().
		AddNode("odd", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Odd", navgraph.PropEmbed: []float64{1, 0},
		})
	r := NewTaskEmbeddingRetriever(graph, goalEmbedder())

	g, err := r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestTaskEmbeddingRetriever_FlowInconsistentPathsDropped(t *testing.T) {
	graph := mocks.NewMemoryGraph().
		AddNode("g", []string{navgraph.LabelGoal}, map[string]any{
			navgraph.PropDesc: "Flows", navgraph.PropEmbed: fixtures.VecExact, navgraph.PropFlows: []any{"buy"},
		}).
		AddNode("a", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "ok", navgraph.PropFlows: []any{"buy"}}).
		AddNode("b", []string{navgraph.LabelStep}, map[string]any{navgraph.PropDesc: "off", navgraph.PropFlows: []any{"sell"}}).
		AddRelationship("ga", "HAS_STEP", "g", "a", nil).
		AddRelationship("ab", navgraph.RelAction, "a", "b", nil)
	r := NewTaskEmbeddingRetriever(graph, goalEmbedder())

	g, err := r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "Goal: Flows (Similarity: 1.0000)\n1. ok", g.Text())
}

func TestTaskEmbeddingRetriever_EmbeddingFailure(t *testing.T) {
	graph := fixtures.EmbeddingGraph()
	r := NewTaskEmbeddingRetriever(graph, mocks.NewMockEmbedder(4).WithError(errors.New("boom")))

	_, err := r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	testutil.AssertErrorCode(t, err, types.ErrUpstreamError)
	assert.Empty(t, graph.Calls())
}

func TestTaskEmbeddingRetriever_GraphUnavailable(t *testing.T) {
	graph := fixtures.EmbeddingGraph().
		WithQueryError(navgraph.QueryEmbeddedNodes, types.NewGraphUnavailableError("down", nil))
	r := NewTaskEmbeddingRetriever(graph, goalEmbedder())

	_, err := r.Retrieve(context.Background(), fixtures.ShopGoal, fixtures.ShopGoal)
	testutil.AssertErrorCode(t, err, types.ErrGraphUnavailable)
}

package grounding

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/navgraph"
	"github.com/BaSui01/graphground/testutil/fixtures"
	"github.com/BaSui01/graphground/testutil/mocks"
	"github.com/BaSui01/graphground/types"
)

func TestLongestPathRetriever_ShopGraph(t *testing.T) {
	reg := prometheus.NewRegistry()
	graph := fixtures.ShopGraph()
	r := NewLongestPathRetriever(graph, WithMetrics(metrics.NewCollector("test", reg, zap.NewNop())))
	assert.Equal(t, IterationStandard, r.Iteration())

	g, err := r.Retrieve(context.Background(), fixtures.ShopProductURL, "")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t,
		"1. (/products/987, click: buy) -> (/checkout, click: checkout) -> (/confirmation)",
		g.Text())

	// 查询参数来自选项默认值
	calls := graph.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, navgraph.QuerySimplePaths, calls[1].Query)
	assert.Equal(t, 10, calls[1].Params[navgraph.ParamMaxLength])
	assert.Equal(t, 200, calls[1].Params[navgraph.ParamLimit])
	assert.Equal(t, "page-product", calls[1].Params[navgraph.ParamSourceID])

	n, err := testutil.GatherAndCount(reg, "test_grounding_paths")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLongestPathRetriever_OrdersByLengthDesc(t *testing.T) {
	graph := mocks.NewMemoryGraph().
		AddPage("home", "https://shop.example/").
		AddPage("about", "https://shop.example/about").
		AddPage("list", "https://shop.example/list").
		AddPage("item", "https://shop.example/item").
		AddAction("a1", "home", "about", "click", "About").
		AddAction("a2", "home", "list", "click", "Catalog").
		AddAction("a3", "list", "item", "click", "First item")

	r := NewLongestPathRetriever(graph)
	g, err := r.Retrieve(context.Background(), "https://shop.example/", "")
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, []string{
		"1. (/, click: Catalog) -> (/list, click: First item) -> (/item)",
		"2. (/, click: About) -> (/about)",
	}, g.Blocks)
	assert.Equal(t, g.Blocks[0]+"\n\n"+g.Blocks[1], g.Text())
}

func TestLongestPathRetriever_FlowFilter(t *testing.T) {
	graph := mocks.NewMemoryGraph().
		AddNode("a", []string{navgraph.LabelURL}, map[string]any{
			navgraph.PropURL: "https://shop.example/a", navgraph.PropFlows: []any{"checkout", "browse"},
		}).
		AddNode("b", []string{navgraph.LabelURL}, map[string]any{
			navgraph.PropURL: "https://shop.example/b", navgraph.PropFlows: []any{"checkout"},
		}).
		AddNode("c", []string{navgraph.LabelURL}, map[string]any{
			navgraph.PropURL: "https://shop.example/c", navgraph.PropFlows: []any{"browse"},
		}).
		AddAction("ab", "a", "b", "click", "next").
		AddAction("bc", "b", "c", "click", "next")

	r := NewLongestPathRetriever(graph)
	g, err := r.Retrieve(context.Background(), "https://shop.example/a", "")
	require.NoError(t, err)
	require.NotNil(t, g)

	// a-b-c 没有共同 flow，只剩 a-b
	assert.Equal(t, "1. (/a, click: next) -> (/b)", g.Text())
}

func TestLongestPathRetriever_PageWithoutEdges(t *testing.T) {
	graph := mocks.NewMemoryGraph().AddPage("lonely", "https://shop.example/lonely")
	r := NewLongestPathRetriever(graph)

	g, err := r.Retrieve(context.Background(), "https://shop.example/lonely", "")
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestLongestPathRetriever_UnknownPage(t *testing.T) {
	r := NewLongestPathRetriever(fixtures.ShopGraph())

	_, err := r.Retrieve(context.Background(), "https://shop.example/missing", "")
	require.Error(t, err)
	assert.True(t, types.IsNotFound(err))
}

func TestLongestPathRetriever_GraphUnavailable(t *testing.T) {
	graph := fixtures.ShopGraph().
		WithQueryError(navgraph.QuerySimplePaths, types.NewGraphUnavailableError("connection reset", nil))
	r := NewLongestPathRetriever(graph)

	_, err := r.Retrieve(context.Background(), fixtures.ShopProductURL, "")
	require.Error(t, err)
	assert.True(t, types.IsGraphUnavailable(err))
}

func TestLongestPathRetriever_RespectsMaxLength(t *testing.T) {
	r := NewLongestPathRetriever(fixtures.ShopGraph(), WithMaxPathLength(1))

	g, err := r.Retrieve(context.Background(), fixtures.ShopProductURL, "")
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "1. (/products/987, click: buy) -> (/checkout)", g.Text())
}

func TestMergePath(t *testing.T) {
	single := navgraph.Path{Nodes: []navgraph.Node{{ID: "a", Properties: map[string]any{navgraph.PropURL: "https://x/a"}}}}
	assert.Equal(t, "", mergePath(single))
	assert.Equal(t, "", mergePath(navgraph.Path{}))
}

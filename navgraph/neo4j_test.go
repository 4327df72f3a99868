package navgraph

import (
	"context"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/graphground/config"
	"github.com/BaSui01/graphground/internal/metrics"
	tu "github.com/BaSui01/graphground/testutil"
	"github.com/BaSui01/graphground/types"
)

// 端口 1 上没有 Bolt 服务，连接会被立即拒绝。
const unreachableURI = "bolt://127.0.0.1:1"

func unreachableGateway(t *testing.T, opts ...Option) *Neo4jGateway {
	t.Helper()
	driver, err := neo4j.NewDriverWithContext(unreachableURI, neo4j.NoAuth(), func(c *neo4j.Config) {
		c.ConnectionAcquisitionTimeout = 2 * time.Second
		c.SocketConnectTimeout = time.Second
	})
	require.NoError(t, err)
	g := newNeo4jGateway(driver, "", opts...)
	t.Cleanup(func() { _ = g.Close(context.Background()) })
	return g
}

func TestNeo4jGateway_TransportFailureIsGraphUnavailable(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector("test", reg, nil)
	g := unreachableGateway(t, WithLogger(zaptest.NewLogger(t)), WithMetrics(collector))
	ctx := context.Background()

	_, err := g.RunStatement(ctx, QueryTaskGoals, nil)
	require.Error(t, err)
	assert.True(t, types.IsGraphUnavailable(err), "got %v", err)

	_, err = g.RunPathQuery(ctx, QuerySimplePaths, map[string]any{ParamSourceID: "x"})
	assert.True(t, types.IsGraphUnavailable(err))

	// 传输失败不能被当成 "页面不存在"
	_, err = g.FindPageNodeID(ctx, "https://shop.example/cart")
	assert.True(t, types.IsGraphUnavailable(err))
	assert.False(t, types.IsNotFound(err))

	count, err := testutil.GatherAndCount(reg, "test_graph_queries_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNeo4jGateway_CloseOnce(t *testing.T) {
	g := unreachableGateway(t)
	ctx := context.Background()

	require.NoError(t, g.Close(ctx))
	require.NoError(t, g.Close(ctx))

	_, err := g.FindPage(ctx, "https://shop.example/cart")
	assert.True(t, types.IsGraphUnavailable(err))
}

func TestNewNeo4jGateway_InvalidURI(t *testing.T) {
	_, err := NewNeo4jGateway(context.Background(), config.GraphConfig{URI: "ftp://nowhere"})
	require.Error(t, err)
	assert.True(t, types.IsUnsupportedConfiguration(err))
}

func TestNewNeo4jGateway_VerifyConnectivity(t *testing.T) {
	_, err := NewNeo4jGateway(tu.TestContextWithTimeout(t, 5*time.Second), config.GraphConfig{
		URI:                          unreachableURI,
		ConnectionAcquisitionTimeout: 2 * time.Second,
		VerifyConnectivity:           true,
	})
	require.Error(t, err)
	assert.True(t, types.IsGraphUnavailable(err))
}

func TestVerifiedTLS(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"neo4j+s://graph.example:7687", true},
		{"bolt+s://graph.example:7687", true},
		{"neo4j+ssc://graph.example:7687", false},
		{"bolt://localhost:7687", false},
		{"localhost:7687", false},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, verifiedTLS(tt.uri))
		})
	}
}

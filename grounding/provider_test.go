package grounding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
	tu "github.com/BaSui01/graphground/testutil"
	"github.com/BaSui01/graphground/testutil/fixtures"
	"github.com/BaSui01/graphground/types"
)

// wordTokenizer 按空白分词计数。
type wordTokenizer struct{ err error }

func (w wordTokenizer) CountTokens(text string) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	return len(strings.Fields(text)), nil
}
func (wordTokenizer) MaxTokens() int { return 0 }
func (wordTokenizer) Name() string   { return "words" }

// stubRetriever 返回固定结果。
type stubRetriever struct {
	g   *Grounding
	err error
}

func (s stubRetriever) Retrieve(context.Context, string, string) (*Grounding, error) { return s.g, s.err }
func (stubRetriever) Iteration() Iteration                                          { return IterationStandard }

func newProvider(t *testing.T, it Iteration, opts ...ProviderOption) *Provider {
	t.Helper()
	a, err := NewStateAbstractor(it, nil)
	require.NoError(t, err)
	r, err := NewRetriever(it, fixtures.ShopGraph(), goalEmbedder())
	require.NoError(t, err)
	p, err := NewProvider(a, r, opts...)
	require.NoError(t, err)
	return p
}

// 原始 URL -> 规范化键 -> 最长路径文本。
func TestProvider_Ground_StandardEndToEnd(t *testing.T) {
	p := newProvider(t, IterationStandard)
	assert.Equal(t, IterationStandard, p.Iteration())

	obs := ObservationFromMap(map[string]any{"url": fixtures.ShopRawProductURL, "goal": fixtures.ShopGoal})

	key, ok, err := p.AbstractState(context.Background(), obs)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fixtures.ShopProductURL, key)

	text, ok, err := p.Ground(context.Background(), obs)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1. (/products/987, click: buy) -> (/checkout, click: checkout) -> (/confirmation)", text)
}

func TestProvider_Ground_UnknownPageIsAbsent(t *testing.T) {
	p := newProvider(t, IterationStandard)

	text, ok, err := p.Ground(context.Background(), Observation{URL: "https://shop.example/unknown"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestProvider_Ground_MissingKeyIsAbsent(t *testing.T) {
	p := newProvider(t, IterationLLMGeneratedGraph)

	_, ok, err := p.Ground(context.Background(), Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvider_Retrieve_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode types.ErrorCode
	}{
		{"not found absent", types.NewNotFoundError("no page"), ""},
		{"empty result absent", types.NewError(types.ErrEmptyResult, "nothing"), ""},
		{"graph unavailable propagates", types.NewGraphUnavailableError("down", nil), types.ErrGraphUnavailable},
		{"upstream propagates", types.NewError(types.ErrUpstreamError, "embed"), types.ErrUpstreamError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(NewAbstractURLAbstractor(), stubRetriever{err: tt.err})
			require.NoError(t, err)

			g, err := p.Retrieve(context.Background(), "k", "")
			assert.Nil(t, g)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			tu.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestProvider_Ground_PropagatesWrappedGraphErrors(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), types.NewGraphUnavailableError("down", nil))
	p, err := NewProvider(NewAbstractURLAbstractor(), stubRetriever{err: wrapped})
	require.NoError(t, err)

	_, ok, err := p.Ground(context.Background(), Observation{URL: "https://x/a"})
	assert.False(t, ok)
	assert.True(t, types.IsGraphUnavailable(err))
}

func TestProvider_TokenBudget(t *testing.T) {
	g := &Grounding{Iteration: IterationStandard, Blocks: []string{"one two", "three four", "five six"}, Separator: "\n"}

	tests := []struct {
		name   string
		budget int
		tok    wordTokenizer
		want   string
	}{
		{"unlimited", 0, wordTokenizer{}, "one two\nthree four\nfive six"},
		{"fits", 6, wordTokenizer{}, "one two\nthree four\nfive six"},
		{"drops trailing", 4, wordTokenizer{}, "one two\nthree four"},
		{"keeps first block", 1, wordTokenizer{}, "one two"},
		{"tokenizer failure keeps all", 1, wordTokenizer{err: errors.New("bad")}, "one two\nthree four\nfive six"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(NewAbstractURLAbstractor(), stubRetriever{g: g}, WithTokenBudget(tt.tok, tt.budget))
			require.NoError(t, err)

			text, ok, err := p.Ground(context.Background(), Observation{URL: "https://x/a"})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestProvider_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector("test", reg, zap.NewNop())
	p := newProvider(t, IterationStandard, WithProviderMetrics(m), WithProviderLogger(zap.NewNop()))

	_, _, err := p.Ground(context.Background(), Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	_, _, err = p.Ground(context.Background(), Observation{URL: "https://shop.example/unknown"})
	require.NoError(t, err)

	// abstract/ok、retrieve/ok、retrieve/absent
	n, err := testutil.GatherAndCount(reg, "test_grounding_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestProvider_Ground_RecordsSpan(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	p := newProvider(t, IterationStandard)
	ctx := types.WithTraceID(context.Background(), "trace-123")
	_, ok, err := p.Ground(ctx, Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	require.True(t, ok)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "grounding.Ground", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "trace-123", attrs["grounding.trace_id"])
	assert.Equal(t, fixtures.ShopProductURL, attrs["grounding.key"])
	assert.Equal(t, "true", attrs["grounding.found"])
}

func TestProvider_Ground_ExportsOTelMetrics(t *testing.T) {
	prev := otel.GetMeterProvider()
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	p := newProvider(t, IterationStandard)
	_, _, err := p.Ground(context.Background(), Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	_, _, err = p.Ground(context.Background(), Observation{URL: "https://shop.example/unknown"})
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	calls := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "graphground.grounding.calls" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value("outcome")
				calls[outcome.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"ok": 1, "absent": 1}, calls)
}

func TestNewProvider_RequiresCollaborators(t *testing.T) {
	_, err := NewProvider(nil, stubRetriever{})
	tu.AssertErrorCode(t, err, types.ErrUnsupportedConfiguration)

	_, err = NewProvider(NewGoalAbstractor(), nil)
	tu.AssertErrorCode(t, err, types.ErrUnsupportedConfiguration)
}

package grounding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/internal/telemetry"
	"github.com/BaSui01/graphground/llm/tokenizer"
	"github.com/BaSui01/graphground/types"
)

// 指标中的阶段与结果标签。
const (
	stageAbstract = "abstract"
	stageRetrieve = "retrieve"

	outcomeOK     = "ok"
	outcomeAbsent = "absent"
	outcomeError  = "error"
)

// Provider 是 agent 侧使用的 grounding 入口，组合一个状态抽象器与一个检索器。
// NOT_FOUND 与空结果都视为没有 grounding，其余错误原样返回。
type Provider struct {
	iteration  Iteration
	abstractor StateAbstractor
	retriever  Retriever

	tokenizer tokenizer.Tokenizer
	maxTokens int

	logger  *zap.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer

	// OTLP 侧的调用计数与耗时
	groundCalls    metric.Int64Counter
	groundDuration metric.Float64Histogram
}

// ProviderOption 配置 Provider。
type ProviderOption func(*Provider)

// WithProviderLogger 设置日志记录器。
func WithProviderLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProviderMetrics 设置指标收集器。
func WithProviderMetrics(c *metrics.Collector) ProviderOption {
	return func(p *Provider) { p.metrics = c }
}

// WithTokenBudget 限制 grounding 文本的 token 数，超出时从尾部丢弃块，至少保留一块。
// maxTokens <= 0 表示不限制。
func WithTokenBudget(tok tokenizer.Tokenizer, maxTokens int) ProviderOption {
	return func(p *Provider) {
		p.tokenizer = tok
		p.maxTokens = maxTokens
	}
}

// NewProvider 创建 Provider。abstractor 与 retriever 都不能为空。
func NewProvider(abstractor StateAbstractor, retriever Retriever, opts ...ProviderOption) (*Provider, error) {
	if abstractor == nil || retriever == nil {
		return nil, types.NewUnsupportedConfigurationError("provider requires both a state abstractor and a retriever")
	}
	p := &Provider{
		iteration:  retriever.Iteration(),
		abstractor: abstractor,
		retriever:  retriever,
		logger:     zap.NewNop(),
		tracer:     telemetry.Tracer("grounding"),
	}
	for _, opt := range opts {
		opt(p)
	}

	meter := telemetry.Meter("grounding")
	var err error
	if p.groundCalls, err = meter.Int64Counter("graphground.grounding.calls",
		metric.WithDescription("Grounding calls by iteration and outcome")); err != nil {
		return nil, types.NewError(types.ErrUnsupportedConfiguration, "create grounding counter").WithCause(err)
	}
	if p.groundDuration, err = meter.Float64Histogram("graphground.grounding.duration",
		metric.WithDescription("Grounding call latency"), metric.WithUnit("s")); err != nil {
		return nil, types.NewError(types.ErrUnsupportedConfiguration, "create grounding histogram").WithCause(err)
	}

	p.logger = p.logger.With(
		zap.String("component", "grounding_provider"),
		zap.String("iteration", string(p.iteration)),
	)
	return p, nil
}

// Iteration 返回当前生效的迭代。
func (p *Provider) Iteration() Iteration { return p.iteration }

// AbstractState 把观测映射为查询键；ok 为 false 表示观测缺少所需字段。
func (p *Provider) AbstractState(ctx context.Context, obs Observation) (string, bool, error) {
	start := time.Now()
	key, ok, err := p.abstractor.AbstractState(ctx, obs)
	switch {
	case err != nil:
		p.metrics.RecordGrounding(string(p.iteration), stageAbstract, outcomeError, time.Since(start))
		return "", false, err
	case !ok:
		p.metrics.RecordGrounding(string(p.iteration), stageAbstract, outcomeAbsent, time.Since(start))
	default:
		p.metrics.RecordGrounding(string(p.iteration), stageAbstract, outcomeOK, time.Since(start))
	}
	return key, ok, nil
}

// Retrieve 按键检索。没有 grounding 时返回 (nil, nil)。
func (p *Provider) Retrieve(ctx context.Context, key, goal string) (*Grounding, error) {
	start := time.Now()
	g, err := p.retriever.Retrieve(ctx, key, goal)
	if err != nil {
		if types.IsNotFound(err) || types.IsEmptyResult(err) {
			p.logger.Debug("no grounding for key",
				zap.String("key", key),
				zap.String("reason", string(types.GetErrorCode(err))),
			)
			p.metrics.RecordGrounding(string(p.iteration), stageRetrieve, outcomeAbsent, time.Since(start))
			return nil, nil
		}
		p.metrics.RecordGrounding(string(p.iteration), stageRetrieve, outcomeError, time.Since(start))
		return nil, err
	}
	if g == nil {
		p.metrics.RecordGrounding(string(p.iteration), stageRetrieve, outcomeAbsent, time.Since(start))
		return nil, nil
	}
	g = p.fit(g)
	p.metrics.RecordGrounding(string(p.iteration), stageRetrieve, outcomeOK, time.Since(start))
	return g, nil
}

// Ground 完成一次 观测 → 键 → grounding 文本。第二个返回值为 false 表示没有 grounding。
func (p *Provider) Ground(ctx context.Context, obs Observation) (string, bool, error) {
	traceID, ok := types.TraceID(ctx)
	if !ok {
		traceID = uuid.NewString()
		ctx = types.WithTraceID(ctx, traceID)
	}
	ctx = types.WithIteration(ctx, string(p.iteration))

	ctx, span := p.tracer.Start(ctx, "grounding.Ground",
		trace.WithAttributes(
			attribute.String("grounding.iteration", string(p.iteration)),
			attribute.String("grounding.trace_id", traceID),
		),
	)
	defer span.End()

	start := time.Now()
	outcome := outcomeError
	defer func() {
		attrs := metric.WithAttributes(
			attribute.String("iteration", string(p.iteration)),
			attribute.String("outcome", outcome),
		)
		p.groundCalls.Add(ctx, 1, attrs)
		p.groundDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	logger := p.logger.With(zap.String("trace_id", traceID))

	key, ok, err := p.AbstractState(ctx, obs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("state abstraction failed", zap.Error(err))
		return "", false, err
	}
	if !ok {
		outcome = outcomeAbsent
		span.SetAttributes(attribute.Bool("grounding.found", false))
		logger.Debug("observation has no lookup key")
		return "", false, nil
	}
	span.SetAttributes(attribute.String("grounding.key", key))

	g, err := p.Retrieve(ctx, key, obs.Goal)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("retrieval failed", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	if g == nil {
		outcome = outcomeAbsent
		span.SetAttributes(attribute.Bool("grounding.found", false))
		return "", false, nil
	}

	outcome = outcomeOK
	text := g.Text()
	span.SetAttributes(
		attribute.Bool("grounding.found", true),
		attribute.Int("grounding.blocks", len(g.Blocks)),
	)
	logger.Debug("grounding produced",
		zap.String("key", key),
		zap.Int("blocks", len(g.Blocks)),
		zap.Int("chars", len(text)),
	)
	return text, true, nil
}

// fit 按 token 预算从尾部裁剪。
func (p *Provider) fit(g *Grounding) *Grounding {
	if p.tokenizer == nil || p.maxTokens <= 0 {
		return g
	}
	for n := len(g.Blocks); n >= 1; n-- {
		t := g.Truncate(n)
		count, err := p.tokenizer.CountTokens(t.Text())
		if err != nil {
			p.logger.Warn("token count failed, skipping budget", zap.Error(err))
			return g
		}
		if count <= p.maxTokens || n == 1 {
			p.metrics.RecordGroundingTokens(string(p.iteration), count)
			if n < len(g.Blocks) {
				p.logger.Debug("grounding truncated to token budget",
					zap.Int("kept_blocks", n),
					zap.Int("dropped_blocks", len(g.Blocks)-n),
					zap.Int("tokens", count),
				)
			}
			return t
		}
	}
	return g
}

package agent

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/graphground/config"
	"github.com/BaSui01/graphground/grounding"
	"github.com/BaSui01/graphground/internal/metrics"
)

// GroundingKey 是观测中保存 grounding 文本的键。
const GroundingKey = "graph_grounding"

// GroundingSource 为观测提供 grounding 文本，grounding.Provider 满足该接口。
// ok 为 false 表示没有 grounding；err 只用于基础设施故障。
type GroundingSource interface {
	Ground(ctx context.Context, obs grounding.Observation) (text string, ok bool, err error)
}

// GroundedAgent 在每一步观测进入提示之前做预处理：
// 按限速策略等待，并在启用时注入导航图 grounding。
// 两项能力都是可选的，零值 GroundedAgent 原样返回观测。
type GroundedAgent struct {
	source   GroundingSource
	limiter  *rate.Limiter
	useGraph bool

	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option 配置 GroundedAgent。
type Option func(*GroundedAgent)

// WithGroundingSource 设置 grounding 来源，并启用图 grounding。
func WithGroundingSource(s GroundingSource) Option {
	return func(a *GroundedAgent) {
		a.source = s
		a.useGraph = s != nil
	}
}

// WithUseGraph 显式开关图 grounding。
func WithUseGraph(enabled bool) Option {
	return func(a *GroundedAgent) { a.useGraph = enabled }
}

// WithRateLimiter 设置步骤限速器，nil 表示不限速。
func WithRateLimiter(l *rate.Limiter) Option {
	return func(a *GroundedAgent) { a.limiter = l }
}

// WithLogger 设置日志记录器。
func WithLogger(l *zap.Logger) Option {
	return func(a *GroundedAgent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics 设置指标收集器。
func WithMetrics(c *metrics.Collector) Option {
	return func(a *GroundedAgent) { a.metrics = c }
}

// NewGroundedAgent 创建 GroundedAgent。
func NewGroundedAgent(opts ...Option) *GroundedAgent {
	a := &GroundedAgent{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("component", "grounded_agent"))
	return a
}

// NewGroundedAgentFromConfig 按 AgentConfig 组装限速与 grounding 开关。
func NewGroundedAgentFromConfig(cfg config.AgentConfig, source GroundingSource, opts ...Option) *GroundedAgent {
	base := []Option{
		WithGroundingSource(source),
		WithUseGraph(cfg.UseGraph && source != nil),
		WithRateLimiter(NewStepLimiter(cfg.StepInterval, cfg.Burst)),
	}
	return NewGroundedAgent(append(base, opts...)...)
}

// NewStepLimiter 返回每 interval 放行一步的令牌桶；interval <= 0 时返回 nil。
func NewStepLimiter(interval time.Duration, burst int) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// UseGraph 报告是否注入图 grounding。
func (a *GroundedAgent) UseGraph() bool { return a.useGraph && a.source != nil }

// Preprocess 处理一步观测并原地写入 GroundingKey。
// 没有 grounding 时删除该键；grounding 来源的错误会中止这一步。
func (a *GroundedAgent) Preprocess(ctx context.Context, obs map[string]any) (map[string]any, error) {
	var waited time.Duration
	if a.limiter != nil {
		start := time.Now()
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		waited = time.Since(start)
		if waited > time.Millisecond {
			a.logger.Debug("step throttled", zap.Duration("waited", waited))
		}
	}

	if obs == nil {
		obs = make(map[string]any)
	}
	if !a.UseGraph() {
		a.metrics.RecordAgentStep(false, waited)
		return obs, nil
	}

	text, ok, err := a.source.Ground(ctx, grounding.ObservationFromMap(obs))
	if err != nil {
		a.logger.Error("graph grounding failed", zap.Error(err))
		return nil, err
	}
	if ok && text != "" {
		obs[GroundingKey] = text
	} else {
		delete(obs, GroundingKey)
	}
	a.metrics.RecordAgentStep(ok, waited)
	return obs, nil
}

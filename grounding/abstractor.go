package grounding

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
)

// StateAbstractor 把观测映射为图查询键。
// ok 为 false 表示该观测没有可用的键（例如缺少 goal）。
type StateAbstractor interface {
	AbstractState(ctx context.Context, obs Observation) (key string, ok bool, err error)
	Name() string
}

// AbstractorOption 配置状态抽象器。
type AbstractorOption func(*abstractorOptions)

type abstractorOptions struct {
	logger        *zap.Logger
	metrics       *metrics.Collector
	canonicalizer *Canonicalizer
	cache         TemplateCache
}

func defaultAbstractorOptions() abstractorOptions {
	return abstractorOptions{
		logger:        zap.NewNop(),
		canonicalizer: DefaultCanonicalizer(),
	}
}

func buildAbstractorOptions(opts []AbstractorOption) abstractorOptions {
	o := defaultAbstractorOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.canonicalizer == nil {
		o.canonicalizer = DefaultCanonicalizer()
	}
	if o.cache == nil {
		o.cache = NewMemoryTemplateCache()
	}
	return o
}

// WithAbstractorLogger 设置日志记录器。
func WithAbstractorLogger(l *zap.Logger) AbstractorOption {
	return func(o *abstractorOptions) { o.logger = l }
}

// WithAbstractorMetrics 设置指标收集器。
func WithAbstractorMetrics(c *metrics.Collector) AbstractorOption {
	return func(o *abstractorOptions) { o.metrics = c }
}

// WithCanonicalizer 替换默认的 URL 规范化器。
func WithCanonicalizer(c *Canonicalizer) AbstractorOption {
	return func(o *abstractorOptions) { o.canonicalizer = c }
}

// WithTemplateCache 设置 LLM URL 模板缓存，默认使用进程内缓存。
func WithTemplateCache(c TemplateCache) AbstractorOption {
	return func(o *abstractorOptions) { o.cache = c }
}

// =============================================================================
// AbstractURL
// =============================================================================

// AbstractURLAbstractor 以规范化后的 URL 作为键。
type AbstractURLAbstractor struct {
	canonicalizer *Canonicalizer
}

// NewAbstractURLAbstractor 创建 AbstractURLAbstractor。
func NewAbstractURLAbstractor(opts ...AbstractorOption) *AbstractURLAbstractor {
	o := buildAbstractorOptions(opts)
	return &AbstractURLAbstractor{canonicalizer: o.canonicalizer}
}

// AbstractState implements StateAbstractor.
func (a *AbstractURLAbstractor) AbstractState(_ context.Context, obs Observation) (string, bool, error) {
	if obs.URL == "" {
		return "", false, nil
	}
	return a.canonicalizer.Canonicalize(obs.URL), true, nil
}

// Name implements StateAbstractor.
func (a *AbstractURLAbstractor) Name() string { return "abstract_url" }

// =============================================================================
// Goal
// =============================================================================

// GoalAbstractor 直接使用观测中的 goal。
type GoalAbstractor struct{}

// NewGoalAbstractor 创建 GoalAbstractor。
func NewGoalAbstractor() *GoalAbstractor { return &GoalAbstractor{} }

// AbstractState implements StateAbstractor.
func (GoalAbstractor) AbstractState(_ context.Context, obs Observation) (string, bool, error) {
	if obs.Goal == "" {
		return "", false, nil
	}
	return obs.Goal, true, nil
}

// Name implements StateAbstractor.
func (GoalAbstractor) Name() string { return "goal" }

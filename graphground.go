// Package graphground 从配置组装导航图 grounding 运行时。
//
// Usage:
//
//	cfg, _ := config.NewLoader().WithConfigPath("graphground.yaml").Load()
//	rt, err := graphground.New(ctx, cfg, logger)
//	defer rt.Close(ctx)
//	text, ok, err := rt.Provider.Ground(ctx, grounding.Observation{URL: url, Goal: goal})
//
// New 只构造当前迭代需要的协作者：advanced 需要 chat 模型与 embedding，
// llm-augmented-graph 需要 embedding，其余迭代只连接图数据库。
package graphground

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/agent"
	"github.com/BaSui01/graphground/config"
	"github.com/BaSui01/graphground/grounding"
	"github.com/BaSui01/graphground/internal/cache"
	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/internal/telemetry"
	"github.com/BaSui01/graphground/llm"
	"github.com/BaSui01/graphground/llm/embedding"
	"github.com/BaSui01/graphground/llm/tokenizer"
	"github.com/BaSui01/graphground/navgraph"
)

// Runtime 持有一次组装出的全部组件。Close 按创建的逆序释放资源。
type Runtime struct {
	Iteration grounding.Iteration
	Gateway   navgraph.Gateway
	Provider  *grounding.Provider
	Agent     *agent.GroundedAgent
	Metrics   *metrics.Collector

	logger  *zap.Logger
	closers []func(context.Context) error
}

// Option 覆盖 New 默认创建的协作者，主要用于测试与嵌入。
type Option func(*options)

type options struct {
	gateway    navgraph.Gateway
	chat       llm.ChatModel
	embedder   grounding.Embedder
	registerer prometheus.Registerer
	iteration  string
}

// WithGateway 使用已有的图网关；Runtime.Close 不会关闭它。
func WithGateway(g navgraph.Gateway) Option {
	return func(o *options) { o.gateway = g }
}

// WithChatModel 使用已有的 chat 模型。
func WithChatModel(m llm.ChatModel) Option {
	return func(o *options) { o.chat = m }
}

// WithEmbedder 使用已有的 embedding 客户端。
func WithEmbedder(e grounding.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithRegisterer 设置 Prometheus 注册器，默认 prometheus.DefaultRegisterer。
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) { o.registerer = r }
}

// WithIteration 覆盖配置中的迭代。
func WithIteration(it string) Option {
	return func(o *options) { o.iteration = it }
}

// New 按 cfg 组装运行时。未知迭代返回 UNSUPPORTED_CONFIGURATION，
// 图数据库不可达返回 GRAPH_UNAVAILABLE。
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (rt *Runtime, err error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{iteration: cfg.Grounding.Iteration}
	for _, opt := range opts {
		opt(&o)
	}

	iter, err := grounding.ParseIteration(o.iteration)
	if err != nil {
		return nil, err
	}

	rt = &Runtime{Iteration: iter, logger: logger.With(zap.String("component", "runtime"))}
	defer func() {
		if err != nil {
			_ = rt.Close(context.WithoutCancel(ctx))
			rt = nil
		}
	}()

	// 遥测
	providers, telErr := telemetry.Init(ctx, cfg.Telemetry, logger)
	if telErr != nil {
		rt.logger.Warn("telemetry disabled", zap.Error(telErr))
	} else {
		rt.closers = append(rt.closers, providers.Shutdown)
	}

	// 指标
	if cfg.Metrics.Enabled {
		rt.Metrics = metrics.NewCollector(cfg.Metrics.Namespace, o.registerer, logger)
	}

	// 图数据库
	rt.Gateway = o.gateway
	if rt.Gateway == nil {
		gw, gwErr := navgraph.NewNeo4jGateway(ctx, cfg.Graph,
			navgraph.WithLogger(logger),
			navgraph.WithMetrics(rt.Metrics),
		)
		if gwErr != nil {
			return rt, gwErr
		}
		rt.Gateway = gw
		rt.closers = append(rt.closers, gw.Close)
	}

	// 语言模型与 embedding 只在需要时创建
	chat := o.chat
	if chat == nil && iter == grounding.IterationAdvanced {
		chat = llm.NewChatClient(llm.ChatConfig{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger)
	}
	embedder := o.embedder
	if embedder == nil && (iter == grounding.IterationAdvanced || iter == grounding.IterationLLMAugmentedGraph) {
		p, embErr := embedding.NewProvider(cfg.Embedding.Provider, embedding.OpenAIConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    cfg.Embedding.Timeout,
		})
		if embErr != nil {
			return rt, fmt.Errorf("create embedding provider: %w", embErr)
		}
		embedder = p
	}

	abstractorOpts := []grounding.AbstractorOption{
		grounding.WithAbstractorLogger(logger),
		grounding.WithAbstractorMetrics(rt.Metrics),
		grounding.WithCanonicalizer(grounding.NewCanonicalizer(cfg.Grounding.HostReplacements)),
	}
	if cfg.Redis.Enabled && iter == grounding.IterationAdvanced {
		manager, cacheErr := cache.NewManager(ctx, cache.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			KeyPrefix:  cfg.Redis.KeyPrefix,
			DefaultTTL: cfg.Redis.TTL,
			TLS:        cfg.Redis.TLS,
		}, logger)
		if cacheErr != nil {
			// 共享缓存不可用时退回进程内缓存
			rt.logger.Warn("redis template cache unavailable, using in-memory cache", zap.Error(cacheErr))
		} else {
			rt.closers = append(rt.closers, func(context.Context) error { return manager.Close() })
			abstractorOpts = append(abstractorOpts, grounding.WithTemplateCache(grounding.NewRedisTemplateCache(manager, cfg.Redis.TTL)))
		}
	}

	abstractor, err := grounding.NewStateAbstractor(iter, chat, abstractorOpts...)
	if err != nil {
		return rt, err
	}
	retriever, err := grounding.NewRetriever(iter, rt.Gateway, embedder,
		grounding.WithLogger(logger),
		grounding.WithMetrics(rt.Metrics),
		grounding.WithGroundingConfig(cfg.Grounding),
	)
	if err != nil {
		return rt, err
	}

	providerOpts := []grounding.ProviderOption{
		grounding.WithProviderLogger(logger),
		grounding.WithProviderMetrics(rt.Metrics),
	}
	if cfg.Grounding.MaxTokens > 0 {
		tokenizer.RegisterOpenAITokenizers()
		providerOpts = append(providerOpts, grounding.WithTokenBudget(
			tokenizer.GetTokenizerOrEstimator(cfg.Grounding.TokenizerModel),
			cfg.Grounding.MaxTokens,
		))
	}
	rt.Provider, err = grounding.NewProvider(abstractor, retriever, providerOpts...)
	if err != nil {
		return rt, err
	}

	rt.Agent = agent.NewGroundedAgentFromConfig(cfg.Agent, rt.Provider,
		agent.WithLogger(logger),
		agent.WithMetrics(rt.Metrics),
	)

	rt.logger.Info("grounding runtime ready",
		zap.String("iteration", string(iter)),
		zap.Bool("use_graph", rt.Agent.UseGraph()),
	)
	return rt, nil
}

// Close 释放 New 创建的资源，可重复调用。
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器。所有 Record* 方法对 nil 接收者安全，
// 未启用指标时调用方可以直接传 nil。
type Collector struct {
	// Grounding 指标
	groundingRequestsTotal *prometheus.CounterVec
	groundingDuration      *prometheus.HistogramVec
	groundingPaths         *prometheus.HistogramVec
	groundingTokens        *prometheus.HistogramVec

	// 图数据库指标
	graphQueriesTotal  *prometheus.CounterVec
	graphQueryDuration *prometheus.HistogramVec

	// LLM / Embedding 指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// Agent 指标
	agentStepsTotal    *prometheus.CounterVec
	agentThrottleDelay prometheus.Histogram

	logger *zap.Logger
}

// NewCollector 创建指标收集器，reg 为 nil 时注册到默认 Registerer。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// Grounding 指标
	c.groundingRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grounding_requests_total",
			Help:      "Total number of grounding calls by stage and outcome",
		},
		[]string{"iteration", "stage", "outcome"}, // stage: abstract, retrieve; outcome: hit, absent, error
	)

	c.groundingDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grounding_duration_seconds",
			Help:      "Grounding call duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"iteration", "stage"},
	)

	c.groundingPaths = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grounding_paths",
			Help:      "Number of paths surviving maximal-path reduction",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 25, 50, 100, 200},
		},
		[]string{"iteration"},
	)

	c.groundingTokens = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "grounding_tokens",
			Help:      "Token count of emitted grounding text",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		},
		[]string{"iteration"},
	)

	// 图数据库指标
	c.graphQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_queries_total",
			Help:      "Total number of graph database queries",
		},
		[]string{"operation", "status"},
	)

	c.graphQueryDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_query_duration_seconds",
			Help:      "Graph database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// LLM / Embedding 指标
	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of LLM and embedding requests",
		},
		[]string{"provider", "kind", "status"}, // kind: chat, embedding
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "LLM and embedding request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "kind"},
	)

	// 缓存指标
	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Agent 指标
	c.agentStepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_steps_total",
			Help:      "Total number of preprocessed agent steps",
		},
		[]string{"grounded"},
	)

	c.agentThrottleDelay = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_throttle_delay_seconds",
			Help:      "Time an agent step waited on the step rate limiter",
			Buckets:   []float64{0, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🧭 Grounding 指标记录
// =============================================================================

// RecordGrounding 记录一次 abstract / retrieve 调用
func (c *Collector) RecordGrounding(iteration, stage, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.groundingRequestsTotal.WithLabelValues(iteration, stage, outcome).Inc()
	c.groundingDuration.WithLabelValues(iteration, stage).Observe(duration.Seconds())
}

// RecordGroundingPaths 记录过滤后保留的路径数
func (c *Collector) RecordGroundingPaths(iteration string, paths int) {
	if c == nil {
		return
	}
	c.groundingPaths.WithLabelValues(iteration).Observe(float64(paths))
}

// RecordGroundingTokens 记录输出文本的 token 数
func (c *Collector) RecordGroundingTokens(iteration string, tokens int) {
	if c == nil {
		return
	}
	c.groundingTokens.WithLabelValues(iteration).Observe(float64(tokens))
}

// =============================================================================
// 🗄️ 图数据库指标记录
// =============================================================================

// RecordGraphQuery 记录图数据库查询
func (c *Collector) RecordGraphQuery(operation string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	c.graphQueriesTotal.WithLabelValues(operation, status(err)).Inc()
	c.graphQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// =============================================================================
// 🤖 LLM 指标记录
// =============================================================================

// RecordLLMRequest 记录 LLM / Embedding 请求
func (c *Collector) RecordLLMRequest(provider, kind string, err error, duration time.Duration) {
	if c == nil {
		return
	}
	c.llmRequestsTotal.WithLabelValues(provider, kind, status(err)).Inc()
	c.llmRequestDuration.WithLabelValues(provider, kind).Observe(duration.Seconds())
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheHit 记录缓存命中
func (c *Collector) RecordCacheHit(cacheType string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss 记录缓存未命中
func (c *Collector) RecordCacheMiss(cacheType string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(cacheType).Inc()
}

// =============================================================================
// 🎭 Agent 指标记录
// =============================================================================

// RecordAgentStep 记录一次 Agent 步骤预处理
func (c *Collector) RecordAgentStep(grounded bool, waited time.Duration) {
	if c == nil {
		return
	}
	label := "false"
	if grounded {
		label = "true"
	}
	c.agentStepsTotal.WithLabelValues(label).Inc()
	c.agentThrottleDelay.Observe(waited.Seconds())
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

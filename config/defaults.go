// =============================================================================
// 📦 graphground 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Grounding: DefaultGroundingConfig(),
		Graph:     DefaultGraphConfig(),
		LLM:       DefaultLLMConfig(),
		Embedding: DefaultEmbeddingConfig(),
		Redis:     DefaultRedisConfig(),
		Agent:     DefaultAgentConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// DefaultGroundingConfig 返回默认检索配置
func DefaultGroundingConfig() GroundingConfig {
	return GroundingConfig{
		Iteration:              "standard",
		MaxPathLength:          10,
		PathLimit:              200,
		MaxHops:                25,
		URLTaskThreshold:       0.6,
		TaskEmbeddingThreshold: 0.75,
		TopK:                   3,
		MaxTokens:              0,
		TokenizerModel:         "gpt-4o",
		HostReplacements:       DefaultHostReplacements(),
	}
}

// DefaultHostReplacements 返回已知部署主机到稳定域名的映射，按顺序应用
func DefaultHostReplacements() []HostReplacement {
	const ec2 = "http://ec2-3-16-13-240.us-east-2.compute.amazonaws.com"
	return []HostReplacement{
		{From: ec2 + ":3000", To: "https://osm.org"},
		{From: ec2 + ":7770", To: "https://shopping.com"},
		{From: ec2 + ":7780", To: "https://shopping.com"},
		{From: ec2 + ":8023", To: "https://vcs.com"},
		{From: ec2 + ":9980", To: "https://marketplace.com"},
		{From: ec2 + ":9999", To: "https://social-forum.com"},
		{From: "https://dev275528.service-now.com", To: "https://servicenow.test"},
	}
}

// DefaultGraphConfig 返回默认 Neo4j 配置
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		URI:                          "bolt://localhost:7687",
		Username:                     "neo4j",
		Password:                     "",
		Database:                     "",
		MaxConnectionPoolSize:        10,
		ConnectionAcquisitionTimeout: 30 * time.Second,
		VerifyConnectivity:           true,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		BaseURL: "https://api.openai.com",
		APIKey:  "",
		Model:   "gpt-4o",
		Timeout: 60 * time.Second,
	}
}

// DefaultEmbeddingConfig 返回默认 Embedding 配置
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Provider: "openai",
		BaseURL:  "https://api.openai.com",
		APIKey:   "",
		Model:    "text-embedding-3-small",
		Timeout:  30 * time.Second,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:   false,
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		PoolSize:  10,
		KeyPrefix: "graphground:tmpl:",
		TTL:       24 * time.Hour,
	}
}

// DefaultAgentConfig 返回默认 Agent 调度配置
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		UseGraph:     true,
		StepInterval: 5 * time.Second,
		Burst:        1,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "graphground",
		SampleRate:   0.1,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   true,
		Namespace: "graphground",
	}
}

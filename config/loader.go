// =============================================================================
// 📦 graphground 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("graphground.yaml").
//	    WithEnvPrefix("GRAPHGROUND").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 graphground 的完整配置结构
type Config struct {
	// Grounding 检索策略配置
	Grounding GroundingConfig `yaml:"grounding" env:"GROUNDING"`

	// Graph 图数据库配置
	Graph GraphConfig `yaml:"graph" env:"GRAPH"`

	// LLM 大语言模型配置（LLMAidedUrl 使用）
	LLM LLMConfig `yaml:"llm" env:"LLM"`

	// Embedding 向量服务配置
	Embedding EmbeddingConfig `yaml:"embedding" env:"EMBEDDING"`

	// Redis 模板缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Agent 步骤调度配置
	Agent AgentConfig `yaml:"agent" env:"AGENT"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// GroundingConfig 检索策略配置
type GroundingConfig struct {
	// 迭代标签: standard, advanced, llm-generated-graph, llm-augmented-graph
	Iteration string `yaml:"iteration" env:"ITERATION"`
	// allSimplePaths 最大长度
	MaxPathLength int `yaml:"max_path_length" env:"MAX_PATH_LENGTH"`
	// 候选路径上限
	PathLimit int `yaml:"path_limit" env:"PATH_LIMIT"`
	// 前向路径最大跳数
	MaxHops int `yaml:"max_hops" env:"MAX_HOPS"`
	// UrlTaskSimilarity 相似度阈值（严格大于）
	URLTaskThreshold float64 `yaml:"url_task_threshold" env:"URL_TASK_THRESHOLD"`
	// TaskEmbeddingMatch 相似度阈值（严格大于）
	TaskEmbeddingThreshold float64 `yaml:"task_embedding_threshold" env:"TASK_EMBEDDING_THRESHOLD"`
	// 目标匹配数量
	TopK int `yaml:"top_k" env:"TOP_K"`
	// grounding 文本 Token 上限，0 表示不限制
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 计数使用的模型名
	TokenizerModel string `yaml:"tokenizer_model" env:"TOKENIZER_MODEL"`
	// 有序 host 替换表
	HostReplacements []HostReplacement `yaml:"host_replacements" env:"-"`
}

// HostReplacement 一条字面量替换规则
type HostReplacement struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// GraphConfig Neo4j 连接配置
type GraphConfig struct {
	// Bolt / neo4j URI
	URI string `yaml:"uri" env:"URI"`
	// 用户名
	Username string `yaml:"username" env:"USERNAME"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名，空表示默认库
	Database string `yaml:"database" env:"DATABASE"`
	// 连接池大小
	MaxConnectionPoolSize int `yaml:"max_connection_pool_size" env:"MAX_CONNECTION_POOL_SIZE"`
	// 获取连接超时
	ConnectionAcquisitionTimeout time.Duration `yaml:"connection_acquisition_timeout" env:"CONNECTION_ACQUISITION_TIMEOUT"`
	// 启动时校验连通性
	VerifyConnectivity bool `yaml:"verify_connectivity" env:"VERIFY_CONNECTIVITY"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// 基础 URL（OpenAI 兼容）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	// Provider 名称，目前仅 openai
	Provider string `yaml:"provider" env:"PROVIDER"`
	// 基础 URL
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 向量维度，0 表示模型默认
	Dimensions int `yaml:"dimensions" env:"DIMENSIONS"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用 Redis 模板缓存，关闭时使用进程内缓存
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 键前缀
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// 模板缓存过期时间
	TTL time.Duration `yaml:"ttl" env:"TTL"`
	// 启用 TLS
	TLS bool `yaml:"tls" env:"TLS"`
}

// AgentConfig Agent 步骤调度配置
type AgentConfig struct {
	// 是否注入图 grounding
	UseGraph bool `yaml:"use_graph" env:"USE_GRAPH"`
	// 两步之间的最小间隔，0 表示不限速
	StepInterval time.Duration `yaml:"step_interval" env:"STEP_INTERVAL"`
	// 令牌桶容量
	Burst int `yaml:"burst" env:"BURST"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "GRAPHGROUND",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).WithValidator((*Config).Validate).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// validIterations 与 grounding.ParseIteration 接受的标签保持一致
var validIterations = map[string]bool{
	"standard": true, "advanced": true, "llm-generated-graph": true, "llm-augmented-graph": true,
	"1": true, "2": true, "3": true, "4": true,
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if !validIterations[strings.ToLower(strings.TrimSpace(c.Grounding.Iteration))] {
		errs = append(errs, fmt.Sprintf("unknown grounding iteration %q", c.Grounding.Iteration))
	}
	if c.Grounding.MaxPathLength <= 0 {
		errs = append(errs, "max_path_length must be positive")
	}
	if c.Grounding.PathLimit <= 0 {
		errs = append(errs, "path_limit must be positive")
	}
	if c.Grounding.MaxHops <= 0 {
		errs = append(errs, "max_hops must be positive")
	}
	if c.Grounding.TopK <= 0 {
		errs = append(errs, "top_k must be positive")
	}
	if c.Grounding.MaxTokens < 0 {
		errs = append(errs, "max_tokens must not be negative")
	}
	thresholds := []struct {
		name  string
		value float64
	}{
		{"url_task_threshold", c.Grounding.URLTaskThreshold},
		{"task_embedding_threshold", c.Grounding.TaskEmbeddingThreshold},
	}
	for _, th := range thresholds {
		if th.value < -1 || th.value > 1 {
			errs = append(errs, th.name+" must be between -1 and 1")
		}
	}
	for i, r := range c.Grounding.HostReplacements {
		if r.From == "" {
			errs = append(errs, fmt.Sprintf("host_replacements[%d].from must not be empty", i))
		}
	}

	if c.Graph.URI == "" {
		errs = append(errs, "graph uri is required")
	}
	if c.Agent.StepInterval < 0 {
		errs = append(errs, "step_interval must not be negative")
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// 验证检索默认值
	assert.Equal(t, "standard", cfg.Grounding.Iteration)
	assert.Equal(t, 10, cfg.Grounding.MaxPathLength)
	assert.Equal(t, 200, cfg.Grounding.PathLimit)
	assert.Equal(t, 25, cfg.Grounding.MaxHops)
	assert.Equal(t, 0.6, cfg.Grounding.URLTaskThreshold)
	assert.Equal(t, 0.75, cfg.Grounding.TaskEmbeddingThreshold)
	assert.Equal(t, 3, cfg.Grounding.TopK)
	require.Len(t, cfg.Grounding.HostReplacements, 7)
	assert.Equal(t, "https://osm.org", cfg.Grounding.HostReplacements[0].To)

	// 验证图数据库默认值
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.True(t, cfg.Graph.VerifyConnectivity)

	// 验证 Embedding / LLM 默认值
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)

	// 验证 Agent 默认值
	assert.True(t, cfg.Agent.UseGraph)
	assert.Equal(t, 5*time.Second, cfg.Agent.StepInterval)

	// 验证 Redis 默认值
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	// 验证 Log 默认值
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "standard", cfg.Grounding.Iteration)
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "graphground.yaml")

	yamlContent := `
grounding:
  iteration: "llm-augmented-graph"
  task_embedding_threshold: 0.8
  top_k: 5
  host_replacements:
    - from: "http://staging.internal:8080"
      to: "https://shop.example"

graph:
  uri: "neo4j://graph.example.com:7687"
  username: "reader"
  password: "secret"

redis:
  enabled: true
  addr: "redis.example.com:6379"
  ttl: 1h

agent:
  use_graph: false
  step_interval: 2s

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 验证 YAML 值覆盖了默认值
	assert.Equal(t, "llm-augmented-graph", cfg.Grounding.Iteration)
	assert.Equal(t, 0.8, cfg.Grounding.TaskEmbeddingThreshold)
	assert.Equal(t, 5, cfg.Grounding.TopK)
	require.Len(t, cfg.Grounding.HostReplacements, 1)
	assert.Equal(t, HostReplacement{From: "http://staging.internal:8080", To: "https://shop.example"},
		cfg.Grounding.HostReplacements[0])

	assert.Equal(t, "neo4j://graph.example.com:7687", cfg.Graph.URI)
	assert.Equal(t, "reader", cfg.Graph.Username)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)

	assert.False(t, cfg.Agent.UseGraph)
	assert.Equal(t, 2*time.Second, cfg.Agent.StepInterval)

	assert.Equal(t, "debug", cfg.Log.Level)

	// 未出现在 YAML 中的值保持默认
	assert.Equal(t, 0.6, cfg.Grounding.URLTaskThreshold)
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("GRAPHGROUND_GROUNDING_ITERATION", "advanced")
	t.Setenv("GRAPHGROUND_GROUNDING_MAX_TOKENS", "512")
	t.Setenv("GRAPHGROUND_GRAPH_URI", "bolt://env-graph:7687")
	t.Setenv("GRAPHGROUND_AGENT_STEP_INTERVAL", "250ms")
	t.Setenv("GRAPHGROUND_REDIS_ENABLED", "true")
	t.Setenv("GRAPHGROUND_LOG_OUTPUT_PATHS", "stdout, /tmp/gg.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "advanced", cfg.Grounding.Iteration)
	assert.Equal(t, 512, cfg.Grounding.MaxTokens)
	assert.Equal(t, "bolt://env-graph:7687", cfg.Graph.URI)
	assert.Equal(t, 250*time.Millisecond, cfg.Agent.StepInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"stdout", "/tmp/gg.log"}, cfg.Log.OutputPaths)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "graphground.yaml")

	yamlContent := `
grounding:
  iteration: "advanced"
llm:
  model: "yaml-model"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	// 环境变量应该覆盖 YAML
	t.Setenv("GRAPHGROUND_GROUNDING_ITERATION", "llm-generated-graph")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, "llm-generated-graph", cfg.Grounding.Iteration)
	// YAML 值应该保留（没有被环境变量覆盖）
	assert.Equal(t, "yaml-model", cfg.LLM.Model)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_GRAPH_DATABASE", "navgraph")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, "navgraph", cfg.Graph.Database)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("GRAPHGROUND_GROUNDING_TOP_K", "three")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	t.Setenv("GRAPHGROUND_GROUNDING_ITERATION", "iteration-5")

	_, err := NewLoader().
		WithValidator((*Config).Validate).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iteration-5")
}

func TestLoader_NonExistentFile(t *testing.T) {
	// 指定不存在的文件，应该使用默认值（不报错）
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/graphground.yaml").
		Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Grounding.MaxPathLength)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
grounding:
  top_k: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "numeric iteration alias",
			modify:  func(c *Config) { c.Grounding.Iteration = "4" },
			wantErr: false,
		},
		{
			name:    "unknown iteration",
			modify:  func(c *Config) { c.Grounding.Iteration = "iteration-5" },
			wantErr: true,
		},
		{
			name:    "threshold out of range",
			modify:  func(c *Config) { c.Grounding.URLTaskThreshold = 1.5 },
			wantErr: true,
		},
		{
			name:    "non-positive path limit",
			modify:  func(c *Config) { c.Grounding.PathLimit = 0 },
			wantErr: true,
		},
		{
			name:    "negative token budget",
			modify:  func(c *Config) { c.Grounding.MaxTokens = -1 },
			wantErr: true,
		},
		{
			name: "empty replacement source",
			modify: func(c *Config) {
				c.Grounding.HostReplacements = append(c.Grounding.HostReplacements, HostReplacement{To: "https://x"})
			},
			wantErr: true,
		},
		{
			name:    "missing graph uri",
			modify:  func(c *Config) { c.Graph.URI = "" },
			wantErr: true,
		},
		{
			name:    "negative step interval",
			modify:  func(c *Config) { c.Agent.StepInterval = -time.Second },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_ThresholdMessagesStable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grounding.URLTaskThreshold = 1.5
	cfg.Grounding.TaskEmbeddingThreshold = -2

	want := "config validation errors: task_embedding_threshold must be between -1 and 1; " +
		"url_task_threshold must be between -1 and 1"
	for i := 0; i < 20; i++ {
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, want, err.Error())
	}
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "graphground.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("grounding:\n  iteration: advanced\n"), 0644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, "advanced", cfg.Grounding.Iteration)
	})
}

func TestMustLoad_Panic(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "graphground.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("grounding:\n  iteration: nope\n"), 0644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}

package grounding

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/graphground/internal/cache"
)

// TemplateCache 保存规范化 URL 到 LLM 推导模板的映射。
type TemplateCache interface {
	Get(ctx context.Context, canonicalURL string) (template string, ok bool, err error)
	Set(ctx context.Context, canonicalURL, template string) error
}

// MemoryTemplateCache 进程内缓存。
type MemoryTemplateCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryTemplateCache 创建进程内缓存。
func NewMemoryTemplateCache() *MemoryTemplateCache {
	return &MemoryTemplateCache{entries: make(map[string]string)}
}

// Get implements TemplateCache.
func (c *MemoryTemplateCache) Get(_ context.Context, canonicalURL string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[canonicalURL]
	return t, ok, nil
}

// Set implements TemplateCache.
func (c *MemoryTemplateCache) Set(_ context.Context, canonicalURL, template string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[canonicalURL] = template
	return nil
}

// Len returns the number of cached templates.
func (c *MemoryTemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisTemplateCache 基于 Redis 的共享缓存，多个 agent 进程得到相同的键。
type RedisTemplateCache struct {
	manager *cache.Manager
	ttl     time.Duration
}

// NewRedisTemplateCache 创建 Redis 缓存；ttl 为 0 时使用 Manager 的默认 TTL。
func NewRedisTemplateCache(manager *cache.Manager, ttl time.Duration) *RedisTemplateCache {
	return &RedisTemplateCache{manager: manager, ttl: ttl}
}

// Get implements TemplateCache.
func (c *RedisTemplateCache) Get(ctx context.Context, canonicalURL string) (string, bool, error) {
	t, err := c.manager.Get(ctx, canonicalURL)
	if cache.IsCacheMiss(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return t, true, nil
}

// Set implements TemplateCache.
func (c *RedisTemplateCache) Set(ctx context.Context, canonicalURL, template string) error {
	return c.manager.Set(ctx, canonicalURL, template, c.ttl)
}

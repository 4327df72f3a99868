package grounding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/cache"
	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/llm"
	"github.com/BaSui01/graphground/testutil/fixtures"
	"github.com/BaSui01/graphground/testutil/mocks"
)

func TestObservationFromMap(t *testing.T) {
	obs := ObservationFromMap(map[string]any{
		"url":  "https://shop.example/a",
		"goal": "buy product",
		"html": "<html/>",
	})
	assert.Equal(t, Observation{URL: "https://shop.example/a", Goal: "buy product"}, obs)

	assert.Equal(t, Observation{}, ObservationFromMap(nil))
	assert.Equal(t, Observation{URL: "42"}, ObservationFromMap(map[string]any{"url": 42, "goal": nil}))
}

func TestAbstractURLAbstractor(t *testing.T) {
	a := NewAbstractURLAbstractor()
	assert.Equal(t, "abstract_url", a.Name())

	key, ok, err := a.AbstractState(context.Background(), Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fixtures.ShopProductURL, key)

	_, ok, err = a.AbstractState(context.Background(), Observation{Goal: "buy"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGoalAbstractor(t *testing.T) {
	a := NewGoalAbstractor()
	assert.Equal(t, "goal", a.Name())

	key, ok, err := a.AbstractState(context.Background(), Observation{URL: "https://x", Goal: fixtures.ShopGoal})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fixtures.ShopGoal, key)

	_, ok, err = a.AbstractState(context.Background(), Observation{URL: "https://x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestURLTemplatePrompt(t *testing.T) {
	msgs := URLTemplatePrompt("https://shop.example/p/1")
	require.Len(t, msgs, 2*len(urlTemplateExamples)+2)

	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	for i := range urlTemplateExamples {
		assert.Equal(t, llm.RoleUser, msgs[1+2*i].Role)
		assert.Equal(t, llm.RoleAssistant, msgs[2+2*i].Role)
	}
	last := msgs[len(msgs)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	assert.Equal(t, "https://shop.example/p/1", last.Content)
}

func TestLLMAidedURLAbstractor_TemplatesCanonicalURL(t *testing.T) {
	chat := mocks.NewMockChatModel().
		WithResponseFor(fixtures.ShopProductURL, "  https://shop.example/products/<product_id>?coupon=<coupon>\nextra line\n")
	a := NewLLMAidedURLAbstractor(chat)
	assert.Equal(t, "llm_aided_url", a.Name())

	key, ok, err := a.AbstractState(context.Background(), Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://shop.example/products/<product_id>?coupon=<coupon>", key)

	// 模型收到的是规范化后的 URL
	msgs := chat.LastMessages()
	assert.Equal(t, fixtures.ShopProductURL, msgs[len(msgs)-1].Content)
}

func TestLLMAidedURLAbstractor_CachesByCanonicalURL(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector("test", reg, zap.NewNop())
	chat := mocks.NewMockChatModel().WithResponse("https://shop.example/products/<id>")
	memCache := NewMemoryTemplateCache()
	a := NewLLMAidedURLAbstractor(chat, WithTemplateCache(memCache), WithAbstractorMetrics(m))

	ctx := context.Background()
	first, _, err := a.AbstractState(ctx, Observation{URL: "https://shop.example/products/1?coupon=A"})
	require.NoError(t, err)
	second, _, err := a.AbstractState(ctx, Observation{URL: "https://shop.example/products/1?coupon=B"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, chat.CallCount())
	assert.Equal(t, 1, memCache.Len())

	n, err := testutil.GatherAndCount(reg, "test_cache_hits_total", "test_cache_misses_total", "test_llm_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLLMAidedURLAbstractor_EmptyCompletionFallsBack(t *testing.T) {
	chat := mocks.NewMockChatModel().WithResponse("   \n  ")
	a := NewLLMAidedURLAbstractor(chat)

	key, ok, err := a.AbstractState(context.Background(), Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fixtures.ShopProductURL, key)
}

func TestLLMAidedURLAbstractor_ChatError(t *testing.T) {
	upstream := &llm.Error{Code: llm.ErrRateLimited, Message: "slow down", Retryable: true}
	memCache := NewMemoryTemplateCache()
	a := NewLLMAidedURLAbstractor(mocks.NewMockChatModel().WithError(upstream), WithTemplateCache(memCache))

	_, ok, err := a.AbstractState(context.Background(), Observation{URL: fixtures.ShopRawProductURL})
	require.Error(t, err)
	assert.False(t, ok)

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.ErrRateLimited, llmErr.Code)
	assert.Equal(t, 0, memCache.Len())
}

func TestLLMAidedURLAbstractor_EmptyURL(t *testing.T) {
	chat := mocks.NewMockChatModel()
	a := NewLLMAidedURLAbstractor(chat)

	_, ok, err := a.AbstractState(context.Background(), Observation{Goal: "buy"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, chat.CallCount())
}

func TestLLMAidedURLAbstractor_ConcurrentRequestsShareOneCall(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	chat := llm.ChatModelFunc(func(ctx context.Context, _ []llm.Message) (string, error) {
		calls.Add(1)
		<-release
		return "https://shop.example/products/<id>", nil
	})
	a := NewLLMAidedURLAbstractor(chat)

	const workers = 8
	var wg sync.WaitGroup
	keys := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, _, err := a.AbstractState(context.Background(), Observation{URL: "https://shop.example/products/7"})
			assert.NoError(t, err)
			keys[i] = key
		}(i)
	}

	// 等第一个调用进入模型后再放行
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, k := range keys {
		assert.Equal(t, "https://shop.example/products/<id>", k)
	}
	assert.LessOrEqual(t, calls.Load(), int32(workers))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestLLMAidedURLAbstractor_CancelledCallerDoesNotFailOthers(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	chat := llm.ChatModelFunc(func(ctx context.Context, _ []llm.Message) (string, error) {
		calls.Add(1)
		<-release
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "https://shop.example/products/<id>", nil
	})
	a := NewLLMAidedURLAbstractor(chat)
	obs := Observation{URL: "https://shop.example/products/7"}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, _, err := a.AbstractState(leaderCtx, obs)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		key string
		err error
	}
	follower := make(chan result, 1)
	go func() {
		key, _, err := a.AbstractState(context.Background(), obs)
		follower <- result{key, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, "https://shop.example/products/<id>", got.key)
	assert.Equal(t, int32(1), calls.Load())
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, string) error { return errors.New("cache down") }

func TestLLMAidedURLAbstractor_CacheErrorsAreNotFatal(t *testing.T) {
	chat := mocks.NewMockChatModel().WithResponse("https://shop.example/<page>")
	a := NewLLMAidedURLAbstractor(chat, WithTemplateCache(failingCache{}))

	key, ok, err := a.AbstractState(context.Background(), Observation{URL: "https://shop.example/a"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://shop.example/<page>", key)
}

func TestRedisTemplateCache(t *testing.T) {
	mr := miniredis.RunT(t)
	manager, err := cache.NewManager(context.Background(), cache.Config{
		Addr:       mr.Addr(),
		KeyPrefix:  "tmpl:",
		DefaultTTL: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	c := NewRedisTemplateCache(manager, 0)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, fixtures.ShopProductURL)
	require.NoError(t, err)
	assert.False(t, ok)

	chat := mocks.NewMockChatModel().WithResponse("https://shop.example/products/<id>?coupon=<coupon>")
	a := NewLLMAidedURLAbstractor(chat, WithTemplateCache(c))
	key, _, err := a.AbstractState(ctx, Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)

	stored, err := mr.Get("tmpl:" + fixtures.ShopProductURL)
	require.NoError(t, err)
	assert.Equal(t, key, stored)

	// 另一个进程内的抽象器直接命中共享缓存
	other := mocks.NewMockChatModel()
	b := NewLLMAidedURLAbstractor(other, WithTemplateCache(c))
	again, _, err := b.AbstractState(ctx, Observation{URL: fixtures.ShopRawProductURL})
	require.NoError(t, err)
	assert.Equal(t, key, again)
	assert.Zero(t, other.CallCount())

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, fixtures.ShopProductURL)
	require.NoError(t, err)
	assert.False(t, ok)
}

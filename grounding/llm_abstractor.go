package grounding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/llm"
)

const urlTemplateSystemPrompt = `given the following URL, please provide a template for the URL.
A template is a string with placeholders for the parts of the URL that are variable.
Please return as a comma-separated list of templates, do not include bullets or any other formatting.
You must include exactly the same number of templates as the number of URLs.
The templates should be in the same order as the URLs. If two URLs are semantically the same, they should have the same template (include the template multiple times, i.e. if two URLs are the same, they should have the same template).
The placeholders should be in the format <placeholder_name>.`

// urlTemplateExamples 是固定的 few-shot 示例，顺序不可变。
var urlTemplateExamples = [][2]string{
	{"https://www.example.com/products/12345", "https://www.example.com/products/<product_id>"},
	{"https://www.example.com/products/5675", "https://www.example.com/products/<product_id>"},
	{"https://www.example.com/products/67890", "https://www.example.com/products/<product_id>"},
	{"https://www.example.com/users/12345/reviews/pages/1", "https://www.example.com/users/<user_id>/reviews/pages/<page_number>"},
	{"https://shopping.com/health-household.html", "https://shopping.com/<category>.html"},
	{"https://shopping.com/office-supplies.html", "https://shopping.com/<category>.html"},
	{"https://shopping.com/3-pack-samsung-galaxy-s6-screen-protector-scratch-resist.html", "https://shopping.com/<product_name>.html"},
	{"https://social-forum.com/user/WaffleCactus42/submissions", "https://social-forum.com/user/<username>/submissions"},
}

// URLTemplatePrompt 返回发送给模型的完整对话。
func URLTemplatePrompt(canonicalURL string) []llm.Message {
	msgs := make([]llm.Message, 0, 2*len(urlTemplateExamples)+2)
	msgs = append(msgs, llm.SystemMessage(urlTemplateSystemPrompt))
	for _, ex := range urlTemplateExamples {
		msgs = append(msgs, llm.UserMessage(ex[0]), llm.AssistantMessage(ex[1]))
	}
	return append(msgs, llm.UserMessage(canonicalURL))
}

// LLMAidedURLAbstractor 先规范化 URL，再让模型把动态路径段替换为占位符。
// 模板按规范化 URL 缓存，同一 URL 的并发请求只调用一次模型。
type LLMAidedURLAbstractor struct {
	chat          llm.ChatModel
	canonicalizer *Canonicalizer
	cache         TemplateCache
	group         singleflight.Group
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// NewLLMAidedURLAbstractor 创建 LLMAidedURLAbstractor。
func NewLLMAidedURLAbstractor(chat llm.ChatModel, opts ...AbstractorOption) *LLMAidedURLAbstractor {
	o := buildAbstractorOptions(opts)
	return &LLMAidedURLAbstractor{
		chat:          chat,
		canonicalizer: o.canonicalizer,
		cache:         o.cache,
		logger:        o.logger.With(zap.String("component", "llm_url_abstractor")),
		metrics:       o.metrics,
	}
}

// AbstractState implements StateAbstractor.
func (a *LLMAidedURLAbstractor) AbstractState(ctx context.Context, obs Observation) (string, bool, error) {
	if obs.URL == "" {
		return "", false, nil
	}
	canonical := a.canonicalizer.Canonicalize(obs.URL)

	cached, ok, err := a.cache.Get(ctx, canonical)
	switch {
	case err != nil:
		a.logger.Warn("template cache read failed", zap.String("url", canonical), zap.Error(err))
	case ok:
		a.metrics.RecordCacheHit("url_template")
		return cached, true, nil
	default:
		a.metrics.RecordCacheMiss("url_template")
	}

	// 共享调用不随首个调用方取消，每个调用方只等待自己的 ctx
	ch := a.group.DoChan(canonical, func() (any, error) {
		return a.template(context.WithoutCancel(ctx), canonical)
	})
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", false, res.Err
		}
		if res.Shared {
			a.logger.Debug("template request shared", zap.String("url", canonical))
		}
		return res.Val.(string), true, nil
	}
}

func (a *LLMAidedURLAbstractor) template(ctx context.Context, canonical string) (string, error) {
	start := time.Now()
	out, err := a.chat.Complete(ctx, URLTemplatePrompt(canonical))
	a.metrics.RecordLLMRequest("chat", "chat", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("templatize url: %w", err)
	}

	template := firstLine(out)
	if template == "" {
		a.logger.Warn("empty template from model, using canonical url", zap.String("url", canonical))
		template = canonical
	}

	if err := a.cache.Set(ctx, canonical, template); err != nil {
		a.logger.Warn("template cache write failed", zap.String("url", canonical), zap.Error(err))
	}
	a.logger.Debug("url templatized", zap.String("url", canonical), zap.String("template", template))
	return template, nil
}

// Name implements StateAbstractor.
func (a *LLMAidedURLAbstractor) Name() string { return "llm_aided_url" }

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if line, _, ok := strings.Cut(s, "\n"); ok {
		s = strings.TrimSpace(line)
	}
	return s
}

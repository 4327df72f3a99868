package grounding

import (
	"strings"

	"github.com/BaSui01/graphground/config"
)

// FragmentPlaceholder replaces any non-empty fragment.
const FragmentPlaceholder = "<fragment>"

// Canonicalizer 把具体 URL 转换为可作为图查询键的模板：
// 查询参数值替换为 <key>，片段替换为 #<fragment>，再按顺序做主机替换。
// Canonicalizer 无状态，可并发使用。
type Canonicalizer struct {
	replacements []config.HostReplacement
}

// NewCanonicalizer 创建 Canonicalizer，replacements 按给定顺序依次应用。
func NewCanonicalizer(replacements []config.HostReplacement) *Canonicalizer {
	return &Canonicalizer{replacements: append([]config.HostReplacement(nil), replacements...)}
}

// DefaultCanonicalizer 使用 config.DefaultHostReplacements。
func DefaultCanonicalizer() *Canonicalizer {
	return NewCanonicalizer(config.DefaultHostReplacements())
}

// CanonicalizeURL 使用默认主机替换表规范化 raw。
func CanonicalizeURL(raw string) string {
	return DefaultCanonicalizer().Canonicalize(raw)
}

// Canonicalize 规范化 raw。对任意输入都有结果，且 Canonicalize 是幂等的。
// 只按 "#"、"?"、"&"、"=" 切分，不校验转义与端口，
// 因此 "50%off?id=5" 这类 net/url 拒绝的输入同样会被模板化。
func (c *Canonicalizer) Canonicalize(raw string) string {
	rest, fragment, _ := strings.Cut(raw, "#")
	base, query, _ := strings.Cut(rest, "?")

	var sb strings.Builder
	sb.Grow(len(raw))
	sb.WriteString(base)
	if q := templateQuery(query); q != "" {
		sb.WriteByte('?')
		sb.WriteString(q)
	}
	if fragment != "" {
		sb.WriteByte('#')
		sb.WriteString(FragmentPlaceholder)
	}
	return c.replaceHosts(sb.String())
}

func (c *Canonicalizer) replaceHosts(s string) string {
	for _, r := range c.replacements {
		if r.From == "" {
			continue
		}
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s
}

// templateQuery 保留每个键第一次出现的位置，值替换为 <key>；
// 没有 "=" 的片段整体作为键。
func templateQuery(query string) string {
	if query == "" {
		return ""
	}
	seen := make(map[string]struct{})
	parts := make([]string, 0, strings.Count(query, "&")+1)
	for _, token := range strings.Split(query, "&") {
		if token == "" {
			continue
		}
		key, _, _ := strings.Cut(token, "=")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		parts = append(parts, key+"=<"+key+">")
	}
	return strings.Join(parts, "&")
}

// stripHost 去掉 scheme://host 以及查询与片段，只保留路径；空路径返回 "/"。
func stripHost(raw string) string {
	rest, _, _ := strings.Cut(raw, "#")
	rest, _, _ = strings.Cut(rest, "?")
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			rest = rest[j:]
		} else {
			rest = ""
		}
	}
	if rest == "" {
		return "/"
	}
	return rest
}

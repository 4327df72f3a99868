package grounding

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/graphground/config"
	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/navgraph"
)

// Retriever 查询导航图并把结果转换为 agent 可读的文本。
// 没有可用路径时返回 (nil, nil)；图不可用等基础设施错误原样返回。
type Retriever interface {
	Retrieve(ctx context.Context, key, goal string) (*Grounding, error)
	Iteration() Iteration
}

// Embedder 把文本转换为向量，embedding.Provider 满足该接口。
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// Grounding 是一次检索的结果。Blocks 按输出顺序排列，且都不为空。
type Grounding struct {
	Iteration Iteration
	Blocks    []string
	Separator string
}

// newGrounding 丢弃空白块；没有剩余块时返回 nil。
func newGrounding(iter Iteration, sep string, blocks []string) *Grounding {
	kept := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &Grounding{Iteration: iter, Blocks: kept, Separator: sep}
}

// Text joins the blocks with the separator.
func (g *Grounding) Text() string {
	if g == nil {
		return ""
	}
	return strings.Join(g.Blocks, g.Separator)
}

// Truncate keeps the first n blocks; n < 1 keeps one.
func (g *Grounding) Truncate(n int) *Grounding {
	if g == nil || n >= len(g.Blocks) {
		return g
	}
	if n < 1 {
		n = 1
	}
	return &Grounding{Iteration: g.Iteration, Blocks: g.Blocks[:n], Separator: g.Separator}
}

// =============================================================================
// 选项
// =============================================================================

// RetrieverOption 配置检索策略。
type RetrieverOption func(*retrieverOptions)

type retrieverOptions struct {
	logger  *zap.Logger
	metrics *metrics.Collector

	maxPathLength          int
	pathLimit              int
	maxHops                int
	urlTaskThreshold       float64
	taskEmbeddingThreshold float64
	topK                   int
}

func defaultRetrieverOptions() retrieverOptions {
	d := config.DefaultGroundingConfig()
	return retrieverOptions{
		logger:                 zap.NewNop(),
		maxPathLength:          d.MaxPathLength,
		pathLimit:              d.PathLimit,
		maxHops:                d.MaxHops,
		urlTaskThreshold:       d.URLTaskThreshold,
		taskEmbeddingThreshold: d.TaskEmbeddingThreshold,
		topK:                   d.TopK,
	}
}

func buildRetrieverOptions(opts []RetrieverOption) retrieverOptions {
	o := defaultRetrieverOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// WithLogger 设置日志记录器。
func WithLogger(l *zap.Logger) RetrieverOption {
	return func(o *retrieverOptions) { o.logger = l }
}

// WithMetrics 设置指标收集器。
func WithMetrics(c *metrics.Collector) RetrieverOption {
	return func(o *retrieverOptions) { o.metrics = c }
}

// WithGroundingConfig 从配置读取阈值与上限。非正数的上限、为 0 或超出 [-1, 1] 的阈值
// 都视为未设置并保持默认；需要 0 阈值时用 WithURLTaskThreshold / WithTaskEmbeddingThreshold。
func WithGroundingConfig(cfg config.GroundingConfig) RetrieverOption {
	return func(o *retrieverOptions) {
		if cfg.MaxPathLength > 0 {
			o.maxPathLength = cfg.MaxPathLength
		}
		if cfg.PathLimit > 0 {
			o.pathLimit = cfg.PathLimit
		}
		if cfg.MaxHops > 0 {
			o.maxHops = cfg.MaxHops
		}
		if cfg.TopK > 0 {
			o.topK = cfg.TopK
		}
		if thresholdSet(cfg.URLTaskThreshold) {
			o.urlTaskThreshold = cfg.URLTaskThreshold
		}
		if thresholdSet(cfg.TaskEmbeddingThreshold) {
			o.taskEmbeddingThreshold = cfg.TaskEmbeddingThreshold
		}
	}
}

func thresholdSet(t float64) bool {
	return t != 0 && t >= -1 && t <= 1
}

// WithMaxPathLength 设置简单路径的最大长度。
func WithMaxPathLength(n int) RetrieverOption {
	return func(o *retrieverOptions) { o.maxPathLength = n }
}

// WithPathLimit 设置候选路径上限。
func WithPathLimit(n int) RetrieverOption {
	return func(o *retrieverOptions) { o.pathLimit = n }
}

// WithMaxHops 设置前向展开的最大跳数。
func WithMaxHops(n int) RetrieverOption {
	return func(o *retrieverOptions) { o.maxHops = n }
}

// WithURLTaskThreshold 设置 URL 任务检索的相似度阈值（严格大于）。
func WithURLTaskThreshold(t float64) RetrieverOption {
	return func(o *retrieverOptions) { o.urlTaskThreshold = t }
}

// WithTaskEmbeddingThreshold 设置任务向量检索的相似度阈值（严格大于）。
func WithTaskEmbeddingThreshold(t float64) RetrieverOption {
	return func(o *retrieverOptions) { o.taskEmbeddingThreshold = t }
}

// WithTopK 设置文本距离与任务向量检索保留的数量。
func WithTopK(k int) RetrieverOption {
	return func(o *retrieverOptions) { o.topK = k }
}

// =============================================================================
// 共用函数
// =============================================================================

// Similarity 返回 Neo4j vector.similarity.cosine 尺度的相似度 (1+cos)/2，
// 取值 [0, 1]。长度不同或含零向量时 ok 为 false。
func Similarity(a, b []float64) (score float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (1 + cos) / 2, true
}

func pathsOf(records []navgraph.PathRecord) []navgraph.Path {
	out := make([]navgraph.Path, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	return out
}

// groupBySource 按 source_id 列分组，保持每组内的原始顺序。
func groupBySource(records []navgraph.PathRecord) map[string][]navgraph.Path {
	groups := make(map[string][]navgraph.Path)
	for _, r := range records {
		src := navgraph.String(r.Values["source_id"])
		if src == "" {
			if start, ok := r.Path.Start(); ok {
				src = start.ID
			}
		}
		groups[src] = append(groups[src], r.Path)
	}
	return groups
}

// stepList 渲染 "Goal: ..." 之后的编号步骤。
func stepList(sb *strings.Builder, p navgraph.Path) {
	for i := 1; i < len(p.Nodes); i++ {
		sb.WriteByte('\n')
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(". ")
		sb.WriteString(stepText(p, i))
	}
}

// stepText 依次取节点的 description、url，最后退回到进入该节点的动作。
func stepText(p navgraph.Path, i int) string {
	n := p.Nodes[i]
	if d := n.String(navgraph.PropDesc); d != "" {
		return d
	}
	if u := n.String(navgraph.PropURL); u != "" {
		return u
	}
	if i-1 < len(p.Relationships) {
		return actionLabel(p.Relationships[i-1])
	}
	return n.ID
}

func actionLabel(r navgraph.Relationship) string {
	action := r.String(navgraph.PropAction)
	target := r.String(navgraph.PropTarget)
	switch {
	case action == "" && target == "":
		return r.Type
	case target == "":
		return action
	case action == "":
		return target
	default:
		return action + ": " + target
	}
}

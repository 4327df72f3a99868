package grounding

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/navgraph"
)

// LongestPathRetriever 从当前页面出发枚举 ACTION 简单路径，
// 保留 flow 一致的极大路径并按长度降序输出。
type LongestPathRetriever struct {
	gateway       navgraph.Gateway
	maxPathLength int
	pathLimit     int
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// NewLongestPathRetriever 创建 LongestPathRetriever。
func NewLongestPathRetriever(gateway navgraph.Gateway, opts ...RetrieverOption) *LongestPathRetriever {
	o := buildRetrieverOptions(opts)
	return &LongestPathRetriever{
		gateway:       gateway,
		maxPathLength: o.maxPathLength,
		pathLimit:     o.pathLimit,
		logger:        o.logger.With(zap.String("component", "longest_path_retriever")),
		metrics:       o.metrics,
	}
}

// Iteration implements Retriever.
func (r *LongestPathRetriever) Iteration() Iteration { return IterationStandard }

// Retrieve implements Retriever. 页面不存在时返回 NOT_FOUND。
func (r *LongestPathRetriever) Retrieve(ctx context.Context, key, _ string) (*Grounding, error) {
	page, err := r.gateway.FindPage(ctx, key)
	if err != nil {
		return nil, err
	}

	records, err := r.gateway.RunPathQuery(ctx, navgraph.QuerySimplePaths, map[string]any{
		navgraph.ParamSourceID:  page.ID,
		navgraph.ParamMaxLength: r.maxPathLength,
		navgraph.ParamLimit:     r.pathLimit,
	})
	if err != nil {
		return nil, err
	}

	paths := navgraph.FilterFlowConsistent(pathsOf(records))
	paths = navgraph.MaximalPaths(paths)
	paths = navgraph.SortByLengthDesc(paths)
	r.metrics.RecordGroundingPaths(string(IterationStandard), len(paths))

	blocks := make([]string, 0, len(paths))
	for _, p := range paths {
		merged := mergePath(p)
		if merged == "" {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("%d. %s", len(blocks)+1, merged))
	}

	r.logger.Debug("longest paths retrieved",
		zap.String("page_id", page.ID),
		zap.Int("candidates", len(records)),
		zap.Int("kept", len(blocks)),
	)
	return newGrounding(IterationStandard, "\n\n", blocks), nil
}

// mergePath 渲染 "(page, action) -> ... -> (final-page)"；单节点路径返回空串。
func mergePath(p navgraph.Path) string {
	if p.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, len(p.Nodes))
	for i, rel := range p.Relationships {
		parts = append(parts, "("+stripHost(p.Nodes[i].String(navgraph.PropURL))+", "+actionLabel(rel)+")")
	}
	last, _ := p.End()
	parts = append(parts, "("+stripHost(last.String(navgraph.PropURL))+")")
	return strings.Join(parts, " -> ")
}

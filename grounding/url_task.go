package grounding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/navgraph"
	"github.com/BaSui01/graphground/types"
)

// URLTaskRetriever 在页面关联的目标中找与 goal 最相似的一个，
// 从该目标最早的步骤出发展开 ACTION 链。
type URLTaskRetriever struct {
	gateway   navgraph.Gateway
	embedder  Embedder
	threshold float64
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewURLTaskRetriever 创建 URLTaskRetriever。
func NewURLTaskRetriever(gateway navgraph.Gateway, embedder Embedder, opts ...RetrieverOption) *URLTaskRetriever {
	o := buildRetrieverOptions(opts)
	return &URLTaskRetriever{
		gateway:   gateway,
		embedder:  embedder,
		threshold: o.urlTaskThreshold,
		logger:    o.logger.With(zap.String("component", "url_task_retriever")),
		metrics:   o.metrics,
	}
}

// Iteration implements Retriever.
func (r *URLTaskRetriever) Iteration() Iteration { return IterationAdvanced }

// Retrieve implements Retriever. 没有目标超过阈值时返回 NOT_FOUND。
func (r *URLTaskRetriever) Retrieve(ctx context.Context, key, goal string) (*Grounding, error) {
	rows, err := r.gateway.RunStatement(ctx, navgraph.QueryGoalsAtPage, map[string]any{navgraph.ParamURL: key})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, types.NewNotFoundError("no goals attached to %q", key)
	}

	query, err := r.embedder.EmbedQuery(ctx, goal)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "embed goal").WithCause(err)
	}

	var (
		bestID    string
		bestStep  int64
		bestScore float64
		found     bool
	)
	for _, row := range rows {
		vec, ok := navgraph.Float64s(row["embedding"])
		if !ok {
			continue
		}
		score, ok := Similarity(query, vec)
		if !ok || score <= r.threshold {
			continue
		}
		step, ok := navgraph.Int64(row["start_step_id"])
		if !ok {
			continue
		}
		if !found || score > bestScore {
			bestID, bestStep, bestScore, found = navgraph.String(row["goal_id"]), step, score, true
		}
	}
	if !found {
		return nil, types.NewNotFoundError("no goal at %q above similarity %.2f", key, r.threshold)
	}

	records, err := r.gateway.RunPathQuery(ctx, navgraph.QueryForwardFromStep, map[string]any{
		navgraph.ParamGoalID: bestID,
		navgraph.ParamStepID: bestStep,
	})
	if err != nil {
		return nil, err
	}

	paths := navgraph.MaximalPaths(pathsOf(records))
	r.metrics.RecordGroundingPaths(string(IterationAdvanced), len(paths))

	blocks := make([]string, 0, len(paths))
	for _, p := range paths {
		blocks = append(blocks, actionChain(p))
	}

	r.logger.Debug("url task paths retrieved",
		zap.String("goal_id", bestID),
		zap.Float64("similarity", bestScore),
		zap.Int("kept", len(blocks)),
	)
	return newGrounding(IterationAdvanced, "\n", blocks), nil
}

// actionChain 渲染 "(action, input, target_line) -> ..."。
func actionChain(p navgraph.Path) string {
	parts := make([]string, len(p.Relationships))
	for i, rel := range p.Relationships {
		parts[i] = "(" + rel.String(navgraph.PropAction) + ", " +
			rel.String(navgraph.PropInput) + ", " +
			rel.String(navgraph.PropTarget) + ")"
	}
	return strings.Join(parts, " -> ")
}

package grounding

import (
	"context"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/navgraph"
)

// TextDistanceRetriever 选出 goal 文本编辑距离最小的若干任务，
// 输出从这些任务出发的极大前向路径。
type TextDistanceRetriever struct {
	gateway navgraph.Gateway
	topK    int
	maxHops int
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewTextDistanceRetriever 创建 TextDistanceRetriever。
func NewTextDistanceRetriever(gateway navgraph.Gateway, opts ...RetrieverOption) *TextDistanceRetriever {
	o := buildRetrieverOptions(opts)
	return &TextDistanceRetriever{
		gateway: gateway,
		topK:    o.topK,
		maxHops: o.maxHops,
		logger:  o.logger.With(zap.String("component", "text_distance_retriever")),
		metrics: o.metrics,
	}
}

// Iteration implements Retriever.
func (r *TextDistanceRetriever) Iteration() Iteration { return IterationLLMGeneratedGraph }

type taskMatch struct {
	id          string
	goal        string
	description string
	distance    int
}

// Retrieve implements Retriever.
func (r *TextDistanceRetriever) Retrieve(ctx context.Context, _ string, goal string) (*Grounding, error) {
	rows, err := r.gateway.RunStatement(ctx, navgraph.QueryTaskGoals, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]taskMatch, 0, len(rows))
	for _, row := range rows {
		m := taskMatch{
			id:          navgraph.String(row["id"]),
			goal:        navgraph.String(row["goal"]),
			description: navgraph.String(row["description"]),
		}
		m.distance = levenshtein.Distance(goal, m.goal, nil)
		matches = append(matches, m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.goal != b.goal {
			return a.goal < b.goal
		}
		return a.id < b.id
	})
	if len(matches) > r.topK {
		matches = matches[:r.topK]
	}
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}
	records, err := r.gateway.RunPathQuery(ctx, navgraph.QueryForwardFromNodes, map[string]any{
		navgraph.ParamIDs:     ids,
		navgraph.ParamMaxHops: r.maxHops,
	})
	if err != nil {
		return nil, err
	}

	groups := groupBySource(records)
	var blocks []string
	kept := 0
	for _, m := range matches {
		title := m.description
		if title == "" {
			title = m.goal
		}
		for _, p := range navgraph.MaximalPaths(groups[m.id]) {
			var sb strings.Builder
			sb.WriteString("Goal: ")
			sb.WriteString(title)
			stepList(&sb, p)
			blocks = append(blocks, sb.String())
			kept++
		}
	}
	r.metrics.RecordGroundingPaths(string(IterationLLMGeneratedGraph), kept)

	r.logger.Debug("text distance paths retrieved",
		zap.Int("tasks", len(matches)),
		zap.Int("kept", kept),
	)
	return newGrounding(IterationLLMGeneratedGraph, "\n", blocks), nil
}

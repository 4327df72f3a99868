package grounding

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/graphground/internal/metrics"
	"github.com/BaSui01/graphground/navgraph"
	"github.com/BaSui01/graphground/types"
)

// TaskEmbeddingRetriever 找出 embedding 与 goal 相似度超过阈值的节点，
// 输出从这些节点出发的极大前向路径，按相似度降序取前 topK 条。
type TaskEmbeddingRetriever struct {
	gateway   navgraph.Gateway
	embedder  Embedder
	threshold float64
	topK      int
	maxHops   int
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewTaskEmbeddingRetriever 创建 TaskEmbeddingRetriever。
func NewTaskEmbeddingRetriever(gateway navgraph.Gateway, embedder Embedder, opts ...RetrieverOption) *TaskEmbeddingRetriever {
	o := buildRetrieverOptions(opts)
	return &TaskEmbeddingRetriever{
		gateway:   gateway,
		embedder:  embedder,
		threshold: o.taskEmbeddingThreshold,
		topK:      o.topK,
		maxHops:   o.maxHops,
		logger:    o.logger.With(zap.String("component", "task_embedding_retriever")),
		metrics:   o.metrics,
	}
}

// Iteration implements Retriever.
func (r *TaskEmbeddingRetriever) Iteration() Iteration { return IterationLLMAugmentedGraph }

type nodeMatch struct {
	id          string
	description string
	score       float64
}

// Retrieve implements Retriever.
func (r *TaskEmbeddingRetriever) Retrieve(ctx context.Context, _ string, goal string) (*Grounding, error) {
	query, err := r.embedder.EmbedQuery(ctx, goal)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "embed goal").WithCause(err)
	}

	rows, err := r.gateway.RunStatement(ctx, navgraph.QueryEmbeddedNodes, nil)
	if err != nil {
		return nil, err
	}

	var matches []nodeMatch
	for _, row := range rows {
		vec, ok := navgraph.Float64s(row["embedding"])
		if !ok {
			continue
		}
		score, ok := Similarity(query, vec)
		if !ok || score <= r.threshold {
			continue
		}
		matches = append(matches, nodeMatch{
			id:          navgraph.String(row["id"]),
			description: navgraph.String(row["description"]),
			score:       score,
		})
	}
	if len(matches) == 0 {
		return nil, nil
	}

	// 相似度降序，相同分数按节点 ID
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].id < matches[j].id
	})

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
	blocks := make([]string, 0, r.topK)
outer:
	for _, m := range matches {
		paths := navgraph.FilterFlowConsistent(groups[m.id])
		for _, p := range navgraph.MaximalPaths(paths) {
			if len(blocks) >= r.topK {
				break outer
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "Goal: %s (Similarity: %.4f)", m.description, m.score)
			stepList(&sb, p)
			blocks = append(blocks, sb.String())
		}
	}
	r.metrics.RecordGroundingPaths(string(IterationLLMAugmentedGraph), len(blocks))

	r.logger.Debug("task embedding paths retrieved",
		zap.Int("matches", len(matches)),
		zap.Int("kept", len(blocks)),
	)
	return newGrounding(IterationLLMAugmentedGraph, "\n\n", blocks), nil
}

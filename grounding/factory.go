package grounding

import (
	"strings"

	"github.com/BaSui01/graphground/llm"
	"github.com/BaSui01/graphground/navgraph"
	"github.com/BaSui01/graphground/types"
)

// Iteration 选择一组状态抽象与检索算法。
type Iteration string

const (
	// IterationStandard 规范化 URL + 最长路径。
	IterationStandard Iteration = "standard"
	// IterationAdvanced LLM 生成 URL 模板 + 页面目标向量匹配。
	IterationAdvanced Iteration = "advanced"
	// IterationLLMGeneratedGraph goal 文本 + 任务编辑距离匹配。
	IterationLLMGeneratedGraph Iteration = "llm-generated-graph"
	// IterationLLMAugmentedGraph goal 文本 + 节点向量匹配。
	IterationLLMAugmentedGraph Iteration = "llm-augmented-graph"
)

var iterationAliases = map[string]Iteration{
	"1": IterationStandard,
	"2": IterationAdvanced,
	"3": IterationLLMGeneratedGraph,
	"4": IterationLLMAugmentedGraph,
}

// Iterations 按编号顺序返回所有迭代。
func Iterations() []Iteration {
	return []Iteration{
		IterationStandard,
		IterationAdvanced,
		IterationLLMGeneratedGraph,
		IterationLLMAugmentedGraph,
	}
}

// ParseIteration 解析迭代名称或数字别名，不区分大小写。
func ParseIteration(s string) (Iteration, error) {
	tag := strings.ToLower(strings.TrimSpace(s))
	if it, ok := iterationAliases[tag]; ok {
		return it, nil
	}
	for _, it := range Iterations() {
		if string(it) == tag {
			return it, nil
		}
	}
	return "", types.NewUnsupportedConfigurationError("unknown iteration %q", s)
}

// String implements fmt.Stringer.
func (i Iteration) String() string { return string(i) }

// NewStateAbstractor 返回迭代对应的状态抽象器。
// advanced 需要 chat，其余迭代忽略它。
func NewStateAbstractor(iter Iteration, chat llm.ChatModel, opts ...AbstractorOption) (StateAbstractor, error) {
	switch iter {
	case IterationStandard:
		return NewAbstractURLAbstractor(opts...), nil
	case IterationAdvanced:
		if chat == nil {
			return nil, types.NewUnsupportedConfigurationError("iteration %q requires a chat model", iter)
		}
		return NewLLMAidedURLAbstractor(chat, opts...), nil
	case IterationLLMGeneratedGraph, IterationLLMAugmentedGraph:
		return NewGoalAbstractor(), nil
	default:
		return nil, types.NewUnsupportedConfigurationError("unknown iteration %q", iter)
	}
}

// NewRetriever 返回迭代对应的检索器。
// advanced 与 llm-augmented-graph 需要 embedder。
func NewRetriever(iter Iteration, gateway navgraph.Gateway, embedder Embedder, opts ...RetrieverOption) (Retriever, error) {
	if gateway == nil {
		return nil, types.NewUnsupportedConfigurationError("iteration %q requires a graph gateway", iter)
	}
	switch iter {
	case IterationStandard:
		return NewLongestPathRetriever(gateway, opts...), nil
	case IterationAdvanced:
		if embedder == nil {
			return nil, types.NewUnsupportedConfigurationError("iteration %q requires an embedder", iter)
		}
		return NewURLTaskRetriever(gateway, embedder, opts...), nil
	case IterationLLMGeneratedGraph:
		return NewTextDistanceRetriever(gateway, opts...), nil
	case IterationLLMAugmentedGraph:
		if embedder == nil {
			return nil, types.NewUnsupportedConfigurationError("iteration %q requires an embedder", iter)
		}
		return NewTaskEmbeddingRetriever(gateway, embedder, opts...), nil
	default:
		return nil, types.NewUnsupportedConfigurationError("unknown iteration %q", iter)
	}
}

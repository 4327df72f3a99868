// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 grounding 把浏览器观测转换为基于导航图的提示文本。

# 流程

一次 grounding 分两步：StateAbstractor 把观测（URL 与 goal）映射为查询键，
Retriever 用该键查询导航图并生成文本。Provider 组合二者，负责指标、
追踪、token 预算，并把 NOT_FOUND 与空结果统一视为"没有 grounding"。

# 迭代

Iteration 选择抽象器与检索器的组合：

  - standard：AbstractURLAbstractor + LongestPathRetriever
  - advanced：LLMAidedURLAbstractor + URLTaskRetriever
  - llm-generated-graph：GoalAbstractor + TextDistanceRetriever
  - llm-augmented-graph：GoalAbstractor + TaskEmbeddingRetriever

NewStateAbstractor 与 NewRetriever 是仅有的构造入口，未知迭代或缺少依赖时
返回 UNSUPPORTED_CONFIGURATION。

# URL 规范化

Canonicalizer 把查询参数值替换为 <key>，片段替换为 #<fragment>，
再按配置顺序替换部署主机。结果幂等，可直接作为页面节点的 url 查询。

# 相似度

Similarity 使用与 Neo4j vector.similarity.cosine 相同的 (1+cos)/2 尺度，
所有阈值比较都是严格大于。
*/
package grounding

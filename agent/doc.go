// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 agent 提供浏览 agent 的观测预处理层。

GroundedAgent 以组合的方式持有两项可选能力：

  - GroundingSource：通常是 grounding.Provider，为当前观测生成导航图文本，
    写入观测的 graph_grounding 键。
  - 限速策略：golang.org/x/time/rate 令牌桶，控制相邻两步的最小间隔，
    避免触发上游模型的限流。

没有 grounding 时观测中不出现 graph_grounding 键，提示中也不出现导航图段落；
grounding 来源返回的错误（例如 GRAPH_UNAVAILABLE）会中止当前步骤。
GraphPrompt 把 grounding 文本渲染为提示片段。
*/
package agent

// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的 grounding 链路指标采集能力，覆盖
Grounding、图数据库、LLM、缓存与 Agent 五个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto.With
将指标注册到调用方提供的 Registerer（默认 DefaultRegisterer）。
所有 Record* 方法对 nil 接收者安全，未启用指标时无需额外判断。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram 向量指标，
    按业务域分组管理。

# 主要能力

  - Grounding 指标：按 iteration/stage/outcome 统计 abstract 与
    retrieve 调用次数和耗时，记录保留路径数与输出 token 数。
  - 图数据库指标：按 operation/status 统计查询次数与耗时。
  - LLM 指标：按 provider/kind 统计 chat 与 embedding 请求。
  - 缓存指标：URL 模板缓存的命中与未命中计数。
  - Agent 指标：步骤预处理次数与限速等待时间。
*/
package metrics

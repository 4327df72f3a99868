// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 提供 grounding 所需的语言模型边界。

# 概述

URL 模板化策略只需要一个能力：给定有序的 {role, content} 对话，
以温度 0 返回一段文本。本包将其抽象为 [ChatModel]，
并提供基于 OpenAI 兼容 /v1/chat/completions 的 [ChatClient] 实现。

# 核心类型

  - [ChatModel] / [ChatModelFunc]：Complete(ctx, messages) 接口
  - [Message] / [Role]：对话消息
  - [Error] / [ErrorCode]：上游错误，含 HTTP 状态与 Retryable 标记

子包 embedding 提供文本向量化，tokenizer 提供 Token 计数。
*/
package llm

// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 graphground 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 navgraph、grounding、
agent 等上层模块提供统一的错误契约与 Context 传播工具。

# 核心类型

  - Error / ErrorCode: 结构化错误体系，含 Retryable、Provider、Cause
  - NOT_FOUND / GRAPH_UNAVAILABLE / UNSUPPORTED_CONFIGURATION / EMPTY_RESULT

# 主要能力

  - 错误工具链：AsError / IsErrorCode / IsNotFound / IsGraphUnavailable
  - Context 传播：WithTraceID / WithRunID / WithIteration
*/
package types

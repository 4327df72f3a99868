// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存管理能力，为 LLM 推导出的 URL 模板
提供跨进程共享的存储。

# 概述

本包封装 go-redis 客户端。Manager 负责连接生命周期管理，包括初始化
Ping、后台健康检查与优雅关闭。所有键自动加上配置的前缀，
写入时未指定 TTL 则使用默认过期时间。

# 核心类型

  - Manager：缓存管理器，提供 Get/Set/Delete/Ping/Close。
  - Config：缓存配置，包含地址、密码、键前缀、默认 TTL 与健康检查间隔。

# 错误语义

  - ErrCacheMiss：键不存在，可用 IsCacheMiss 判断。
  - ErrClosed：管理器关闭后的任何调用。
*/
package cache

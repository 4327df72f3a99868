// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 graphground 命令行入口。

# 概述

cmd/graphground 在不启动浏览器代理的情况下直接运行导航图 grounding，
用于检查图数据、对比不同 iteration 的检索结果以及批量预处理观测。

# 子命令

  - abstract: 输出观测的查询键（URL 模板或目标文本）
  - retrieve: 输出观测的 grounding 文本，缺失时输出 "no grounding"
  - ground: 从 stdin 读取 JSON Lines 观测，经 agent 预处理后逐行输出；--prompt 附带提示片段
  - version: 版本信息，支持 --json

# 配置

全局参数 --config 指定 YAML 配置文件，--iteration 覆盖 grounding.iteration。
环境变量以 GRAPHGROUND_ 为前缀覆盖配置文件。
*/
package main

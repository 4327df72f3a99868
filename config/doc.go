// Package config 提供 graphground 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量 的顺序叠加，
// 覆盖图数据库、检索阈值、LLM / Embedding、Redis 模板缓存、
// Agent 限速、日志与遥测等各节。
package config

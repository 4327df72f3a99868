// Package tlsutil 提供集中式 TLS 配置，
// 为 chat/embedding HTTP 客户端、Redis 模板缓存和 Neo4j 驱动提供加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil

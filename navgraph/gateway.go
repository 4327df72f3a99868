package navgraph

import "context"

// Gateway 是图数据库的只读访问边界。
//
// 实现必须：
//   - 在找不到页面时返回 NOT_FOUND 错误；
//   - 将任何传输或驱动错误转换为 GRAPH_UNAVAILABLE，且不做内部重试；
//   - 将空结果集视为成功（返回空切片）；
//   - 允许并发调用，Close 只生效一次。
type Gateway interface {
	// FindPage 按 URL 模板精确查找页面节点。
	FindPage(ctx context.Context, url string) (*PageNode, error)

	// FindPageNodeID 是 FindPage 的便捷形式，仅返回节点 ID。
	FindPageNodeID(ctx context.Context, url string) (string, error)

	// RunPathQuery 执行返回路径的查询，无法解码路径的行被跳过。
	RunPathQuery(ctx context.Context, query string, params map[string]any) ([]PathRecord, error)

	// RunStatement 执行普通读语句，按行返回列映射。
	RunStatement(ctx context.Context, statement string, params map[string]any) ([]map[string]any, error)

	// Close 释放底层连接。
	Close(ctx context.Context) error
}

// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 navgraph 提供导航图（页面、步骤、目标、任务节点与 ACTION 边）的只读访问层。

# 概述

Gateway 是图数据库的唯一入口：持有连接，执行参数化查询，并把驱动错误
统一转换为 GRAPH_UNAVAILABLE。检索策略只依赖 Gateway 接口，
Neo4jGateway 是基于 neo4j-go-driver 的生产实现。

# 核心类型

  - Node / Relationship / Path：以 elementId 作为身份的图元素与交替路径。
  - PathRecord：路径查询的一行，路径之外的列保存在 Values 中。
  - PageNode：带 URL 模板的页面节点。

# 路径后处理

  - MaximalPaths / MaximalRecords：去掉边集合被其它路径严格包含的路径。
  - FlowConsistent / FilterFlowConsistent：要求路径上带 flows 标记的元素
    至少共享一个 flow。
  - SortByLengthDesc：按路径长度稳定降序排序。

# 查询约定

查询语句、参数名与列名定义在 queries.go 中，testutil/mocks 的内存图
按同样的常量解释查询，使检索策略可以脱离数据库测试。
*/
package navgraph

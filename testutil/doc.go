// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 graphground 测试的共享工具和辅助函数。

# 概述

testutil 包为各包的单元测试提供统一的辅助能力，
避免各包重复实现相似的测试基础设施。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 断言工具: AssertErrorCode / AssertLines
  - 数据工具: MustJSON / MustParseJSON

# 子包

  - testutil/mocks: Mock 实现，包括 MemoryGraph（按 navgraph 查询常量
    解释语句的内存导航图）、MockChatModel、MockEmbedder，
    均支持 Builder 模式与错误注入
  - testutil/fixtures: 预置导航图，覆盖四种检索策略的典型场景

# 使用示例

	ctx := testutil.TestContext(t)
	graph := fixtures.ShopGraph()
	id, err := graph.FindPageNodeID(ctx, fixtures.ShopProductURL)
	testutil.AssertErrorCode(t, err, types.ErrNotFound)
*/
package testutil

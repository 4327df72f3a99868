// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 embedding 提供文本嵌入（Embedding）接口与 OpenAI 实现，
用于把目标描述转换为向量，与图中存储的 embedding 做余弦比较。

# 核心接口

  - Provider：统一嵌入接口，定义 Embed、EmbedQuery 等方法。
  - EmbeddingRequest / EmbeddingResponse：标准化的请求与响应模型。
  - BaseProvider：公共基类，封装 HTTP 请求与错误映射。

# 使用方式

	cfg := embedding.DefaultOpenAIConfig()
	cfg.APIKey = "sk-..."
	provider := embedding.NewOpenAIProvider(cfg)

	vec, err := provider.EmbedQuery(ctx, "buy a screen protector")
*/
package embedding

// MockEmbedder 是 embedding.Provider 的测试模拟实现。
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/BaSui01/graphground/llm/embedding"
)

// MockEmbedder 按文本返回预设向量
type MockEmbedder struct {
	mu sync.Mutex

	vectors    map[string][]float64
	fallback   []float64
	dimensions int
	err        error

	queries []string
}

// NewMockEmbedder 创建新的 MockEmbedder，未知文本返回维度为 dimensions 的零向量
func NewMockEmbedder(dimensions int) *MockEmbedder {
	return &MockEmbedder{
		vectors:    make(map[string][]float64),
		dimensions: dimensions,
		fallback:   make([]float64, dimensions),
	}
}

// WithVector 为文本设置向量
func (m *MockEmbedder) WithVector(text string, vec []float64) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
	return m
}

// WithError 设置错误
func (m *MockEmbedder) WithError(err error) *MockEmbedder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Queries 返回 EmbedQuery 收到的文本
func (m *MockEmbedder) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// Embed implements embedding.Provider.
func (m *MockEmbedder) Embed(ctx context.Context, req *embedding.EmbeddingRequest) (*embedding.EmbeddingResponse, error) {
	resp := &embedding.EmbeddingResponse{Provider: m.Name(), Model: "mock"}
	for i, text := range req.Input {
		vec, err := m.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		resp.Embeddings = append(resp.Embeddings, embedding.EmbeddingData{Index: i, Embedding: vec})
	}
	return resp, nil
}

// EmbedQuery implements embedding.Provider.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries = append(m.queries, query)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, fmt.Errorf("mock embed: %w", m.err)
	}
	if vec, ok := m.vectors[query]; ok {
		return vec, nil
	}
	return m.fallback, nil
}

// Name implements embedding.Provider.
func (m *MockEmbedder) Name() string { return "mock" }

// Dimensions implements embedding.Provider.
func (m *MockEmbedder) Dimensions() int { return m.dimensions }

var _ embedding.Provider = (*MockEmbedder)(nil)

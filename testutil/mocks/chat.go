// MockChatModel 是 llm.ChatModel 的测试模拟实现。
//
// 支持固定响应、按输入映射响应与错误注入场景。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/graphground/llm"
)

// MockChatModel 模拟 chat 模型
type MockChatModel struct {
	mu sync.Mutex

	response  string
	responses map[string]string // 最后一条用户消息 -> 响应
	err       error

	calls [][]llm.Message
}

// NewMockChatModel 创建新的 MockChatModel
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{
		response:  "Mock response",
		responses: make(map[string]string),
	}
}

// --- Builder 方法 ---

// WithResponse 设置默认响应
func (m *MockChatModel) WithResponse(response string) *MockChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithResponseFor 为指定的最后一条用户消息设置响应
func (m *MockChatModel) WithResponseFor(userContent, response string) *MockChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[userContent] = response
	return m
}

// WithError 设置错误
func (m *MockChatModel) WithError(err error) *MockChatModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// --- llm.ChatModel 实现 ---

// Complete implements llm.ChatModel.
func (m *MockChatModel) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]llm.Message(nil), messages...))

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		if resp, ok := m.responses[last.Content]; ok && last.Role == llm.RoleUser {
			return resp, nil
		}
	}
	return m.response, nil
}

// --- 调用记录 ---

// CallCount 返回调用次数
func (m *MockChatModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastMessages 返回最后一次调用的消息
func (m *MockChatModel) LastMessages() []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

var _ llm.ChatModel = (*MockChatModel)(nil)

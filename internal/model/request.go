package model

// Message 单条对话消息
// role 和 content 必须出现（可以为空字符串），Role 为 "user" 以外的任何值都视为 assistant
type Message struct {
	Role    *string `json:"role" binding:"required" example:"user"`
	Content *string `json:"content" binding:"required" example:"Hello"`
}

// NewMessage 创建消息
func NewMessage(role, content string) Message {
	return Message{Role: &role, Content: &content}
}

// GetRole 返回角色，缺失时为空字符串
func (m *Message) GetRole() string {
	if m.Role == nil {
		return ""
	}
	return *m.Role
}

// GetContent 返回内容，缺失时为空字符串
func (m *Message) GetContent() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// ChatRequest 对话请求
// messages 必须存在（可以为空数组），stream 缺省为 false
type ChatRequest struct {
	Messages []Message `json:"messages" binding:"required,dive"`
	Stream   bool      `json:"stream"`
}

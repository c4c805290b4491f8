package model

// DetailBackendUnavailable 后端不可达时返回给客户端的固定提示
const DetailBackendUnavailable = "Cannot connect to Ollama. Make sure Ollama is running"

// ChatResponse 非流式对话响应
type ChatResponse struct {
	Response string `json:"response" example:"Hello! How can I help you today?"`
	Model    string `json:"model" example:"llama3.2"`
}

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatusResponse 健康检查响应
type StatusResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

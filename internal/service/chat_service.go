package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"chatbot/internal/model"
	"chatbot/internal/pkg/ollama"
)

var (
	// ErrBackendUnavailable 无法连接到推理后端
	ErrBackendUnavailable = errors.New("ollama backend unavailable")
	// ErrMissingResponse 后端响应中缺少 response 字段
	ErrMissingResponse = errors.New(`ollama response is missing the "response" field`)
)

// Backend 推理后端
type Backend interface {
	Generate(ctx context.Context, req *ollama.GenerateRequest) (*ollama.GenerateResponse, error)
	GenerateStream(ctx context.Context, req *ollama.GenerateRequest) (*ollama.Stream, error)
}

// ChatService 对话中转服务
// 职责: 拼接 prompt -> 调用后端 -> 转换响应；不保存任何跨请求状态
type ChatService struct {
	backend Backend
	model   string
}

// NewChatService 创建对话服务
func NewChatService(backend Backend, modelName string) *ChatService {
	return &ChatService{
		backend: backend,
		model:   modelName,
	}
}

// Model 返回使用的模型名
func (s *ChatService) Model() string {
	return s.model
}

// Chat 非流式对话，每次调用只请求后端一次，不重试
func (s *ChatService) Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	result, err := s.backend.Generate(ctx, s.generateRequest(req, false))
	if err != nil {
		return nil, translateError(err)
	}
	if result.Response == nil {
		return nil, ErrMissingResponse
	}

	log.Ctx(ctx).Debug().
		Int("messages", len(req.Messages)).
		Int("response_len", len(*result.Response)).
		Msg("chat completed")

	return &model.ChatResponse{
		Response: *result.Response,
		Model:    s.model,
	}, nil
}

// ChatStream 流式对话
// 返回时后端已经接受请求，因此建连失败会在这里以 ErrBackendUnavailable 返回，
// 调用方可以在写出响应头之前决定状态码。
func (s *ChatService) ChatStream(ctx context.Context, req *model.ChatRequest) (EventStream, error) {
	stream, err := s.backend.GenerateStream(ctx, s.generateRequest(req, true))
	if err != nil {
		return nil, translateError(err)
	}

	return &chatStream{ctx: ctx, stream: stream}, nil
}

func (s *ChatService) generateRequest(req *model.ChatRequest, stream bool) *ollama.GenerateRequest {
	return &ollama.GenerateRequest{
		Model:  s.model,
		Prompt: BuildPrompt(req.Messages),
		Stream: stream,
	}
}

func translateError(err error) error {
	if ollama.IsUnreachable(err) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return err
}

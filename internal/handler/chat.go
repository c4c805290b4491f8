package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"chatbot/internal/model"
	"chatbot/internal/server/middleware"
	"chatbot/internal/service"
)

// ChatRelay 对话中转能力
type ChatRelay interface {
	Chat(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
	ChatStream(ctx context.Context, req *model.ChatRequest) (service.EventStream, error)
}

// ChatHandler 对话处理器
type ChatHandler struct {
	relay ChatRelay
}

// NewChatHandler 创建对话处理器
func NewChatHandler(relay ChatRelay) *ChatHandler {
	return &ChatHandler{relay: relay}
}

// Chat 对话接口
// @Summary      对话
// @Description  将对话拼接为 prompt 转发给 Ollama。stream=true 时以 text/event-stream 返回 data: {"text": ...} 事件，完成时发送 data: [DONE]
// @Tags         chat
// @Accept       json
// @Produce      json
// @Produce      text/event-stream
// @Param        request  body      model.ChatRequest  true  "对话内容"
// @Success      200      {object}  model.ChatResponse
// @Failure      422      {object}  model.ErrorResponse
// @Failure      500      {object}  model.ErrorResponse
// @Failure      503      {object}  model.ErrorResponse
// @Router       /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, model.ErrorResponse{Detail: err.Error()})
		return
	}

	if req.Stream {
		h.chatStream(c, &req)
		return
	}

	resp, err := h.relay.Chat(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// chatStream 流式对话 (SSE)
func (h *ChatHandler) chatStream(c *gin.Context, req *model.ChatRequest) {
	ctx := c.Request.Context()

	stream, err := h.relay.ChatStream(ctx, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer stream.Close()

	// 设置 SSE headers，此后无法再返回错误状态码
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sent := 0
	end := middleware.StreamEndClientGone
	defer func() {
		c.Set(middleware.StreamEventsKey, sent)
		c.Set(middleware.StreamEndKey, end)
	}()

	c.Stream(func(w io.Writer) bool {
		ev, err := stream.Next()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				end = middleware.StreamEndEOF
			case ctx.Err() != nil:
				end = middleware.StreamEndClientGone
			default:
				end = middleware.StreamEndBackendErr
				log.Ctx(ctx).Warn().Err(err).Int("events", sent).Msg("chat stream aborted")
			}
			return false
		}

		if ev.Done {
			end = middleware.StreamEndDone
			if err := writeDone(w); err != nil {
				end = middleware.StreamEndClientGone
				log.Ctx(ctx).Debug().Err(err).Msg("failed to write done event")
			}
			return false
		}

		if err := writeText(w, ev.Text); err != nil {
			log.Ctx(ctx).Debug().Err(err).Int("events", sent).Msg("client went away")
			return false
		}
		sent++
		return true
	})
}

func (h *ChatHandler) respondError(c *gin.Context, err error) {
	logger := log.Ctx(c.Request.Context())

	if errors.Is(err, service.ErrBackendUnavailable) {
		logger.Warn().Err(err).Msg("ollama unreachable")
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Detail: model.DetailBackendUnavailable})
		return
	}

	logger.Error().Err(err).Msg("chat failed")
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{Detail: err.Error()})
}

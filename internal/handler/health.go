package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatbot/internal/model"
)

const readyTimeout = 3 * time.Second

// Pinger 可探活的后端
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	backend Pinger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(backend Pinger) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Health 健康检查
// @Summary  存活检查
// @Tags     health
// @Produce  json
// @Success  200  {object}  model.StatusResponse
// @Router   /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, model.StatusResponse{Status: "ok"})
}

// Ready 就绪检查，探测 Ollama 是否可用
// @Summary  就绪检查
// @Tags     health
// @Produce  json
// @Success  200  {object}  model.StatusResponse
// @Failure  503  {object}  model.StatusResponse
// @Router   /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if err := h.backend.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, model.StatusResponse{
			Status: "unavailable",
			Detail: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.StatusResponse{Status: "ready"})
}

package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"chatbot/internal/model"
)

// HomeHandler 首页处理器
type HomeHandler struct {
	indexPath string
}

// NewHomeHandler 创建首页处理器
func NewHomeHandler(indexPath string) *HomeHandler {
	return &HomeHandler{indexPath: indexPath}
}

// Index 原样返回首页 HTML，每次请求都重新读取文件
func (h *HomeHandler) Index(c *gin.Context) {
	data, err := os.ReadFile(h.indexPath)
	if err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", h.indexPath).Msg("failed to read index page")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Detail: err.Error()})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "chatbot/docs"
	"chatbot/internal/config"
	"chatbot/internal/handler"
	"chatbot/internal/pkg/ollama"
	"chatbot/internal/server/middleware"
	"chatbot/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	ollama *ollama.Client
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	client, err := ollama.NewClient(&cfg.Ollama)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	log.Info().
		Str("base_url", client.BaseURL()).
		Str("model", cfg.Ollama.Model).
		Dur("timeout", cfg.Ollama.Timeout).
		Msg("ollama backend configured")

	srv := &Server{
		cfg:    cfg,
		engine: engine,
		ollama: client,
	}

	srv.setupRoutes()

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.ollama)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// 首页与静态资源
	homeHandler := handler.NewHomeHandler(s.cfg.Static.Index)
	s.engine.GET("/", homeHandler.Index)
	if s.cfg.Static.Dir != "" {
		s.engine.Static("/static", s.cfg.Static.Dir)
	}

	// Swagger 文档 (release 模式关闭)
	if s.cfg.Server.Mode != "release" {
		s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Chat 接口
	chatSvc := service.NewChatService(s.ollama, s.cfg.Ollama.Model)
	chatHandler := handler.NewChatHandler(chatSvc)
	s.engine.POST("/api/chat", chatHandler.Chat)
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

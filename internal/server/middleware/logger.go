package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SSE 响应由处理器写入的统计信息
const (
	// StreamEventsKey 已发送的文本事件数
	StreamEventsKey = "stream_events"
	// StreamEndKey 流结束原因，见 StreamEnd* 常量
	StreamEndKey = "stream_end"
)

// 流结束原因
const (
	StreamEndDone       = "done"
	StreamEndEOF        = "eof"
	StreamEndBackendErr = "backend_error"
	StreamEndClientGone = "client_gone"
)

// Logger 访问日志中间件
// 对 text/event-stream 响应额外记录事件数与结束原因
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()

		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Int("body_size", c.Writer.Size())

		if isEventStream(c) {
			withStreamStats(event, c)
		}

		event.Msg("HTTP request")
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
}

func withStreamStats(event *zerolog.Event, c *gin.Context) {
	event.Int("events", c.GetInt(StreamEventsKey))
	if reason := c.GetString(StreamEndKey); reason != "" {
		event.Str("stream_end", reason)
	}
}

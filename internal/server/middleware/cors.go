package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const allowMethods = "GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS"

// CORS 允许任意来源、方法和请求头，并允许携带凭证
// 带凭证时浏览器不接受 "*"，因此回显请求的 Origin
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")

		preflight := c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != ""
		if !preflight {
			c.Next()
			return
		}

		h.Set("Access-Control-Allow-Methods", allowMethods)
		if reqHeaders := c.GetHeader("Access-Control-Request-Headers"); strings.TrimSpace(reqHeaders) != "" {
			h.Set("Access-Control-Allow-Headers", reqHeaders)
		}
		h.Set("Access-Control-Max-Age", "600")
		c.AbortWithStatus(http.StatusNoContent)
	}
}

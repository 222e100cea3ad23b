package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger 每个请求一条日志, 5xx 记为 error, 4xx 记为 warn
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http_request",
			"method", c.Request.Method,
			"path", routePath(c),
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		)
	}
}

// crossOrigin 拒绝其它站点发起的表单提交 (依据 Sec-Fetch-Site / Origin)
// 动作会使用本机保存的 Twilio、SMTP、Telegram 凭据
func crossOrigin(logger *slog.Logger) gin.HandlerFunc {
	protection := http.NewCrossOriginProtection()
	return func(c *gin.Context) {
		if err := protection.Check(c.Request); err != nil {
			logger.Warn("cross-origin request rejected",
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"origin", c.GetHeader("Origin"),
				"sec_fetch_site", c.GetHeader("Sec-Fetch-Site"),
			)
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}

func requestMetrics(m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		m.recordHTTP(c.Request.Method, routePath(c), c.Writer.Status())
	}
}

// routePath 使用路由模板, 避免 /media/:id 产生大量标签
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}

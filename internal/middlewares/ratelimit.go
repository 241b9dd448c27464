package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chatapp/web-server/pkg/ratelimit"
)

// RateLimitMiddleware 全局限流中间件
// 按客户端 IP 限流，超限时返回 rate_limited 错误
func RateLimitMiddleware(limiter ratelimit.Limiter, qps, burst int) gin.HandlerFunc {
	limit := qps + burst
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP(), limit, time.Second)
		if err != nil || allowed {
			// 限流器自身出错时放行，可用性优先
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusOK, gin.H{
			"success": 0,
			"error": gin.H{
				"code":    "rate_limited",
				"message": "too many requests, please try again later",
			},
		})
	}
}

package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chatapp/web-server/internal/services"
)

// AuthMiddleware JWT 认证中间件
// 校验通过后把 user_id / device_id 存进 context 供后续处理器使用
func AuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		// 1. 尝试从请求头获取 token
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		// 2. 请求头没有时尝试 Query 参数（主要用于 WebSocket 握手）
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			abortUnauthorized(c, "missing access token")
			return
		}

		userID, deviceID, err := authService.Validate(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired access token")
			return
		}

		c.Set("user_id", userID)
		c.Set("device_id", deviceID)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": 0,
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/apperrors"
)

// 所有端点统一返回 {success, error, ...payload} 包裹
// 业务失败走 HTTP 200 + success:0，4xx/5xx 只留给未处理的情况（请求畸形、缺认证）

// respondOK 成功响应，payload 平铺进包裹
func respondOK(c *gin.Context, payload gin.H) {
	body := gin.H{
		"success": 1,
		"error":   nil,
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// respondError 业务失败响应
// internal 类错误的细节只记日志，不下发给客户端
func respondError(c *gin.Context, log *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal && log != nil {
		log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(http.StatusOK, envelope(kind.Code(), apperrors.MessageOf(err)))
}

// respondBadRequest 请求体畸形，属于传输层失败
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, envelope(apperrors.KindInvalidRequest.Code(), message))
}

func envelope(code, message string) gin.H {
	return gin.H{
		"success": 0,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

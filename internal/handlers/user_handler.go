package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/services"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService *services.UserService
	log         *zap.Logger
}

// NewUserHandler 创建用户处理器实例
func NewUserHandler(userService *services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// Upsert 按 device_id 注册或更新用户
// 空 device_id 表示首次注册，响应里带服务端生成的新 device_id
func (h *UserHandler) Upsert(c *gin.Context) {
	var req services.UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	user, err := h.userService.UpsertByDeviceID(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{
		"user": gin.H{
			"user_image_url": user.ImageURL,
			"device_id":      user.DeviceID,
		},
	})
}

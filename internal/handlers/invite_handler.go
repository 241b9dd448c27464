package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/services"
)

// InviteHandler 邀请处理器
type InviteHandler struct {
	inviteService *services.InviteService
	log           *zap.Logger
}

// NewInviteHandler 创建邀请处理器实例
func NewInviteHandler(inviteService *services.InviteService, log *zap.Logger) *InviteHandler {
	return &InviteHandler{inviteService: inviteService, log: log}
}

// Create 向指定用户发出房间邀请
func (h *InviteHandler) Create(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	var req services.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	inviteID, err := h.inviteService.Create(c.Request.Context(), actorID(c), roomID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"invite_id": inviteID})
}

// List 当前用户收到的未决邀请
func (h *InviteHandler) List(c *gin.Context) {
	invites, err := h.inviteService.ListPendingForUser(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"invites": invites})
}

// Accept 接受邀请
func (h *InviteHandler) Accept(c *gin.Context) {
	inviteID, ok := pathID(c, "invite_id")
	if !ok {
		return
	}

	roomUserID, err := h.inviteService.Accept(c.Request.Context(), actorID(c), inviteID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"room_user_id": roomUserID})
}

// Reject 拒绝邀请
func (h *InviteHandler) Reject(c *gin.Context) {
	inviteID, ok := pathID(c, "invite_id")
	if !ok {
		return
	}

	if err := h.inviteService.Reject(c.Request.Context(), actorID(c), inviteID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

// Revoke 撤回邀请
func (h *InviteHandler) Revoke(c *gin.Context) {
	inviteID, ok := pathID(c, "invite_id")
	if !ok {
		return
	}

	if err := h.inviteService.Revoke(c.Request.Context(), actorID(c), inviteID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

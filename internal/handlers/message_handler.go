package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/services"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	messageService *services.MessageService
	log            *zap.Logger
}

// NewMessageHandler 创建消息处理器实例
func NewMessageHandler(messageService *services.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, log: log}
}

// Send 向房间发消息
func (h *MessageHandler) Send(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	view, err := h.messageService.Send(c.Request.Context(), actorID(c), roomID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"message": view})
}

// List 房间历史消息，按序列号倒序分页
func (h *MessageHandler) List(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, err := h.messageService.ListByRoom(c.Request.Context(), actorID(c), roomID, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"messages": views})
}

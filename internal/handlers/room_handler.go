package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/services"
)

// RoomHandler 房间处理器
type RoomHandler struct {
	roomService   *services.RoomService
	memberService *services.MemberService
	log           *zap.Logger
}

// NewRoomHandler 创建房间处理器实例
func NewRoomHandler(roomService *services.RoomService, memberService *services.MemberService, log *zap.Logger) *RoomHandler {
	return &RoomHandler{
		roomService:   roomService,
		memberService: memberService,
		log:           log,
	}
}

// Create 创建房间
func (h *RoomHandler) Create(c *gin.Context) {
	var req services.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	roomID, err := h.roomService.Create(c.Request.Context(), actorID(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"room_id": roomID})
}

// List 房间列表，含成员明细与最新消息预览
func (h *RoomHandler) List(c *gin.Context) {
	views, err := h.roomService.ListChatRooms(c.Request.Context(), actorID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"chat_rooms": views})
}

// UpdateName 房间改名
func (h *RoomHandler) UpdateName(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	var req services.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "malformed request body")
		return
	}

	if err := h.roomService.UpdateName(c.Request.Context(), actorID(c), roomID, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

// Delete 软删除房间
func (h *RoomHandler) Delete(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	if err := h.roomService.SoftDelete(c.Request.Context(), actorID(c), roomID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

// Join 加入房间
func (h *RoomHandler) Join(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	// 没有密码的房间允许空请求体
	var req services.JoinRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "malformed request body")
			return
		}
	}

	roomUserID, err := h.memberService.Join(c.Request.Context(), actorID(c), roomID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"room_user_id": roomUserID})
}

// Leave 退出房间
// room_user_id 缺省时退出自己的成员关系
func (h *RoomHandler) Leave(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}

	member, err := h.memberService.SelfMembership(c.Request.Context(), actorID(c), roomID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.memberService.Leave(c.Request.Context(), actorID(c), member.RoomUserID); err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

// Promote 提升成员为管理员
func (h *RoomHandler) Promote(c *gin.Context) {
	h.setAdmin(c, true)
}

// Demote 撤销成员的管理员角色
func (h *RoomHandler) Demote(c *gin.Context) {
	h.setAdmin(c, false)
}

func (h *RoomHandler) setAdmin(c *gin.Context, isAdmin bool) {
	if _, ok := pathID(c, "room_id"); !ok {
		return
	}
	roomUserID, ok := pathID(c, "room_user_id")
	if !ok {
		return
	}

	var err error
	if isAdmin {
		err = h.memberService.Promote(c.Request.Context(), actorID(c), roomUserID)
	} else {
		err = h.memberService.Demote(c.Request.Context(), actorID(c), roomUserID)
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, nil)
}

// actorID 认证中间件塞进 context 的当前用户 ID
func actorID(c *gin.Context) uint {
	id, _ := c.Get("user_id")
	userID, _ := id.(uint)
	return userID
}

// pathID 解析 URL 路径里的数字 ID，非法时直接响应 400
func pathID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

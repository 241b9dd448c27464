package services

import (
	"context"
	"strconv"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
	"github.com/chatapp/web-server/internal/repositories"
	"github.com/chatapp/web-server/internal/utils"
)

// RoomService 房间服务
type RoomService struct {
	RoomRepo    *repositories.RoomRepository
	MemberRepo  *repositories.MemberRepository
	MessageRepo *repositories.MessageRepository
	UserRepo    *repositories.UserRepository
}

func NewRoomService(
	roomRepo *repositories.RoomRepository,
	memberRepo *repositories.MemberRepository,
	messageRepo *repositories.MessageRepository,
	userRepo *repositories.UserRepository,
) *RoomService {
	return &RoomService{
		RoomRepo:    roomRepo,
		MemberRepo:  memberRepo,
		MessageRepo: messageRepo,
		UserRepo:    userRepo,
	}
}

// CreateRoomRequest 创建房间请求
type CreateRoomRequest struct {
	RoomName string `json:"room_name" binding:"required"`
	Password string `json:"password"`
}

// UpdateRoomRequest 改名请求
type UpdateRoomRequest struct {
	RoomName string `json:"room_name" binding:"required"`
}

// MemberDetail 房间成员在列表视图里的形态，字段与移动端约定一致
type MemberDetail struct {
	Name         string `json:"name"`
	IsAdmin      bool   `json:"is_admin"`
	UserImageURL string `json:"user_image_url"`
	RoomUserID   uint   `json:"room_user_id"`
}

// ChatRoomView 房间列表条目
// author_id 在线上是字符串，移动端按字符串解码
type ChatRoomView struct {
	RoomID            uint           `json:"room_id"`
	AuthorID          string         `json:"author_id"`
	AuthorName        string         `json:"author_name"`
	Preview           string         `json:"preview"`
	IsJoined          bool           `json:"is_joined"`
	CurrentRoomUserID *uint          `json:"current_room_user_id,omitempty"`
	HasPassword       bool           `json:"has_password"`
	ChatName          string         `json:"chat_name"`
	ChatImageURL      string         `json:"chat_image_url"`
	MemberDetails     []MemberDetail `json:"member_details"`
}

// Create 创建房间，创建者自动成为首个管理员成员
func (s *RoomService) Create(ctx context.Context, actorID uint, req *CreateRoomRequest) (uint, error) {
	if !utils.ValidateRoomName(req.RoomName) {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "invalid room name")
	}
	// 创建者必须是未删除用户
	if _, err := s.UserRepo.GetByID(ctx, actorID); err != nil {
		return 0, err
	}

	room := &models.Room{
		RoomName:  req.RoomName,
		CreatorID: actorID,
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return 0, apperrors.Wrap(apperrors.KindInternal, "failed to hash room password", err)
		}
		room.PasswordHash = hash
	}

	if err := s.RoomRepo.Create(ctx, room); err != nil {
		return 0, err
	}
	return room.RoomID, nil
}

// ListChatRooms 组装房间列表视图
// 成员与消息预览各用一次批量查询，避免逐房间往返
func (s *RoomService) ListChatRooms(ctx context.Context, actorID uint) ([]ChatRoomView, error) {
	rooms, err := s.RoomRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	roomIDs := make([]uint, 0, len(rooms))
	for _, room := range rooms {
		roomIDs = append(roomIDs, room.RoomID)
	}

	members, err := s.MemberRepo.ListByRooms(ctx, roomIDs)
	if err != nil {
		return nil, err
	}
	previews, err := s.MessageRepo.LatestByRooms(ctx, roomIDs)
	if err != nil {
		return nil, err
	}

	membersByRoom := make(map[uint][]repositories.MemberView, len(rooms))
	for _, m := range members {
		membersByRoom[m.RoomID] = append(membersByRoom[m.RoomID], m)
	}

	views := make([]ChatRoomView, 0, len(rooms))
	for _, room := range rooms {
		view := ChatRoomView{
			RoomID:        room.RoomID,
			AuthorID:      strconv.FormatUint(uint64(room.CreatorID), 10),
			AuthorName:    room.CreatorName,
			Preview:       previews[room.RoomID],
			HasPassword:   room.HasPassword,
			ChatName:      room.RoomName,
			ChatImageURL:  room.ImageURL,
			MemberDetails: []MemberDetail{},
		}
		for _, m := range membersByRoom[room.RoomID] {
			view.MemberDetails = append(view.MemberDetails, MemberDetail{
				Name:         m.DisplayName,
				IsAdmin:      m.IsAdmin,
				UserImageURL: m.ImageURL,
				RoomUserID:   m.RoomUserID,
			})
			if m.UserID == actorID {
				view.IsJoined = true
				roomUserID := m.RoomUserID
				view.CurrentRoomUserID = &roomUserID
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// UpdateName 房间改名，只有管理员可以操作
func (s *RoomService) UpdateName(ctx context.Context, actorID, roomID uint, req *UpdateRoomRequest) error {
	if !utils.ValidateRoomName(req.RoomName) {
		return apperrors.New(apperrors.KindInvalidRequest, "invalid room name")
	}
	if err := s.requireAdmin(ctx, actorID, roomID); err != nil {
		return err
	}
	return s.RoomRepo.UpdateName(ctx, roomID, req.RoomName, actorID)
}

// UpdateCreator 变更房间创建者
// 只有当前创建者可以发起，新创建者必须已是未删除的管理员成员
func (s *RoomService) UpdateCreator(ctx context.Context, actorID, roomID, newCreatorID uint) error {
	room, err := s.RoomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room.CreatorID != actorID {
		return apperrors.New(apperrors.KindForbidden, "only the room creator can transfer ownership")
	}
	isAdmin, err := s.MemberRepo.IsAdmin(ctx, roomID, newCreatorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperrors.New(apperrors.KindInvalidRequest, "new creator must be an admin member of the room")
	}
	return s.RoomRepo.UpdateCreator(ctx, roomID, newCreatorID, actorID)
}

// SoftDelete 管理员软删除房间，级联删除成员、未决邀请和消息
// 对已删除的房间重复调用不报错
func (s *RoomService) SoftDelete(ctx context.Context, actorID, roomID uint) error {
	if _, err := s.RoomRepo.GetByID(ctx, roomID); err != nil {
		if repositories.IsNotFound(err) {
			// 已删除（或从未存在），幂等返回
			return nil
		}
		return err
	}
	if err := s.requireAdmin(ctx, actorID, roomID); err != nil {
		return err
	}
	return s.RoomRepo.SoftDelete(ctx, roomID, actorID)
}

func (s *RoomService) requireAdmin(ctx context.Context, actorID, roomID uint) error {
	isAdmin, err := s.MemberRepo.IsAdmin(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperrors.New(apperrors.KindForbidden, "admin role required")
	}
	return nil
}

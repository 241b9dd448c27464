package services

import (
	"context"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
	"github.com/chatapp/web-server/internal/repositories"
	"github.com/chatapp/web-server/internal/utils"
)

// MemberService 房间成员服务
type MemberService struct {
	RoomRepo   *repositories.RoomRepository
	MemberRepo *repositories.MemberRepository
}

func NewMemberService(roomRepo *repositories.RoomRepository, memberRepo *repositories.MemberRepository) *MemberService {
	return &MemberService{RoomRepo: roomRepo, MemberRepo: memberRepo}
}

// JoinRoomRequest 加入房间请求
type JoinRoomRequest struct {
	Password string `json:"password"`
}

// Join 加入房间
// 有密码的房间要求密码匹配，比较是常数时间的；不匹配不会创建任何成员关系
func (s *MemberService) Join(ctx context.Context, actorID, roomID uint, req *JoinRoomRequest) (uint, error) {
	room, err := s.RoomRepo.GetByID(ctx, roomID)
	if err != nil {
		return 0, err
	}

	if room.HasPassword() {
		if !utils.CheckPassword(room.PasswordHash, req.Password) {
			return 0, apperrors.New(apperrors.KindUnauthorized, "wrong room password")
		}
	}

	member, err := s.MemberRepo.Join(ctx, roomID, actorID, false)
	if err != nil {
		return 0, err
	}
	return member.RoomUserID, nil
}

// Leave 退出房间
// 成员可以自己退出，管理员可以移除他人
func (s *MemberService) Leave(ctx context.Context, actorID, roomUserID uint) error {
	member, err := s.MemberRepo.GetByID(ctx, roomUserID)
	if err != nil {
		return err
	}
	if member.UserID != actorID {
		if err := s.requireAdmin(ctx, actorID, member.RoomID); err != nil {
			return err
		}
	}
	return s.MemberRepo.Leave(ctx, roomUserID, actorID)
}

// SelfMembership 当前用户在指定房间的成员关系
func (s *MemberService) SelfMembership(ctx context.Context, actorID, roomID uint) (*models.RoomUser, error) {
	return s.MemberRepo.GetByRoomAndUser(ctx, roomID, actorID)
}

// Promote 提升成员为管理员，只有管理员可以操作
func (s *MemberService) Promote(ctx context.Context, actorID, roomUserID uint) error {
	return s.setAdmin(ctx, actorID, roomUserID, true)
}

// Demote 撤销成员的管理员角色，只有管理员可以操作
// 撤销最后一名管理员会触发创建者改选
func (s *MemberService) Demote(ctx context.Context, actorID, roomUserID uint) error {
	return s.setAdmin(ctx, actorID, roomUserID, false)
}

func (s *MemberService) setAdmin(ctx context.Context, actorID, roomUserID uint, isAdmin bool) error {
	member, err := s.MemberRepo.GetByID(ctx, roomUserID)
	if err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, actorID, member.RoomID); err != nil {
		return err
	}
	return s.MemberRepo.SetAdmin(ctx, roomUserID, isAdmin, actorID)
}

// ListByRoom 获取房间成员列表
func (s *MemberService) ListByRoom(ctx context.Context, roomID uint) ([]repositories.MemberView, error) {
	return s.MemberRepo.ListByRoom(ctx, roomID)
}

// RoomIDsFor 用户加入的全部房间 ID，供实时连接订阅用
func (s *MemberService) RoomIDsFor(ctx context.Context, userID uint) ([]uint, error) {
	return s.MemberRepo.RoomIDsForUser(ctx, userID)
}

func (s *MemberService) requireAdmin(ctx context.Context, actorID, roomID uint) error {
	isAdmin, err := s.MemberRepo.IsAdmin(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return apperrors.New(apperrors.KindForbidden, "admin role required")
	}
	return nil
}

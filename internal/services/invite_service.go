package services

import (
	"context"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
	"github.com/chatapp/web-server/internal/repositories"
)

// InviteService 邀请服务
type InviteService struct {
	InviteRepo *repositories.InviteRepository
	MemberRepo *repositories.MemberRepository
	RoomRepo   *repositories.RoomRepository
	UserRepo   *repositories.UserRepository
}

func NewInviteService(
	inviteRepo *repositories.InviteRepository,
	memberRepo *repositories.MemberRepository,
	roomRepo *repositories.RoomRepository,
	userRepo *repositories.UserRepository,
) *InviteService {
	return &InviteService{
		InviteRepo: inviteRepo,
		MemberRepo: memberRepo,
		RoomRepo:   roomRepo,
		UserRepo:   userRepo,
	}
}

// CreateInviteRequest 创建邀请请求，受邀人用 device_id 定位
type CreateInviteRequest struct {
	InviteeDeviceID string `json:"invitee_device_id" binding:"required"`
}

// Create 房间成员邀请其他用户
func (s *InviteService) Create(ctx context.Context, actorID, roomID uint, req *CreateInviteRequest) (uint, error) {
	if _, err := s.RoomRepo.GetByID(ctx, roomID); err != nil {
		return 0, err
	}
	// 只有成员可以发出邀请
	if _, err := s.MemberRepo.GetByRoomAndUser(ctx, roomID, actorID); err != nil {
		if repositories.IsNotFound(err) {
			return 0, apperrors.New(apperrors.KindForbidden, "only members can invite")
		}
		return 0, err
	}

	invitee, err := s.UserRepo.GetByDeviceID(ctx, req.InviteeDeviceID)
	if err != nil {
		return 0, err
	}
	if invitee.UserID == actorID {
		return 0, apperrors.New(apperrors.KindInvalidRequest, "cannot invite yourself")
	}
	if _, err := s.MemberRepo.GetByRoomAndUser(ctx, roomID, invitee.UserID); err == nil {
		return 0, apperrors.New(apperrors.KindConflict, "user is already a member")
	} else if !repositories.IsNotFound(err) {
		return 0, err
	}

	invite := &models.Invite{
		RoomID:        roomID,
		InviterUserID: actorID,
		InviteeUserID: invitee.UserID,
	}
	if err := s.InviteRepo.Create(ctx, invite); err != nil {
		return 0, err
	}
	return invite.InviteID, nil
}

// ListPendingForUser 用户收到的全部未决邀请
func (s *InviteService) ListPendingForUser(ctx context.Context, userID uint) ([]repositories.InviteView, error) {
	return s.InviteRepo.ListPendingForUser(ctx, userID)
}

// Accept 受邀人接受邀请，成员关系与状态迁移在同一事务内落库
func (s *InviteService) Accept(ctx context.Context, actorID, inviteID uint) (uint, error) {
	invite, err := s.InviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return 0, err
	}
	if invite.InviteeUserID != actorID {
		return 0, apperrors.New(apperrors.KindForbidden, "invite is addressed to another user")
	}
	member, err := s.InviteRepo.Accept(ctx, inviteID, actorID)
	if err != nil {
		return 0, err
	}
	return member.RoomUserID, nil
}

// Reject 受邀人拒绝邀请
func (s *InviteService) Reject(ctx context.Context, actorID, inviteID uint) error {
	invite, err := s.InviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.InviteeUserID != actorID {
		return apperrors.New(apperrors.KindForbidden, "invite is addressed to another user")
	}
	return s.InviteRepo.Transition(ctx, inviteID, models.InviteStateRejected, actorID)
}

// Revoke 撤回邀请，发出人或房间管理员可以操作
func (s *InviteService) Revoke(ctx context.Context, actorID, inviteID uint) error {
	invite, err := s.InviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		return err
	}
	if invite.InviterUserID != actorID {
		isAdmin, err := s.MemberRepo.IsAdmin(ctx, invite.RoomID, actorID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return apperrors.New(apperrors.KindForbidden, "only the inviter or a room admin can revoke")
		}
	}
	return s.InviteRepo.Transition(ctx, inviteID, models.InviteStateRevoked, actorID)
}

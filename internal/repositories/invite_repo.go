package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
)

// InviteView 邀请及房间/邀请人信息的连接结果
type InviteView struct {
	InviteID    uint      `json:"invite_id"`
	RoomID      uint      `json:"room_id"`
	RoomName    string    `json:"room_name"`
	InviterName string    `json:"inviter_name"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
}

// InviteRepository 邀请仓储
type InviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository 创建邀请仓储实例
func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create 创建邀请
// 同一 (room_id, invitee) 已有未决邀请时返回 conflict
func (r *InviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Invite{}).
			Where("room_id = ? AND invitee_user_id = ? AND state = ? AND is_deleted = ?",
				invite.RoomID, invite.InviteeUserID, models.InviteStatePending, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.New(apperrors.KindConflict, "a pending invite already exists for this user")
		}
		invite.State = models.InviteStatePending
		invite.UpdatedBy = invite.InviterUserID
		return tx.Create(invite).Error
	})
	return translateError(err, "room not found")
}

// GetByID 根据 ID 获取未删除的邀请
func (r *InviteRepository) GetByID(ctx context.Context, inviteID uint) (*models.Invite, error) {
	var invite models.Invite
	err := r.db.WithContext(ctx).Scopes(notDeleted).First(&invite, "invite_id = ?", inviteID).Error
	if err != nil {
		return nil, translateError(err, "invite not found")
	}
	return &invite, nil
}

// ListPendingForUser 获取用户收到的全部未决邀请
func (r *InviteRepository) ListPendingForUser(ctx context.Context, userID uint) ([]InviteView, error) {
	var views []InviteView
	err := r.db.WithContext(ctx).Model(&models.Invite{}).
		Select(`"Invite".invite_id, "Invite".room_id, "Invite".state, "Invite".created_at,`+
			` "Room".room_name, "User".display_name AS inviter_name`).
		Joins(`JOIN "Room" ON "Invite".room_id = "Room".room_id AND "Room".is_deleted = FALSE`).
		Joins(`JOIN "User" ON "Invite".inviter_user_id = "User".user_id`).
		Where(`"Invite".invitee_user_id = ? AND "Invite".state = ? AND "Invite".is_deleted = ?`,
			userID, models.InviteStatePending, false).
		Order(`"Invite".invite_id ASC`).
		Scan(&views).Error
	if err != nil {
		return nil, translateError(err, "invite not found")
	}
	return views, nil
}

// Accept 接受邀请并在同一事务内创建成员关系
func (r *InviteRepository) Accept(ctx context.Context, inviteID, actorID uint) (*models.RoomUser, error) {
	var member *models.RoomUser
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		invite, err := r.transitionTx(tx, inviteID, models.InviteStateAccepted, actorID)
		if err != nil {
			return err
		}
		member = &models.RoomUser{
			RoomID:    invite.RoomID,
			UserID:    invite.InviteeUserID,
			JoinedAt:  time.Now(),
			UpdatedBy: actorID,
		}
		// 邀请接受前目标用户可能已经自行加入
		var count int64
		if err := tx.Model(&models.RoomUser{}).
			Where("room_id = ? AND user_id = ? AND is_deleted = ?", invite.RoomID, invite.InviteeUserID, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.New(apperrors.KindConflict, "already a member of this room")
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, translateError(err, "invite not found")
	}
	return member, nil
}

// Transition 执行 reject / revoke 等终态迁移
func (r *InviteRepository) Transition(ctx context.Context, inviteID uint, to string, actorID uint) error {
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		_, err := r.transitionTx(tx, inviteID, to, actorID)
		return err
	})
	return translateError(err, "invite not found")
}

// transitionTx 状态机迁移，非法迁移在仓储边界拒绝
func (r *InviteRepository) transitionTx(tx *gorm.DB, inviteID uint, to string, actorID uint) (*models.Invite, error) {
	var invite models.Invite
	if err := tx.Scopes(notDeleted).First(&invite, "invite_id = ?", inviteID).Error; err != nil {
		return nil, err
	}
	if !models.ValidInviteTransition(invite.State, to) {
		return nil, apperrors.New(apperrors.KindConflict, "invite is no longer pending")
	}
	if err := tx.Model(&models.Invite{}).
		Where("invite_id = ?", inviteID).
		Updates(map[string]any{
			"state":      to,
			"updated_by": actorID,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return nil, err
	}
	invite.State = to
	return &invite, nil
}

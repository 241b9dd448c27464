package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
)

// MemberView 成员及用户信息的连接结果
type MemberView struct {
	RoomUserID  uint   `json:"room_user_id"`
	RoomID      uint   `json:"room_id"`
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url"`
	IsAdmin     bool   `json:"is_admin"`
}

// MemberRepository 房间成员仓储
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建成员仓储实例
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Join 加入房间，重复加入返回 conflict
func (r *MemberRepository) Join(ctx context.Context, roomID, userID uint, isAdmin bool) (*models.RoomUser, error) {
	member := &models.RoomUser{
		RoomID:    roomID,
		UserID:    userID,
		IsAdmin:   isAdmin,
		JoinedAt:  time.Now(),
		UpdatedBy: userID,
	}
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RoomUser{}).
			Where("room_id = ? AND user_id = ? AND is_deleted = ?", roomID, userID, false).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.New(apperrors.KindConflict, "already a member of this room")
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, translateError(err, "room not found")
	}
	return member, nil
}

// GetByID 根据 room_user_id 获取未删除的成员关系
func (r *MemberRepository) GetByID(ctx context.Context, roomUserID uint) (*models.RoomUser, error) {
	var member models.RoomUser
	err := r.db.WithContext(ctx).Scopes(notDeleted).First(&member, "room_user_id = ?", roomUserID).Error
	if err != nil {
		return nil, translateError(err, "membership not found")
	}
	return &member, nil
}

// GetByRoomAndUser 获取用户在房间内的未删除成员关系
func (r *MemberRepository) GetByRoomAndUser(ctx context.Context, roomID, userID uint) (*models.RoomUser, error) {
	var member models.RoomUser
	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error
	if err != nil {
		return nil, translateError(err, "membership not found")
	}
	return &member, nil
}

// IsAdmin 用户是否为房间的未删除管理员成员
func (r *MemberRepository) IsAdmin(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.RoomUser{}).
		Where("room_id = ? AND user_id = ? AND is_admin = ? AND is_deleted = ?", roomID, userID, true, false).
		Count(&count).Error
	if err != nil {
		return false, translateError(err, "membership not found")
	}
	return count > 0, nil
}

// ListByRoom 获取房间的未删除成员，连接用户展示名和头像
func (r *MemberRepository) ListByRoom(ctx context.Context, roomID uint) ([]MemberView, error) {
	return r.listByRooms(ctx, []uint{roomID})
}

// ListByRooms 批量获取多个房间的成员，用于房间列表视图，避免逐房间查询
func (r *MemberRepository) ListByRooms(ctx context.Context, roomIDs []uint) ([]MemberView, error) {
	return r.listByRooms(ctx, roomIDs)
}

func (r *MemberRepository) listByRooms(ctx context.Context, roomIDs []uint) ([]MemberView, error) {
	if len(roomIDs) == 0 {
		return nil, nil
	}
	var views []MemberView
	err := r.db.WithContext(ctx).Model(&models.RoomUser{}).
		Select(`"RoomUser".room_user_id, "RoomUser".room_id, "RoomUser".user_id, "RoomUser".is_admin,`+
			` "User".display_name, "User".image_url`).
		Joins(`JOIN "User" ON "RoomUser".user_id = "User".user_id`).
		Where(`"RoomUser".room_id IN ? AND "RoomUser".is_deleted = ?`, roomIDs, false).
		Order(`"RoomUser".room_user_id ASC`).
		Scan(&views).Error
	if err != nil {
		return nil, translateError(err, "room not found")
	}
	return views, nil
}

// RoomIDsForUser 获取用户加入的所有房间 ID
func (r *MemberRepository) RoomIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var roomIDs []uint
	err := r.db.WithContext(ctx).Model(&models.RoomUser{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Pluck("room_id", &roomIDs).Error
	if err != nil {
		return nil, translateError(err, "membership not found")
	}
	return roomIDs, nil
}

// Leave 成员退出房间
// 若退出后房间没有管理员，提升最早加入的剩余成员并改选创建者；
// 若没有剩余成员，则软删除整个房间
func (r *MemberRepository) Leave(ctx context.Context, roomUserID, actorID uint) error {
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		member, err := lockMember(tx, roomUserID)
		if err != nil {
			return err
		}
		if err := markMemberDeleted(tx, member.RoomUserID, actorID); err != nil {
			return err
		}
		return reelectIfNeeded(tx, member.RoomID, actorID)
	})
	return translateError(err, "membership not found")
}

// SetAdmin 提升或降级成员，降级触发与 Leave 相同的改选逻辑
func (r *MemberRepository) SetAdmin(ctx context.Context, roomUserID uint, isAdmin bool, actorID uint) error {
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		member, err := lockMember(tx, roomUserID)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.RoomUser{}).
			Where("room_user_id = ?", roomUserID).
			Updates(map[string]any{
				"is_admin":   isAdmin,
				"updated_by": actorID,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}
		if !isAdmin {
			return reelectIfNeeded(tx, member.RoomID, actorID)
		}
		return nil
	})
	return translateError(err, "membership not found")
}

func lockMember(tx *gorm.DB, roomUserID uint) (*models.RoomUser, error) {
	var member models.RoomUser
	err := tx.Scopes(notDeleted).First(&member, "room_user_id = ?", roomUserID).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func markMemberDeleted(tx *gorm.DB, roomUserID, actorID uint) error {
	return tx.Model(&models.RoomUser{}).
		Where("room_user_id = ?", roomUserID).
		Updates(map[string]any{
			"is_deleted": true,
			"updated_by": actorID,
			"updated_at": time.Now(),
		}).Error
}

// reelectIfNeeded 创建者改选
// 不变式：有成员的房间至少有一个管理员
func reelectIfNeeded(tx *gorm.DB, roomID, actorID uint) error {
	var adminCount int64
	if err := tx.Model(&models.RoomUser{}).
		Where("room_id = ? AND is_admin = ? AND is_deleted = ?", roomID, true, false).
		Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount > 0 {
		return nil
	}

	// 最长资历者优先：最早加入，其次 room_user_id 最小
	var successor models.RoomUser
	err := tx.Scopes(notDeleted).
		Where("room_id = ?", roomID).
		Order("joined_at ASC, room_user_id ASC").
		First(&successor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 没有剩余成员，房间随之删除
		return softDeleteRoomTx(tx, roomID, actorID)
	}
	if err != nil {
		return err
	}

	if err := tx.Model(&models.RoomUser{}).
		Where("room_user_id = ?", successor.RoomUserID).
		Updates(map[string]any{
			"is_admin":   true,
			"updated_by": actorID,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return err
	}

	var room models.Room
	if err := tx.Scopes(notDeleted).First(&room, "room_id = ?", roomID).Error; err != nil {
		return err
	}
	if room.CreatorID == successor.UserID {
		return nil
	}
	return tx.Model(&models.Room{}).
		Where("room_id = ?", roomID).
		Updates(map[string]any{
			"creator_id": successor.UserID,
			"updated_by": actorID,
			"updated_at": time.Now(),
		}).Error
}

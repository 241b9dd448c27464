package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/models"
)

// RoomView 房间及创建者展示名的连接结果
type RoomView struct {
	RoomID      uint   `json:"room_id"`
	RoomName    string `json:"room_name"`
	CreatorID   uint   `json:"creator_id"`
	CreatorName string `json:"creator_name"`
	ImageURL    string `json:"image_url"`
	HasPassword bool   `json:"has_password"`
}

// RoomRepository 房间仓储
type RoomRepository struct {
	db *gorm.DB
}

// NewRoomRepository 创建房间仓储实例
func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Create 创建房间并把创建者写入为首个管理员成员，单事务完成
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		room.UpdatedBy = room.CreatorID
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		member := models.RoomUser{
			RoomID:    room.RoomID,
			UserID:    room.CreatorID,
			IsAdmin:   true,
			JoinedAt:  time.Now(),
			UpdatedBy: room.CreatorID,
		}
		return tx.Create(&member).Error
	})
	return translateError(err, "room not found")
}

// List 获取所有未删除的房间，连接创建者展示名，按 room_id 升序
func (r *RoomRepository) List(ctx context.Context) ([]RoomView, error) {
	var views []RoomView
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Select(`"Room".room_id, "Room".room_name, "Room".creator_id, "Room".image_url,`+
			` "Room".password_hash <> '' AS has_password, "User".display_name AS creator_name`).
		Joins(`JOIN "User" ON "Room".creator_id = "User".user_id`).
		Where(`"Room".is_deleted = ?`, false).
		Order(`"Room".room_id ASC`).
		Scan(&views).Error
	if err != nil {
		return nil, translateError(err, "room not found")
	}
	return views, nil
}

// GetByID 根据 ID 获取未删除的房间
func (r *RoomRepository) GetByID(ctx context.Context, roomID uint) (*models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Scopes(notDeleted).First(&room, "room_id = ?", roomID).Error
	if err != nil {
		return nil, translateError(err, "room not found")
	}
	return &room, nil
}

// UpdateName 修改房间名，写审计字段
func (r *RoomRepository) UpdateName(ctx context.Context, roomID uint, name string, actorID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Room{}).
		Scopes(notDeleted).
		Where("room_id = ?", roomID).
		Updates(map[string]any{
			"room_name":  name,
			"updated_by": actorID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translateError(res.Error, "room not found")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "room not found")
	}
	return nil
}

// UpdateCreator 变更房间创建者
// updated_by 写的是发起操作的 actor，而不是新创建者
func (r *RoomRepository) UpdateCreator(ctx context.Context, roomID, newCreatorID, actorID uint) error {
	return r.updateCreatorTx(r.db.WithContext(ctx), roomID, newCreatorID, actorID)
}

func (r *RoomRepository) updateCreatorTx(tx *gorm.DB, roomID, newCreatorID, actorID uint) error {
	res := tx.Model(&models.Room{}).
		Scopes(notDeleted).
		Where("room_id = ?", roomID).
		Updates(map[string]any{
			"creator_id": newCreatorID,
			"updated_by": actorID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translateError(res.Error, "room not found")
	}
	if res.RowsAffected == 0 {
		return translateError(gorm.ErrRecordNotFound, "room not found")
	}
	return nil
}

// SoftDelete 软删除房间，并在同一事务内级联软删除成员、未决邀请和消息
// 对已删除的房间重复调用是幂等的
func (r *RoomRepository) SoftDelete(ctx context.Context, roomID, actorID uint) error {
	err := runInTx(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		return softDeleteRoomTx(tx, roomID, actorID)
	})
	return translateError(err, "room not found")
}

// softDeleteRoomTx 级联软删除的事务体，也被成员离开后的自动清理复用
func softDeleteRoomTx(tx *gorm.DB, roomID, actorID uint) error {
	now := time.Now()
	deleted := map[string]any{
		"is_deleted": true,
		"updated_by": actorID,
		"updated_at": now,
	}

	if err := tx.Model(&models.Room{}).
		Where("room_id = ? AND is_deleted = ?", roomID, false).
		Updates(deleted).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.RoomUser{}).
		Where("room_id = ? AND is_deleted = ?", roomID, false).
		Updates(deleted).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Invite{}).
		Where("room_id = ? AND state = ? AND is_deleted = ?", roomID, models.InviteStatePending, false).
		Updates(deleted).Error; err != nil {
		return err
	}
	return tx.Model(&models.Message{}).
		Where("room_id = ? AND is_deleted = ?", roomID, false).
		Updates(deleted).Error
}

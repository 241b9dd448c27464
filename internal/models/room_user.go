package models

import "time"

// RoomUser 房间成员关系，携带成员在房间内的角色
// (room_id, user_id) 在未删除的行中唯一
type RoomUser struct {
	RoomUserID uint `gorm:"column:room_user_id;primaryKey" json:"room_user_id"`

	RoomID   uint      `gorm:"column:room_id;not null;index:idx_room_user,priority:1" json:"room_id"`
	UserID   uint      `gorm:"column:user_id;not null;index:idx_room_user,priority:2" json:"user_id"`
	User     User      `gorm:"foreignKey:UserID;references:UserID" json:"-"`
	IsAdmin  bool      `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	JoinedAt time.Time `gorm:"column:joined_at;not null" json:"joined_at"`

	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"-"`
	UpdatedBy uint      `gorm:"column:updated_by" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (RoomUser) TableName() string {
	return "RoomUser"
}

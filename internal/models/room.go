package models

import "time"

// Room 聊天室模型
// password_hash 非空表示该房间需要密码才能加入
// 状态只有 active / deleted 两种，软删除是单向的
type Room struct {
	RoomID uint `gorm:"column:room_id;primaryKey" json:"room_id"`

	RoomName     string `gorm:"column:room_name;not null" json:"room_name"`
	CreatorID    uint   `gorm:"column:creator_id;not null;index" json:"creator_id"`
	Creator      User   `gorm:"foreignKey:CreatorID;references:UserID" json:"-"`
	PasswordHash string `gorm:"column:password_hash" json:"-"`
	ImageURL     string `gorm:"column:image_url" json:"image_url"`

	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"-"`
	UpdatedBy uint      `gorm:"column:updated_by" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (Room) TableName() string {
	return "Room"
}

// HasPassword 房间是否设置了加入密码
func (r *Room) HasPassword() bool {
	return r.PasswordHash != ""
}

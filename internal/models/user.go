package models

import "time"

// User 用户模型
// 通过 device_id 自动注册的用户永远不会被物理删除
type User struct {
	UserID uint `gorm:"column:user_id;primaryKey" json:"user_id"`

	DeviceID     string `gorm:"column:device_id;uniqueIndex;size:20;not null" json:"device_id"`
	DisplayName  string `gorm:"column:display_name;not null" json:"display_name"`
	ImageURL     string `gorm:"column:image_url" json:"image_url"`
	Username     string `gorm:"column:username;index" json:"username"`
	PasswordHash string `gorm:"column:password_hash" json:"-"`

	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"-"`
	UpdatedBy uint      `gorm:"column:updated_by" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (User) TableName() string {
	return "User"
}

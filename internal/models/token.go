package models

import "time"

// Token 设备级令牌对
// 每个 device_id 至多持有一对有效的 (access, refresh)，新登录会作废旧的一对
type Token struct {
	TokenID uint `gorm:"column:token_id;primaryKey" json:"-"`

	UserID       uint      `gorm:"column:user_id;not null;index" json:"-"`
	DeviceID     string    `gorm:"column:device_id;uniqueIndex;size:20;not null" json:"-"`
	DeviceName   string    `gorm:"column:device_name" json:"-"`
	AccessToken  string    `gorm:"column:access_token;not null" json:"-"`
	RefreshToken string    `gorm:"column:refresh_token;not null;index" json:"-"`
	AccessExpAt  time.Time `gorm:"column:access_exp_at" json:"-"`
	RefreshExpAt time.Time `gorm:"column:refresh_exp_at" json:"-"`

	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"-"`
	UpdatedBy uint      `gorm:"column:updated_by" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (Token) TableName() string {
	return "Token"
}

package models

import "time"

// Message 房间消息模型
// Seq 是房间内单调递增的序列号，用于客户端增量同步
type Message struct {
	MessageID uint `gorm:"column:message_id;primaryKey" json:"message_id"`

	RoomID   uint   `gorm:"column:room_id;not null;index" json:"room_id"`
	SenderID uint   `gorm:"column:sender_id;not null" json:"sender_id"`
	Sender   User   `gorm:"foreignKey:SenderID;references:UserID" json:"-"`
	Content  string `gorm:"column:content;not null" json:"content"`
	Seq      int64  `gorm:"column:seq;not null;index" json:"seq"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"-"`
	UpdatedBy uint      `gorm:"column:updated_by" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (Message) TableName() string {
	return "Message"
}

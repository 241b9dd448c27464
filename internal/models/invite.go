package models

import "time"

// 邀请状态，pending 是唯一的非终态
const (
	InviteStatePending  = "pending"
	InviteStateAccepted = "accepted"
	InviteStateRejected = "rejected"
	InviteStateRevoked  = "revoked"
)

// Invite 房间邀请模型
type Invite struct {
	InviteID uint `gorm:"column:invite_id;primaryKey" json:"invite_id"`

	RoomID        uint   `gorm:"column:room_id;not null;index" json:"room_id"`
	InviterUserID uint   `gorm:"column:inviter_user_id;not null" json:"inviter_user_id"`
	InviteeUserID uint   `gorm:"column:invitee_user_id;not null;index" json:"invitee_user_id"`
	State         string `gorm:"column:state;size:10;not null;default:pending" json:"state"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	IsDeleted bool      `gorm:"column:is_deleted;not null;default:false" json:"-"`
	UpdatedBy uint      `gorm:"column:updated_by" json:"-"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"-"`
}

func (Invite) TableName() string {
	return "Invite"
}

// ValidInviteTransition 邀请状态机的合法迁移判定
// 只有 pending 状态可以迁出，终态之间不可互相迁移
func ValidInviteTransition(from, to string) bool {
	if from != InviteStatePending {
		return false
	}
	switch to {
	case InviteStateAccepted, InviteStateRejected, InviteStateRevoked:
		return true
	}
	return false
}

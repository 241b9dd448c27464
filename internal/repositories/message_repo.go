package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/chatapp/web-server/internal/models"
)

// MessagePreview 房间最新一条消息的内容，用于房间列表的预览字段
type MessagePreview struct {
	RoomID  uint   `json:"room_id"`
	Content string `json:"content"`
}

// MessageRepository 消息仓储
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建消息仓储实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 写入消息
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	msg.UpdatedBy = msg.SenderID
	return translateError(r.db.WithContext(ctx).Create(msg).Error, "room not found")
}

// ListByRoom 获取房间历史消息，按序列号倒序分页，预加载发送者
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID uint, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).Scopes(notDeleted).
		Where("room_id = ?", roomID).
		Order("seq DESC").
		Limit(limit).
		Offset(offset).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, translateError(err, "room not found")
	}
	return messages, nil
}

// LatestByRooms 批量取每个房间最新一条未删除消息，一次查询完成
func (r *MessageRepository) LatestByRooms(ctx context.Context, roomIDs []uint) (map[uint]string, error) {
	if len(roomIDs) == 0 {
		return map[uint]string{}, nil
	}
	var previews []MessagePreview
	sub := r.db.Model(&models.Message{}).
		Select("room_id, MAX(message_id) AS message_id").
		Where("room_id IN ? AND is_deleted = ?", roomIDs, false).
		Group("room_id")
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select(`"Message".room_id, "Message".content`).
		Joins(`JOIN (?) AS latest ON "Message".message_id = latest.message_id`, sub).
		Scan(&previews).Error
	if err != nil {
		return nil, translateError(err, "room not found")
	}
	result := make(map[uint]string, len(previews))
	for _, p := range previews {
		result[p.RoomID] = p.Content
	}
	return result, nil
}

// NextSeq 在数据库内分配房间序列号，Redis 不可用时的降级路径
func (r *MessageRepository) NextSeq(ctx context.Context, roomID uint) (int64, error) {
	var maxSeq int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("room_id = ?", roomID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, translateError(err, "room not found")
	}
	return maxSeq + 1, nil
}

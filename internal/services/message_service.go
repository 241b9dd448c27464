package services

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/apperrors"
	"github.com/chatapp/web-server/internal/models"
	"github.com/chatapp/web-server/internal/repositories"
	"github.com/chatapp/web-server/internal/storage"
)

// Broadcaster 把消息推送给房间的实时连接
type Broadcaster interface {
	BroadcastToRoom(roomID uint, message any)
}

// Producer 把已落库的消息发布到消息队列，供其他节点消费
type Producer interface {
	SendMessage(key string, message any) error
}

// MessageService 消息服务
// 序列号优先从 Redis 分配，Redis 不可用时降级为数据库分配；
// Kafka 可用时通过队列扇出广播，否则直接广播到本地 Hub
type MessageService struct {
	MemberRepo  *repositories.MemberRepository
	MessageRepo *repositories.MessageRepository
	Seq         *storage.Sequencer
	Prod        Producer
	Hub         Broadcaster
	Log         *zap.Logger
}

func NewMessageService(
	memberRepo *repositories.MemberRepository,
	messageRepo *repositories.MessageRepository,
	seq *storage.Sequencer,
	prod Producer,
	hub Broadcaster,
	log *zap.Logger,
) *MessageService {
	return &MessageService{
		MemberRepo:  memberRepo,
		MessageRepo: messageRepo,
		Seq:         seq,
		Prod:        prod,
		Hub:         hub,
		Log:         log,
	}
}

// SendMessageRequest 发消息请求
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// MessageView 消息在响应和广播里的形态
type MessageView struct {
	MessageID  uint      `json:"message_id"`
	RoomID     uint      `json:"room_id"`
	SenderID   uint      `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Seq        int64     `json:"seq"`
	CreatedAt  time.Time `json:"created_at"`
}

// Send 成员向房间发消息
func (s *MessageService) Send(ctx context.Context, actorID, roomID uint, req *SendMessageRequest) (*MessageView, error) {
	if _, err := s.MemberRepo.GetByRoomAndUser(ctx, roomID, actorID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindForbidden, "only members can post messages")
		}
		return nil, err
	}

	seq, err := s.nextSeq(ctx, roomID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		RoomID:   roomID,
		SenderID: actorID,
		Content:  req.Content,
		Seq:      seq,
	}
	if err := s.MessageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	view := &MessageView{
		MessageID: msg.MessageID,
		RoomID:    msg.RoomID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		Seq:       msg.Seq,
		CreatedAt: msg.CreatedAt,
	}

	s.fanOut(view)
	return view, nil
}

// fanOut Kafka 可用时经队列扇出，消费端负责广播；否则直接广播到本地 Hub
func (s *MessageService) fanOut(view *MessageView) {
	if s.Prod != nil {
		if err := s.Prod.SendMessage(strconv.FormatUint(uint64(view.RoomID), 10), view); err == nil {
			return
		} else if s.Log != nil {
			s.Log.Warn("kafka publish failed, falling back to local broadcast", zap.Error(err))
		}
	}
	if s.Hub != nil {
		s.Hub.BroadcastToRoom(view.RoomID, view)
	}
}

// Broadcast 把队列里消费到的消息广播到本地 Hub
func (s *MessageService) Broadcast(view *MessageView) {
	if s.Hub != nil {
		s.Hub.BroadcastToRoom(view.RoomID, view)
	}
}

// ListByRoom 成员获取房间历史消息，按序列号倒序分页
func (s *MessageService) ListByRoom(ctx context.Context, actorID, roomID uint, limit, offset int) ([]MessageView, error) {
	if _, err := s.MemberRepo.GetByRoomAndUser(ctx, roomID, actorID); err != nil {
		if repositories.IsNotFound(err) {
			return nil, apperrors.New(apperrors.KindForbidden, "only members can read messages")
		}
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	messages, err := s.MessageRepo.ListByRoom(ctx, roomID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, MessageView{
			MessageID:  msg.MessageID,
			RoomID:     msg.RoomID,
			SenderID:   msg.SenderID,
			SenderName: msg.Sender.DisplayName,
			Content:    msg.Content,
			Seq:        msg.Seq,
			CreatedAt:  msg.CreatedAt,
		})
	}
	return views, nil
}

func (s *MessageService) nextSeq(ctx context.Context, roomID uint) (int64, error) {
	if s.Seq != nil {
		seq, err := s.Seq.NextSeq(ctx, roomID)
		if err == nil {
			return seq, nil
		}
		if s.Log != nil {
			s.Log.Warn("redis seq allocation failed, falling back to database", zap.Error(err))
		}
	}
	return s.MessageRepo.NextSeq(ctx, roomID)
}

package consumer

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/chatapp/web-server/internal/services"
)

// MessageConsumer 消费已落库的消息并广播到本地 Hub
// 发送节点已经完成落库，消费端只负责扇出
type MessageConsumer struct {
	messageService *services.MessageService
	log            *zap.Logger
}

func NewMessageConsumer(messageService *services.MessageService, log *zap.Logger) *MessageConsumer {
	return &MessageConsumer{
		messageService: messageService,
		log:            log,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (consumer *MessageConsumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (consumer *MessageConsumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim must start a consumer loop of ConsumerGroupClaim's Messages().
func (consumer *MessageConsumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var view services.MessageView
		if err := json.Unmarshal(message.Value, &view); err != nil {
			consumer.log.Warn("反序列化消息失败", zap.Error(err))
			session.MarkMessage(message, "")
			continue
		}

		consumer.messageService.Broadcast(&view)

		session.MarkMessage(message, "")
	}
	return nil
}

// StartConsumer 启动消费者组循环
func StartConsumer(ctx context.Context, brokers []string, groupID, topic string, consumer *MessageConsumer, log *zap.Logger) error {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest

	client, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return err
	}

	go func() {
		defer client.Close()
		for {
			if err := client.Consume(ctx, []string{topic}, consumer); err != nil {
				log.Warn("消费者错误", zap.Error(err))
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return nil
}

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/notification"

	kafkaGo "github.com/segmentio/kafka-go"
)

// 注文確定イベントをKafkaへ送る。キーは注文ID（同じ注文は同じパーティション）
type KafkaPublisher struct {
	w *kafkaGo.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireAll,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev notification.OrderPlaced) error {
	msg, err := orderPlacedMessage(ev)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write order %d: %w", ev.Order.ID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func orderPlacedMessage(ev notification.OrderPlaced) (kafkaGo.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafkaGo.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	return kafkaGo.Message{
		Key:   []byte(strconv.FormatInt(ev.Order.ID, 10)),
		Value: payload,
		Headers: []kafkaGo.Header{
			{Key: "event_type", Value: []byte("order.placed")},
			{Key: "event_id", Value: []byte(ev.EventID)},
		},
		Time: ev.OccurredAt,
	}, nil
}

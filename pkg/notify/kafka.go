package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaDispatcher writes notifications to one topic, keyed by routing key so
// a recipient's messages stay ordered within a partition.
type KafkaDispatcher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaDispatcher(brokers []string, topic string, log *zap.Logger) *KafkaDispatcher {
	return &KafkaDispatcher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: log.With(zap.String("dispatcher", "kafka"), zap.String("topic", topic)),
	}
}

func (d *KafkaDispatcher) NotifyCustomer(ctx context.Context, userID string, kind Kind, payload Payload) error {
	return d.write(ctx, newCustomerMessage(userID, kind, payload))
}

func (d *KafkaDispatcher) NotifyBranchStaff(ctx context.Context, branch int, kind Kind, payload Payload) error {
	return d.write(ctx, newBranchMessage(branch, kind, payload))
}

func (d *KafkaDispatcher) write(ctx context.Context, msg Message) error {
	body, err := msg.encode()
	if err != nil {
		return err
	}

	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RoutingKey()),
		Value: body,
		Time:  msg.CreatedAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
			{Key: "id", Value: []byte(msg.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s for %s: %w", msg.Kind, msg.RoutingKey(), err)
	}

	d.log.Debug("Notification written", zap.String("id", msg.ID), zap.String("kind", string(msg.Kind)))
	return nil
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

package notify

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPDispatcher publishes to a durable topic exchange keyed by audience.
type AMQPDispatcher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

func NewAMQPDispatcher(url, exchange string, log *zap.Logger) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPDispatcher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log.With(zap.String("dispatcher", "amqp")),
	}, nil
}

func (d *AMQPDispatcher) NotifyCustomer(ctx context.Context, userID string, kind Kind, payload Payload) error {
	return d.publish(ctx, newCustomerMessage(userID, kind, payload))
}

func (d *AMQPDispatcher) NotifyBranchStaff(ctx context.Context, branch int, kind Kind, payload Payload) error {
	return d.publish(ctx, newBranchMessage(branch, kind, payload))
}

func (d *AMQPDispatcher) publish(ctx context.Context, msg Message) error {
	body, err := msg.encode()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	err = d.channel.PublishWithContext(ctx,
		d.exchange,       // exchange
		msg.RoutingKey(), // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         string(msg.Kind),
			Timestamp:    msg.CreatedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.Kind, msg.RoutingKey(), err)
	}

	d.log.Debug("Notification published",
		zap.String("id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("routing_key", msg.RoutingKey()),
	)
	return nil
}

func (d *AMQPDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.channel != nil {
		if err := d.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close amqp dispatcher: %v", errs)
	}
	return nil
}

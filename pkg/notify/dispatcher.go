package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Dispatcher is the contract every backend in this package satisfies.
type Dispatcher interface {
	NotifyCustomer(ctx context.Context, userID string, kind Kind, payload Payload) error
	NotifyBranchStaff(ctx context.Context, branch int, kind Kind, payload Payload) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Driver       string
	AMQPURL      string
	AMQPExchange string
	KafkaBrokers []string
	KafkaTopic   string
}

// New builds the dispatcher named by opts.Driver.
func New(opts Options, log *zap.Logger) (Dispatcher, error) {
	switch opts.Driver {
	case "", "log":
		return NewLogDispatcher(log), nil
	case "amqp":
		d, err := NewAMQPDispatcher(opts.AMQPURL, opts.AMQPExchange, log)
		if err != nil {
			return nil, err
		}
		return d, nil
	case "kafka":
		return NewKafkaDispatcher(opts.KafkaBrokers, opts.KafkaTopic, log), nil
	}
	return nil, fmt.Errorf("unknown notify driver %q", opts.Driver)
}

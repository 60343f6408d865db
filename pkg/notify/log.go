package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher only logs. Used when no broker is configured.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log.With(zap.String("dispatcher", "log"))}
}

func (d *LogDispatcher) NotifyCustomer(_ context.Context, userID string, kind Kind, payload Payload) error {
	d.emit(newCustomerMessage(userID, kind, payload))
	return nil
}

func (d *LogDispatcher) NotifyBranchStaff(_ context.Context, branch int, kind Kind, payload Payload) error {
	d.emit(newBranchMessage(branch, kind, payload))
	return nil
}

func (d *LogDispatcher) emit(msg Message) {
	d.log.Info("Notification",
		zap.String("id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("routing_key", msg.RoutingKey()),
		zap.Any("payload", msg.Payload),
	)
}

func (d *LogDispatcher) Close() error {
	return nil
}

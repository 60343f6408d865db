package usecase

import (
	"context"
	"sync"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/pkg/metrics"
	"table-booking/pkg/notify"

	"go.uber.org/zap"
)

// NotificationDispatcher delivers messages to customers and branch staff.
type NotificationDispatcher interface {
	NotifyCustomer(ctx context.Context, userID string, kind notify.Kind, payload notify.Payload) error
	NotifyBranchStaff(ctx context.Context, branch int, kind notify.Kind, payload notify.Payload) error
	Close() error
}

const defaultNotifyTimeout = 5 * time.Second

// NotificationTrigger sends notifications uncoupled from the transition that
// caused them: each send runs on its own goroutine with its own deadline and
// a failure is only logged.
type NotificationTrigger struct {
	dispatcher NotificationDispatcher
	timeout    time.Duration
	log        *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotificationTrigger(dispatcher NotificationDispatcher, timeout time.Duration, log *zap.Logger) *NotificationTrigger {
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	return &NotificationTrigger{
		dispatcher: dispatcher,
		timeout:    timeout,
		log:        log.With(zap.String("component", "notification_trigger")),
	}
}

// Customer tells the owner of r about a status change.
func (t *NotificationTrigger) Customer(ctx context.Context, kind notify.Kind, r *entity.Reservation) {
	t.fire(ctx, kind, r.ID, func(ctx context.Context) error {
		return t.dispatcher.NotifyCustomer(ctx, r.UserID, kind, reservationPayload(r))
	})
}

// BranchStaff tells the staff of r's branch about it.
func (t *NotificationTrigger) BranchStaff(ctx context.Context, kind notify.Kind, r *entity.Reservation) {
	t.fire(ctx, kind, r.ID, func(ctx context.Context) error {
		return t.dispatcher.NotifyBranchStaff(ctx, int(r.Branch), kind, reservationPayload(r))
	})
}

func (t *NotificationTrigger) fire(ctx context.Context, kind notify.Kind, reservationID string, send func(context.Context) error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.log.Warn("Notification dropped after shutdown",
			zap.String("kind", string(kind)),
			zap.String("reservation_id", reservationID),
		)
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()

	// detach from the request so a finished handler does not cancel the send
	base := context.WithoutCancel(ctx)

	go func() {
		defer t.wg.Done()

		sendCtx, cancel := context.WithTimeout(base, t.timeout)
		defer cancel()

		if err := send(sendCtx); err != nil {
			metrics.IncNotificationFailure(string(kind))
			t.log.Error("Failed to send notification",
				zap.Error(err),
				zap.String("kind", string(kind)),
				zap.String("reservation_id", reservationID),
			)
		}
	}()
}

// Shutdown stops accepting sends, waits for in-flight ones (bounded by ctx)
// and closes the dispatcher.
func (t *NotificationTrigger) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.log.Warn("Shutdown timed out waiting for notifications")
	}

	return t.dispatcher.Close()
}

func reservationPayload(r *entity.Reservation) notify.Payload {
	payload := notify.Payload{
		"reservation_id":  r.ID,
		"branch":          int(r.Branch),
		"branch_name":     r.Branch.String(),
		"date_of_arrival": r.DateOfArrival.UTC().Format(time.RFC3339),
		"guests":          r.Guests,
		"booking_name":    r.BookingName,
		"status":          int(r.Status),
	}
	if r.RejectionReason != nil {
		payload["rejection_reason"] = *r.RejectionReason
	}
	return payload
}

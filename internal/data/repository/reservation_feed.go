package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"table-booking/internal/data/entity"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ReservationChange announces that reservations of one branch were written.
type ReservationChange struct {
	Branch  entity.Branch `json:"branch"`
	IDs     []string      `json:"ids"`
	UserIDs []string      `json:"user_ids"`
}

// Touches reports whether the change can alter the result of q.
func (c ReservationChange) Touches(q entity.ReservationQuery) bool {
	if len(c.UserIDs) == 0 {
		return q.Touches(c.Branch, "")
	}
	for _, userID := range c.UserIDs {
		if q.Touches(c.Branch, userID) {
			return true
		}
	}
	return false
}

// ChangeFeed fans reservation changes out to every live subscriber.
type ChangeFeed interface {
	Publish(ctx context.Context, change ReservationChange) error
	// Listen returns a stream of changes and a func that releases it.
	Listen(ctx context.Context) (<-chan ReservationChange, func() error, error)
}

const changeChannel = "reservations:changes"

type redisFeed struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisFeed carries changes over Redis pub/sub so every replica sees them.
func NewRedisFeed(client *redis.Client, log *zap.Logger) ChangeFeed {
	return &redisFeed{
		client: client,
		log:    log.With(zap.String("feed", "redis")),
	}
}

func (f *redisFeed) Publish(ctx context.Context, change ReservationChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal reservation change: %w", err)
	}
	return f.client.Publish(ctx, changeChannel, payload).Err()
}

func (f *redisFeed) Listen(ctx context.Context) (<-chan ReservationChange, func() error, error) {
	pubsub := f.client.Subscribe(ctx, changeChannel)
	// wait for the subscription confirmation so no change is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan ReservationChange, 16)
	done := make(chan struct{})
	go forwardChanges(ctx, done, pubsub.Channel(), out, f.log)

	var once sync.Once
	stop := func() error {
		var err error
		once.Do(func() {
			close(done)
			err = pubsub.Close()
		})
		return err
	}
	return out, stop, nil
}

// forwardChanges decodes messages into out until the source closes, ctx ends
// or done is closed by the subscriber's stop func.
func forwardChanges(ctx context.Context, done <-chan struct{}, in <-chan *redis.Message, out chan<- ReservationChange, log *zap.Logger) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			var change ReservationChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				log.Warn("Dropping malformed reservation change", zap.Error(err))
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}
}

type localFeed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan ReservationChange
}

// NewLocalFeed is an in-process feed for single-replica deployments and tests.
func NewLocalFeed() ChangeFeed {
	return &localFeed{subs: make(map[int]chan ReservationChange)}
}

func (f *localFeed) Publish(_ context.Context, change ReservationChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- change:
		default:
			// subscriber is behind; it re-queries on the next change anyway
		}
	}
	return nil
}

func (f *localFeed) Listen(_ context.Context) (<-chan ReservationChange, func() error, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan ReservationChange, 16)
	f.subs[id] = ch

	var once sync.Once
	stop := func() error {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			close(ch)
			f.mu.Unlock()
		})
		return nil
	}
	return ch, stop, nil
}

// Subscription is a standing live query. Each value on C is the complete
// current matching set. Close must be called when the observer goes away.
type Subscription struct {
	C <-chan []*entity.Reservation

	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

type finder func(ctx context.Context, q entity.ReservationQuery) ([]*entity.Reservation, error)

func newSubscription(
	parent context.Context,
	q entity.ReservationQuery,
	find finder,
	changes <-chan ReservationChange,
	stop func() error,
	log *zap.Logger,
) *Subscription {
	ctx, cancel := context.WithCancel(parent)
	out := make(chan []*entity.Reservation, 1)
	sub := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer close(out)
		defer stop()

		deliver := func() bool {
			snapshot, err := find(ctx, q)
			if err != nil {
				if ctx.Err() == nil {
					log.Error("Live query failed", zap.Error(err))
					sub.err = err
				}
				return false
			}
			// keep only the newest snapshot for a slow reader
			select {
			case <-out:
			default:
			}
			select {
			case out <- snapshot:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if !change.Touches(q) {
					continue
				}
				if !deliver() {
					return
				}
			}
		}
	}()

	return sub
}

// Close tears the live query down and waits for its goroutine.
func (s *Subscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// Err reports why the subscription ended on its own, if it did.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/internal/data/repository"
	"table-booking/pkg/notify"

	"go.uber.org/zap"
)

var errStoreDown = errors.New("connection refused")

// memReservations is an in-memory ReservationRepository with the same guard
// semantics as the SQL one.
type memReservations struct {
	mu      sync.Mutex
	rows    map[string]*entity.Reservation
	events  map[string][]*entity.ReservationStatusEvent
	batches [][]string
	// failBatch makes the n-th UpdateStatusBatch call (1-based) fail
	failBatch int
}

func newMemReservations() *memReservations {
	return &memReservations{
		rows:   make(map[string]*entity.Reservation),
		events: make(map[string][]*entity.ReservationStatusEvent),
	}
}

func (m *memReservations) put(r *entity.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Restaurant == nil {
		info, _ := entity.LookupBranch(r.Branch)
		r.Restaurant = &info.Restaurant
	}
	cp := *r
	m.rows[r.ID] = &cp
}

func (m *memReservations) get(id string) *entity.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.rows[id]
	return &cp
}

func (m *memReservations) Insert(_ context.Context, r *entity.Reservation, actorID *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.rows[r.ID]; taken {
		return false, nil
	}
	cp := *r
	m.rows[r.ID] = &cp
	m.events[r.ID] = append(m.events[r.ID], &entity.ReservationStatusEvent{
		ReservationID: r.ID,
		ToStatus:      r.Status,
		Trigger:       "create",
		ActorID:       actorID,
	})
	return true, nil
}

func (m *memReservations) FindByID(_ context.Context, id string) (*entity.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReservations) Find(_ context.Context, q entity.ReservationQuery) ([]*entity.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*entity.Reservation
	for _, r := range m.rows {
		if q.Matches(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Sort == entity.SortArrivalDesc {
			return out[i].DateOfArrival.After(out[j].DateOfArrival)
		}
		return out[i].DateOfArrival.Before(out[j].DateOfArrival)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memReservations) UpdateStatus(ctx context.Context, id string, change repository.StatusChange) (*entity.Reservation, error) {
	updated, err := m.UpdateStatusBatch(ctx, []string{id}, change)
	if err != nil || len(updated) == 0 {
		return nil, err
	}
	return updated[0], nil
}

func (m *memReservations) UpdateStatusBatch(_ context.Context, ids []string, change repository.StatusChange) ([]*entity.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batches = append(m.batches, ids)
	if m.failBatch > 0 && len(m.batches) == m.failBatch {
		return nil, errStoreDown
	}

	var updated []*entity.Reservation
	for _, id := range ids {
		r, ok := m.rows[id]
		if !ok || !containsStatus(change.From, r.Status) {
			continue
		}
		from := r.Status
		r.Status = change.To
		r.RejectionReason = nil
		if change.To == entity.StatusRejected {
			r.RejectionReason = change.Reason
		}
		r.UpdatedAt = time.Now()
		m.events[id] = append(m.events[id], &entity.ReservationStatusEvent{
			ReservationID: id,
			FromStatus:    &from,
			ToStatus:      change.To,
			Reason:        change.Reason,
			Trigger:       change.Trigger.String(),
			ActorID:       change.ActorID,
		})
		cp := *r
		updated = append(updated, &cp)
	}
	return updated, nil
}

func (m *memReservations) History(_ context.Context, id string) ([]*entity.ReservationStatusEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.ReservationStatusEvent(nil), m.events[id]...), nil
}

func (m *memReservations) Watch(context.Context, entity.ReservationQuery) (*repository.Subscription, error) {
	return nil, entity.ErrStoreUnavailable
}

func containsStatus(list []entity.ReservationStatus, s entity.ReservationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type memSettings struct {
	mu   sync.Mutex
	rows map[entity.Branch]*entity.BranchSettings
}

func newMemSettings() *memSettings {
	return &memSettings{rows: make(map[entity.Branch]*entity.BranchSettings)}
}

func (m *memSettings) Find(_ context.Context, branch entity.Branch) (*entity.BranchSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[branch]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSettings) Save(_ context.Context, s *entity.BranchSettings, expectedVersion *int64) (*entity.BranchSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version := int64(1)
	if cur, ok := m.rows[s.Branch]; ok {
		if expectedVersion != nil && *expectedVersion != cur.Version {
			return nil, entity.ErrConflict
		}
		version = cur.Version + 1
	}
	cp := *s
	cp.Version = version
	m.rows[s.Branch] = &cp
	out := cp
	return &out, nil
}

type memUsers struct {
	mu   sync.Mutex
	rows map[string]*entity.User
}

func newMemUsers() *memUsers {
	return &memUsers{rows: make(map[string]*entity.User)}
}

func (m *memUsers) Insert(_ context.Context, u *entity.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.rows[u.ID]; taken {
		return false, nil
	}
	cp := *u
	m.rows[u.ID] = &cp
	return true, nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type sent struct {
	audience  notify.Audience
	recipient string
	kind      notify.Kind
	payload   notify.Payload
}

// recordingDispatcher remembers every send; err makes every send fail.
type recordingDispatcher struct {
	mu     sync.Mutex
	sent   []sent
	err    error
	delay  time.Duration
	closed bool
}

func (d *recordingDispatcher) NotifyCustomer(ctx context.Context, userID string, kind notify.Kind, payload notify.Payload) error {
	return d.record(ctx, sent{audience: notify.AudienceCustomer, recipient: userID, kind: kind, payload: payload})
}

func (d *recordingDispatcher) NotifyBranchStaff(ctx context.Context, branch int, kind notify.Kind, payload notify.Payload) error {
	return d.record(ctx, sent{audience: notify.AudienceBranchStaff, recipient: entity.Branch(branch).String(), kind: kind, payload: payload})
}

func (d *recordingDispatcher) record(ctx context.Context, s sent) error {
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, s)
	return nil
}

func (d *recordingDispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *recordingDispatcher) messages() []sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sent(nil), d.sent...)
}

// engine bundles the services over in-memory stores.
type engine struct {
	reservations *memReservations
	settings     *memSettings
	users        *memUsers
	dispatcher   *recordingDispatcher
	notifier     *NotificationTrigger
	repo         *repository.Repository
}

func newEngine() *engine {
	e := &engine{
		reservations: newMemReservations(),
		settings:     newMemSettings(),
		users:        newMemUsers(),
		dispatcher:   &recordingDispatcher{},
	}
	e.notifier = NewNotificationTrigger(e.dispatcher, time.Second, zap.NewNop())
	e.repo = &repository.Repository{
		User:           e.users,
		Reservation:    e.reservations,
		BranchSettings: e.settings,
	}
	return e
}

// flush waits for every notification fired so far.
func (e *engine) flush() {
	e.notifier.wg.Wait()
}

func branchPtr(b entity.Branch) *entity.Branch { return &b }

func restaurantPtr(r entity.Restaurant) *entity.Restaurant { return &r }

func customer(id string) entity.Actor {
	return entity.Actor{ID: id, Role: entity.RoleCustomer}
}

func staff(id string, branch entity.Branch) entity.Actor {
	info, _ := entity.LookupBranch(branch)
	return entity.Actor{ID: id, Role: entity.RoleStaff, Branch: branchPtr(branch), Restaurant: restaurantPtr(info.Restaurant)}
}

func admin(id string, branch entity.Branch) entity.Actor {
	a := staff(id, branch)
	a.Role = entity.RoleAdmin
	return a
}

func superAdmin(id string, r entity.Restaurant) entity.Actor {
	return entity.Actor{ID: id, Role: entity.RoleSuperAdmin, Restaurant: restaurantPtr(r)}
}

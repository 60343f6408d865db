package usecase

import (
	"context"
	"testing"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/internal/dto/request"
	"table-booking/pkg/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReservationService(e *engine) ReservationService {
	return NewReservationService(e.repo, NewMinter(50, zap.NewNop()), e.notifier, zap.NewNop())
}

func intPtr(v int) *int { return &v }

func createRequest(branch entity.Branch, guests int) *request.CreateReservationRequest {
	return &request.CreateReservationRequest{
		Branch:        intPtr(int(branch)),
		DateOfArrival: time.Now().Add(48 * time.Hour),
		Guests:        guests,
		BookingName:   "Dinner",
		Message:       "window seat",
	}
}

// seed stores a reservation directly, bypassing create.
func seed(e *engine, id, userID string, branch entity.Branch, status entity.ReservationStatus, arrival time.Time) {
	r := &entity.Reservation{
		Base:          entity.Base{ID: id, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		UserID:        userID,
		Branch:        branch,
		DateOfArrival: arrival,
		Guests:        2,
		Status:        status,
	}
	if status == entity.StatusRejected {
		reason := "seeded"
		r.RejectionReason = &reason
	}
	e.reservations.put(r)
}

func TestCreateReservation(t *testing.T) {
	e := newEngine()
	svc := newReservationService(e)

	resp, err := svc.Create(context.Background(), customer("100001"), createRequest(entity.BranchAirport, 4))
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9]{6}$`, resp.ID)
	assert.Equal(t, int(entity.StatusPending), resp.Status)
	assert.Equal(t, "100001", resp.UserID)
	require.NotNil(t, resp.Restaurant)
	assert.Equal(t, int(entity.RestaurantExpress), *resp.Restaurant)
	assert.Nil(t, resp.RejectionReason)
	assert.False(t, resp.CreatedAt.IsZero())

	stored := e.reservations.get(resp.ID)
	assert.Equal(t, entity.StatusPending, stored.Status)

	e.flush()
	msgs := e.dispatcher.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.AudienceBranchStaff, msgs[0].audience)
	assert.Equal(t, notify.KindReservationCreated, msgs[0].kind)
	assert.Equal(t, resp.ID, msgs[0].payload["reservation_id"])
}

func TestCreateReservationSkipsTakenIDs(t *testing.T) {
	e := newEngine()
	minter := NewMinter(50, zap.NewNop())
	minter.generate = sequence("111111", "222222")
	svc := NewReservationService(e.repo, minter, e.notifier, zap.NewNop())

	seed(e, "111111", "100009", entity.BranchCentral, entity.StatusConfirmed, time.Now().Add(time.Hour))

	resp, err := svc.Create(context.Background(), customer("100001"), createRequest(entity.BranchCentral, 2))
	require.NoError(t, err)
	assert.Equal(t, "222222", resp.ID)
	assert.Equal(t, "100009", e.reservations.get("111111").UserID, "existing reservation untouched")
}

func TestCreateReservationRejected(t *testing.T) {
	past := createRequest(entity.BranchCentral, 2)
	past.DateOfArrival = time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		actor   entity.Actor
		req     *request.CreateReservationRequest
		paused  bool
		wantErr error
	}{
		{name: "zero guests", actor: customer("1"), req: createRequest(entity.BranchCentral, 0), wantErr: entity.ErrValidation},
		{name: "negative guests", actor: customer("1"), req: createRequest(entity.BranchCentral, -3), wantErr: entity.ErrValidation},
		{name: "unknown branch", actor: customer("1"), req: createRequest(entity.Branch(9), 2), wantErr: entity.ErrValidation},
		{name: "arrival in the past", actor: customer("1"), req: past, wantErr: entity.ErrValidation},
		{name: "staff cannot book", actor: staff("2", entity.BranchCentral), req: createRequest(entity.BranchCentral, 2), wantErr: entity.ErrForbidden},
		{name: "branch paused", actor: customer("1"), req: createRequest(entity.BranchCentral, 2), paused: true, wantErr: entity.ErrBookingsPaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			if tt.paused {
				reason := "kitchen works"
				_, err := e.settings.Save(context.Background(), &entity.BranchSettings{
					Branch: entity.BranchCentral, PauseBookings: true, PauseReason: &reason,
				}, nil)
				require.NoError(t, err)
			}

			_, err := newReservationService(e).Create(context.Background(), tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)

			all, _ := e.reservations.Find(context.Background(), entity.ReservationQuery{})
			assert.Empty(t, all)
		})
	}
}

func TestSetStatus(t *testing.T) {
	upcoming := time.Now().Add(24 * time.Hour)
	actor := staff("200001", entity.BranchCentral)

	tests := []struct {
		name       string
		current    entity.ReservationStatus
		target     entity.ReservationStatus
		reason     string
		wantErr    error
		wantNotify notify.Kind
	}{
		{name: "confirm pending", current: entity.StatusPending, target: entity.StatusConfirmed, wantNotify: notify.KindReservationConfirmed},
		{name: "reject pending", current: entity.StatusPending, target: entity.StatusRejected, reason: "fully booked", wantNotify: notify.KindReservationRejected},
		{name: "reject confirmed", current: entity.StatusConfirmed, target: entity.StatusRejected, reason: "closed", wantNotify: notify.KindReservationRejected},
		{name: "reject without reason", current: entity.StatusPending, target: entity.StatusRejected, wantErr: entity.ErrValidation},
		{name: "reject with blank reason", current: entity.StatusPending, target: entity.StatusRejected, reason: "   ", wantErr: entity.ErrValidation},
		{name: "paused is reserved", current: entity.StatusPending, target: entity.StatusPaused, wantErr: entity.ErrInvalidTransition},
		{name: "completed is not settable", current: entity.StatusConfirmed, target: entity.StatusCompleted, wantErr: entity.ErrInvalidTransition},
		{name: "cancelled is not settable", current: entity.StatusPending, target: entity.StatusCancelled, wantErr: entity.ErrInvalidTransition},
		{name: "terminal rejected", current: entity.StatusRejected, target: entity.StatusConfirmed, wantErr: entity.ErrInvalidTransition},
		{name: "terminal cancelled", current: entity.StatusCancelled, target: entity.StatusConfirmed, wantErr: entity.ErrInvalidTransition},
		{name: "terminal completed", current: entity.StatusCompleted, target: entity.StatusRejected, reason: "late", wantErr: entity.ErrInvalidTransition},
		{name: "paused cannot be confirmed", current: entity.StatusPaused, target: entity.StatusConfirmed, wantErr: entity.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			seed(e, "123456", "100001", entity.BranchCentral, tt.current, upcoming)
			svc := newReservationService(e)

			resp, err := svc.SetStatus(context.Background(), actor, "123456", &request.SetStatusRequest{
				Status: statusPtr(tt.target),
				Reason: tt.reason,
			})
			e.flush()

			stored := e.reservations.get("123456")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.current, stored.Status, "status unchanged on error")
				assert.Empty(t, e.dispatcher.messages())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int(tt.target), resp.Status)
			assert.Equal(t, tt.target, stored.Status)
			// rejection reason present exactly when rejected
			assert.Equal(t, tt.target == entity.StatusRejected, stored.RejectionReason != nil)

			msgs := e.dispatcher.messages()
			require.Len(t, msgs, 1)
			assert.Equal(t, notify.AudienceCustomer, msgs[0].audience)
			assert.Equal(t, "100001", msgs[0].recipient)
			assert.Equal(t, tt.wantNotify, msgs[0].kind)
		})
	}
}

func TestSetStatusScope(t *testing.T) {
	e := newEngine()
	seed(e, "123456", "100001", entity.BranchAirport, entity.StatusPending, time.Now().Add(time.Hour))
	svc := newReservationService(e)
	confirm := &request.SetStatusRequest{Status: statusPtr(entity.StatusConfirmed)}

	_, err := svc.SetStatus(context.Background(), staff("2", entity.BranchCentral), "123456", confirm)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	_, err = svc.SetStatus(context.Background(), superAdmin("3", entity.RestaurantFlagship), "123456", confirm)
	assert.ErrorIs(t, err, entity.ErrForbidden)

	_, err = svc.SetStatus(context.Background(), staff("2", entity.BranchCentral), "999999", confirm)
	assert.ErrorIs(t, err, entity.ErrNotFound)

	resp, err := svc.SetStatus(context.Background(), superAdmin("3", entity.RestaurantExpress), "123456", confirm)
	require.NoError(t, err)
	assert.Equal(t, int(entity.StatusConfirmed), resp.Status)
}

func TestCancel(t *testing.T) {
	upcoming := time.Now().Add(time.Hour)

	tests := []struct {
		name    string
		current entity.ReservationStatus
		actor   entity.Actor
		wantErr error
	}{
		{name: "pending", current: entity.StatusPending, actor: customer("A")},
		{name: "confirmed", current: entity.StatusConfirmed, actor: customer("A")},
		{name: "paused", current: entity.StatusPaused, actor: customer("A")},
		{name: "already rejected", current: entity.StatusRejected, actor: customer("A"), wantErr: entity.ErrInvalidTransition},
		{name: "already completed", current: entity.StatusCompleted, actor: customer("A"), wantErr: entity.ErrInvalidTransition},
		{name: "already cancelled", current: entity.StatusCancelled, actor: customer("A"), wantErr: entity.ErrInvalidTransition},
		{name: "someone else's", current: entity.StatusPending, actor: customer("B"), wantErr: entity.ErrForbidden},
		{name: "staff cannot cancel", current: entity.StatusPending, actor: staff("S", entity.BranchCentral), wantErr: entity.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			seed(e, "654321", "A", entity.BranchCentral, tt.current, upcoming)

			resp, err := newReservationService(e).Cancel(context.Background(), tt.actor, "654321")
			e.flush()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int(entity.StatusCancelled), resp.Status)
			assert.Nil(t, resp.RejectionReason)
			assert.Empty(t, e.dispatcher.messages(), "cancelling notifies nobody")
		})
	}
}

func TestComplete(t *testing.T) {
	e := newEngine()
	seed(e, "100100", "A", entity.BranchCentral, entity.StatusConfirmed, time.Now().Add(-time.Hour))
	seed(e, "100200", "A", entity.BranchCentral, entity.StatusPending, time.Now().Add(time.Hour))
	svc := newReservationService(e)
	actor := staff("S", entity.BranchCentral)

	resp, err := svc.Complete(context.Background(), actor, "100100")
	require.NoError(t, err)
	assert.Equal(t, int(entity.StatusCompleted), resp.Status)

	_, err = svc.Complete(context.Background(), actor, "100200")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	_, err = svc.Complete(context.Background(), customer("A"), "100100")
	assert.ErrorIs(t, err, entity.ErrForbidden)
}

func TestGetHidesOtherCustomersReservations(t *testing.T) {
	e := newEngine()
	seed(e, "100100", "A", entity.BranchCentral, entity.StatusPending, time.Now().Add(time.Hour))
	svc := newReservationService(e)

	_, err := svc.Get(context.Background(), customer("B"), "100100")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	resp, err := svc.Get(context.Background(), customer("A"), "100100")
	require.NoError(t, err)
	assert.Equal(t, "100100", resp.ID)
}

func TestListIsRoleScoped(t *testing.T) {
	e := newEngine()
	now := time.Now()
	seed(e, "000001", "A", entity.BranchCentral, entity.StatusPending, now.Add(2*time.Hour))
	seed(e, "000002", "A", entity.BranchCentral, entity.StatusCancelled, now.Add(3*time.Hour))
	seed(e, "000003", "B", entity.BranchCentral, entity.StatusPending, now.Add(time.Hour))
	seed(e, "000004", "B", entity.BranchCentral, entity.StatusPending, now.Add(-time.Hour))
	seed(e, "000005", "B", entity.BranchRiverside, entity.StatusPending, now.Add(time.Hour))
	svc := newReservationService(e)

	mine, err := svc.List(context.Background(), customer("A"), &request.ListReservationsRequest{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "000001", mine[0].ID)

	queue, err := svc.List(context.Background(), staff("S", entity.BranchCentral), &request.ListReservationsRequest{})
	require.NoError(t, err)
	ids := make([]string, len(queue))
	for i, r := range queue {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"000003", "000001"}, ids, "upcoming pending of the branch, soonest first")
}

func TestHistoryRecordsTransitions(t *testing.T) {
	e := newEngine()
	svc := newReservationService(e)

	created, err := svc.Create(context.Background(), customer("A"), createRequest(entity.BranchCentral, 2))
	require.NoError(t, err)

	_, err = svc.SetStatus(context.Background(), staff("S", entity.BranchCentral), created.ID, &request.SetStatusRequest{
		Status: statusPtr(entity.StatusConfirmed),
	})
	require.NoError(t, err)

	events, err := svc.History(context.Background(), customer("A"), created.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Nil(t, events[0].FromStatus)
	assert.Equal(t, int(entity.StatusPending), events[0].ToStatus)
	require.NotNil(t, events[1].FromStatus)
	assert.Equal(t, int(entity.StatusPending), *events[1].FromStatus)
	assert.Equal(t, int(entity.StatusConfirmed), events[1].ToStatus)
	assert.Equal(t, "staff", events[1].Trigger)

	_, err = svc.History(context.Background(), customer("B"), created.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

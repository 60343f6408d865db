package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/internal/data/repository"
	"table-booking/internal/dto/request"
	"table-booking/internal/dto/response"
	"table-booking/pkg/metrics"
	"table-booking/pkg/notify"
	"table-booking/pkg/utils"

	"go.uber.org/zap"
)

type ReservationService interface {
	// Customer operations
	Create(ctx context.Context, actor entity.Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error)
	Cancel(ctx context.Context, actor entity.Actor, id string) (*response.ReservationResponse, error)

	// Staff operations
	SetStatus(ctx context.Context, actor entity.Actor, id string, req *request.SetStatusRequest) (*response.ReservationResponse, error)
	Complete(ctx context.Context, actor entity.Actor, id string) (*response.ReservationResponse, error)

	// Role-scoped reads
	Get(ctx context.Context, actor entity.Actor, id string) (*response.ReservationResponse, error)
	List(ctx context.Context, actor entity.Actor, req *request.ListReservationsRequest) ([]response.ReservationResponse, error)
	Watch(ctx context.Context, actor entity.Actor, req *request.ListReservationsRequest) (*LiveView, error)
	History(ctx context.Context, actor entity.Actor, id string) ([]response.StatusEventResponse, error)
}

// LiveView is an open role-scoped subscription. Close it when the observer leaves.
type LiveView struct {
	C   <-chan []response.ReservationResponse
	sub *repository.Subscription
}

func (v *LiveView) Close() error {
	defer metrics.SubscriptionClosed()
	return v.sub.Close()
}

type reservationService struct {
	repo     *repository.Repository
	minter   *Minter
	notifier *NotificationTrigger
	now      func() time.Time
	log      *zap.Logger
}

func NewReservationService(repo *repository.Repository, minter *Minter, notifier *NotificationTrigger, log *zap.Logger) ReservationService {
	return &reservationService{
		repo:     repo,
		minter:   minter,
		notifier: notifier,
		now:      time.Now,
		log:      log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) Create(ctx context.Context, actor entity.Actor, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create reservation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}
	if actor.Role != entity.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers book tables", entity.ErrForbidden)
	}

	branch := entity.Branch(*req.Branch)
	info, ok := entity.LookupBranch(branch)
	if !ok {
		return nil, fmt.Errorf("%w: unknown branch %d", entity.ErrValidation, *req.Branch)
	}

	now := s.now()
	if !req.DateOfArrival.After(now) {
		return nil, fmt.Errorf("%w: date_of_arrival must be in the future", entity.ErrValidation)
	}

	settings, err := s.repo.BranchSettings.Find(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("load settings of branch %d: %w", branch, err)
	}
	if settings != nil && settings.PauseBookings {
		return nil, fmt.Errorf("%w: %s", entity.ErrBookingsPaused, derefOr(settings.PauseReason, "no reason given"))
	}

	restaurant := info.Restaurant
	reservation := &entity.Reservation{
		Base: entity.Base{
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:        actor.ID,
		Branch:        branch,
		Restaurant:    &restaurant,
		DateOfArrival: req.DateOfArrival,
		Guests:        req.Guests,
		BookingName:   strings.TrimSpace(req.BookingName),
		Message:       strings.TrimSpace(req.Message),
		Status:        entity.StatusPending,
	}

	actorID := actor.ID
	id, err := s.minter.Mint(ctx, func(ctx context.Context, candidate string) (bool, error) {
		reservation.ID = candidate
		inserted, err := s.repo.Reservation.Insert(ctx, reservation, &actorID)
		return !inserted, err
	})
	if err != nil {
		s.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("user_id", actor.ID),
			zap.Int("branch", int(branch)),
		)
		return nil, fmt.Errorf("create reservation: %w", err)
	}
	reservation.ID = id

	metrics.IncTransition(entity.StatusPending.String(), "create")
	s.log.Info("Reservation created",
		zap.String("reservation_id", id),
		zap.String("user_id", actor.ID),
		zap.Int("branch", int(branch)),
		zap.Int("guests", reservation.Guests),
		zap.Time("date_of_arrival", reservation.DateOfArrival),
	)

	s.notifier.BranchStaff(ctx, notify.KindReservationCreated, reservation)

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) SetStatus(ctx context.Context, actor entity.Actor, id string, req *request.SetStatusRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}

	target := *req.Status
	if target != entity.StatusConfirmed && target != entity.StatusRejected {
		return nil, fmt.Errorf("%w: status %s cannot be set directly", entity.ErrInvalidTransition, target)
	}

	reason := strings.TrimSpace(req.Reason)
	if target == entity.StatusRejected && reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to reject a reservation", entity.ErrValidation)
	}

	var reasonPtr *string
	if target == entity.StatusRejected {
		reasonPtr = &reason
	}

	updated, err := s.transition(ctx, actor, id, target, entity.TriggerStaff, reasonPtr)
	if err != nil {
		return nil, err
	}

	kind := notify.KindReservationConfirmed
	if target == entity.StatusRejected {
		kind = notify.KindReservationRejected
	}
	s.notifier.Customer(ctx, kind, updated)

	resp := response.ReservationToResponse(updated)
	return &resp, nil
}

func (s *reservationService) Complete(ctx context.Context, actor entity.Actor, id string) (*response.ReservationResponse, error) {
	updated, err := s.transition(ctx, actor, id, entity.StatusCompleted, entity.TriggerStaff, nil)
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(updated)
	return &resp, nil
}

func (s *reservationService) Cancel(ctx context.Context, actor entity.Actor, id string) (*response.ReservationResponse, error) {
	updated, err := s.transition(ctx, actor, id, entity.StatusCancelled, entity.TriggerCustomer, nil)
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(updated)
	return &resp, nil
}

// transition loads the reservation, checks scope and the lifecycle table, and
// writes the new status guarded on the status it was read with.
func (s *reservationService) transition(
	ctx context.Context,
	actor entity.Actor,
	id string,
	target entity.ReservationStatus,
	trigger entity.Trigger,
	reason *string,
) (*entity.Reservation, error) {
	current, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation %s: %w", id, err)
	}
	if current == nil {
		return nil, fmt.Errorf("reservation %s: %w", id, entity.ErrNotFound)
	}

	switch trigger {
	case entity.TriggerCustomer:
		if actor.Role != entity.RoleCustomer || current.UserID != actor.ID {
			return nil, fmt.Errorf("%w: reservation %s belongs to another customer", entity.ErrForbidden, id)
		}
	default:
		if !inScope(actor, current.Branch) {
			return nil, fmt.Errorf("%w: reservation %s is outside the actor's scope", entity.ErrForbidden, id)
		}
	}

	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %s is already %s", entity.ErrInvalidTransition, id, current.Status)
	}
	if _, ok := entity.TransitionFor(current.Status, target, trigger); !ok {
		return nil, fmt.Errorf("%w: %s -> %s is not allowed", entity.ErrInvalidTransition, current.Status, target)
	}

	actorID := actor.ID
	updated, err := s.repo.Reservation.UpdateStatus(ctx, id, repository.StatusChange{
		From:    []entity.ReservationStatus{current.Status},
		To:      target,
		Reason:  reason,
		Trigger: trigger,
		ActorID: &actorID,
	})
	if err != nil {
		s.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("reservation_id", id),
			zap.Stringer("to", target),
		)
		return nil, fmt.Errorf("set reservation %s to %s: %w", id, target, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("reservation %s changed while %s was being applied: %w", id, target, entity.ErrConflict)
	}

	metrics.IncTransition(target.String(), trigger.String())
	s.log.Info("Reservation status changed",
		zap.String("reservation_id", id),
		zap.Stringer("from", current.Status),
		zap.Stringer("to", target),
		zap.Stringer("trigger", trigger),
		zap.String("actor_id", actor.ID),
	)

	return updated, nil
}

func (s *reservationService) Get(ctx context.Context, actor entity.Actor, id string) (*response.ReservationResponse, error) {
	reservation, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	resp := response.ReservationToResponse(reservation)
	return &resp, nil
}

func (s *reservationService) List(ctx context.Context, actor entity.Actor, req *request.ListReservationsRequest) ([]response.ReservationResponse, error) {
	q, err := ResolveVisibility(actor, ViewFilter{Status: req.Status, Branch: req.Branch}, s.now())
	if err != nil {
		return nil, err
	}

	reservations, err := s.repo.Reservation.Find(ctx, q)
	if err != nil {
		s.log.Error("Failed to list reservations", zap.Error(err), zap.String("actor_id", actor.ID))
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	return response.ReservationsToResponse(reservations), nil
}

func (s *reservationService) Watch(ctx context.Context, actor entity.Actor, req *request.ListReservationsRequest) (*LiveView, error) {
	q, err := ResolveVisibility(actor, ViewFilter{Status: req.Status, Branch: req.Branch}, s.now())
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.Reservation.Watch(ctx, q)
	if err != nil {
		s.log.Error("Failed to open live query", zap.Error(err), zap.String("actor_id", actor.ID))
		return nil, fmt.Errorf("watch reservations: %w", err)
	}
	metrics.SubscriptionOpened()

	out := make(chan []response.ReservationResponse, 1)
	go func() {
		defer close(out)
		for snapshot := range sub.C {
			// the upcoming-only cut-off moves with the clock, not with changes
			if q.ArrivalAfter != nil {
				snapshot = upcomingOnly(snapshot, s.now())
			}
			select {
			case out <- response.ReservationsToResponse(snapshot):
			case <-ctx.Done():
				return
			}
		}
	}()

	return &LiveView{C: out, sub: sub}, nil
}

func (s *reservationService) History(ctx context.Context, actor entity.Actor, id string) ([]response.StatusEventResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return nil, err
	}

	events, err := s.repo.Reservation.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", id, err)
	}

	out := make([]response.StatusEventResponse, len(events))
	for i, e := range events {
		out[i] = response.StatusEventToResponse(e)
	}
	return out, nil
}

// load fetches a reservation the actor is allowed to see.
func (s *reservationService) load(ctx context.Context, actor entity.Actor, id string) (*entity.Reservation, error) {
	reservation, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation %s: %w", id, err)
	}
	if reservation == nil || !canView(actor, reservation) {
		// do not reveal reservations outside the actor's scope
		return nil, fmt.Errorf("reservation %s: %w", id, entity.ErrNotFound)
	}
	return reservation, nil
}

func upcomingOnly(list []*entity.Reservation, now time.Time) []*entity.Reservation {
	out := list[:0:0]
	for _, r := range list {
		if r.IsUpcoming(now) {
			out = append(out, r)
		}
	}
	return out
}

func derefOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

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

// DefaultBulkBatchSize keeps each committed chunk under the store's batch limit.
const DefaultBulkBatchSize = 450

// DefaultResumeReason is recorded on reservations rejected by a resume that
// carried no reason of its own.
const DefaultResumeReason = "Bookings were paused at this branch; please book again"

type BranchService interface {
	GetSettings(ctx context.Context, branch entity.Branch) (*response.BranchSettingsResponse, error)
	// SetPause returns the saved settings and the committed count even when a
	// later bulk chunk fails.
	SetPause(ctx context.Context, actor entity.Actor, branch entity.Branch, req *request.SetPauseRequest) (*response.PauseResponse, error)
	CancelAllPending(ctx context.Context, actor entity.Actor, branch entity.Branch, req *request.CancelPendingRequest) (*response.BulkResponse, error)

	// Bulk paths of SetPause, exposed for re-runs after a partial failure.
	PauseAllUpcoming(ctx context.Context, actor entity.Actor, branch entity.Branch) (int, error)
	RejectAllPaused(ctx context.Context, actor entity.Actor, branch entity.Branch, reason string) (int, error)
}

type branchService struct {
	repo      *repository.Repository
	notifier  *NotificationTrigger
	batchSize int
	now       func() time.Time
	log       *zap.Logger
}

func NewBranchService(repo *repository.Repository, notifier *NotificationTrigger, batchSize int, log *zap.Logger) BranchService {
	if batchSize <= 0 {
		batchSize = DefaultBulkBatchSize
	}
	return &branchService{
		repo:      repo,
		notifier:  notifier,
		batchSize: batchSize,
		now:       time.Now,
		log:       log.With(zap.String("service", "branch")),
	}
}

func (s *branchService) GetSettings(ctx context.Context, branch entity.Branch) (*response.BranchSettingsResponse, error) {
	if !branch.Valid() {
		return nil, fmt.Errorf("branch %d: %w", branch, entity.ErrNotFound)
	}

	settings, err := s.repo.BranchSettings.Find(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("load settings of branch %d: %w", branch, err)
	}
	if settings == nil {
		// never written: bookings are open
		settings = &entity.BranchSettings{Branch: branch}
	}

	resp := response.BranchSettingsToResponse(settings)
	return &resp, nil
}

func (s *branchService) SetPause(ctx context.Context, actor entity.Actor, branch entity.Branch, req *request.SetPauseRequest) (*response.PauseResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}
	if err := s.authorize(actor, branch); err != nil {
		return nil, err
	}

	enabled := *req.Enabled
	reason := strings.TrimSpace(req.Reason)
	if enabled && reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to pause bookings", entity.ErrValidation)
	}

	// every field is written; whatever the caller left out is cleared
	settings := &entity.BranchSettings{
		Branch:        branch,
		PauseBookings: enabled,
		UpdatedAt:     s.now(),
	}
	if enabled {
		settings.PauseReason = &reason
		settings.PauseUntil = req.Until
	}

	saved, err := s.repo.BranchSettings.Save(ctx, settings, req.ExpectedVersion)
	if err != nil {
		s.log.Error("Failed to save branch settings",
			zap.Error(err),
			zap.Int("branch", int(branch)),
			zap.Bool("enabled", enabled),
		)
		return nil, fmt.Errorf("save settings of branch %d: %w", branch, err)
	}

	s.log.Info("Branch pause flag set",
		zap.Int("branch", int(branch)),
		zap.Bool("enabled", enabled),
		zap.Int64("version", saved.Version),
		zap.String("actor_id", actor.ID),
	)

	var mutated int
	if enabled {
		mutated, err = s.pauseAllUpcoming(ctx, actor, branch)
	} else {
		if reason == "" {
			reason = DefaultResumeReason
		}
		mutated, err = s.rejectAllPaused(ctx, actor, branch, reason)
	}
	resp := &response.PauseResponse{
		Settings: response.BranchSettingsToResponse(saved),
		Mutated:  mutated,
	}
	if err != nil {
		// the flag and every committed chunk stay; a re-run moves the rest
		return resp, err
	}
	return resp, nil
}

func (s *branchService) PauseAllUpcoming(ctx context.Context, actor entity.Actor, branch entity.Branch) (int, error) {
	if err := s.authorize(actor, branch); err != nil {
		return 0, err
	}
	return s.pauseAllUpcoming(ctx, actor, branch)
}

func (s *branchService) RejectAllPaused(ctx context.Context, actor entity.Actor, branch entity.Branch, reason string) (int, error) {
	if err := s.authorize(actor, branch); err != nil {
		return 0, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultResumeReason
	}
	return s.rejectAllPaused(ctx, actor, branch, reason)
}

func (s *branchService) CancelAllPending(ctx context.Context, actor entity.Actor, branch entity.Branch, req *request.CancelPendingRequest) (*response.BulkResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}
	if err := s.authorize(actor, branch); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required to clear the queue", entity.ErrValidation)
	}

	mutated, err := s.bulkTransition(ctx, actor, bulkOp{
		name:    "cancel_all_pending",
		branch:  branch,
		to:      entity.StatusRejected,
		trigger: entity.TriggerQueueReset,
		reason:  &reason,
		notify:  true,
	})
	resp := &response.BulkResponse{Branch: int(branch), Mutated: mutated}
	if err != nil {
		return resp, err
	}
	return resp, nil
}

func (s *branchService) pauseAllUpcoming(ctx context.Context, actor entity.Actor, branch entity.Branch) (int, error) {
	return s.bulkTransition(ctx, actor, bulkOp{
		name:     "pause_all_upcoming",
		branch:   branch,
		to:       entity.StatusPaused,
		trigger:  entity.TriggerBranchPause,
		upcoming: true,
	})
}

func (s *branchService) rejectAllPaused(ctx context.Context, actor entity.Actor, branch entity.Branch, reason string) (int, error) {
	return s.bulkTransition(ctx, actor, bulkOp{
		name:     "reject_all_paused",
		branch:   branch,
		to:       entity.StatusRejected,
		trigger:  entity.TriggerBranchResume,
		reason:   &reason,
		upcoming: true,
		notify:   true,
	})
}

type bulkOp struct {
	name     string
	branch   entity.Branch
	to       entity.ReservationStatus
	trigger  entity.Trigger
	reason   *string
	upcoming bool
	notify   bool
}

// bulkTransition moves every matching reservation of the branch in chunks of
// batchSize. Each chunk re-reads current state and commits on its own, so a
// re-run after a partial failure only picks up what is left.
func (s *branchService) bulkTransition(ctx context.Context, actor entity.Actor, op bulkOp) (int, error) {
	from := entity.SourcesFor(op.to, op.trigger)
	branch := op.branch
	actorID := actor.ID

	q := entity.ReservationQuery{
		Branch:   &branch,
		Statuses: from,
		Sort:     entity.SortArrivalAsc,
		Limit:    s.batchSize,
	}
	if op.upcoming {
		now := s.now()
		q.ArrivalAfter = &now
	}

	change := repository.StatusChange{
		From:    from,
		To:      op.to,
		Reason:  op.reason,
		Trigger: op.trigger,
		ActorID: &actorID,
	}

	total := 0
	for chunk := 1; ; chunk++ {
		candidates, err := s.repo.Reservation.Find(ctx, q)
		if err != nil {
			return total, fmt.Errorf("%s: read chunk %d: %w", op.name, chunk, err)
		}
		if len(candidates) == 0 {
			break
		}

		ids := make([]string, len(candidates))
		for i, r := range candidates {
			ids[i] = r.ID
		}

		updated, err := s.repo.Reservation.UpdateStatusBatch(ctx, ids, change)
		if err != nil {
			s.log.Error("Bulk chunk failed",
				zap.Error(err),
				zap.String("operation", op.name),
				zap.Int("branch", int(op.branch)),
				zap.Int("chunk", chunk),
				zap.Int("committed", total),
			)
			return total, fmt.Errorf("%s: write chunk %d: %w", op.name, chunk, err)
		}

		total += len(updated)
		metrics.AddBulkMutations(op.name, len(updated))
		for range updated {
			metrics.IncTransition(op.to.String(), op.trigger.String())
		}

		if op.notify && op.to == entity.StatusRejected {
			for _, r := range updated {
				s.notifier.Customer(ctx, notify.KindReservationRejected, r)
			}
		}

		s.log.Debug("Bulk chunk committed",
			zap.String("operation", op.name),
			zap.Int("chunk", chunk),
			zap.Int("moved", len(updated)),
		)

		// a short or fruitless chunk means nothing is left to move
		if len(updated) == 0 || len(candidates) < s.batchSize {
			break
		}
	}

	s.log.Info("Bulk transition finished",
		zap.String("operation", op.name),
		zap.Int("branch", int(op.branch)),
		zap.Stringer("to", op.to),
		zap.Int("mutated", total),
		zap.String("actor_id", actor.ID),
	)
	return total, nil
}

// authorize admits admins of the branch and super admins of its restaurant.
func (s *branchService) authorize(actor entity.Actor, branch entity.Branch) error {
	if !branch.Valid() {
		return fmt.Errorf("branch %d: %w", branch, entity.ErrNotFound)
	}
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleSuperAdmin {
		return fmt.Errorf("%w: %s cannot control branches", entity.ErrForbidden, actor.Role)
	}
	if !inScope(actor, branch) {
		return fmt.Errorf("%w: branch %d is outside the actor's scope", entity.ErrForbidden, branch)
	}
	return nil
}

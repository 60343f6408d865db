package adaptor

import (
	"errors"
	"net/http"

	"table-booking/internal/data/entity"
	"table-booking/internal/usecase"
	"table-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	User        *UserHandler
	Reservation *ReservationHandler
	Branch      *BranchHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		User:        NewUserHandler(service.User, log),
		Reservation: NewReservationHandler(service.Reservation, log),
		Branch:      NewBranchHandler(service.Branch, log),
	}
}

// handleServiceError maps engine errors onto the response envelope.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	errMsg := err.Error()

	switch {
	case errors.Is(err, entity.ErrValidation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, errMsg, nil)

	case errors.Is(err, entity.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, errMsg)

	case errors.Is(err, entity.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, errMsg)

	case errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrConflict),
		errors.Is(err, entity.ErrBookingsPaused):
		log.Warn(operation+" failed - conflict", zap.Error(err))
		utils.ResponseConflict(w, errMsg)

	case errors.Is(err, entity.ErrExhaustedRetries),
		errors.Is(err, entity.ErrStoreUnavailable):
		log.Error(operation+" failed - unavailable", zap.Error(err))
		utils.ResponseUnavailable(w, "Service temporarily unavailable, please retry")

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

// actorFrom reads the actor set by the auth middleware.
func actorFrom(w http.ResponseWriter, r *http.Request) (entity.Actor, bool) {
	actor, ok := utils.GetActorFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return actor, ok
}

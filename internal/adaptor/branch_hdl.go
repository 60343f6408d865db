package adaptor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"table-booking/internal/data/entity"
	"table-booking/internal/dto/request"
	"table-booking/internal/usecase"
	"table-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BranchHandler struct {
	service usecase.BranchService
	log     *zap.Logger
}

func NewBranchHandler(service usecase.BranchService, log *zap.Logger) *BranchHandler {
	return &BranchHandler{
		service: service,
		log:     log.With(zap.String("handler", "branch")),
	}
}

// GetSettings handles GET /api/branches/{branch}/settings
func (h *BranchHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	branch, ok := branchParam(w, r)
	if !ok {
		return
	}

	settings, err := h.service.GetSettings(r.Context(), branch)
	if err != nil {
		handleServiceError(w, h.log, err, "get branch settings")
		return
	}

	utils.ResponseSuccess(w, "Branch settings retrieved successfully", settings)
}

// SetPause handles PUT /api/branches/{branch}/pause (admin and above)
func (h *BranchHandler) SetPause(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	branch, ok := branchParam(w, r)
	if !ok {
		return
	}

	var req request.SetPauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.SetPause(r.Context(), actor, branch, &req)
	if err != nil {
		if result != nil {
			h.log.Warn("Branch pause applied partially",
				zap.Int("branch", int(branch)),
				zap.Int("mutated", result.Mutated))
		}
		handleServiceError(w, h.log, err, "set branch pause")
		return
	}

	message := "Bookings resumed"
	if result.Settings.PauseBookings {
		message = "Bookings paused"
	}
	utils.ResponseSuccess(w, message, result)
}

// CancelPending handles POST /api/branches/{branch}/cancel-pending (admin and above)
func (h *BranchHandler) CancelPending(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	branch, ok := branchParam(w, r)
	if !ok {
		return
	}

	var req request.CancelPendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.service.CancelAllPending(r.Context(), actor, branch, &req)
	if err != nil {
		if result != nil {
			h.log.Warn("Queue reset applied partially",
				zap.Int("branch", int(branch)),
				zap.Int("mutated", result.Mutated))
		}
		handleServiceError(w, h.log, err, "cancel pending reservations")
		return
	}

	utils.ResponseSuccess(w, "Pending reservations rejected", result)
}

func branchParam(w http.ResponseWriter, r *http.Request) (entity.Branch, bool) {
	code, err := strconv.Atoi(chi.URLParam(r, "branch"))
	if err != nil {
		utils.ResponseBadRequest(w, "Branch must be a number", nil)
		return 0, false
	}

	branch := entity.Branch(code)
	if !branch.Valid() {
		utils.ResponseNotFound(w, "Branch not found")
		return 0, false
	}
	return branch, true
}

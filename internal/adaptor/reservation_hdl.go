package adaptor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/internal/dto/request"
	"table-booking/internal/usecase"
	"table-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// streamKeepAlive is how often an idle event stream gets a comment line.
const streamKeepAlive = 25 * time.Second

type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// Create handles POST /api/reservations (customer)
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create reservation")
		return
	}

	utils.ResponseCreated(w, "Reservation created successfully", reservation)
}

// List handles GET /api/reservations?status=&branch=
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	req, err := parseListRequest(r)
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	reservations, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list reservations")
		return
	}

	utils.ResponseSuccess(w, "Reservations retrieved successfully", reservations)
}

// Stream handles GET /api/reservations/stream. It holds a live subscription
// and writes the full matching set as a server-sent event on every change.
func (h *ReservationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.ResponseInternalError(w, "Streaming unsupported")
		return
	}

	req, err := parseListRequest(r)
	if err != nil {
		utils.ResponseBadRequest(w, err.Error(), nil)
		return
	}

	view, err := h.service.Watch(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "watch reservations")
		return
	}
	defer view.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.log.Info("Live view opened", zap.String("actor_id", actor.ID))
	defer h.log.Info("Live view closed", zap.String("actor_id", actor.ID))

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case snapshot, open := <-view.C:
			if !open {
				return
			}
			payload, err := json.Marshal(snapshot)
			if err != nil {
				h.log.Error("Failed to encode snapshot", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Get handles GET /api/reservations/{id}
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	reservation, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation retrieved successfully", reservation)
}

// Cancel handles PUT /api/reservations/{id}/cancel (owning customer)
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	reservation, err := h.service.Cancel(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "cancel reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation cancelled successfully", reservation)
}

// SetStatus handles PUT /api/reservations/{id}/status (staff and above)
func (h *ReservationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req request.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// unknown status codes are refused while decoding
		utils.ResponseBadRequest(w, "Invalid request body: "+err.Error(), nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.SetStatus(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "set reservation status")
		return
	}

	utils.ResponseSuccess(w, "Reservation status updated", reservation)
}

// Complete handles PUT /api/reservations/{id}/complete (staff and above)
func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	reservation, err := h.service.Complete(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "complete reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation completed", reservation)
}

// History handles GET /api/reservations/{id}/history
func (h *ReservationHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	events, err := h.service.History(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get reservation history")
		return
	}

	utils.ResponseSuccess(w, "History retrieved successfully", events)
}

func parseListRequest(r *http.Request) (*request.ListReservationsRequest, error) {
	query := r.URL.Query()
	req := &request.ListReservationsRequest{}

	if raw := query.Get("status"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("status must be a number")
		}
		status, err := entity.ParseStatus(code)
		if err != nil {
			return nil, err
		}
		req.Status = &status
	}

	if raw := query.Get("branch"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("branch must be a number")
		}
		branch := entity.Branch(code)
		if !branch.Valid() {
			return nil, fmt.Errorf("unknown branch %d", code)
		}
		req.Branch = &branch
	}

	return req, nil
}

package wire

import (
	"net/http"

	"table-booking/internal/adaptor"
	"table-booking/internal/data/entity"
	"table-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/api/reservations", func(r chi.Router) {
		// every reservation route needs an actor
		r.Use(auth)

		// ==================== CUSTOMER ROUTES ====================
		r.With(middleware.RequireRole(log, entity.RoleCustomer)).Post("/", reservationHandler.Create)
		r.With(middleware.RequireRole(log, entity.RoleCustomer)).Put("/{id}/cancel", reservationHandler.Cancel)

		// ==================== ROLE-SCOPED READS ====================
		r.Get("/", reservationHandler.List)
		r.Get("/stream", reservationHandler.Stream)
		r.Get("/{id}", reservationHandler.Get)
		r.Get("/{id}/history", reservationHandler.History)

		// ==================== STAFF ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log,
				entity.RoleStaff,
				entity.RoleAdmin,
				entity.RoleSuperAdmin,
			))

			r.Put("/{id}/status", reservationHandler.SetStatus)
			r.Put("/{id}/complete", reservationHandler.Complete)
		})
	})
}

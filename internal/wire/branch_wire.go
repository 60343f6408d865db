package wire

import (
	"net/http"

	"table-booking/internal/adaptor"
	"table-booking/internal/data/entity"
	"table-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBranch(
	r chi.Router,
	branchHandler *adaptor.BranchHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/api/branches/{branch}", func(r chi.Router) {
		r.Use(auth)

		// GET /api/branches/{branch}/settings - pause flag, visible to every actor
		r.Get("/settings", branchHandler.GetSettings)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(log, entity.RoleAdmin, entity.RoleSuperAdmin))

			r.Put("/pause", branchHandler.SetPause)
			r.Post("/cancel-pending", branchHandler.CancelPending)
		})
	})
}

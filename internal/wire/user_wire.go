package wire

import (
	"net/http"

	"table-booking/internal/adaptor"
	"table-booking/internal/data/entity"
	"table-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures the actor directory routes
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	// POST /api/users - customer sign-up, returns a token
	r.Post("/api/users", userHandler.Register)

	// ==================== PROTECTED ROUTES ====================
	r.With(auth).Get("/api/users/me", userHandler.GetProfile)

	// ==================== ADMIN ROUTES ====================
	// POST /api/users/members - enroll staff, admins and super admins in scope
	r.With(auth, middleware.RequireRole(log, entity.RoleAdmin, entity.RoleSuperAdmin)).
		Post("/api/users/members", userHandler.CreateMember)
}

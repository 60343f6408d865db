// internal/wire/wire.go
package wire

import (
	"net/http"

	"table-booking/internal/adaptor"
	"table-booking/internal/data/repository"
	"table-booking/internal/usecase"
	"table-booking/pkg/metrics"
	"table-booking/pkg/middleware"
	"table-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the router and the services behind it
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes
func Wiring(repo *repository.Repository, notifier *usecase.NotificationTrigger, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, notifier, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, service, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// setupRouter configures the chi router
func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	auth := middleware.Auth(config.JWT.Secret, service.User, logger)

	// Apply routes
	wireUser(r, handler.User, auth, logger)
	wireReservation(r, handler.Reservation, auth, logger)
	wireBranch(r, handler.Branch, auth, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Handle("/metrics", metrics.Handler())

	return r
}

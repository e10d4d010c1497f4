// internal/wire/wire.go
package wire

import (
	"net/http"

	"event-marketplace/internal/adaptor"
	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/gateway"
	"event-marketplace/internal/usecase"
	"event-marketplace/pkg/middleware"
	"event-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Deps are the external collaborators the HTTP application is built from.
// Limiter may be nil, which disables rate limiting.
type Deps struct {
	Repo     *repository.Repository
	Gateway  gateway.Adapter
	Notifier usecase.Notifier
	Limiter  redis.Scripter
}

// Wiring menginisialisasi semua dependencies
func Wiring(deps Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(deps.Repo, deps.Gateway, deps.Notifier, logger)
	handler := adaptor.NewHandler(service, deps.Gateway.SignatureHeader(), logger)

	router := setupRouter(handler, deps, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(handler *adaptor.Handler, deps Deps, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	limiter := middleware.RateLimit(config.RateLimit, deps.Limiter, logger)
	webhookLimiter := middleware.RateLimit(config.RateLimit.ForWebhook(), deps.Limiter, logger)

	wireBooking(r, handler.Booking, deps.Repo, limiter, logger)
	wireAdmin(r, handler.Admin, handler.Booking, deps.Repo, logger)
	wirePayment(r, handler.Payment, webhookLimiter)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

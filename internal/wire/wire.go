package wire

import (
	"net/http"

	"doctors-portal/internal/adaptor"
	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/usecase"
	"doctors-portal/pkg/middleware"
	"doctors-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// guards are the identity checks applied per route group.
type guards struct {
	auth  func(http.Handler) http.Handler
	admin func(http.Handler) http.Handler
}

func Wiring(repo *repository.Repository, deps usecase.Deps, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, deps, config, logger)
	handler := adaptor.NewHandler(service, logger)

	g := guards{
		auth:  middleware.AuthJWT(config.JWT.Secret, logger),
		admin: middleware.Admin(service.User.IsAdmin, logger),
	}

	return &App{
		Router:  setupRouter(handler, g, config, logger),
		Service: service,
	}
}

func setupRouter(handler *adaptor.Handler, g guards, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	wireAvailability(r, handler.Availability)
	wireBooking(r, handler.Booking, g, config)
	wirePayment(r, handler.Payment, g)
	wireUser(r, handler.Auth, handler.User, g)
	wireDoctor(r, handler.Doctor, g)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.ResponseSuccess(w, "OK", nil)
	})

	return r
}

package handler

import (
	"github.com/Dan9191/weather-service/internal/metrics"
	"github.com/Dan9191/weather-service/internal/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// NewRouter assembles the HTTP routes. Public routes: signup, login, health,
// metrics. Protected routes sit behind the bearer-token guard and the
// per-user rate limiter.
func NewRouter(h *Handler, verifier middleware.TokenVerifier, limiter *middleware.RateLimiter,
	m *metrics.Metrics, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(m.Middleware())

	// Public routes
	r.HandleFunc("/signup", h.Signup).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(verifier))
	if limiter != nil {
		authRouter.Use(limiter.Middleware())
	}
	authRouter.HandleFunc("/weather", h.Weather).Methods("GET")
	authRouter.HandleFunc("/logs", h.Logs).Methods("GET")

	return r
}

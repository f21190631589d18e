package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Dan9191/weather-service/internal/middleware"
	"github.com/Dan9191/weather-service/internal/models"
	"github.com/Dan9191/weather-service/internal/service"
	"github.com/sirupsen/logrus"
)

// Pinger reports storage liveness for the health endpoint
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler exposes the HTTP surface over the service layer
type Handler struct {
	svc *service.Service
	db  Pinger
	log *logrus.Logger
}

// NewHandler initializes a new handler
func NewHandler(svc *service.Service, db Pinger, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, db: db, log: log}
}

type signupRequest struct {
	Username  string  `json:"username"`
	Password  string  `json:"password"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone_number"`
}

// Signup handles user registration
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	user, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeServiceError(w, r, "Error creating user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created",
		"userId":  user.ID,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "Error logging in", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Weather handles an authenticated weather lookup and proxies the
// provider's payload back verbatim
func (h *Handler) Weather(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	params := r.URL.Query()
	query := service.WeatherQuery{
		City: params.Get("city"),
		Lat:  params.Get("lat"),
		Lon:  params.Get("lon"),
	}

	payload, err := h.svc.GetWeather(r.Context(), userID, query, clientIP(r))
	if err != nil {
		h.writeServiceError(w, r, "Error fetching weather data", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// Logs returns the authenticated user's profile and query history
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	result, err := h.svc.GetLogs(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "Error fetching logs and user information", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health reports process and storage liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError translates the error taxonomy to an HTTP response
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var valErr *models.ValidationError
	if errors.As(err, &valErr) {
		writeError(w, http.StatusBadRequest, valErr.Message, "")
		return
	}

	switch {
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	case errors.Is(err, models.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found", "")
		return
	case errors.Is(err, models.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username already taken", "")
		return
	}

	h.log.WithField("request_id", middleware.RequestIDFromContext(r.Context())).
		Errorf("%s: %v", message, err)

	var upErr *models.UpstreamError
	if errors.As(err, &upErr) {
		writeError(w, http.StatusInternalServerError, message, upErr.Detail)
		return
	}
	writeError(w, http.StatusInternalServerError, message, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	body := map[string]string{"message": message}
	if detail != "" {
		body["error"] = detail
	}
	writeJSON(w, status, body)
}

// clientIP extracts the caller's network address, preferring the first hop
// of X-Forwarded-For over the socket peer address
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

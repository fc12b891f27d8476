// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"activities-service/internal/activities"
	apperrors "activities-service/internal/common/errors"
	"activities-service/internal/common/logger"
)

const (
	activityParam = "activity_name"
	emailParam    = "email"
)

// ActivityService is the registry surface the handlers call.
type ActivityService interface {
	List(ctx context.Context) (activities.Registry, error)
	Signup(ctx context.Context, activity, email string) (*activities.Confirmation, error)
	Unregister(ctx context.Context, activity, email string) (*activities.Confirmation, error)
	Ready(ctx context.Context) error
}

// Handler serves the activities HTTP API.
type Handler struct {
	service    ActivityService
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(service ActivityService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"component": "api"})
	return &Handler{
		service:    service,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
		now:        time.Now,
	}
}

// RegisterRoutes mounts the API and probe routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /activities", h.listActivities)
	mux.HandleFunc("POST /activities/{activity_name}/signup", h.signup)
	mux.HandleFunc("DELETE /activities/{activity_name}/unregister", h.unregister)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /ready", h.ready)
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	registry, err := h.service.List(r.Context())
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, apperrors.OpList, err)
		return
	}
	h.writeJSON(w, http.StatusOK, registry)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	activity, email, err := participantParams(r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, apperrors.OpSignup, err)
		return
	}

	conf, err := h.service.Signup(r.Context(), activity, email)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, apperrors.OpSignup, err)
		return
	}
	h.writeJSON(w, http.StatusOK, conf)
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	activity, email, err := participantParams(r)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, apperrors.OpUnregister, err)
		return
	}

	conf, err := h.service.Unregister(r.Context(), activity, email)
	if err != nil {
		h.errHandler.HandleHTTPError(w, r, apperrors.OpUnregister, err)
		return
	}
	h.writeJSON(w, http.StatusOK, conf)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, StatusResponse{
		Status: "healthy",
		Time:   h.now().Format(time.RFC3339),
	})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", map[string]interface{}{"error": err})
		h.writeJSON(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "unavailable",
			Time:   h.now().Format(time.RFC3339),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, StatusResponse{
		Status: "ready",
		Time:   h.now().Format(time.RFC3339),
	})
}

// participantParams reads the path activity and the required email query
// parameter. Presence is all that is checked; an empty email is accepted.
func participantParams(r *http.Request) (string, string, error) {
	query := r.URL.Query()
	if !query.Has(emailParam) {
		return "", "", apperrors.NewInvalidRequestError("query parameter \"email\" is required")
	}
	return r.PathValue(activityParam), query.Get(emailParam), nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", map[string]interface{}{"error": err})
	}
}

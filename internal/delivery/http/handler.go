package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/mixgrove/booth-service/internal/domain"
	"github.com/mixgrove/booth-service/internal/service"
	pkgErrors "github.com/mixgrove/booth-service/pkg/errors"
	"github.com/mixgrove/booth-service/pkg/logger"
)

// HTTPHandler exposes the booth engine over REST. Identity arrives from
// the upstream gateway in X-User-ID and X-User-Role headers; this service
// never authenticates, it only authorizes against the role level.
type HTTPHandler struct {
	boothService    service.BoothService
	waitlistService service.WaitlistService
	userService     service.UserService
	logger          logger.Logger
	validator       *validator.Validate
}

func NewHTTPHandler(
	boothService service.BoothService,
	waitlistService service.WaitlistService,
	userService service.UserService,
	l logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		boothService:    boothService,
		waitlistService: waitlistService,
		userService:     userService,
		logger:          l,
		validator:       validator.New(),
	}
}

// HealthCheck handles health check requests
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "booth-service",
		"version": "1.0.0",
	}
	h.respondJSON(w, http.StatusOK, response)
}

// Helper functions

// actor reads the caller's identity from the gateway headers. A missing
// role header means level 0.
func (h *HTTPHandler) actor(r *http.Request) (domain.Actor, bool) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return domain.Actor{}, false
	}

	role, _ := strconv.Atoi(r.Header.Get("X-User-Role"))

	return domain.Actor{ID: id, Role: role}, true
}

// decodeAndValidate decodes the JSON body into req and runs struct
// validation. It writes the error response itself and reports success.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}

	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, http.StatusUnprocessableEntity, "Validation failed", err)
		return false
	}

	return true
}

func (h *HTTPHandler) requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := h.actor(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Missing X-User-ID header", nil)
	}
	return actor, ok
}

// respondServiceError maps a service error onto its HTTP status.
func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := pkgErrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Errorf(r.Context(), "http: unexpected error on %s %s: %v", r.Method, r.URL.Path, err)
		h.respondError(w, status, "Internal server error", err)
		return
	}
	h.respondError(w, status, err.Error(), err)
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Errorf(context.Background(), "http: failed to encode JSON response: %v", err)
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"error": message,
		"code":  statusCode,
	}

	if err != nil {
		h.logger.Debugf(context.Background(), "http: error response: message=%q err=%v", message, err)
	}

	h.respondJSON(w, statusCode, response)
}

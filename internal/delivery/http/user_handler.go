package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type roleRequest struct {
	Role int `json:"role"`
}

type usernameRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
}

type banRequest struct {
	// Duration in milliseconds. Zero or negative lifts the ban.
	Duration int64 `json:"duration"`
	Exiled   bool  `json:"exiled"`
}

type muteRequest struct {
	// Duration in milliseconds. Zero or negative unmutes.
	Duration int64 `json:"duration"`
}

type statusRequest struct {
	Status int `json:"status"`
}

// ChangeRole handles moderator requests to set a user's role level.
func (h *HTTPHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.ChangeRole(r.Context(), actor, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user)
}

// ChangeUsername handles rename requests, by the user or a moderator.
func (h *HTTPHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req usernameRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.ChangeUsername(r.Context(), actor, chi.URLParam(r, "id"), req.Username)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user)
}

// BanUser handles ban and unban requests.
func (h *HTTPHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req banRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	d := time.Duration(req.Duration) * time.Millisecond
	user, err := h.userService.Ban(r.Context(), actor, chi.URLParam(r, "id"), d, req.Exiled)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user)
}

// MuteUser handles mute and unmute requests.
func (h *HTTPHandler) MuteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req muteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	d := time.Duration(req.Duration) * time.Millisecond
	if err := h.userService.Mute(r.Context(), actor, chi.URLParam(r, "id"), d); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"muted": req.Duration > 0})
}

// SetStatus handles requests by users to set their own presence status.
func (h *HTTPHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.SetStatus(r.Context(), actor, req.Status)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, user)
}

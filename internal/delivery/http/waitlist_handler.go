package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type joinRequest struct {
	UserID   string `json:"user_id"`
	Position *int   `json:"position"`
}

type moveRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Position *int   `json:"position"`
	AfterID  string `json:"after_id"`
}

type lockRequest struct {
	Lock  bool `json:"lock"`
	Clear bool `json:"clear"`
}

// GetWaitlist handles waitlist state requests.
func (h *HTTPHandler) GetWaitlist(w http.ResponseWriter, r *http.Request) {
	state, err := h.waitlistService.GetState(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// JoinWaitlist handles join requests. Without a position the target is
// appended to the tail; with one, a moderator inserts them at that slot.
func (h *HTTPHandler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	targetID := req.UserID
	if targetID == "" {
		targetID = actor.ID
	}

	var (
		waitlist []string
		err      error
	)
	if req.Position != nil {
		waitlist, err = h.waitlistService.InsertAt(r.Context(), actor, targetID, *req.Position)
	} else {
		waitlist, err = h.waitlistService.Append(r.Context(), actor, targetID)
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{"waitlist": waitlist})
}

// MoveWaitlist handles reorder requests, either to an absolute position
// or to the slot directly after another user.
func (h *HTTPHandler) MoveWaitlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var (
		waitlist []string
		err      error
	)
	switch {
	case req.AfterID != "":
		waitlist, err = h.waitlistService.MoveAfter(r.Context(), actor, req.UserID, req.AfterID)
	case req.Position != nil:
		waitlist, err = h.waitlistService.MoveTo(r.Context(), actor, req.UserID, *req.Position)
	default:
		h.respondError(w, http.StatusUnprocessableEntity, "Either position or after_id is required", nil)
		return
	}
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"waitlist": waitlist})
}

// LeaveWaitlist handles removal requests for the user in the URL.
func (h *HTTPHandler) LeaveWaitlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	targetID := chi.URLParam(r, "id")
	if targetID == "" {
		h.respondError(w, http.StatusBadRequest, "User ID is required", nil)
		return
	}

	waitlist, err := h.waitlistService.Leave(r.Context(), actor, targetID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"waitlist": waitlist})
}

// ClearWaitlist handles moderator requests to drop the whole queue.
func (h *HTTPHandler) ClearWaitlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	if err := h.waitlistService.Clear(r.Context(), actor); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"waitlist": []string{}})
}

// LockWaitlist handles lock and unlock requests, optionally clearing the
// queue in the same step.
func (h *HTTPHandler) LockWaitlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req lockRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	state, err := h.waitlistService.SetLock(r.Context(), actor, req.Lock, req.Clear)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

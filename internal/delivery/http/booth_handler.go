package http

import (
	"net/http"
	"strconv"

	"github.com/mixgrove/booth-service/internal/domain"
)

type skipRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

type replaceRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type voteRequest struct {
	Direction int    `json:"direction" validate:"required,oneof=1 -1"`
	HistoryID string `json:"history_id"`
}

type favoriteRequest struct {
	PlaylistID string `json:"playlist_id" validate:"required"`
	HistoryID  string `json:"history_id" validate:"required"`
}

// GetBooth handles current booth state requests.
func (h *HTTPHandler) GetBooth(w http.ResponseWriter, r *http.Request) {
	state, err := h.boothService.GetBooth(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if state == nil {
		h.respondError(w, http.StatusNotFound, "Nobody is playing", nil)
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// AdvanceBooth is the hook the playback scheduler calls when the current
// media runs out.
func (h *HTTPHandler) AdvanceBooth(w http.ResponseWriter, r *http.Request) {
	session, err := h.boothService.Advance(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if session == nil {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{"playing": false})
		return
	}

	h.respondJSON(w, http.StatusOK, session)
}

// SkipBooth handles skip requests, for the current DJ or by a moderator.
func (h *HTTPHandler) SkipBooth(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req skipRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.boothService.Skip(r.Context(), actor, req.UserID, req.Reason); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"skipped": true})
}

// ReplaceBooth handles requests to swap the current DJ for another user.
func (h *HTTPHandler) ReplaceBooth(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req replaceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	waitlist, err := h.boothService.Replace(r.Context(), actor, req.UserID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"waitlist": waitlist})
}

// Vote handles upvote/downvote requests against the current session.
func (h *HTTPHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req voteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.boothService.Vote(r.Context(), actor, req.HistoryID, domain.VoteDirection(req.Direction))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"counted": true})
}

// Favorite handles requests to copy the played media into a playlist.
func (h *HTTPHandler) Favorite(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	var req favoriteRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	out, err := h.boothService.Favorite(r.Context(), actor, req.PlaylistID, req.HistoryID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, out)
}

// GetHistory handles paginated play history requests.
func (h *HTTPHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	out, err := h.boothService.History(r.Context(), page, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusOK, out)
}

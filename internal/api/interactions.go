package api

import (
	"net/http"
)

// ToggleLike handles POST /posts/{id}/likes
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	postID, userID, ok := h.toggleArgs(w, r)
	if !ok {
		return
	}

	result, err := h.interactions.ToggleLike(r.Context(), postID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ToggleRepost handles POST /posts/{id}/reposts
func (h *Handler) ToggleRepost(w http.ResponseWriter, r *http.Request) {
	postID, userID, ok := h.toggleArgs(w, r)
	if !ok {
		return
	}

	result, err := h.interactions.ToggleRepost(r.Context(), postID, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) toggleArgs(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	postID := r.PathValue("id")
	userID := getUserID(r)
	if postID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "x-user-id header is required")
		return "", "", false
	}

	if !h.checkRateLimit(w, r, "toggle", h.cfg.ToggleRateLimit) {
		return "", "", false
	}
	return postID, userID, true
}

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/alphabot-ai/storyx/internal/store"
)

type CreateUserRequest struct {
	ID            string `json:"id,omitempty"`
	WalletAddress string `json:"wallet_address"`
	Nickname      string `json:"nickname"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

type UpdateUserRequest struct {
	Nickname  *string `json:"nickname,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type UserResponse struct {
	User *store.User `json:"user"`
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if !h.checkRateLimit(w, r, "user", h.cfg.UserRateLimit) {
		return
	}

	var req CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user := &store.User{
		ID:            strings.TrimSpace(req.ID),
		WalletAddress: strings.TrimSpace(req.WalletAddress),
		Nickname:      strings.TrimSpace(req.Nickname),
	}
	if user.WalletAddress == "" || user.Nickname == "" {
		writeError(w, http.StatusBadRequest, "wallet_address and nickname are required")
		return
	}
	if avatar := strings.TrimSpace(req.AvatarURL); avatar != "" {
		user.AvatarURL = &avatar
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "User already exists (wallet_address or id conflict)")
			return
		}
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UserResponse{User: user})
}

// GetUser handles GET /users
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := getUserID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "x-user-id header is required")
		return
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

// UpdateUser handles PATCH /users
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := getUserID(r)
	if id == "" {
		writeError(w, http.StatusBadRequest, "x-user-id header is required")
		return
	}
	if !h.checkRateLimit(w, r, "user", h.cfg.UserRateLimit) {
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var update store.UserUpdate
	if req.Nickname != nil {
		nickname := strings.TrimSpace(*req.Nickname)
		if nickname == "" {
			writeError(w, http.StatusBadRequest, "nickname cannot be empty")
			return
		}
		update.Nickname = &nickname
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		update.AvatarURL = &avatar
	}
	if update.Empty() {
		writeError(w, http.StatusBadRequest, "No updatable fields provided")
		return
	}

	user, err := h.store.UpdateUser(r.Context(), id, update)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Conflicts with existing user (unique constraint)")
			return
		}
		h.fail(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{User: user})
}

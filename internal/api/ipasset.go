package api

import (
	"net/http"

	"github.com/alphabot-ai/storyx/internal/ipasset"
	"github.com/alphabot-ai/storyx/internal/store"
)

type RegisterIPAssetRequest struct {
	ipasset.Selection
	NFTMetadata *ipasset.NFTMetadata `json:"nft_metadata,omitempty"`
}

type RegisterIPAssetResponse struct {
	Post *store.Post `json:"post"`
	*ipasset.Result
}

// RegisterIPAsset handles POST /posts/{id}/ip-asset
func (h *Handler) RegisterIPAsset(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	if userID == "" {
		writeError(w, http.StatusBadRequest, "x-user-id header is required")
		return
	}

	var req RegisterIPAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if !h.checkRateLimit(w, r, "ip-asset", h.cfg.PostRateLimit) {
		return
	}

	post, err := h.graph.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if post.UserID != userID {
		writeError(w, http.StatusForbidden, "only the author can register a story")
		return
	}
	if post.IPAssetID != "" {
		writeError(w, http.StatusConflict, "story is already registered")
		return
	}

	owner, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if owner == nil {
		writeError(w, http.StatusForbidden, "User not found")
		return
	}

	var parent *store.Post
	if post.ParentID != nil {
		if parent, err = h.store.GetPost(r.Context(), *post.ParentID); err != nil {
			h.fail(w, r, err)
			return
		}
		if parent == nil {
			h.fail(w, r, ipasset.ErrParentNotRegistered)
			return
		}
	}

	result, err := h.ipAssets.Register(r.Context(), ipasset.Request{
		Post:      post,
		Parent:    parent,
		Owner:     owner,
		Selection: req.Selection,
		NFT:       req.NFTMetadata,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.store.GetPost(r.Context(), post.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RegisterIPAssetResponse{Post: updated, Result: result})
}

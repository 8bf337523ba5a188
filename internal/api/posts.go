package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alphabot-ai/storyx/internal/store"
)

type CreatePostRequest struct {
	Content  string  `json:"content"`
	Title    string  `json:"title,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

type PostResponse struct {
	Post *store.Post `json:"post"`
}

type PostDetailResponse struct {
	Post    *store.Post   `json:"post"`
	Depth   int           `json:"depth"`
	Lineage []*store.Post `json:"lineage"`
}

type ListPostsResponse struct {
	Posts []*store.Post `json:"posts"`
}

// ListPosts handles GET /posts
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts(r.Context(), store.ListOptions{
		Limit: parseLimit(r.URL.Query().Get("limit")),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListPostsResponse{Posts: posts})
}

// parseLimit falls back to the default page size for absent, malformed or
// non-positive values and clamps to the maximum.
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || limit <= 0 {
		return store.DefaultListLimit
	}
	return min(limit, store.MaxListLimit)
}

// GetPost handles GET /posts/{id}
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.graph.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	lineage, err := h.graph.Ancestors(r.Context(), post)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostDetailResponse{
		Post:    post,
		Depth:   len(lineage) + 1,
		Lineage: lineage,
	})
}

// ListChildren handles GET /posts/{id}/children
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	parent, err := h.graph.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	children, err := h.graph.Children(r.Context(), parent.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ListPostsResponse{Posts: children})
}

// CreatePost handles POST /posts
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	userID := getUserID(r)
	content := strings.TrimSpace(req.Content)
	if userID == "" || content == "" {
		writeError(w, http.StatusBadRequest, "x-user-id header and content are required")
		return
	}

	if !h.checkRateLimit(w, r, "post", h.cfg.PostRateLimit) {
		return
	}

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusForbidden, "User not found")
		return
	}

	post := &store.Post{
		UserID:   userID,
		Content:  content,
		Title:    strings.TrimSpace(req.Title),
		ImageURL: strings.TrimSpace(req.ImageURL),
	}

	if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
		parentID := strings.TrimSpace(*req.ParentID)
		parent, err := h.store.GetPost(r.Context(), parentID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if parent == nil {
			writeError(w, http.StatusNotFound, "Parent post not found")
			return
		}
		post.ParentID = &parentID
	}

	if err := h.store.CreatePost(r.Context(), post); err != nil {
		// The parent can vanish between the check and the insert.
		if errors.Is(err, store.ErrForeignKey) {
			writeError(w, http.StatusNotFound, "Parent post not found")
			return
		}
		h.fail(w, r, err)
		return
	}

	created, err := h.store.GetPost(r.Context(), post.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if created == nil {
		created = post
	}

	writeJSON(w, http.StatusCreated, PostResponse{Post: created})
}

package api

import (
	"net/http"

	"github.com/alphabot-ai/storyx/internal/metrics"
)

// Routes registers every endpoint and wraps the mux in the middleware chain.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Users are addressed by the x-user-id header
	mux.HandleFunc("POST /users", h.CreateUser)
	mux.HandleFunc("GET /users", h.GetUser)
	mux.HandleFunc("PATCH /users", h.UpdateUser)

	// Stories
	mux.HandleFunc("GET /posts", h.ListPosts)
	mux.HandleFunc("POST /posts", h.CreatePost)
	mux.HandleFunc("GET /posts/{id}", h.GetPost)
	mux.HandleFunc("GET /posts/{id}/children", h.ListChildren)

	// Toggles
	mux.HandleFunc("POST /posts/{id}/likes", h.ToggleLike)
	mux.HandleFunc("POST /posts/{id}/reposts", h.ToggleRepost)

	// External collaborators
	mux.HandleFunc("POST /posts/{id}/ip-asset", h.RegisterIPAsset)
	mux.HandleFunc("POST /stability/generate", h.GenerateImage)

	var handler http.Handler = mux
	handler = CORS(h.cfg.CORSOrigin, handler)
	handler = LogRequests(h.logger, handler)
	handler = Recover(h.logger, handler)
	return handler
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alphabot-ai/storyx/internal/config"
	"github.com/alphabot-ai/storyx/internal/httpclient"
	"github.com/alphabot-ai/storyx/internal/imagegen"
	"github.com/alphabot-ai/storyx/internal/interaction"
	"github.com/alphabot-ai/storyx/internal/ipasset"
	"github.com/alphabot-ai/storyx/internal/pinning"
	"github.com/alphabot-ai/storyx/internal/ratelimit"
	"github.com/alphabot-ai/storyx/internal/store"
	"github.com/alphabot-ai/storyx/internal/storygraph"
)

const userIDHeader = "x-user-id"

// Deps are the collaborators the API is built from.
type Deps struct {
	Store        store.Store
	Interactions *interaction.Service
	IPAssets     *ipasset.Service
	Images       imagegen.Generator
	Pinner       pinning.Pinner
	Limiter      ratelimit.Limiter
	Config       *config.Config
	Logger       *slog.Logger
}

// Handler holds dependencies for API handlers
type Handler struct {
	store        store.Store
	graph        *storygraph.Graph
	interactions *interaction.Service
	ipAssets     *ipasset.Service
	images       imagegen.Generator
	pinner       pinning.Pinner
	limiter      ratelimit.Limiter
	cfg          *config.Config
	logger       *slog.Logger
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		store:        d.Store,
		graph:        storygraph.New(d.Store),
		interactions: d.Interactions,
		ipAssets:     d.IPAssets,
		images:       d.Images,
		pinner:       d.Pinner,
		limiter:      d.Limiter,
		cfg:          d.Config,
		logger:       d.Logger.With("component", "api"),
	}
}

// Response helpers

type ErrorResponse struct {
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeRateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:      "rate limit exceeded",
		RetryAfter: retryAfter,
	})
}

// fail maps an error onto the narrowest status that describes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *interaction.NotFoundError
	var upstream *httpclient.UpstreamError

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.Is(err, storygraph.ErrNotFound):
		writeError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, ipasset.ErrInvalidLicense):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ipasset.ErrParentNotRegistered), errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &upstream):
		h.logger.Warn("upstream error", "service", upstream.Service, "status", upstream.Status, "path", r.URL.Path)
		writeJSON(w, upstream.Status, ErrorResponse{
			Error:  upstream.Service + "_error",
			Detail: upstream.Detail,
		})
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Request helpers

func getUserID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(userIDHeader))
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// decodeJSON reads an optional JSON body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// checkRateLimit writes a 429 and returns false when the caller is over budget.
func (h *Handler) checkRateLimit(w http.ResponseWriter, r *http.Request, action string, limit int) bool {
	if h.limiter == nil {
		return true
	}

	key := action + ":" + getClientIP(r)
	if userID := getUserID(r); userID != "" {
		key += ":" + userID
	}

	rule := ratelimit.Rule{Limit: limit, Window: h.cfg.RateLimitWindow}
	allowed, retryAfter := h.limiter.Allow(key, rule)
	if !rule.Disabled() {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(h.limiter.Remaining(key, rule)))
	}
	if !allowed {
		writeRateLimited(w, int(retryAfter.Seconds())+1)
		return false
	}
	return true
}

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
	Title  string `json:"title,omitempty"`
	Pin    bool   `json:"pin,omitempty"`
}

type GenerateImageResponse struct {
	ImageURL string `json:"image_url"`
	CID      string `json:"cid,omitempty"`
	IPFSURL  string `json:"ipfs_url,omitempty"`
}

// GenerateImage handles POST /stability/generate
func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var req GenerateImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Pin && !h.pinner.Configured() {
		writeError(w, http.StatusInternalServerError, "PINATA_JWT not set")
		return
	}

	if !h.checkRateLimit(w, r, "image", h.cfg.PostRateLimit) {
		return
	}

	img, err := h.images.Generate(r.Context(), prompt)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := GenerateImageResponse{ImageURL: img.DataURI()}

	if req.Pin {
		name := fmt.Sprintf("story-cover-%s-%d.jpg", coverSlug(req.Title), time.Now().UnixMilli())
		cid, err := h.pinner.PinFile(r.Context(), name, img.Data)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp.CID = cid
		resp.IPFSURL = h.pinner.GatewayURL(cid)
	}

	writeJSON(w, http.StatusOK, resp)
}

func coverSlug(title string) string {
	slug := strings.Join(strings.Fields(strings.ToLower(title)), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}

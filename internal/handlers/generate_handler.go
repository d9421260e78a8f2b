package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/audexdev/IdeaSpark/internal/gate"
	"github.com/audexdev/IdeaSpark/internal/generate"
	"github.com/audexdev/IdeaSpark/internal/history"
	"github.com/audexdev/IdeaSpark/internal/identity"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

// HeaderXDeviceID carries the device hash when the body omits it.
const HeaderXDeviceID = "X-Device-Id"

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	Category string `json:"category"`
	DeviceID string `json:"deviceId,omitempty"`
	Lang     string `json:"lang,omitempty"`
}

// RateLimitResponse is the 429 body.
type RateLimitResponse struct {
	Error     string `json:"error"`
	Remaining int    `json:"remaining"`
}

// GenerateHandler handles rate-gated idea generation.
type GenerateHandler struct {
	gate    *gate.Gate
	service generate.Service
	history history.Repository // nil when history is not configured
	log     *logger.Logger
}

// NewGenerateHandler creates a GenerateHandler. The history repository
// may be nil.
func NewGenerateHandler(g *gate.Gate, svc generate.Service, repo history.Repository, log *logger.Logger) *GenerateHandler {
	return &GenerateHandler{
		gate:    g,
		service: svc,
		history: repo,
		log:     log.With("component", "generate_handler"),
	}
}

// Generate handles POST /api/v1/generate.
//
// The gate decides first; the session cookie (if one was minted) is
// attached before any body is written, on every outcome. Store failures
// fail closed with a 500 that is distinct from the 429 deny, and
// downstream failures get their own error body so the UI can tell them
// apart from rate limiting.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request"})
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request"})
		return
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = r.Header.Get(HeaderXDeviceID)
	}

	decision := h.gate.Check(r.Context(), r, deviceID)
	if decision.SetCookie != nil {
		http.SetCookie(w, decision.SetCookie)
	}

	switch decision.Outcome {
	case gate.OutcomeError:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error."})
		return
	case gate.OutcomeDeny:
		w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterMinutes*60))
		writeJSON(w, http.StatusTooManyRequests, RateLimitResponse{
			Error:     "rate_limit",
			Remaining: decision.RetryAfterMinutes,
		})
		return
	}

	idea, err := h.service.Generate(r.Context(), generate.Request{
		Category: req.Category,
		Lang:     req.Lang,
	})
	if err != nil {
		h.log.Warn("generation failed", "error", err.Error())
		status := http.StatusBadGateway
		if errors.Is(err, generate.ErrBusy) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, ErrorResponse{Error: "generation_failed"})
		return
	}

	h.saveHistory(r, deviceID, idea)
	writeJSON(w, http.StatusOK, idea)
}

// saveHistory records the idea for the device, best effort. Only valid
// device hashes get history; failures are logged and swallowed.
func (h *GenerateHandler) saveHistory(r *http.Request, deviceID string, idea *generate.Idea) {
	if h.history == nil {
		return
	}
	hash, ok := identity.NormalizeDeviceID(deviceID)
	if !ok {
		return
	}

	entry := &history.Entry{
		DeviceHash: hash,
		Category:   idea.Category,
		IdeaText:   idea.Text,
		Lang:       idea.Lang,
	}
	if err := h.history.Save(r.Context(), entry); err != nil {
		h.log.Warn("history save failed", "error", err.Error())
	}
}

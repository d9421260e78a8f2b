package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/audexdev/IdeaSpark/internal/history"
	"github.com/audexdev/IdeaSpark/internal/identity"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

// HistoryListResponse is the body of GET /api/v1/history.
type HistoryListResponse struct {
	Items []history.Entry `json:"items"`
}

// BookmarkResponse is the body of the bookmark toggle endpoint.
type BookmarkResponse struct {
	ID         int64 `json:"id"`
	Bookmarked bool  `json:"bookmarked"`
}

// HistoryHandler serves a device's generation history.
type HistoryHandler struct {
	repo history.Repository
	log  *logger.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(repo history.Repository, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, log: log.With("component", "history_handler")}
}

// deviceHash extracts and validates the device hash from the request.
func deviceHash(r *http.Request) (string, bool) {
	id := r.URL.Query().Get("deviceId")
	if id == "" {
		id = r.Header.Get(HeaderXDeviceID)
	}
	return identity.NormalizeDeviceID(id)
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	hash, ok := deviceHash(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_device_id"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	entries, err := h.repo.List(r.Context(), hash, limit)
	if err != nil {
		h.log.Error("history list failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error."})
		return
	}

	writeJSON(w, http.StatusOK, HistoryListResponse{Items: entries})
}

// ToggleBookmark handles POST /api/v1/history/{id}/bookmark.
func (h *HistoryHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	hash, ok := deviceHash(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_device_id"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_id"})
		return
	}

	bookmarked, err := h.repo.ToggleBookmark(r.Context(), id, hash)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found"})
			return
		}
		h.log.Error("bookmark toggle failed", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error."})
		return
	}

	writeJSON(w, http.StatusOK, BookmarkResponse{ID: id, Bookmarked: bookmarked})
}

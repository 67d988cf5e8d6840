package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/V4T54L/alert-triage/internal/usecase"
)

// AdminHandler handles HTTP requests for decision stream administration.
type AdminHandler struct {
	uc     *usecase.AdminStreamUseCase
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(uc *usecase.AdminStreamUseCase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: logger}
}

// HealthCheck is a simple health check endpoint.
func (h *AdminHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RecentDecisions returns the newest published decisions.
// GET /admin/decisions?count={count}
func (h *AdminHandler) RecentDecisions(w http.ResponseWriter, r *http.Request) {
	var count int64
	if countStr := r.URL.Query().Get("count"); countStr != "" {
		var err error
		count, err = strconv.ParseInt(countStr, 10, 64)
		if err != nil {
			http.Error(w, "invalid count parameter", http.StatusBadRequest)
			return
		}
	}

	decisions, err := h.uc.RecentDecisions(r.Context(), count)
	if err != nil {
		h.fail(w, "failed to read recent decisions", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, decisions)
}

// GetGroupInfo handles requests to get consumer group info.
// GET /admin/decisions/groups
func (h *AdminHandler) GetGroupInfo(w http.ResponseWriter, r *http.Request) {
	groups, err := h.uc.GetGroupInfo(r.Context())
	if err != nil {
		h.fail(w, "failed to get group info", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, groups)
}

// GetPendingSummary handles requests to get a summary of pending messages.
// GET /admin/decisions/groups/{groupName}/pending
func (h *AdminHandler) GetPendingSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.uc.GetPendingSummary(r.Context(), r.PathValue("groupName"))
	if err != nil {
		h.fail(w, "failed to get pending summary", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}

// TrimStream handles requests to trim the decision stream.
// POST /admin/decisions/trim
func (h *AdminHandler) TrimStream(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		MaxLen int64 `json:"maxlen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	trimmedCount, err := h.uc.TrimStream(r.Context(), payload.MaxLen)
	if err != nil {
		h.fail(w, "failed to trim stream", err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]int64{"trimmed": trimmedCount})
}

func (h *AdminHandler) fail(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, usecase.ErrInvalidArgument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error(msg, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *AdminHandler) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	respondWithJSON(w, h.logger, code, payload)
}

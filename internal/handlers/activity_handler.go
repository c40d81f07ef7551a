package handlers

import (
	"log/slog"
	"net/http"

	"familytree/internal/service"
)

// ActivityHandler serves a family's audit trail
type ActivityHandler struct {
	base
	activity *service.ActivityService
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activity *service.ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{base: newBase(logger, "activity"), activity: activity}
}

// ListActivity lists recent activity, newest first, bounded by ?limit=
func (h *ActivityHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	logs, err := h.activity.ListActivity(r.Context(), userID, familyID, n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, logs)
}

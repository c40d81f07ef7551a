package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"familytree/internal/genealogy"
	"familytree/internal/logging"
	"familytree/internal/service"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func respondWithError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, userMsg, logMsg string, err error) {
	requestID := RequestIDFromContext(r.Context())
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, logMsg,
			slog.String("request_id", requestID),
			slog.Int("status", status),
			logging.Error(err))
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg, RequestID: requestID})
}

// respondWithServiceError maps domain and service errors to HTTP statuses
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, msg := statusFor(err)
	if status < http.StatusInternalServerError {
		// Client errors are expected traffic and carry their own message.
		respondWithJSON(w, status, errorResponse{Error: msg, RequestID: RequestIDFromContext(r.Context())})
		return
	}
	respondWithError(w, r, logger, status, msg, "request failed", err)
}

func statusFor(err error) (int, string) {
	switch {
	case genealogy.IsViolation(err):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, genealogy.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrFamilyNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrNotFamilyMember),
		errors.Is(err, service.ErrInsufficientRole),
		errors.Is(err, service.ErrOwnerCannotLeave),
		errors.Is(err, service.ErrCannotChangeOwner):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrAlreadyMember):
		return http.StatusConflict, err.Error()
	case errors.Is(err, genealogy.ErrInvalidRelationshipType),
		errors.Is(err, service.ErrInvalidFamilyCode),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidFamily),
		errors.Is(err, service.ErrInvalidPerson):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, genealogy.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, ErrServiceUnavailable
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}

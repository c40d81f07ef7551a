package handlers

import (
	"log/slog"
	"net/http"
)

// base carries what every API handler needs to answer a request
type base struct {
	logger *slog.Logger
}

func newBase(logger *slog.Logger, scope string) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{logger: logger.With(slog.String("handler", scope))}
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	respondWithServiceError(w, r, b.logger, err)
}

func (b base) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	respondWithError(w, r, b.logger, http.StatusBadRequest, err.Error(), "", nil)
}

// currentUser returns the authenticated caller. Routes behind RequireAuth
// always have one.
func (b base) currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, r, b.logger, http.StatusUnauthorized, ErrUnauthorized, "", nil)
	}
	return userID, ok
}

// familyScope resolves the caller and the {familyID} path value
func (b base) familyScope(w http.ResponseWriter, r *http.Request) (userID, familyID int64, ok bool) {
	if userID, ok = b.currentUser(w, r); !ok {
		return 0, 0, false
	}
	familyID, err := pathID(r, "familyID")
	if err != nil {
		b.badRequest(w, r, err)
		return 0, 0, false
	}
	return userID, familyID, true
}

package handlers

import (
	"log/slog"
	"net/http"

	"familytree/internal/service"
)

// RelationshipHandler serves relationship routes
type RelationshipHandler struct {
	base
	relationships *service.RelationshipService
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(relationships *service.RelationshipService, logger *slog.Logger) *RelationshipHandler {
	return &RelationshipHandler{base: newBase(logger, "relationship"), relationships: relationships}
}

// ListForPerson shows a person's relatives and edges
func (h *RelationshipHandler) ListForPerson(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	personID, err := pathID(r, "personID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	relations, err := h.relationships.PersonRelations(r.Context(), userID, familyID, personID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, relations)
}

// CreateRelationship links the path person to related_person_id
func (h *RelationshipHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	personID, err := pathID(r, "personID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	var req createRelationshipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	rel, err := h.relationships.CreateRelationship(r.Context(), userID, familyID, personID, req.RelatedPersonID, req.Type)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, rel)
}

// DeleteRelationship removes a relationship and its reciprocal edges
func (h *RelationshipHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	relationshipID, err := pathID(r, "relationshipID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.relationships.DeleteRelationship(r.Context(), userID, familyID, relationshipID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

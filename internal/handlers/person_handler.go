package handlers

import (
	"log/slog"
	"net/http"

	"familytree/internal/service"
)

// PersonHandler serves person routes of a family
type PersonHandler struct {
	base
	persons *service.PersonService
}

// NewPersonHandler creates a new person handler
func NewPersonHandler(persons *service.PersonService, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{base: newBase(logger, "person"), persons: persons}
}

// personScope resolves caller, family and {personID}
func (h *PersonHandler) personScope(w http.ResponseWriter, r *http.Request) (userID, familyID, personID int64, ok bool) {
	if userID, familyID, ok = h.familyScope(w, r); !ok {
		return 0, 0, 0, false
	}
	personID, err := pathID(r, "personID")
	if err != nil {
		h.badRequest(w, r, err)
		return 0, 0, 0, false
	}
	return userID, familyID, personID, true
}

// ListPersons lists every person of a family
func (h *PersonHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	persons, err := h.persons.ListPersons(r.Context(), userID, familyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, persons)
}

// CreatePerson adds a person to a family
func (h *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	person, err := h.persons.CreatePerson(r.Context(), userID, familyID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, person)
}

// GetPerson shows one person
func (h *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	userID, familyID, personID, ok := h.personScope(w, r)
	if !ok {
		return
	}
	person, err := h.persons.GetPerson(r.Context(), userID, familyID, personID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, person)
}

// UpdatePerson replaces a person's editable fields
func (h *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	userID, familyID, personID, ok := h.personScope(w, r)
	if !ok {
		return
	}
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	person, err := h.persons.UpdatePerson(r.Context(), userID, familyID, personID, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, person)
}

// DeletePerson removes a person and its relationships
func (h *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	userID, familyID, personID, ok := h.personScope(w, r)
	if !ok {
		return
	}
	if err := h.persons.DeletePerson(r.Context(), userID, familyID, personID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchPersons filters a family's persons by query parameters
func (h *PersonHandler) SearchPersons(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	search, err := personSearch(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	persons, err := h.persons.SearchPersons(r.Context(), userID, familyID, search)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, persons)
}

type suggestion struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Autocomplete suggests persons for the q parameter
func (h *PersonHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	persons, err := h.persons.Autocomplete(r.Context(), userID, familyID, r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	suggestions := make([]suggestion, 0, len(persons))
	for _, p := range persons {
		suggestions = append(suggestions, suggestion{ID: p.ID, Name: p.FullName()})
	}
	respondWithJSON(w, http.StatusOK, suggestions)
}

// SpouseCandidates lists who may be recorded as the person's spouse
func (h *PersonHandler) SpouseCandidates(w http.ResponseWriter, r *http.Request) {
	userID, familyID, personID, ok := h.personScope(w, r)
	if !ok {
		return
	}
	persons, err := h.persons.SpouseCandidates(r.Context(), userID, familyID, personID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, persons)
}

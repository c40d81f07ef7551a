package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"familytree/internal/models"
	"familytree/internal/service"
)

// TreeHandler serves path, closure and tree queries
type TreeHandler struct {
	base
	trees *service.TreeService
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(trees *service.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{base: newBase(logger, "tree"), trees: trees}
}

type pathResponse struct {
	Found   bool            `json:"found"`
	Length  int             `json:"length"`
	Persons []models.Person `json:"persons"`
}

// Path finds the shortest chain of relatives between ?from= and ?to=
func (h *TreeHandler) Path(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	fromID, err := requiredQueryID(r, "from")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	toID, err := requiredQueryID(r, "to")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	path, err := h.trees.Path(r.Context(), userID, familyID, fromID, toID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if path == nil {
		path = []models.Person{}
	}
	respondWithJSON(w, http.StatusOK, pathResponse{Found: len(path) > 0, Length: len(path), Persons: path})
}

// Ancestors lists every ancestor of the path person
func (h *TreeHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	h.closure(w, r, h.trees.Ancestors)
}

// Descendants lists every descendant of the path person
func (h *TreeHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	h.closure(w, r, h.trees.Descendants)
}

func (h *TreeHandler) closure(w http.ResponseWriter, r *http.Request, query func(ctx context.Context, userID, familyID, personID int64) ([]models.Person, error)) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	personID, err := pathID(r, "personID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	persons, err := query(r.Context(), userID, familyID, personID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, persons)
}

// Tree renders descendants of the path person. depth defaults to the
// configured tree depth; show_deceased defaults to true.
func (h *TreeHandler) Tree(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	personID, err := pathID(r, "personID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	depth, err := queryInt(r, "depth")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	showDeceased, err := queryBool(r, "show_deceased")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	includeDeceased := showDeceased == nil || *showDeceased

	tree, err := h.trees.Tree(r.Context(), userID, familyID, personID, depth, includeDeceased)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, tree)
}

func requiredQueryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s: %s", ErrInvalidQueryParameter, name)
	}
	return id, nil
}

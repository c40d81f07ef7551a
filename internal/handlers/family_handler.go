package handlers

import (
	"log/slog"
	"net/http"

	"familytree/internal/service"
)

// FamilyHandler serves family and membership routes
type FamilyHandler struct {
	base
	families *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(families *service.FamilyService, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{base: newBase(logger, "family"), families: families}
}

// CreateFamily creates a family owned by the caller
func (h *FamilyHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req createFamilyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	family, err := h.families.CreateFamily(r.Context(), req.Name, req.Description, userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, family)
}

// ListFamilies lists the caller's families
func (h *FamilyHandler) ListFamilies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	families, err := h.families.GetUserFamilies(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, families)
}

// GetFamily shows one family
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	family, err := h.families.GetFamily(r.Context(), userID, familyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, family)
}

// JoinFamily joins the family named by a join code
func (h *FamilyHandler) JoinFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	var req joinFamilyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	family, err := h.families.JoinFamily(r.Context(), userID, req.Code)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, family)
}

// LeaveFamily removes the caller from a family
func (h *FamilyHandler) LeaveFamily(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	if err := h.families.LeaveFamily(r.Context(), userID, familyID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers lists a family's members and their roles
func (h *FamilyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	members, err := h.families.GetMembers(r.Context(), userID, familyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, members)
}

// ChangeMemberRole sets another member's role
func (h *FamilyHandler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	userID, familyID, ok := h.familyScope(w, r)
	if !ok {
		return
	}
	targetID, err := pathID(r, "userID")
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	var req changeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.families.ChangeMemberRole(r.Context(), userID, familyID, targetID, req.Role); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

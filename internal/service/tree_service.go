package service

import (
	"context"
	"time"

	"familytree/internal/config"
	"familytree/internal/genealogy"
	"familytree/internal/metrics"
	"familytree/internal/models"
)

// TreeService answers path, closure and tree queries for family members
type TreeService struct {
	families *FamilyService
	query    *genealogy.Query
	limits   config.TreeConfig
}

// NewTreeService creates a new tree service
func NewTreeService(families *FamilyService, query *genealogy.Query, limits config.TreeConfig) *TreeService {
	return &TreeService{families: families, query: query, limits: limits}
}

// Path returns the shortest chain of relatives from one person to another,
// or nil when they are not connected
func (s *TreeService) Path(ctx context.Context, userID, familyID, fromID, toID int64) ([]models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	defer metrics.ObserveQuery("path", time.Now())
	return s.query.Path(ctx, familyID, fromID, toID)
}

// Ancestors returns every ancestor of a person
func (s *TreeService) Ancestors(ctx context.Context, userID, familyID, personID int64) ([]models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	defer metrics.ObserveQuery("ancestors", time.Now())
	return s.query.Ancestors(ctx, familyID, personID)
}

// Descendants returns every descendant of a person
func (s *TreeService) Descendants(ctx context.Context, userID, familyID, personID int64) ([]models.Person, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	defer metrics.ObserveQuery("descendants", time.Now())
	return s.query.Descendants(ctx, familyID, personID)
}

// Tree renders the descendants of rootID. A nil depth selects the configured
// default and larger depths are capped at the configured maximum.
func (s *TreeService) Tree(ctx context.Context, userID, familyID, rootID int64, depth *int, includeDeceased bool) (*genealogy.TreeNode, error) {
	if _, err := s.families.Authorize(ctx, familyID, userID, models.RoleMember); err != nil {
		return nil, err
	}
	defer metrics.ObserveQuery("tree", time.Now())
	return s.query.BuildTree(ctx, familyID, rootID, genealogy.TreeOptions{
		MaxDepth:        s.treeDepth(depth),
		IncludeDeceased: includeDeceased,
	})
}

func (s *TreeService) treeDepth(depth *int) int {
	if depth == nil {
		return s.limits.DefaultDepth
	}
	if *depth > s.limits.MaxDepth {
		return s.limits.MaxDepth
	}
	return *depth
}

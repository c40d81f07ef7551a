package models

import "time"

// Activity actions
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Activity targets
const (
	TargetPerson       = "person"
	TargetRelationship = "relationship"
	TargetMember       = "member"
)

// ActivityLog is one audit entry for a family
type ActivityLog struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Action      string    `json:"action"`
	TargetType  string    `json:"target_type"`
	TargetID    int64     `json:"target_id"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

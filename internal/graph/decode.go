package graph

import (
	"time"

	"familytree/internal/models"
)

func decodeRelationship(familyID int64, rec Record) models.Relationship {
	rel := models.Relationship{
		ID:              toInt64(rec["id"]),
		FamilyID:        familyID,
		PersonID:        toInt64(rec["person_id"]),
		RelatedPersonID: toInt64(rec["related_person_id"]),
		Type:            models.RelationshipType(toString(rec["type"])),
	}
	if rec["created_by"] != nil {
		createdBy := toInt64(rec["created_by"])
		rel.CreatedBy = &createdBy
	}
	if t := toTimePtr(rec["created_at"]); t != nil {
		rel.CreatedAt = *t
	}
	return rel
}

func deletedCount(res Result) int64 {
	if len(res.Records) == 0 {
		return 0
	}
	return toInt64(res.Records[0]["deleted"])
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		return nil
	default:
		return nil
	}
}

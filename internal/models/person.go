package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage and wire format for calendar dates
const DateLayout = "2006-01-02"

// Gender of a person record
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// ParseGender validates a gender value
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMale, GenderFemale, GenderOther:
		return g, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// Person is a single individual recorded in a family tree
type Person struct {
	ID         int64      `json:"id" yaml:"id"`
	FamilyID   int64      `json:"family_id" yaml:"family_id"`
	FirstName  string     `json:"first_name" yaml:"first_name"`
	MiddleName string     `json:"middle_name,omitempty" yaml:"middle_name,omitempty"`
	LastName   string     `json:"last_name" yaml:"last_name"`
	Gender     Gender     `json:"gender" yaml:"gender"`
	BirthDate  *time.Time `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	BirthPlace string     `json:"birth_place,omitempty" yaml:"birth_place,omitempty"`
	DeathDate  *time.Time `json:"death_date,omitempty" yaml:"death_date,omitempty"`
	DeathPlace string     `json:"death_place,omitempty" yaml:"death_place,omitempty"`
	IsLiving   bool       `json:"is_living" yaml:"is_living"`
	Notes      string     `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedBy  *int64     `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" yaml:"updated_at"`
}

// FullName joins the name parts, skipping an empty middle name
func (p Person) FullName() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

func (p Person) String() string {
	return p.FullName()
}

// Age returns the age in whole years at the death date, or at now for the
// living. ok is false when the birth date is unknown.
func (p Person) Age(now time.Time) (age int, ok bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	until := now
	if p.DeathDate != nil {
		until = *p.DeathDate
	}
	born := *p.BirthDate
	age = until.Year() - born.Year()
	if until.Month() < born.Month() || (until.Month() == born.Month() && until.Day() < born.Day()) {
		age--
	}
	return age, true
}

// ParseDate parses an optional YYYY-MM-DD value
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &t, nil
}

// FormatDate renders an optional date, empty when unknown
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

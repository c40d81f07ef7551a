package repository

import "errors"

var (
	// ErrNotFound is returned by updates and deletes that match no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateCode is returned when a family join code is already taken
	ErrDuplicateCode = errors.New("family code already in use")

	// ErrDuplicateMember is returned when the user already belongs to the family
	ErrDuplicateMember = errors.New("user is already a family member")
)

package service

import "errors"

var (
	ErrFamilyNotFound     = errors.New("family not found")
	ErrNotFamilyMember    = errors.New("user is not a member of this family")
	ErrInsufficientRole   = errors.New("insufficient role for this action")
	ErrInvalidFamilyCode  = errors.New("invalid family code")
	ErrAlreadyMember      = errors.New("user is already a member of this family")
	ErrOwnerCannotLeave   = errors.New("the family owner cannot leave the family")
	ErrCannotChangeOwner  = errors.New("the owner's role cannot be changed")
	ErrInvalidRole        = errors.New("role must be admin or member")
	ErrInvalidFamily      = errors.New("invalid family")
	ErrInvalidPerson      = errors.New("invalid person")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrCodeGenerationFail = errors.New("failed to generate a unique family code")
)

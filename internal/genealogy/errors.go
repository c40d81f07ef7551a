package genealogy

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing person, relationship or family scope.
	ErrNotFound = errors.New("not found")

	// ErrViolation is wrapped by every genealogical validity rejection.
	ErrViolation = errors.New("relationship rejected")

	ErrSelfRelationship = fmt.Errorf("%w: a person cannot be related to themselves", ErrViolation)
	ErrCrossFamily      = fmt.Errorf("%w: both persons must belong to the same family", ErrViolation)
	ErrCircularAncestry = fmt.Errorf("%w: circular ancestry", ErrViolation)
	ErrAgeOrder         = fmt.Errorf("%w: parent must be older than child", ErrViolation)

	ErrInvalidRelationshipType = errors.New("invalid relationship type")

	// ErrDuplicateEdge is returned by stores when an insert hits the unique
	// (person, related person, type) key. The Mutator absorbs it.
	ErrDuplicateEdge = errors.New("relationship already exists")

	// ErrStoreUnavailable wraps failures of the underlying store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// IsViolation reports whether err is a validation rejection
func IsViolation(err error) bool {
	return errors.Is(err, ErrViolation)
}

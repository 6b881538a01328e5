package listing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no listing row exists for the identifier.
	ErrNotFound = errors.New("listing: not found")
	// ErrImageNotFound is returned when no image row matches.
	ErrImageNotFound = errors.New("listing: image not found")
	// ErrListingUnavailable signals an operation against a listing that is
	// not publicly visible. Shared with the inquiry and favorite packages.
	ErrListingUnavailable = errors.New("listing: not publicly visible")
	// ErrNotEditable is returned for edits against sold listings.
	ErrNotEditable = errors.New("listing: sold listings cannot be edited")
)

// ValidationError reports the mandatory fields that failed the
// submit-for-review completeness check. The listing keeps its status.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "listing: invalid fields: " + strings.Join(e.Fields, ", ")
}

// StateTransitionError reports an illegal lifecycle move, e.g. approving
// a draft or anything out of sold.
type StateTransitionError struct {
	From Status
	To   Status
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("listing: invalid transition %s -> %s", e.From, e.To)
}

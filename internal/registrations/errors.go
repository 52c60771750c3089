package registrations

import (
	"errors"
	"fmt"

	"github.com/gdg-soe/ticketing/internal/models"
)

var (
	// ErrNotFound indicates no registration matches the lookup.
	ErrNotFound = errors.New("registration not found")
	// ErrCapacityReached indicates the registration limit is already met.
	ErrCapacityReached = errors.New("registration limit reached")
	// ErrDuplicateEmail indicates the leader email already has a registration.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrTicketIDTaken indicates a generated ticket id collided with an
	// existing one; the caller regenerates and retries.
	ErrTicketIDTaken = errors.New("ticket id already exists")
)

// ValidationError reports a missing or malformed profile field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AlreadyCheckedInError reports a check-in attempt on a ticket that was
// already used. It carries the existing registration so the scanner can
// show who checked in and when.
type AlreadyCheckedInError struct {
	Registration *models.Registration
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("ticket %s already checked in", e.Registration.TicketID)
}

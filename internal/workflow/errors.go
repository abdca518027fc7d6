package workflow

import (
	"errors"
	"fmt"

	"github.com/rahul/whisper/internal/relay"
)

var (
	// ErrValidation is a length or format violation; the user is re-prompted in place.
	ErrValidation = errors.New("validation failed")
	// ErrMembership means the chosen group or user is not eligible.
	ErrMembership = errors.New("membership check failed")
	// ErrOffScript is an event that does not fit the current state.
	ErrOffScript = errors.New("off-script input")
	// ErrDelivery means the notification could not be posted; the session is kept.
	ErrDelivery = relay.ErrDelivery
	// ErrCollaborator is a lookup or store failure. It never counts as success.
	ErrCollaborator = errors.New("collaborator unavailable")
)

var (
	ErrBotNotMember  = fmt.Errorf("%w: bot is not in the group", ErrMembership)
	ErrUserNotMember = fmt.Errorf("%w: user is not in the group", ErrMembership)
)

// LimitError reports text over its length limit.
type LimitError struct {
	Field string
	Max   int
	Got   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s is %d characters, limit is %d", e.Field, e.Got, e.Max)
}

func (e *LimitError) Unwrap() error { return ErrValidation }

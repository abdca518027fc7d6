package workflow

import "github.com/rahul/whisper/internal/relay"

// Actor identifies who sent an event and where to answer.
type Actor struct {
	UserID      int64
	ChatID      int64
	DisplayName string
}

func (a Actor) actor() Actor { return a }

// Event is an inbound step of the conversation. The concrete types below are
// the only implementations.
type Event interface {
	actor() Actor
}

// Start begins a new whisper, replacing any session in progress.
type Start struct{ Actor }

// GroupSelected carries the chat picked with the request-group keyboard.
type GroupSelected struct {
	Actor
	GroupID int64
}

// UsersSelected carries the users picked with the request-user keyboard.
// Only the last one is used.
type UsersSelected struct {
	Actor
	UserIDs []int64
}

// Text is any other free text.
type Text struct {
	Actor
	Text string
}

// SkipDescription is the exact SkipCommand literal.
type SkipDescription struct{ Actor }

// Confirm is the answer on the summary's yes/no keyboard.
type Confirm struct {
	Actor
	Accept bool
}

// Cancel abandons the session from any state.
type Cancel struct{ Actor }

// ReadWhisper is a /start carrying a reveal token, sent when a recipient
// follows the link offered for a whisper too long for a pop-up. It never
// touches the session.
type ReadWhisper struct {
	Actor
	Request relay.RevealRequest
}

// Unsupported is a message the bot cannot read (stickers, photos...). No state
// accepts it.
type Unsupported struct{ Actor }

const (
	StartCommand  = "start"
	SkipCommand   = "/no_description"
	CancelCommand = "/cancel"
	// CancelButton is the label of the reply-keyboard cancel button; the
	// button sends its label as plain text.
	CancelButton = "Cancel"
)

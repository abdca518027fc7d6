// Package session holds the per-user state of the whisper workflow and the
// stores it is persisted in.
package session

import "time"

// State is the step a session is waiting on.
type State string

const (
	AwaitingGroup        State = "awaiting_group"
	AwaitingRecipient    State = "awaiting_recipient"
	AwaitingMessage      State = "awaiting_message"
	AwaitingDescription  State = "awaiting_description"
	AwaitingConfirmation State = "awaiting_confirmation"
)

// NoDescription is stored when the composer skips the description step.
const NoDescription = "Nothing"

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case AwaitingGroup, AwaitingRecipient, AwaitingMessage, AwaitingDescription, AwaitingConfirmation:
		return true
	}
	return false
}

// Session is one user's in-progress whisper.
//
// Fields are filled strictly in step order; a field belonging to a later
// step is always empty while State is still on an earlier one.
type Session struct {
	UserID int64 `json:"user_id"`
	ChatID int64 `json:"chat_id"`
	State  State `json:"state"`

	GroupID     int64  `json:"target_group_id,omitempty"`
	GroupTitle  string `json:"target_group_title,omitempty"`
	GroupHandle string `json:"target_group_handle,omitempty"`

	TargetUserID   int64  `json:"target_user_id,omitempty"`
	TargetUserName string `json:"target_user_display_name,omitempty"`
	ComposerName   string `json:"composer_display_name,omitempty"`

	Message     string `json:"message_body,omitempty"`
	Description string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a session for userID waiting on the group step.
func New(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  AwaitingGroup,
	}
}

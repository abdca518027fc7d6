package workflow

// Action is an outbound effect for the transport to carry out.
type Action interface {
	isAction()
}

// SendText sends Text to ChatID with an optional keyboard.
type SendText struct {
	ChatID   int64
	Text     string
	Keyboard Keyboard
}

// Disclose answers a button press privately and only to its presser. With
// StartPayload set, the answer instead opens a private chat with the bot that
// starts with that payload.
type Disclose struct {
	CallbackID   string
	Text         string
	StartPayload string
}

func (SendText) isAction() {}
func (Disclose) isAction() {}

type KeyboardKind int

const (
	KeyboardNone KeyboardKind = iota
	// KeyboardRequestGroup asks the user to share one of their groups.
	KeyboardRequestGroup
	// KeyboardRequestUser asks the user to share a user.
	KeyboardRequestUser
	KeyboardCancel
	// KeyboardConfirm is the inline yes/no under the summary.
	KeyboardConfirm
	KeyboardRemove
	// KeyboardLink is an inline button opening URL.
	KeyboardLink
)

type Keyboard struct {
	Kind KeyboardKind
	URL  string
}

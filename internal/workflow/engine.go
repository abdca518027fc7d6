// Package workflow is the conversation state machine that walks a user from
// /start to a delivered whisper.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rahul/whisper/internal/observability"
	"github.com/rahul/whisper/internal/relay"
	"github.com/rahul/whisper/internal/session"
	"github.com/rahul/whisper/internal/store"
	"github.com/rahul/whisper/internal/validate"
)

// GroupDirectory answers questions about groups the bot knows.
type GroupDirectory interface {
	IsBotMember(ctx context.Context, chatID int64) (bool, error)
	// Group returns store.ErrNotFound for unknown groups.
	Group(ctx context.Context, chatID int64) (*store.Group, error)
}

// Member is a user found in a group.
type Member struct {
	UserID      int64
	DisplayName string
}

// MemberLookup finds users in groups.
type MemberLookup interface {
	// Member returns nil (not an error) when userID is not in chatID.
	Member(ctx context.Context, chatID, userID int64) (*Member, error)
}

// Relayer delivers confirmed whispers and discloses them.
type Relayer interface {
	Deliver(ctx context.Context, s *session.Session) (relay.Delivery, error)
	Reveal(ctx context.Context, req relay.RevealRequest) string
}

const defaultCheckTimeout = 10 * time.Second

// next lists the only forward edge out of each state. Start, Cancel and the
// final confirmation leave the table: they create or destroy the session.
var next = map[session.State]session.State{
	session.AwaitingGroup:       session.AwaitingRecipient,
	session.AwaitingRecipient:   session.AwaitingMessage,
	session.AwaitingMessage:     session.AwaitingDescription,
	session.AwaitingDescription: session.AwaitingConfirmation,
}

type Engine struct {
	Sessions session.Store
	Locks    *session.Locker
	Groups   GroupDirectory
	Members  MemberLookup
	Relay    Relayer
	Logger   *observability.Logger
	// CheckTimeout bounds each membership lookup.
	CheckTimeout time.Duration
}

func NewEngine(sessions session.Store, groups GroupDirectory, members MemberLookup, relayer Relayer, logger *observability.Logger) *Engine {
	return &Engine{
		Sessions:     sessions,
		Locks:        session.NewLocker(),
		Groups:       groups,
		Members:      members,
		Relay:        relayer,
		Logger:       logger,
		CheckTimeout: defaultCheckTimeout,
	}
}

// Handle applies ev to its sender's session and returns what to send back.
// It never fails: every error becomes a user-facing message, and the session
// is left as it was.
func (e *Engine) Handle(ctx context.Context, ev Event) []Action {
	a := ev.actor()

	unlock := e.Locks.Lock(a.UserID)
	defer unlock()

	s, err := e.Sessions.Get(ctx, a.UserID)
	if err != nil {
		return e.fail(a, nil, fmt.Errorf("%w: load session: %v", ErrCollaborator, err))
	}

	actions, err := e.dispatch(ctx, ev, s)
	if err != nil {
		return e.fail(a, s, err)
	}
	return actions
}

// Reveal answers a press on a reveal control. It needs no session. Text that
// does not fit an alert is handed over through a private chat instead.
func (e *Engine) Reveal(ctx context.Context, callbackID string, req relay.RevealRequest) []Action {
	text := e.Relay.Reveal(ctx, req)
	if validate.Units(text) > validate.MaxAlertUnits {
		return []Action{Disclose{CallbackID: callbackID, StartPayload: req.Token()}}
	}
	return []Action{Disclose{CallbackID: callbackID, Text: text}}
}

// readWhisper shows a revealed body in the reader's private chat.
func (e *Engine) readWhisper(ctx context.Context, ev ReadWhisper) []Action {
	req := ev.Request
	req.ActorID = ev.UserID
	return []Action{SendText{ChatID: ev.ChatID, Text: escape(e.Relay.Reveal(ctx, req))}}
}

func (e *Engine) dispatch(ctx context.Context, ev Event, s *session.Session) ([]Action, error) {
	switch ev := ev.(type) {
	case Start:
		return e.start(ctx, ev, s)
	case ReadWhisper:
		return e.readWhisper(ctx, ev), nil
	case Cancel:
		return e.cancel(ctx, ev)
	}

	if s == nil {
		return nil, ErrOffScript
	}

	switch s.State {
	case session.AwaitingGroup:
		if ev, ok := ev.(GroupSelected); ok {
			return e.selectGroup(ctx, s, ev)
		}
	case session.AwaitingRecipient:
		if ev, ok := ev.(UsersSelected); ok {
			return e.selectUser(ctx, s, ev)
		}
	case session.AwaitingMessage:
		if ev, ok := ev.(Text); ok {
			return e.writeMessage(ctx, s, ev)
		}
	case session.AwaitingDescription:
		switch ev := ev.(type) {
		case Text:
			return e.describe(ctx, s, ev.Text)
		case SkipDescription:
			return e.describe(ctx, s, session.NoDescription)
		}
	case session.AwaitingConfirmation:
		if ev, ok := ev.(Confirm); ok {
			return e.confirm(ctx, s, ev)
		}
	}
	return nil, ErrOffScript
}

func (e *Engine) start(ctx context.Context, ev Start, old *session.Session) ([]Action, error) {
	if old != nil {
		if err := e.Sessions.Delete(ctx, ev.UserID); err != nil {
			return nil, fmt.Errorf("%w: drop previous session: %v", ErrCollaborator, err)
		}
	}

	s := session.New(ev.UserID, ev.ChatID)
	if err := e.Sessions.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("%w: create session: %v", ErrCollaborator, err)
	}
	e.Logger.LogTransition(ev.UserID, "", string(s.State))

	return []Action{SendText{ChatID: ev.ChatID, Text: RequestGroupText, Keyboard: Keyboard{Kind: KeyboardRequestGroup}}}, nil
}

func (e *Engine) selectGroup(ctx context.Context, s *session.Session, ev GroupSelected) ([]Action, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, e.CheckTimeout)
	defer cancel()

	joined, err := e.Groups.IsBotMember(lookupCtx, ev.GroupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrBotNotMember, ErrCollaborator, err)
	}
	if !joined {
		return nil, ErrBotNotMember
	}

	g, err := e.Groups.Group(lookupCtx, ev.GroupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBotNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrBotNotMember, ErrCollaborator, err)
	}

	s.GroupID = g.ChatID
	s.GroupTitle = g.Title
	s.GroupHandle = g.Username
	if err := e.advance(ctx, s, session.AwaitingRecipient); err != nil {
		return nil, err
	}

	return []Action{SendText{ChatID: s.ChatID, Text: RequestUserText, Keyboard: Keyboard{Kind: KeyboardRequestUser}}}, nil
}

func (e *Engine) selectUser(ctx context.Context, s *session.Session, ev UsersSelected) ([]Action, error) {
	if len(ev.UserIDs) == 0 {
		return nil, ErrOffScript
	}
	target := ev.UserIDs[len(ev.UserIDs)-1]

	lookupCtx, cancel := context.WithTimeout(ctx, e.CheckTimeout)
	defer cancel()

	m, err := e.Members.Member(lookupCtx, s.GroupID, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrUserNotMember, ErrCollaborator, err)
	}
	if m == nil {
		return nil, ErrUserNotMember
	}

	s.TargetUserID = m.UserID
	s.TargetUserName = m.DisplayName
	s.ComposerName = ev.DisplayName
	if err := e.advance(ctx, s, session.AwaitingMessage); err != nil {
		return nil, err
	}

	return []Action{SendText{ChatID: s.ChatID, Text: RequestMessageText, Keyboard: Keyboard{Kind: KeyboardCancel}}}, nil
}

// writeMessage only warns about an over-long body and still moves on; the
// description limit below is the one that blocks.
func (e *Engine) writeMessage(ctx context.Context, s *session.Session, ev Text) ([]Action, error) {
	var actions []Action
	if !validate.LengthWithin(ev.Text, validate.MaxMessageLength) {
		actions = append(actions, SendText{ChatID: s.ChatID, Text: messageLengthWarning(validate.Length(ev.Text))})
	}

	s.Message = ev.Text
	if err := e.advance(ctx, s, session.AwaitingDescription); err != nil {
		return nil, err
	}

	return append(actions, SendText{ChatID: s.ChatID, Text: RequestDescriptionText, Keyboard: Keyboard{Kind: KeyboardCancel}}), nil
}

func (e *Engine) describe(ctx context.Context, s *session.Session, text string) ([]Action, error) {
	if !validate.LengthWithin(text, validate.MaxDescriptionLength) {
		return nil, &LimitError{Field: "description", Max: validate.MaxDescriptionLength, Got: validate.Length(text)}
	}

	s.Description = text
	if err := e.advance(ctx, s, session.AwaitingConfirmation); err != nil {
		return nil, err
	}

	return []Action{SendText{ChatID: s.ChatID, Text: Summary(s), Keyboard: Keyboard{Kind: KeyboardConfirm}}}, nil
}

func (e *Engine) confirm(ctx context.Context, s *session.Session, ev Confirm) ([]Action, error) {
	if !ev.Accept {
		return e.cancel(ctx, Cancel{Actor: ev.Actor})
	}

	d, err := e.Relay.Deliver(ctx, s)
	if err != nil {
		return nil, err
	}

	if err := e.Sessions.Delete(ctx, s.UserID); err != nil {
		// The whisper is out; report success and leave the stale session to
		// the store's expiry.
		e.Logger.LogFailure(s.UserID, "destroy session", err)
	}
	e.Logger.LogTransition(s.UserID, string(s.State), "")

	actions := []Action{SendText{ChatID: s.ChatID, Text: SentText, Keyboard: Keyboard{Kind: KeyboardRemove}}}
	if d.Link != "" {
		actions = append(actions, SendText{ChatID: s.ChatID, Text: ShowSentText, Keyboard: Keyboard{Kind: KeyboardLink, URL: d.Link}})
	}
	return actions, nil
}

func (e *Engine) cancel(ctx context.Context, ev Cancel) ([]Action, error) {
	if err := e.Sessions.Delete(ctx, ev.UserID); err != nil {
		return nil, fmt.Errorf("%w: destroy session: %v", ErrCollaborator, err)
	}
	e.Logger.LogTransition(ev.UserID, "", "canceled")

	return []Action{SendText{ChatID: ev.ChatID, Text: CanceledText, Keyboard: Keyboard{Kind: KeyboardRemove}}}, nil
}

// advance moves s along its single forward edge and persists it.
func (e *Engine) advance(ctx context.Context, s *session.Session, to session.State) error {
	from := s.State
	if next[from] != to {
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	}

	s.State = to
	if err := e.Sessions.Save(ctx, s); err != nil {
		s.State = from
		return fmt.Errorf("%w: save session: %v", ErrCollaborator, err)
	}
	e.Logger.LogTransition(s.UserID, string(from), string(to))
	return nil
}

// fail turns err into the reply for a. s is the session as loaded, if any.
func (e *Engine) fail(a Actor, s *session.Session, err error) []Action {
	if errors.Is(err, ErrCollaborator) || errors.Is(err, ErrDelivery) {
		e.Logger.LogFailure(a.UserID, "handle", err)
	}

	reply := func(text string, kind KeyboardKind) []Action {
		return []Action{SendText{ChatID: a.ChatID, Text: text, Keyboard: Keyboard{Kind: kind}}}
	}

	var limit *LimitError
	switch {
	case errors.As(err, &limit):
		return reply(descriptionLengthWarning(limit.Got), KeyboardNone)
	case errors.Is(err, ErrBotNotMember):
		return reply(BotNotJoinedText, KeyboardRequestGroup)
	case errors.Is(err, ErrUserNotMember):
		return reply(UserNotJoinedText, KeyboardRequestUser)
	case errors.Is(err, ErrOffScript):
		return reply(FollowStructureText, KeyboardNone)
	case errors.Is(err, ErrDelivery) && s != nil:
		return []Action{
			SendText{ChatID: a.ChatID, Text: DeliveryFailedText},
			SendText{ChatID: a.ChatID, Text: Summary(s), Keyboard: Keyboard{Kind: KeyboardConfirm}},
		}
	}

	if !errors.Is(err, ErrCollaborator) && !errors.Is(err, ErrDelivery) {
		e.Logger.LogFailure(a.UserID, "handle", err)
	}
	log.Printf("Error handling update from user %d: %v", a.UserID, err)
	return reply(GenericFailureText, KeyboardNone)
}

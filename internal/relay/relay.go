// Package relay posts confirmed whispers into their group and discloses the
// escrowed body to the one user it is meant for.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rahul/whisper/internal/escrow"
	"github.com/rahul/whisper/internal/observability"
	"github.com/rahul/whisper/internal/session"
)

// ErrDelivery means the notification could not be posted (or could not be
// backed by an escrow record). The whisper can be retried.
var ErrDelivery = errors.New("delivery failed")

const (
	DefaultRetention = 24 * time.Hour
	DefaultDelay     = 2 * time.Second
)

// Poster publishes notifications into groups.
type Poster interface {
	// PostNotification posts text into groupID with a reveal control bound
	// to revealFor and returns the id of the posted message.
	PostNotification(ctx context.Context, groupID int64, text string, revealFor int64) (int, error)
	// Retract removes a previously posted notification.
	Retract(ctx context.Context, groupID int64, messageID int) error
}

// Delivery describes a posted whisper.
type Delivery struct {
	GroupID   int64
	MessageID int
	// Link points at the posted message; empty when the group has no public
	// or internal link form.
	Link string
}

type Relay struct {
	Poster    Poster
	Escrow    escrow.Store
	Logger    *observability.Logger
	Status    *observability.Status
	Retention time.Duration
	Delay     time.Duration
	// Sleep waits between posting and answering the composer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewRelay(poster Poster, store escrow.Store, logger *observability.Logger, status *observability.Status) *Relay {
	return &Relay{
		Poster:    poster,
		Escrow:    store,
		Logger:    logger,
		Status:    status,
		Retention: DefaultRetention,
		Delay:     DefaultDelay,
		Sleep:     sleepContext,
	}
}

// Deliver posts the whisper held by s and escrows its body. It does not touch
// the session store; the caller destroys the session once Deliver succeeds.
func (r *Relay) Deliver(ctx context.Context, s *session.Session) (Delivery, error) {
	text := Notification(s.TargetUserName, s.ComposerName, s.Description)

	messageID, err := r.Poster.PostNotification(ctx, s.GroupID, text, s.TargetUserID)
	if err != nil {
		return Delivery{}, fmt.Errorf("%w: post to group %d: %v", ErrDelivery, s.GroupID, err)
	}

	key := escrow.DeliveryKey(s.GroupID, s.TargetUserID, messageID)
	if err := r.Escrow.Put(ctx, key, s.Message, r.Retention); err != nil {
		// A notification whose reveal can never work is worse than none.
		if rerr := r.Poster.Retract(ctx, s.GroupID, messageID); rerr != nil {
			r.Logger.LogFailure(s.UserID, "retract", rerr)
		}
		return Delivery{}, fmt.Errorf("%w: escrow %s: %v", ErrDelivery, key, err)
	}

	r.Logger.LogDelivery(s.UserID, s.GroupID, messageID)
	if r.Status != nil {
		r.Status.Delivered()
	}

	// Keep clear of the transport's flood limits before the next send. The
	// whisper is already out, so a cut-short pause is not a failure.
	_ = r.Sleep(ctx, r.Delay)

	return Delivery{
		GroupID:   s.GroupID,
		MessageID: messageID,
		Link:      MessageLink(s.GroupID, s.GroupHandle, messageID),
	}, nil
}

// RevealRequest is a press on a reveal control.
type RevealRequest struct {
	GroupID      int64
	MessageID    int
	TargetUserID int64
	ActorID      int64
}

const tokenPrefix = "reveal"

// Token encodes the whisper req points at as a bot start parameter
// ("reveal_<group>_<message>_<target>"). ActorID is not part of it: whoever
// opens the link is the actor.
func (req RevealRequest) Token() string {
	return fmt.Sprintf("%s_%d_%d_%d", tokenPrefix, req.GroupID, req.MessageID, req.TargetUserID)
}

// ParseRevealToken reverses Token.
func ParseRevealToken(token string) (RevealRequest, bool) {
	parts := strings.Split(token, "_")
	if len(parts) != 4 || parts[0] != tokenPrefix {
		return RevealRequest{}, false
	}
	groupID, gerr := strconv.ParseInt(parts[1], 10, 64)
	messageID, merr := strconv.Atoi(parts[2])
	targetID, terr := strconv.ParseInt(parts[3], 10, 64)
	if gerr != nil || merr != nil || terr != nil {
		return RevealRequest{}, false
	}
	return RevealRequest{GroupID: groupID, MessageID: messageID, TargetUserID: targetID}, true
}

// Reveal returns the text to disclose privately to req.ActorID. It never
// mutates anything: the body stays readable by its recipient until expiry.
func (r *Relay) Reveal(ctx context.Context, req RevealRequest) string {
	if req.ActorID != req.TargetUserID {
		r.Logger.LogReveal(req.ActorID, req.GroupID, req.MessageID, "denied")
		return NotAuthorizedText
	}

	body, err := r.Escrow.Get(ctx, escrow.DeliveryKey(req.GroupID, req.TargetUserID, req.MessageID))
	if err != nil {
		if !errors.Is(err, escrow.ErrAbsent) {
			r.Logger.LogFailure(req.ActorID, "reveal", err)
		}
		r.Logger.LogReveal(req.ActorID, req.GroupID, req.MessageID, "unavailable")
		return UnavailableText
	}

	r.Logger.LogReveal(req.ActorID, req.GroupID, req.MessageID, "revealed")
	if r.Status != nil {
		r.Status.Revealed()
	}
	return body
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package escrow is the short-lived key/value store that holds whisper bodies
// until the recipient reveals them, plus the set of groups the bot belongs to.
package escrow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAbsent is returned by Get when the key is missing or expired.
var ErrAbsent = errors.New("escrow: key absent")

// Store is the escrow capability.
type Store interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ErrAbsent when the key is missing or has expired.
	Get(ctx context.Context, key string) (string, error)
	SetAdd(ctx context.Context, setKey, member string) error
	SetRemove(ctx context.Context, setKey, member string) error
	SetContains(ctx context.Context, setKey, member string) (bool, error)
	Close() error
}

// GroupsKey is the set of chat ids the bot is currently a member of.
const GroupsKey = "groups:chat_id"

// DeliveryKey builds the key of a delivery record. The triple is unique per
// posted notification, so concurrent deliveries never share a key.
func DeliveryKey(groupID, targetUserID int64, messageID int) string {
	return fmt.Sprintf("private_message:%d:%d:%d", groupID, targetUserID, messageID)
}

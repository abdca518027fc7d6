package store

import (
	"context"
	"log"
	"strconv"

	"github.com/rahul/whisper/internal/escrow"
)

// MembershipChange reports the bot joining or leaving a group.
type MembershipChange struct {
	Group  Group
	Joined bool
}

// GroupRecords is the part of GroupStore the directory needs.
type GroupRecords interface {
	SaveGroup(ctx context.Context, g Group) error
	GetGroup(ctx context.Context, chatID int64) (*Group, error)
}

// Directory combines the sqlite group records with the escrow set that
// tracks which groups the bot is currently in.
type Directory struct {
	Records GroupRecords
	Sets    escrow.Store
}

func NewDirectory(records GroupRecords, sets escrow.Store) *Directory {
	return &Directory{Records: records, Sets: sets}
}

// Track applies a membership change.
func (d *Directory) Track(ctx context.Context, change MembershipChange) error {
	member := strconv.FormatInt(change.Group.ChatID, 10)
	if !change.Joined {
		log.Printf("Bot left group %d", change.Group.ChatID)
		return d.Sets.SetRemove(ctx, escrow.GroupsKey, member)
	}

	if err := d.Records.SaveGroup(ctx, change.Group); err != nil {
		return err
	}
	log.Printf("Bot joined group %d (%s)", change.Group.ChatID, change.Group.Title)
	return d.Sets.SetAdd(ctx, escrow.GroupsKey, member)
}

// IsBotMember reports whether the bot is currently in chatID.
func (d *Directory) IsBotMember(ctx context.Context, chatID int64) (bool, error) {
	return d.Sets.SetContains(ctx, escrow.GroupsKey, strconv.FormatInt(chatID, 10))
}

// Group returns the stored record of chatID.
func (d *Directory) Group(ctx context.Context, chatID int64) (*Group, error) {
	return d.Records.GetGroup(ctx, chatID)
}

package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/whisper/internal/relay"
	"github.com/rahul/whisper/internal/store"
	"github.com/rahul/whisper/internal/workflow"
)

// Callback data prefixes, "<prefix>:<arg>".
const (
	affirmationPrefix = "affirmation"
	revealPrefix      = "private_message"
)

// inbound is an update plus the fields the tgbotapi types predate.
type inbound struct {
	tgbotapi.Update
	chatShared  *chatShared
	usersShared *usersShared
	chatIsForum bool
}

type chatShared struct {
	RequestID int   `json:"request_id"`
	ChatID    int64 `json:"chat_id"`
}

type usersShared struct {
	RequestID int     `json:"request_id"`
	UserIDs   []int64 `json:"user_ids"`
	Users     []struct {
		UserID int64 `json:"user_id"`
	} `json:"users"`
}

// ids prefers the newer users list over the deprecated user_ids.
func (u *usersShared) ids() []int64 {
	if len(u.Users) == 0 {
		return u.UserIDs
	}
	ids := make([]int64, 0, len(u.Users))
	for _, su := range u.Users {
		ids = append(ids, su.UserID)
	}
	return ids
}

func decodeUpdate(raw json.RawMessage) (inbound, error) {
	var in inbound
	if err := json.Unmarshal(raw, &in.Update); err != nil {
		return in, fmt.Errorf("decode update: %w", err)
	}

	var extra struct {
		Message *struct {
			ChatShared  *chatShared  `json:"chat_shared"`
			UsersShared *usersShared `json:"users_shared"`
		} `json:"message"`
		MyChatMember *struct {
			Chat struct {
				IsForum bool `json:"is_forum"`
			} `json:"chat"`
		} `json:"my_chat_member"`
	}
	if err := json.Unmarshal(raw, &extra); err != nil {
		return in, fmt.Errorf("decode update extras: %w", err)
	}
	if extra.Message != nil {
		in.chatShared = extra.Message.ChatShared
		in.usersShared = extra.Message.UsersShared
	}
	if extra.MyChatMember != nil {
		in.chatIsForum = extra.MyChatMember.Chat.IsForum
	}
	return in, nil
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}

// messageEvent classifies a private-chat message. ok is false for messages
// the workflow never sees (groups, channels, service messages without a sender).
func messageEvent(in inbound) (ev workflow.Event, ok bool) {
	m := in.Message
	if m == nil || m.From == nil || m.Chat == nil || !m.Chat.IsPrivate() {
		return nil, false
	}

	a := workflow.Actor{UserID: m.From.ID, ChatID: m.Chat.ID, DisplayName: displayName(m.From)}
	switch {
	case in.chatShared != nil && in.chatShared.RequestID == requestGroupID:
		return workflow.GroupSelected{Actor: a, GroupID: in.chatShared.ChatID}, true
	case in.usersShared != nil && in.usersShared.RequestID == requestUserID:
		return workflow.UsersSelected{Actor: a, UserIDs: in.usersShared.ids()}, true
	case m.IsCommand() && m.Command() == workflow.StartCommand:
		if req, ok := relay.ParseRevealToken(m.CommandArguments()); ok {
			return workflow.ReadWhisper{Actor: a, Request: req}, true
		}
		return workflow.Start{Actor: a}, true
	case m.Text == workflow.CancelButton || m.Text == workflow.CancelCommand:
		return workflow.Cancel{Actor: a}, true
	case m.Text == workflow.SkipCommand:
		return workflow.SkipDescription{Actor: a}, true
	case m.Text != "":
		return workflow.Text{Actor: a, Text: m.Text}, true
	}
	return workflow.Unsupported{Actor: a}, true
}

func parseCallback(data string) (prefix, arg string) {
	prefix, arg, _ = strings.Cut(data, ":")
	return prefix, arg
}

// confirmEvent turns an affirmation press into a Confirm.
func confirmEvent(cq *tgbotapi.CallbackQuery, arg string) workflow.Confirm {
	chatID := cq.From.ID
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
	}
	return workflow.Confirm{
		Actor:  workflow.Actor{UserID: cq.From.ID, ChatID: chatID, DisplayName: displayName(cq.From)},
		Accept: arg == "yes",
	}
}

// membershipChange converts a my_chat_member update about a group. ok is
// false for private chats and channels.
func membershipChange(in inbound) (change store.MembershipChange, ok bool) {
	u := in.MyChatMember
	if u == nil || !(u.Chat.IsGroup() || u.Chat.IsSuperGroup()) {
		return change, false
	}

	return store.MembershipChange{
		Group: store.Group{
			ChatID:         u.Chat.ID,
			Username:       u.Chat.UserName,
			ChatType:       u.Chat.Type,
			Title:          u.Chat.Title,
			Description:    u.Chat.Description,
			IsForum:        in.chatIsForum,
			DateMembership: time.Unix(int64(u.Date), 0).UTC(),
		},
		Joined: isPresent(u.NewChatMember),
	}, true
}

func isPresent(m tgbotapi.ChatMember) bool {
	switch m.Status {
	case "creator", "administrator", "member":
		return true
	case "restricted":
		return m.IsMember
	}
	return false
}

// callbackAnswer renders a disclosure. A start payload becomes a link into a
// private chat with the bot.
func callbackAnswer(botUserName string, d workflow.Disclose) tgbotapi.CallbackConfig {
	if d.StartPayload == "" {
		return tgbotapi.NewCallbackWithAlert(d.CallbackID, d.Text)
	}
	cfg := tgbotapi.NewCallback(d.CallbackID, "")
	cfg.URL = "https://t.me/" + botUserName + "?start=" + d.StartPayload
	return cfg
}

func revealData(targetUserID int64) string {
	return revealPrefix + ":" + strconv.FormatInt(targetUserID, 10)
}

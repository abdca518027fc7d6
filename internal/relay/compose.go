package relay

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	NotAuthorizedText = "This message is not for you."
	UnavailableText   = "This message is no longer available."
)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

// Notification renders the group-facing text of a whisper in Telegram HTML.
// User text is escaped, never stripped.
func Notification(recipient, sender, description string) string {
	return fmt.Sprintf("Mr, Ms. <b>%s</b>, you have a message from <b>%s</b>:\ndescription: %s",
		escape(recipient), escape(sender), escape(description))
}

// MessageLink returns a t.me link to messageID in the group. Public groups
// use their handle; supergroups without one use the internal /c/ form. Basic
// groups have no message links.
func MessageLink(groupID int64, handle string, messageID int) string {
	if handle != "" {
		return fmt.Sprintf("https://t.me/%s/%d", handle, messageID)
	}
	id := strconv.FormatInt(groupID, 10)
	if internal, ok := strings.CutPrefix(id, "-100"); ok && internal != "" {
		return fmt.Sprintf("https://t.me/c/%s/%d", internal, messageID)
	}
	return ""
}

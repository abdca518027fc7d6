package workflow

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/whisper/internal/session"
	"github.com/rahul/whisper/internal/validate"
)

// Texts are Telegram HTML. Anything a user typed goes through escape first.
const (
	RequestGroupText       = "Choose the group you want to send your private message to."
	RequestUserText        = "Choose the user who should receive your private message."
	RequestMessageText     = "Write your private message for the user."
	RequestDescriptionText = "Now, write your description.\n" +
		"If you don't want to write one, just send " + SkipCommand + ".\n" +
		"<b>Note: everyone in the group can see your description.</b>"
	BotNotJoinedText    = "The bot hasn't joined this group."
	UserNotJoinedText   = "The user hasn't joined this group."
	SentText            = "Your message has been sent to the group."
	ShowSentText        = "Open the sent message:"
	FollowStructureText = "Please follow the steps, or press '" + CancelButton + "' to cancel the operation."
	CanceledText        = "The operation has been canceled."
	DeliveryFailedText  = "Your message could not be delivered to the group. Press Yes to try again or No to cancel."
	GenericFailureText  = "Something went wrong on our side. Please try again, or press '" + CancelButton + "' to start over."
)

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

func messageLengthWarning(got int) string {
	return fmt.Sprintf("Your private message should be at most <b>%d</b> characters.\nCurrent length of your private message: <b>%d</b>\n"+
		"It will still be sent, but it is too long for a pop-up: the recipient will be taken to a private chat with the bot to read it.",
		validate.MaxMessageLength, got)
}

func descriptionLengthWarning(got int) string {
	return fmt.Sprintf("Your description must be at most <b>%d</b> characters.\nCurrent length of your description: <b>%d</b>",
		validate.MaxDescriptionLength, got)
}

const summaryFormat = "target user first name: %s\ntarget group name: %s\ndescription: %s\nprivate message: %s\n\nSend it?"

func bold(s string) string {
	return "<b>" + escape(s) + "</b>"
}

// Summary renders the confirmation prompt. It depends on s alone, so the same
// inputs always give the same text. A body that would push the prompt past
// Telegram's message limit is shown shortened; the whole body is still sent.
func Summary(s *session.Session) string {
	preview := s.Message
	shown := validate.Units(fmt.Sprintf(summaryFormat, s.TargetUserName, s.GroupTitle, s.Description, preview))
	if over := shown - validate.MaxTextUnits; over > 0 {
		keep := validate.Units(preview) - over - 1
		preview = validate.Clip(preview, max(keep, 0)) + "…"
	}
	return fmt.Sprintf(summaryFormat, bold(s.TargetUserName), bold(s.GroupTitle), bold(s.Description), bold(preview))
}

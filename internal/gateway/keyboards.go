package gateway

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/whisper/internal/workflow"
)

// request_id values of the sharing buttons, echoed back in chat_shared and
// users_shared.
const (
	requestGroupID = 1
	requestUserID  = 2
)

// Sharing buttons are newer than the tgbotapi types, so the reply keyboards
// that carry them are spelled out here.
type replyKeyboard struct {
	Keyboard       [][]keyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard"`
}

type keyboardButton struct {
	Text         string        `json:"text"`
	RequestChat  *requestChat  `json:"request_chat,omitempty"`
	RequestUsers *requestUsers `json:"request_users,omitempty"`
}

type requestChat struct {
	RequestID     int  `json:"request_id"`
	ChatIsChannel bool `json:"chat_is_channel"`
	ChatIsForum   bool `json:"chat_is_forum"`
}

type requestUsers struct {
	RequestID int  `json:"request_id"`
	UserIsBot bool `json:"user_is_bot"`
}

func cancelRow() []keyboardButton {
	return []keyboardButton{{Text: workflow.CancelButton}}
}

func requestGroupKeyboard() replyKeyboard {
	return replyKeyboard{
		ResizeKeyboard: true,
		Keyboard: [][]keyboardButton{
			{{
				Text:        "Choose the group you want to send your private message to.",
				RequestChat: &requestChat{RequestID: requestGroupID},
			}},
			cancelRow(),
		},
	}
}

func requestUserKeyboard() replyKeyboard {
	return replyKeyboard{
		ResizeKeyboard: true,
		Keyboard: [][]keyboardButton{
			{{
				Text:         "Choose the user who should receive your private message.",
				RequestUsers: &requestUsers{RequestID: requestUserID},
			}},
			cancelRow(),
		},
	}
}

// replyMarkup renders a declarative keyboard; nil means no markup.
func replyMarkup(k workflow.Keyboard) any {
	switch k.Kind {
	case workflow.KeyboardRequestGroup:
		return requestGroupKeyboard()
	case workflow.KeyboardRequestUser:
		return requestUserKeyboard()
	case workflow.KeyboardCancel:
		kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(workflow.CancelButton)))
		kb.ResizeKeyboard = true
		return kb
	case workflow.KeyboardConfirm:
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes!", affirmationPrefix+":yes"),
			tgbotapi.NewInlineKeyboardButtonData("No", affirmationPrefix+":no"),
		))
	case workflow.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	case workflow.KeyboardLink:
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Show the sent message.", k.URL),
		))
	}
	return nil
}

func revealMarkup(targetUserID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Show the message.", revealData(targetUserID)),
	))
}

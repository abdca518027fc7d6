package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rahul/whisper/internal/observability"
	"github.com/rahul/whisper/internal/relay"
	"github.com/rahul/whisper/internal/store"
	"github.com/rahul/whisper/internal/workflow"
)

// Handler is the conversation core the gateway feeds.
type Handler interface {
	Handle(ctx context.Context, ev workflow.Event) []workflow.Action
	Reveal(ctx context.Context, callbackID string, req relay.RevealRequest) []workflow.Action
}

// MembershipTracker records the bot joining and leaving groups.
type MembershipTracker interface {
	Track(ctx context.Context, change store.MembershipChange) error
}

// DefaultPollTimeout is the getUpdates long-poll in seconds. getUpdates
// cannot be cancelled, so this also bounds how long a shutdown waits.
const DefaultPollTimeout = 30

type TelegramGateway struct {
	Bot         *tgbotapi.BotAPI
	Handler     Handler
	Groups      MembershipTracker
	Logger      *observability.Logger
	Status      *observability.Status
	PollTimeout int

	wg sync.WaitGroup
}

func NewTelegramGateway(token string, logger *observability.Logger, status *observability.Status) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Authorized on account %s", bot.Self.UserName)

	return &TelegramGateway{
		Bot:         bot,
		Logger:      logger,
		Status:      status,
		PollTimeout: DefaultPollTimeout,
	}, nil
}

// Start long-polls for updates until ctx is done. Every update is handled in
// its own goroutine; per-user ordering is the handler's job.
func (tg *TelegramGateway) Start(ctx context.Context) error {
	if tg.Handler == nil || tg.Groups == nil {
		return errors.New("gateway: handler and group tracker are required")
	}

	offset := 0
	for ctx.Err() == nil {
		updates, err := tg.fetch(offset)
		if err != nil {
			log.Printf("Failed to get updates, retrying in 3 seconds: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(3 * time.Second):
			}
			continue
		}

		offset = tg.dispatchBatch(ctx, updates, offset)
	}
	return nil
}

// dispatchBatch hands each update to its own goroutine and returns the next
// offset. A batch that arrives after ctx is done is left unacknowledged so
// Telegram redelivers it to the next run.
func (tg *TelegramGateway) dispatchBatch(ctx context.Context, updates []json.RawMessage, offset int) int {
	if ctx.Err() != nil {
		return offset
	}
	for _, raw := range updates {
		in, err := decodeUpdate(raw)
		if err != nil {
			log.Printf("Skipping undecodable update: %v", err)
			continue
		}
		if in.UpdateID >= offset {
			offset = in.UpdateID + 1
		}

		tg.wg.Add(1)
		go tg.dispatch(ctx, in)
	}
	return offset
}

// Stop waits for in-flight updates to finish.
func (tg *TelegramGateway) Stop() error {
	tg.wg.Wait()
	return nil
}

func (tg *TelegramGateway) fetch(offset int) ([]json.RawMessage, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", offset)
	params.AddNonZero("timeout", tg.PollTimeout)
	if err := params.AddInterface("allowed_updates", []string{"message", "callback_query", "my_chat_member"}); err != nil {
		return nil, err
	}

	resp, err := tg.Bot.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, err
	}

	var updates []json.RawMessage
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (tg *TelegramGateway) dispatch(ctx context.Context, in inbound) {
	defer tg.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in update %d: %v", in.UpdateID, r)
		}
	}()

	end := tg.Status.Begin()
	defer end()

	switch {
	case in.MyChatMember != nil:
		tg.trackMembership(ctx, in)
	case in.CallbackQuery != nil:
		tg.handleCallback(ctx, in.CallbackQuery)
	case in.Message != nil:
		ev, ok := messageEvent(in)
		if !ok {
			return
		}
		log.Printf("[%d] %T", in.Message.From.ID, ev)
		tg.execute(tg.Handler.Handle(ctx, ev))
	}
}

func (tg *TelegramGateway) trackMembership(ctx context.Context, in inbound) {
	change, ok := membershipChange(in)
	if !ok {
		return
	}
	if err := tg.Groups.Track(ctx, change); err != nil {
		tg.Logger.LogFailure(in.MyChatMember.From.ID, "track membership", err)
		return
	}
	tg.Logger.LogMembership(change.Group.ChatID, change.Joined)
}

func (tg *TelegramGateway) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	prefix, arg := parseCallback(cq.Data)
	switch prefix {
	case affirmationPrefix:
		tg.answer(tgbotapi.NewCallback(cq.ID, ""))
		if cq.Message != nil {
			// One answer per summary: drop the buttons that were pressed.
			tg.request(tgbotapi.NewEditMessageReplyMarkup(cq.Message.Chat.ID, cq.Message.MessageID,
				tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}))
		}
		tg.execute(tg.Handler.Handle(ctx, confirmEvent(cq, arg)))

	case revealPrefix:
		target, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || cq.Message == nil {
			tg.answer(tgbotapi.NewCallbackWithAlert(cq.ID, relay.UnavailableText))
			return
		}
		tg.execute(tg.Handler.Reveal(ctx, cq.ID, relay.RevealRequest{
			GroupID:      cq.Message.Chat.ID,
			MessageID:    cq.Message.MessageID,
			TargetUserID: target,
			ActorID:      cq.From.ID,
		}))

	default:
		tg.answer(tgbotapi.NewCallback(cq.ID, ""))
	}
}

// execute carries out actions in order. A failed send is logged and the
// rest still go out.
func (tg *TelegramGateway) execute(actions []workflow.Action) {
	for _, a := range actions {
		switch a := a.(type) {
		case workflow.SendText:
			msg := tgbotapi.NewMessage(a.ChatID, a.Text)
			msg.ParseMode = tgbotapi.ModeHTML
			if markup := replyMarkup(a.Keyboard); markup != nil {
				msg.ReplyMarkup = markup
			}
			if _, err := tg.Bot.Send(msg); err != nil {
				log.Printf("Failed to send message to %d: %v", a.ChatID, err)
			}
		case workflow.Disclose:
			tg.answer(callbackAnswer(tg.Bot.Self.UserName, a))
		}
	}
}

func (tg *TelegramGateway) answer(cfg tgbotapi.CallbackConfig) {
	tg.request(cfg)
}

func (tg *TelegramGateway) request(c tgbotapi.Chattable) {
	if _, err := tg.Bot.Request(c); err != nil {
		log.Printf("Telegram request failed: %v", err)
	}
}

// PostNotification implements relay.Poster.
func (tg *TelegramGateway) PostNotification(ctx context.Context, groupID int64, text string, revealFor int64) (int, error) {
	msg := tgbotapi.NewMessage(groupID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = revealMarkup(revealFor)

	sent, err := tg.Bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// Retract implements relay.Poster.
func (tg *TelegramGateway) Retract(ctx context.Context, groupID int64, messageID int) error {
	_, err := tg.Bot.Request(tgbotapi.NewDeleteMessage(groupID, messageID))
	return err
}

// Member implements workflow.MemberLookup. Users Telegram does not know in
// the chat, and users who left or were removed, are reported as absent.
func (tg *TelegramGateway) Member(ctx context.Context, chatID, userID int64) (*workflow.Member, error) {
	m, err := tg.Bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
			return nil, nil
		}
		return nil, err
	}
	if !isPresent(m) {
		return nil, nil
	}
	return &workflow.Member{UserID: userID, DisplayName: displayName(m.User)}, nil
}

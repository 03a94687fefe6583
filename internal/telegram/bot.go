// Package telegram serves the agent to Telegram users over long polling.
// Each Telegram user has their own persisted conversation.
package telegram

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"agent-blueprint/internal/auth"
	"agent-blueprint/internal/conversation"
)

const (
	resetCmd = "reset_ctx"

	// Telegram rejects longer messages.
	maxMessageRunes = 4096
)

// Conversations is the per-user conversation service.
type Conversations interface {
	Turn(ctx context.Context, userID, prompt string) (string, error)
	Reset(ctx context.Context, userID string) error
}

type Bot struct {
	api       *tgbotapi.BotAPI
	s         sender
	allow     *auth.Allowlist
	svc       Conversations
	agentName string
}

func New(botToken string, allow *auth.Allowlist, svc Conversations, agentName string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, errors.Wrap(err, "telegram login")
	}
	log.Info().Str("bot", api.Self.UserName).Msg("authorized on telegram")
	return &Bot{api: api, s: botAPISender{api: api}, allow: allow, svc: svc, agentName: agentName}, nil
}

// UserID is the conversation key of a Telegram user.
func UserID(telegramID int64) string {
	return "telegram:" + strconv.FormatInt(telegramID, 10)
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
				continue
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	if !b.allow.IsAllowed(msg.From.ID) {
		log.Warn().Int64("telegram_id", msg.From.ID).Str("username", msg.From.UserName).Msg("unauthorized access attempt")
		b.sendMessage(msg.Chat.ID, "Sorry, you are not allowed to use this bot.")
		return
	}
	userID := UserID(msg.From.ID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.sendMessage(msg.Chat.ID, "Hello! I'm "+b.agentName+". Send me a message to start. Use /reset to forget our conversation.")
		case "reset":
			b.reset(ctx, msg.Chat.ID, userID)
		default:
			b.sendMessage(msg.Chat.ID, "Unknown command.")
		}
		return
	}

	log.Info().Str("user_id", userID).Msg("incoming telegram message")
	reply, err := b.svc.Turn(ctx, userID, msg.Text)
	switch {
	case err == nil:
	case errors.Is(err, conversation.ErrEmptyPrompt):
		b.sendMessage(msg.Chat.ID, "Please send a text message.")
		return
	default:
		log.Error().Err(err).Str("user_id", userID).Msg("telegram turn failed")
		b.sendMessage(msg.Chat.ID, "Sorry, something went wrong.")
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reset conversation", resetCmd),
		),
	)
	chunks := splitMessage(reply, maxMessageRunes)
	for i, chunk := range chunks {
		out := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		if i == len(chunks)-1 {
			out.ReplyMarkup = kb
		}
		if _, err := b.s.Send(out); err != nil {
			log.Error().Err(err).Msg("failed to send message")
		}
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Data != resetCmd || cb.From == nil || cb.Message == nil {
		return
	}
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback")
	}
	if !b.allow.IsAllowed(cb.From.ID) {
		return
	}
	b.reset(ctx, cb.Message.Chat.ID, UserID(cb.From.ID))
}

func (b *Bot) reset(ctx context.Context, chatID int64, userID string) {
	if err := b.svc.Reset(ctx, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to reset conversation")
		b.sendMessage(chatID, "Sorry, something went wrong.")
		return
	}
	b.sendMessage(chatID, "Conversation reset.")
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Error().Err(err).Msg("failed to send message")
	}
}

// splitMessage cuts text into chunks of at most limit runes, preferring to
// break at a newline.
func splitMessage(text string, limit int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{"(empty response)"}
	}
	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		cut := limit
		if i := strings.LastIndex(string(runes[:limit]), "\n"); i > 0 {
			cut = utf8.RuneCountInString(string(runes[:limit])[:i])
		}
		chunks = append(chunks, string(runes[:cut]))
		text = strings.TrimLeft(string(runes[cut:]), "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

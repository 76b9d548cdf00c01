package chat

import (
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// TelegramTransport implements Transport on top of telebot.
type TelegramTransport struct {
	bot    *tele.Bot
	logger *zap.Logger
}

// NewTelegramTransport wraps a telebot bot.
func NewTelegramTransport(bot *tele.Bot, logger *zap.Logger) *TelegramTransport {
	return &TelegramTransport{bot: bot, logger: logger}
}

// Send delivers a message to the user's private chat.
func (t *TelegramTransport) Send(userID int64, text string, rows [][]Button) (MessageRef, error) {
	var opts []interface{}
	if markup := inlineMarkup(rows); markup != nil {
		opts = append(opts, markup)
	}
	msg, err := t.bot.Send(&tele.User{ID: userID}, text, opts...)
	if err != nil {
		return MessageRef{}, err
	}
	return MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}, nil
}

// Edit rewrites a previously sent message in place.
func (t *TelegramTransport) Edit(ref MessageRef, text string, rows [][]Button) error {
	var opts []interface{}
	if markup := inlineMarkup(rows); markup != nil {
		opts = append(opts, markup)
	}
	_, err := t.bot.Edit(ref, text, opts...)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		// already in the desired state
		return nil
	}
	return err
}

// Respond acknowledges a callback query so the client stops its spinner.
func (t *TelegramTransport) Respond(callbackID, notice string) error {
	return t.bot.Respond(
		&tele.Callback{ID: callbackID},
		&tele.CallbackResponse{Text: notice},
	)
}

func inlineMarkup(rows [][]Button) *tele.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}
	keyboard := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		teleRow := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			teleRow = append(teleRow, tele.InlineButton{Text: btn.Text, Data: btn.Data})
		}
		keyboard = append(keyboard, teleRow)
	}
	return &tele.ReplyMarkup{InlineKeyboard: keyboard}
}

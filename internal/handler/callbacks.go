package handler

import (
	"strings"
	"unicode"

	"applybot/internal/chat"
	"applybot/internal/forms"
	"applybot/internal/messages"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// applyCallback is the payload of the "apply" button sent to visitors.
const applyCallback = "apply"

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleText feeds free text to the user's conversation. Slash commands not
// meant for the form are fenced off so they can't end up saved as answers.
func (h *Handler) handleText(c tele.Context) error {
	sender := c.Sender()
	text := strings.TrimSpace(c.Text())

	if isForeignCommand(text) {
		if h.manager.Active(sender.ID) {
			return c.Send(messages.CannotUseCommand)
		}
		return nil
	}

	delivered, err := h.manager.Deliver(sender.ID, username(sender), chat.TextEvent(text))
	if err != nil {
		h.logger.Error("failed to deliver text", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Send(messages.GenericError)
	}
	if !delivered {
		h.logger.Debug("text outside a conversation ignored", zap.Int64("user_id", sender.ID))
	}
	return nil
}

// isForeignCommand reports whether text is a slash command that is not part
// of the form vocabulary. "/keep" and the "/N" ordinal shortcuts pass
// through to the active question.
func isForeignCommand(text string) bool {
	if !strings.HasPrefix(text, "/") {
		return false
	}
	if text == "/keep" {
		return false
	}
	if _, ok := forms.Ordinal(text); ok {
		return false
	}
	return true
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}
	sender := c.Sender()

	// Clean data from all non-printable characters
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("processing callback",
		zap.String("data", data),
		zap.Int64("user_id", sender.ID),
	)

	if data == applyCallback {
		if err := c.Respond(); err != nil {
			h.logger.Warn("failed to acknowledge callback", zap.Error(err))
		}
		return h.beginApplication(c)
	}

	delivered, err := h.manager.Deliver(sender.ID, username(sender), chat.ClickEvent(callback.ID, data))
	if err != nil {
		h.logger.Error("failed to deliver callback", zap.Int64("user_id", sender.ID), zap.Error(err))
		return c.Respond()
	}
	if !delivered {
		// a button from a conversation that is no longer running
		h.logger.Debug("stale callback ignored",
			zap.String("data", data),
			zap.Int64("user_id", sender.ID),
		)
		return c.Respond()
	}
	return nil
}

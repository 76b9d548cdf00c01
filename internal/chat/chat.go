// Package chat abstracts the messaging transport the conversation engine
// talks through. The engine only needs to send prompts with optional inline
// buttons, edit them later, acknowledge button clicks and receive events.
package chat

import "strconv"

// Button is one inline keyboard button carrying an opaque payload.
type Button struct {
	Text string
	Data string
}

// Row builds a single keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// MessageRef identifies a sent message so it can be edited later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// MessageSig implements telebot's Editable, so a MessageRef can be passed
// back to the bot API directly.
func (m MessageRef) MessageSig() (string, int64) {
	return strconv.Itoa(m.MessageID), m.ChatID
}

// Event is one inbound user event: either a text message or a button click.
type Event struct {
	Text       string
	Data       string
	CallbackID string
	Click      bool
}

// TextEvent builds an inbound text message event.
func TextEvent(text string) Event {
	return Event{Text: text}
}

// ClickEvent builds an inbound button click event.
func ClickEvent(callbackID, data string) Event {
	return Event{CallbackID: callbackID, Data: data, Click: true}
}

// Transport is the outbound side of the chat collaborator.
type Transport interface {
	// Send delivers a message with an optional inline keyboard.
	Send(userID int64, text string, rows [][]Button) (MessageRef, error)

	// Edit rewrites a previously sent message; passing no rows drops the
	// keyboard. Failures are expected (message too old) and non-fatal.
	Edit(ref MessageRef, text string, rows [][]Button) error

	// Respond acknowledges a button click, optionally with a notice toast.
	Respond(callbackID, notice string) error
}

// Package forms implements the reusable question protocols the conversation
// is built from: open text, single select and multi select. A question
// instance is stateless across users; everything per-user lives in the
// Session the Dialog exposes.
package forms

import (
	"context"
	"strings"

	"applybot/internal/chat"
	"applybot/internal/domain"

	"go.uber.org/zap"
)

// Dialog is what a question needs from the surrounding conversation: a way
// to send and edit prompts, acknowledge clicks, suspend until the next
// inbound event, and checkpoint in-progress state into the durable session.
type Dialog interface {
	Send(text string, rows [][]chat.Button) (chat.MessageRef, error)
	Edit(ref chat.MessageRef, text string, rows [][]chat.Button) error
	Respond(ev chat.Event, notice string) error
	Await(ctx context.Context) (chat.Event, error)
	Session() *domain.Session
	Checkpoint() error
	Logger() *zap.Logger
}

// AskParams tweaks a single ask: an optional header/footer around the prompt
// and the previously saved answer, offered back via /keep.
type AskParams struct {
	Header string
	Footer string
	Old    *domain.Answer
}

// Question is one reusable "ask one thing" protocol.
type Question interface {
	// Key deterministically identifies the question instance.
	Key() string

	// Title is the question text as shown in summaries.
	Title() string

	// Ask prompts the user and suspends until a valid answer arrives.
	// Invalid input re-prompts or is ignored; it never returns an error
	// for bad input, only for interruption or transport failure.
	Ask(ctx context.Context, d Dialog, p AskParams) (domain.Answer, error)

	// Stringify renders an answer of this question for display.
	Stringify(a domain.Answer) string
}

// Option is one selectable choice: a stable id and a display label.
type Option struct {
	ID    string
	Label string
}

const keepCommand = "/keep"

// buildMessage assembles header + prompt + footer with blank-line separators.
func buildMessage(header, text, footer string) string {
	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	b.WriteString(text)
	if footer != "" {
		b.WriteString("\n\n")
		b.WriteString(footer)
	}
	return b.String()
}

func appendFooter(footer, extra string) string {
	if footer == "" {
		return extra
	}
	return footer + "\n\n" + extra
}

func flatten(rows [][]Option) []Option {
	var all []Option
	for _, row := range rows {
		all = append(all, row...)
	}
	return all
}

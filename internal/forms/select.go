package forms

import (
	"context"
	"strings"

	"applybot/internal/chat"
	"applybot/internal/domain"
	"applybot/internal/messages"

	"go.uber.org/zap"
)

// Select asks the user to pick exactly one option from a fixed set, rendered
// as an inline keyboard. Each prompt gets a fresh nonce so stale clicks from
// earlier prompts are ignored. Options can also be picked by position with
// a "/N" command.
type Select struct {
	QuestionKey string
	Text        string

	// TextFunc, when set, renders a dynamic prompt from the session and
	// takes precedence over Text.
	TextFunc func(sess *domain.Session) string

	Rows [][]Option

	// PrintSelected controls whether the prompt is edited to show the
	// confirmed choice, or only has its keyboard removed.
	PrintSelected bool
}

func (q *Select) Key() string   { return q.QuestionKey }
func (q *Select) Title() string { return q.Text }

func (q *Select) prompt(sess *domain.Session) string {
	if q.TextFunc != nil {
		return q.TextFunc(sess)
	}
	return q.Text
}

// Ask renders the option keyboard and suspends until a matching click or a
// positional command arrives. Stale clicks and unrelated text never advance
// the step.
func (q *Select) Ask(ctx context.Context, d Dialog, p AskParams) (domain.Answer, error) {
	options := flatten(q.Rows)
	nonce := newNonce()

	footer := p.Footer
	if p.Old != nil {
		footer = appendFooter(footer, messages.KeepHint(q.Stringify(*p.Old)))
	}
	text := buildMessage(p.Header, q.prompt(d.Session()), footer)

	ref, err := d.Send(text, q.keyboard(nonce, options))
	if err != nil {
		return domain.Answer{}, err
	}

	var chosen Option
	for {
		ev, err := d.Await(ctx)
		if err != nil {
			return domain.Answer{}, err
		}

		if !ev.Click {
			input := strings.TrimSpace(ev.Text)
			if p.Old != nil && input == keepCommand {
				chosen = q.optionByID(options, p.Old.Option())
				break
			}
			if n, ok := Ordinal(input); ok && n <= len(options) {
				chosen = options[n-1]
				break
			}
			continue
		}

		c := decodeSelect(nonce, ev.Data, len(options))
		if c.kind != clickSelect {
			if err := d.Respond(ev, ""); err != nil {
				d.Logger().Warn("failed to answer stale callback", zap.Error(err))
			}
			continue
		}
		if err := d.Respond(ev, ""); err != nil {
			d.Logger().Warn("failed to answer callback", zap.Error(err))
		}
		chosen = options[c.option]
		break
	}

	q.closePrompt(d, ref, p, chosen)
	return domain.OptionsAnswer(chosen.ID), nil
}

// closePrompt edits the original prompt so its buttons can't be used again.
// Editing is best effort: old messages may refuse edits.
func (q *Select) closePrompt(d Dialog, ref chat.MessageRef, p AskParams, chosen Option) {
	var text string
	if q.PrintSelected {
		footer := appendFooter(p.Footer, messages.SelectedFooter(chosen.Label))
		text = buildMessage(p.Header, q.prompt(d.Session()), footer)
	} else {
		text = buildMessage(p.Header, q.prompt(d.Session()), p.Footer)
	}
	if err := d.Edit(ref, text, nil); err != nil {
		d.Logger().Warn("failed to edit select prompt",
			zap.String("question", q.QuestionKey),
			zap.Error(err),
		)
	}
}

func (q *Select) Stringify(a domain.Answer) string {
	for _, opt := range flatten(q.Rows) {
		if opt.ID == a.Option() {
			return opt.Label
		}
	}
	return a.Option()
}

func (q *Select) keyboard(nonce string, options []Option) [][]chat.Button {
	rows := make([][]chat.Button, 0, len(q.Rows))
	i := 0
	for _, row := range q.Rows {
		buttons := make([]chat.Button, 0, len(row))
		for _, opt := range row {
			buttons = append(buttons, chat.Button{
				Text: opt.Label,
				Data: encodeSelect(nonce, i),
			})
			i++
		}
		rows = append(rows, buttons)
	}
	return rows
}

func (q *Select) optionByID(options []Option, id string) Option {
	for _, opt := range options {
		if opt.ID == id {
			return opt
		}
	}
	return Option{ID: id, Label: id}
}

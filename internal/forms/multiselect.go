package forms

import (
	"context"
	"strings"

	"applybot/internal/chat"
	"applybot/internal/domain"
	"applybot/internal/messages"

	"go.uber.org/zap"
)

// MultiSelect asks the user to tick at least Min options from a fixed set.
// Every click toggles one option and re-renders the keyboard; the in-progress
// tick set is checkpointed into the session so a restart re-renders it
// instead of losing it. Confirm below the minimum only shows a notice.
type MultiSelect struct {
	QuestionKey string
	Text        string
	Rows        [][]Option
	Min         int

	// AtLeastOnButton relabels the confirm button with the minimum notice
	// while under it, instead of only toasting on click.
	AtLeastOnButton bool
}

func (q *MultiSelect) Key() string   { return q.QuestionKey }
func (q *MultiSelect) Title() string { return q.Text }

// Ask renders the toggle keyboard and loops until confirm is clicked with
// enough options ticked. The returned option set is de-duplicated and
// normalized to keyboard order.
func (q *MultiSelect) Ask(ctx context.Context, d Dialog, p AskParams) (domain.Answer, error) {
	options := flatten(q.Rows)
	nonce := newNonce()
	sess := d.Session()

	selected := sess.PendingOptions(q.QuestionKey)
	if selected == nil && p.Old != nil {
		selected = append([]string(nil), p.Old.Options...)
	}

	footer := p.Footer
	if p.Old != nil {
		footer = appendFooter(footer, messages.KeepHint(q.Stringify(*p.Old)))
	}
	text := buildMessage(p.Header, q.Text, footer)

	ref, err := d.Send(text, q.keyboard(nonce, options, selected))
	if err != nil {
		return domain.Answer{}, err
	}

	for confirmed := false; !confirmed; {
		ev, err := d.Await(ctx)
		if err != nil {
			return domain.Answer{}, err
		}

		if !ev.Click {
			input := strings.TrimSpace(ev.Text)
			if p.Old != nil && len(p.Old.Options) >= q.Min && input == keepCommand {
				selected = append([]string(nil), p.Old.Options...)
				confirmed = true
			}
			continue
		}

		c := decodeMultiSelect(nonce, ev.Data, len(options))
		toggled := false
		switch c.kind {
		case clickTick:
			selected = addOption(selected, options[c.option].ID)
			toggled = true
		case clickUntick:
			selected = removeOption(selected, options[c.option].ID)
			toggled = true
		case clickConfirm:
			if len(selected) >= q.Min {
				confirmed = true
			} else {
				if err := d.Respond(ev, messages.SelectAtLeast(q.Min)); err != nil {
					d.Logger().Warn("failed to answer callback", zap.Error(err))
				}
				continue
			}
		default:
			// stale or malformed
		}

		if err := d.Respond(ev, ""); err != nil {
			d.Logger().Warn("failed to answer callback", zap.Error(err))
		}

		if toggled {
			sess.SetPendingOptions(q.QuestionKey, selected)
			if err := d.Checkpoint(); err != nil {
				d.Logger().Error("failed to checkpoint pending selection", zap.Error(err))
			}
			if err := d.Edit(ref, text, q.keyboard(nonce, options, selected)); err != nil {
				d.Logger().Warn("failed to re-render multi-select keyboard", zap.Error(err))
			}
		}
	}

	normalized := q.normalize(options, selected)
	sess.ClearPendingOptions(q.QuestionKey)

	answer := domain.OptionsAnswer(normalized...)
	footer = appendFooter(p.Footer, messages.SelectedFooter(q.Stringify(answer)))
	if err := d.Edit(ref, buildMessage(p.Header, q.Text, footer), nil); err != nil {
		d.Logger().Warn("failed to edit multi-select prompt", zap.Error(err))
	}
	return answer, nil
}

func (q *MultiSelect) Stringify(a domain.Answer) string {
	labels := make([]string, 0, len(a.Options))
	for _, id := range a.Options {
		labels = append(labels, q.labelFor(id))
	}
	if len(labels) == 0 {
		return messages.NoneSelected
	}
	return strings.Join(labels, ", ")
}

func (q *MultiSelect) labelFor(id string) string {
	for _, opt := range flatten(q.Rows) {
		if opt.ID == id {
			return opt.Label
		}
	}
	return id
}

func (q *MultiSelect) keyboard(nonce string, options []Option, selected []string) [][]chat.Button {
	rows := make([][]chat.Button, 0, len(q.Rows)+1)
	i := 0
	for _, row := range q.Rows {
		buttons := make([]chat.Button, 0, len(row))
		for _, opt := range row {
			ticked := containsOption(selected, opt.ID)
			marker := "○"
			if ticked {
				marker = "●"
			}
			buttons = append(buttons, chat.Button{
				Text: marker + " " + opt.Label,
				Data: encodeToggle(nonce, i, ticked),
			})
			i++
		}
		rows = append(rows, buttons)
	}

	confirmText := messages.BtnConfirm
	if q.AtLeastOnButton && len(selected) < q.Min {
		confirmText = messages.SelectAtLeast(q.Min)
	}
	rows = append(rows, chat.Row(chat.Button{
		Text: confirmText,
		Data: encodeConfirm(nonce),
	}))
	return rows
}

// normalize de-duplicates and orders the picks the way the keyboard lists
// them, so the stored answer is independent of click order.
func (q *MultiSelect) normalize(options []Option, selected []string) []string {
	var out []string
	for _, opt := range options {
		if containsOption(selected, opt.ID) {
			out = append(out, opt.ID)
		}
	}
	return out
}

func containsOption(selected []string, id string) bool {
	for _, s := range selected {
		if s == id {
			return true
		}
	}
	return false
}

func addOption(selected []string, id string) []string {
	if containsOption(selected, id) {
		return selected
	}
	return append(selected, id)
}

func removeOption(selected []string, id string) []string {
	out := selected[:0]
	for _, s := range selected {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}

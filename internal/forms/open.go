package forms

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"applybot/internal/domain"
	"applybot/internal/messages"

	"go.uber.org/zap"
)

// Parser validates and normalizes free-text input. Returning false rejects
// the input and re-prompts.
type Parser func(text string) (string, bool)

// Open asks a free-text question.
type Open struct {
	QuestionKey string
	Text        string
	MaxLen      int
	Parse       Parser
	InvalidText string
}

func (q *Open) Key() string   { return q.QuestionKey }
func (q *Open) Title() string { return q.Text }

// Ask sends the prompt and suspends until acceptable text arrives. Overlong
// or unparsable input gets a notice and a fresh prompt; button clicks are
// acknowledged and ignored. With an old answer, /keep short-circuits.
func (q *Open) Ask(ctx context.Context, d Dialog, p AskParams) (domain.Answer, error) {
	footer := p.Footer
	if p.Old != nil {
		footer = appendFooter(footer, messages.KeepHint(q.Stringify(*p.Old)))
	}
	prompt := buildMessage(p.Header, q.Text, footer)

	for {
		if _, err := d.Send(prompt, nil); err != nil {
			return domain.Answer{}, err
		}

	await:
		for {
			ev, err := d.Await(ctx)
			if err != nil {
				return domain.Answer{}, err
			}
			if ev.Click {
				// a click from some older keyboard; not our answer
				if err := d.Respond(ev, ""); err != nil {
					d.Logger().Warn("failed to answer stray callback", zap.Error(err))
				}
				continue await
			}

			text := strings.TrimSpace(ev.Text)
			if text == "" {
				continue await
			}
			if p.Old != nil && text == keepCommand {
				return *p.Old, nil
			}
			if q.MaxLen > 0 && utf8.RuneCountInString(text) > q.MaxLen {
				if _, err := d.Send(messages.TooLong(q.MaxLen), nil); err != nil {
					return domain.Answer{}, err
				}
				break await
			}
			if q.Parse != nil {
				parsed, ok := q.Parse(text)
				if !ok {
					if q.InvalidText != "" {
						if _, err := d.Send(q.InvalidText, nil); err != nil {
							return domain.Answer{}, err
						}
					}
					break await
				}
				return domain.TextAnswer(parsed), nil
			}
			return domain.TextAnswer(text), nil
		}
	}
}

func (q *Open) Stringify(a domain.Answer) string {
	return a.Text
}

var fullNamePattern = regexp.MustCompile(`^(?i)(?:[\p{L}.\-'",]{2,}\s*)+$`)

var whitespaceRun = regexp.MustCompile(`\s\s+`)

// ParseFullName trims and collapses whitespace and accepts only plausible
// human names (letters and common name punctuation, words of 2+ runes).
func ParseFullName(text string) (string, bool) {
	text = strings.TrimSpace(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	if fullNamePattern.MatchString(text) {
		return text, true
	}
	return "", false
}

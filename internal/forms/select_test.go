package forms

import (
	"context"
	"testing"

	"applybot/internal/domain"
	"applybot/internal/messages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func colorSelect() *Select {
	return &Select{
		QuestionKey: "q-color",
		Text:        "Pick a color",
		Rows: [][]Option{
			{{ID: "red", Label: "Red"}, {ID: "green", Label: "Green"}},
			{{ID: "blue", Label: "Blue"}},
		},
	}
}

func TestSelect_Click(t *testing.T) {
	q := colorSelect()
	d := newScriptDialog(press(1, 0))

	ans, err := q.Ask(context.Background(), d, AskParams{})
	require.NoError(t, err)
	assert.Equal(t, domain.OptionsAnswer("blue"), ans)

	// the click was acknowledged and the keyboard removed
	assert.Len(t, d.Transport.Responses, 1)
	require.Len(t, d.Transport.Edits, 1)
	assert.Nil(t, d.Transport.Edits[0].Rows)
}

func TestSelect_StaleClickIgnored(t *testing.T) {
	q := colorSelect()
	d := newScriptDialog(sayData("qslct:oldnonce:0"), press(0, 1))

	ans, err := q.Ask(context.Background(), d, AskParams{})
	require.NoError(t, err)
	assert.Equal(t, "green", ans.Option())
	// both the stale and the real click got a callback answer
	assert.Len(t, d.Transport.Responses, 2)
}

func TestSelect_UnrelatedTextIgnored(t *testing.T) {
	q := colorSelect()
	d := newScriptDialog(say("purple"), press(0, 0))

	ans, err := q.Ask(context.Background(), d, AskParams{})
	require.NoError(t, err)
	assert.Equal(t, "red", ans.Option())
	// the prompt is not re-sent on unrelated text
	assert.Len(t, d.Transport.Sent, 1)
}

func TestSelect_OrdinalCommand(t *testing.T) {
	q := colorSelect()
	d := newScriptDialog(say("/4"), say("/2"))

	ans, err := q.Ask(context.Background(), d, AskParams{})
	require.NoError(t, err)
	// "/4" is out of range and ignored, "/2" picks the second option
	assert.Equal(t, "green", ans.Option())
}

func TestSelect_Keep(t *testing.T) {
	q := colorSelect()
	old := domain.OptionsAnswer("blue")
	d := newScriptDialog(say("/keep"))

	ans, err := q.Ask(context.Background(), d, AskParams{Old: &old})
	require.NoError(t, err)
	assert.Equal(t, "blue", ans.Option())
	assert.Contains(t, d.Transport.Sent[0].Text, messages.KeepHint("Blue"))
}

func TestSelect_PrintSelected(t *testing.T) {
	q := colorSelect()
	q.PrintSelected = true
	d := newScriptDialog(press(0, 0))

	_, err := q.Ask(context.Background(), d, AskParams{})
	require.NoError(t, err)
	require.Len(t, d.Transport.Edits, 1)
	assert.Contains(t, d.Transport.Edits[0].Text, messages.SelectedFooter("Red"))
}

func TestSelect_TextFuncPrompt(t *testing.T) {
	q := colorSelect()
	q.TextFunc = func(sess *domain.Session) string { return "Dynamic prompt" }
	d := newScriptDialog(press(0, 0))

	_, err := q.Ask(context.Background(), d, AskParams{})
	require.NoError(t, err)
	assert.Equal(t, "Dynamic prompt", d.Transport.Sent[0].Text)
}

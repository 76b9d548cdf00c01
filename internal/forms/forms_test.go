package forms

import (
	"context"

	"applybot/internal/chat"
	"applybot/internal/testutil"
)

// action produces the next inbound event, looking at what the question has
// sent so far. Clicks are built from the live keyboard, so they carry the
// real per-prompt nonce.
type action func(d *scriptDialog) chat.Event

// scriptDialog runs a question against a fixed action sequence.
type scriptDialog struct {
	*testutil.FakeDialog
	actions []action
	next    int
}

func newScriptDialog(actions ...action) *scriptDialog {
	return &scriptDialog{
		FakeDialog: testutil.NewFakeDialog(42),
		actions:    actions,
	}
}

func (d *scriptDialog) Await(ctx context.Context) (chat.Event, error) {
	if d.next >= len(d.actions) {
		return chat.Event{}, testutil.ErrScriptDone
	}
	a := d.actions[d.next]
	d.next++
	return a(d), nil
}

// keyboard returns the most recent keyboard shown to the user, following
// re-renders done through Edit.
func (d *scriptDialog) keyboard() [][]chat.Button {
	for i := len(d.Transport.Edits) - 1; i >= 0; i-- {
		if d.Transport.Edits[i].Rows != nil {
			return d.Transport.Edits[i].Rows
		}
	}
	for i := len(d.Transport.Sent) - 1; i >= 0; i-- {
		if d.Transport.Sent[i].Rows != nil {
			return d.Transport.Sent[i].Rows
		}
	}
	return nil
}

// press clicks the button at the given keyboard position.
func press(row, col int) action {
	return func(d *scriptDialog) chat.Event {
		kb := d.keyboard()
		return chat.ClickEvent("cb", kb[row][col].Data)
	}
}

// say sends free text.
func say(text string) action {
	return func(d *scriptDialog) chat.Event {
		return chat.TextEvent(text)
	}
}

// sayData sends a raw callback payload, bypassing the live keyboard.
func sayData(data string) action {
	return func(d *scriptDialog) chat.Event {
		return chat.ClickEvent("cb", data)
	}
}

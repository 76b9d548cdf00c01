package flow

import (
	"context"
	"strings"
	"testing"
	"time"

	"applybot/internal/chat"
	"applybot/internal/domain"
	"applybot/internal/messages"
	"applybot/internal/service"
	"applybot/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(store *testutil.MemorySessionStore, tr *testutil.ScriptTransport) *Manager {
	reg := NewRegistry(NewQuestionnaire(), &fakeSubmitter{outcome: service.SubmitOK}, zap.NewNop())
	return NewManager(reg, store, tr, zap.NewNop())
}

// waitSent polls until the transport has sent a message containing the
// given substring.
func waitSent(t *testing.T, tr *testutil.ScriptTransport, contains string) testutil.SentMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, m := range tr.SentSnapshot() {
			if strings.Contains(m.Text, contains) {
				return m
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q; got %q", contains, tr.SentTexts())
	return testutil.SentMessage{}
}

func TestManager_BeginSendsIntroAndGuardsReentry(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	require.NoError(t, m.Begin(7, "jdoe"))
	waitSent(t, tr, messages.Begin)
	assert.True(t, m.Active(7))

	assert.ErrorIs(t, m.Begin(7, "jdoe"), ErrAlreadyActive)
}

func TestManager_BeginRefusesSubmitted(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	sess := domain.NewSession(7)
	now := time.Now()
	sess.SubmittedAt = &now
	require.NoError(t, store.Save(sess))

	assert.ErrorIs(t, m.Begin(7, "jdoe"), ErrAlreadySubmitted)
	assert.False(t, m.Active(7))
}

func TestManager_CancelPausesAndBeginContinues(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	require.NoError(t, m.Begin(7, "jdoe"))
	intro := waitSent(t, tr, messages.Begin)

	delivered, err := m.Deliver(7, "jdoe", chat.ClickEvent("cb", intro.Rows[0][0].Data))
	require.NoError(t, err)
	assert.True(t, delivered)
	waitSent(t, tr, messages.QName)

	_, err = m.Deliver(7, "jdoe", chat.TextEvent("John Smith"))
	require.NoError(t, err)
	waitSent(t, tr, messages.QSkills)

	cancelled, err := m.Cancel(7)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.False(t, m.Active(7))

	persisted, err := store.Get(7)
	require.NoError(t, err)
	assert.False(t, persisted.Active)
	assert.Equal(t, domain.At(domain.StepBeginning), persisted.CurrentStep)
	// answers survive the pause
	assert.Equal(t, "John Smith", persisted.Application.Name)

	// a second cancel has nothing to do
	cancelled, err = m.Cancel(7)
	require.NoError(t, err)
	assert.False(t, cancelled)

	// starting again greets the returning user
	require.NoError(t, m.Begin(7, "jdoe"))
	waitSent(t, tr, messages.BeginReturned)
}

func TestManager_CancelWinsOverConcurrentDelivery(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	require.NoError(t, m.Begin(7, "jdoe"))
	intro := waitSent(t, tr, messages.Begin)
	_, err := m.Deliver(7, "jdoe", chat.ClickEvent("cb", intro.Rows[0][0].Data))
	require.NoError(t, err)
	waitSent(t, tr, messages.QName)

	// inbound traffic keeps respawning runners while the cancel is in
	// flight; the rewrite must still land last
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_, _ = m.Deliver(7, "jdoe", chat.TextEvent("John Smith"))
		}
	}()

	cancelled, err := m.Cancel(7)
	require.NoError(t, err)
	assert.True(t, cancelled)
	<-done

	assert.False(t, m.Active(7))
	persisted, err := store.Get(7)
	require.NoError(t, err)
	assert.False(t, persisted.Active)
	assert.Equal(t, domain.At(domain.StepBeginning), persisted.CurrentStep)
}

func TestManager_DeliverResumesParkedSession(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	// an active mid-form session with no live runner, as after a restart
	sess := domain.NewSession(7)
	sess.Active = true
	sess.Began = true
	sess.Application.Name = "Jane"
	sess.CurrentStep = domain.AtQuestion(domain.StepBeforeDepartments, 0)
	require.NoError(t, store.Save(sess))
	assert.False(t, m.Active(7))

	// the inbound answer spawns a runner that re-asks the saved step and
	// consumes the buffered event as its answer
	delivered, err := m.Deliver(7, "jane", chat.TextEvent("Go and SQL"))
	require.NoError(t, err)
	assert.True(t, delivered)

	waitSent(t, tr, messages.QSkills)
	waitSent(t, tr, messages.QSelectDepartments)

	persisted, err := store.Get(7)
	require.NoError(t, err)
	assert.Equal(t, "Go and SQL", persisted.Application.BeforeQA[0].Text)
}

func TestManager_DeliverWithoutSessionIsIgnored(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	delivered, err := m.Deliver(7, "jdoe", chat.TextEvent("hello"))
	require.NoError(t, err)
	assert.False(t, delivered)
	assert.Empty(t, tr.SentSnapshot())
}

func TestManager_UndoReasksPreviousQuestion(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	require.NoError(t, m.Begin(7, "jdoe"))
	intro := waitSent(t, tr, messages.Begin)
	_, err := m.Deliver(7, "jdoe", chat.ClickEvent("cb", intro.Rows[0][0].Data))
	require.NoError(t, err)
	waitSent(t, tr, messages.QName)
	_, err = m.Deliver(7, "jdoe", chat.TextEvent("John Smith"))
	require.NoError(t, err)
	waitSent(t, tr, messages.QSkills)

	res, err := m.Undo(7, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, UndoDone, res)

	// the name question is asked again, offering the saved answer
	reasked := waitSent(t, tr, messages.KeepHint("John Smith"))
	assert.Contains(t, reasked.Text, messages.QName)
	assert.True(t, m.Active(7))
}

func TestManager_UndoAtStartIsImpossible(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	require.NoError(t, m.Begin(7, "jdoe"))
	waitSent(t, tr, messages.Begin)

	res, err := m.Undo(7, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, UndoImpossible, res)

	// the conversation keeps running
	assert.True(t, m.Active(7))
}

func TestManager_UndoWithoutConversation(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	res, err := m.Undo(7, "jdoe")
	require.NoError(t, err)
	assert.Equal(t, UndoInactive, res)
}

func TestManager_PanickingStepReportsErrorAndKeepsPointer(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)
	defer m.Stop()

	// a buggy handler for the name step
	m.registry.steps[domain.StepFullName] = stepDef{
		handle: func(context.Context, *Conversation, domain.Step) (*domain.Step, error) {
			panic("boom")
		},
	}

	require.NoError(t, m.Begin(7, "jdoe"))
	intro := waitSent(t, tr, messages.Begin)
	_, err := m.Deliver(7, "jdoe", chat.ClickEvent("cb", intro.Rows[0][0].Data))
	require.NoError(t, err)

	// the runner dies in its own goroutine and tells the user, instead of
	// taking the process down
	waitSent(t, tr, messages.GenericError)

	deadline := time.Now().Add(3 * time.Second)
	for m.Active(7) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.False(t, m.Active(7))

	// the pointer stays at the last checkpoint so the form can resume
	persisted, err := store.Get(7)
	require.NoError(t, err)
	assert.True(t, persisted.Active)
	assert.Equal(t, domain.StepFullName, persisted.CurrentStep.Name)
}

func TestManager_StopInterruptsRunners(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	m := newTestManager(store, tr)

	require.NoError(t, m.Begin(7, "jdoe"))
	waitSent(t, tr, messages.Begin)

	m.Stop()
	assert.False(t, m.Active(7))

	// a stopped manager takes no new work
	assert.Error(t, m.Begin(8, "other"))
	delivered, err := m.Deliver(7, "jdoe", chat.TextEvent("hi"))
	require.NoError(t, err)
	assert.False(t, delivered)
}

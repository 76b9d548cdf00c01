package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"
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

// fakeSubmitter records submitted applications and returns a fixed outcome.
type fakeSubmitter struct {
	mu      sync.Mutex
	outcome service.Outcome
	apps    []domain.CandidateApplication
}

func (f *fakeSubmitter) Submit(_ context.Context, app domain.CandidateApplication) service.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = append(f.apps, app)
	return f.outcome
}

func (f *fakeSubmitter) submitted() []domain.CandidateApplication {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CandidateApplication(nil), f.apps...)
}

// driver runs a conversation in a goroutine and feeds it events the way the
// handler layer would, waiting for prompts before answering them.
type driver struct {
	t    *testing.T
	conv *Conversation
	tr   *testutil.ScriptTransport
	done chan error
	seen int
}

func startConversation(t *testing.T, reg *Registry, sess *domain.Session, store *testutil.MemorySessionStore, tr *testutil.ScriptTransport) *driver {
	t.Helper()
	conv := NewConversation("jdoe", sess, tr, store, zap.NewNop(), 16)
	d := &driver{t: t, conv: conv, tr: tr, done: make(chan error, 1)}
	go func() {
		d.done <- reg.Run(context.Background(), conv)
	}()
	return d
}

// waitMessage blocks until a not-yet-seen outbound message contains the
// given substring.
func (d *driver) waitMessage(contains string) testutil.SentMessage {
	d.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		msgs := d.tr.SentSnapshot()
		for i := d.seen; i < len(msgs); i++ {
			if strings.Contains(msgs[i].Text, contains) {
				d.seen = i + 1
				return msgs[i]
			}
		}
		time.Sleep(time.Millisecond)
	}
	d.t.Fatalf("timed out waiting for message containing %q; got %q", contains, d.tr.SentTexts())
	return testutil.SentMessage{}
}

func (d *driver) say(text string) {
	d.conv.Deliver(chat.TextEvent(text))
}

func (d *driver) click(msg testutil.SentMessage, row, col int) {
	d.t.Helper()
	require.Greater(d.t, len(msg.Rows), row)
	require.Greater(d.t, len(msg.Rows[row]), col)
	d.conv.Deliver(chat.ClickEvent("cb", msg.Rows[row][col].Data))
}

func (d *driver) finish() error {
	d.t.Helper()
	select {
	case err := <-d.done:
		return err
	case <-time.After(3 * time.Second):
		d.t.Fatal("conversation did not finish")
		return nil
	}
}

func TestRun_FullWalkthrough(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	sub := &fakeSubmitter{outcome: service.SubmitOK}
	reg := NewRegistry(NewQuestionnaire(), sub, zap.NewNop())

	sess := domain.NewSession(7)
	sess.Active = true
	d := startConversation(t, reg, sess, store, tr)

	intro := d.waitMessage(messages.Begin)
	d.click(intro, 0, 0) // let's go

	d.waitMessage(messages.QName)
	d.say("John Smith")

	d.waitMessage(messages.QSkills)
	d.say("Go, SQL, a bit of everything")

	sel := d.waitMessage(messages.QSelectDepartments)
	d.click(sel, 0, 0) // tick tech
	d.click(sel, 0, 1) // tick design
	d.click(sel, 2, 0) // confirm row

	ready := d.waitMessage("you picked: Tech, Design (2)")
	d.click(ready, 0, 0) // ok

	techPrompts := []string{messages.QTech1, messages.QTech2, messages.QTech3, messages.QTech4}
	for i, prompt := range techPrompts {
		msg := d.waitMessage(prompt)
		assert.Contains(t, msg.Text, fmt.Sprintf(messages.DepartmentQuestionHeader, "Tech", i+1, 4))
		d.say(fmt.Sprintf("tech answer %d", i+1))
	}

	design1 := d.waitMessage(messages.QDesign1)
	assert.Contains(t, design1.Text, fmt.Sprintf(messages.DepartmentQuestionHeader, "Design", 1, 3))
	d.click(design1, 0, 0) // tick ux/ui
	d.click(design1, 3, 0) // confirm row

	d.waitMessage(messages.QDesign2)
	d.say("Figma")
	d.waitMessage(messages.QDesign3)
	d.say("brief, drafts, delivery")

	d.waitMessage(fmt.Sprintf(messages.AlmostDone, 5))

	d.waitMessage(messages.QMotivation)
	d.say("I like what you do")
	d.waitMessage(messages.QTimeToSpend)
	d.say("/1")
	d.waitMessage(messages.QDeadlines)
	d.say("I deliver")
	d.waitMessage(messages.QPortfolio)
	d.say("https://example.com/portfolio")
	d.waitMessage(messages.QLearntFrom)
	d.say("a friend")

	summary := d.waitMessage("Here is your application")
	assert.Contains(t, summary.Text, "John Smith")
	assert.Contains(t, summary.Text, "tech answer 3")
	d.click(summary, 0, 0) // submit

	d.waitMessage(messages.Submitted)
	require.NoError(t, d.finish())

	apps := sub.submitted()
	require.Len(t, apps, 1)
	app := apps[0]
	assert.Equal(t, int64(7), app.TelegramID)
	assert.Equal(t, "jdoe", app.TelegramUsername)
	assert.Equal(t, "John Smith", app.Name)
	assert.Equal(t, []domain.DepartmentID{domain.DepartmentTech, domain.DepartmentDesign}, app.SelectedDepartments)

	require.Len(t, app.GeneralQA, 6)
	assert.Equal(t, messages.QSkills, app.GeneralQA[0].Question)
	assert.Equal(t, "Go, SQL, a bit of everything", app.GeneralQA[0].Answer)
	assert.Equal(t, messages.TimeHours1to5, app.GeneralQA[2].Answer)

	require.Len(t, app.DepartmentsQA[domain.DepartmentTech], 4)
	require.Len(t, app.DepartmentsQA[domain.DepartmentDesign], 3)
	assert.Equal(t, messages.DesignUxUi, app.DepartmentsQA[domain.DepartmentDesign][0].Answer)

	// the session is terminal and durably marked submitted
	assert.False(t, sess.Active)
	require.NotNil(t, sess.SubmittedAt)
	persisted, err := store.Get(7)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.NotNil(t, persisted.SubmittedAt)
	assert.False(t, persisted.Active)
}

func TestRun_IntroCancelKeepsNothingStarted(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	reg := NewRegistry(NewQuestionnaire(), &fakeSubmitter{outcome: service.SubmitOK}, zap.NewNop())

	sess := domain.NewSession(7)
	sess.Active = true
	d := startConversation(t, reg, sess, store, tr)

	intro := d.waitMessage(messages.Begin)
	d.click(intro, 0, 1) // not now

	d.waitMessage(messages.BeginCancelled)
	require.NoError(t, d.finish())

	assert.False(t, sess.Active)
	assert.False(t, sess.Began)
	assert.Equal(t, domain.At(domain.StepBeginning), sess.CurrentStep)
}

func TestRun_ResumesMidFormFromSavedStep(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	sub := &fakeSubmitter{outcome: service.SubmitOK}
	reg := NewRegistry(NewQuestionnaire(), sub, zap.NewNop())

	// a session parked on the second management question, as a crashed
	// process would have left it
	sess := domain.NewSession(9)
	sess.Active = true
	sess.Began = true
	sess.Ready = true
	sess.Application.Name = "Jane Roe"
	sess.Application.SelectedDepartments = []domain.DepartmentID{domain.DepartmentManagement}
	sess.Application.BeforeQA = domain.SetAt(nil, 0, domain.TextAnswer("planning"))
	sess.Application.SetDepartmentAnswer(domain.DepartmentManagement, 0, 5, domain.TextAnswer("my team"))
	sess.CurrentStep = domain.AtDepartment(domain.DepartmentManagement, 1)

	d := startConversation(t, reg, sess, store, tr)

	// the saved step is re-asked, nothing before it is repeated
	msg := d.waitMessage(messages.QManagement2)
	assert.Contains(t, msg.Text, fmt.Sprintf(messages.DepartmentQuestionHeader, "Management", 2, 5))
	d.say("standups")
	d.waitMessage(messages.QManagement3)

	d.conv.CloseInbox()
	assert.ErrorIs(t, d.finish(), ErrInterrupted)

	// the answered question advanced the durable pointer
	persisted, err := store.Get(9)
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, domain.AtDepartment(domain.DepartmentManagement, 2), persisted.CurrentStep)
	assert.Equal(t, "standups", persisted.Application.DepartmentQA[domain.DepartmentManagement][1].Text)
	assert.Equal(t, "my team", persisted.Application.DepartmentQA[domain.DepartmentManagement][0].Text)
}

func TestRun_ReviewLoopOffersKeep(t *testing.T) {
	store := testutil.NewMemorySessionStore()
	tr := testutil.NewScriptTransport()
	sub := &fakeSubmitter{outcome: service.SubmitOK}
	reg := NewRegistry(NewQuestionnaire(), sub, zap.NewNop())

	sess := completedSession(11)
	sess.CurrentStep = domain.At(domain.StepConfirming)

	d := startConversation(t, reg, sess, store, tr)

	summary := d.waitMessage("Here is your application")
	d.click(summary, 0, 1) // edit answers

	// the walk restarts at the name, every prompt offering /keep
	name := d.waitMessage(messages.QName)
	assert.Contains(t, name.Text, messages.ReviewingHeader)
	assert.Contains(t, name.Text, messages.KeepHint("Old Name"))
	d.say("New Name")

	skills := d.waitMessage(messages.QSkills)
	assert.Contains(t, skills.Text, "Send /keep")
	d.say("/keep")

	d.waitMessage(messages.QSelectDepartments)
	d.say("/keep")

	media1 := d.waitMessage(messages.QMedia1)
	assert.Contains(t, media1.Text, messages.ReviewingHeader)
	d.say("/keep")
	d.waitMessage(messages.QMedia2)
	d.say("/keep")
	d.waitMessage(messages.QMedia3)
	d.say("/keep")

	d.waitMessage(messages.QMotivation)
	d.say("/keep")
	d.waitMessage(messages.QTimeToSpend)
	d.say("/keep")
	d.waitMessage(messages.QDeadlines)
	d.say("/keep")
	d.waitMessage(messages.QPortfolio)
	d.say("/keep")
	d.waitMessage(messages.QLearntFrom)
	d.say("/keep")

	summary = d.waitMessage("Here is your application")
	assert.Contains(t, summary.Text, "New Name")
	assert.NotContains(t, summary.Text, messages.ReviewingHeader)
	d.click(summary, 0, 0) // submit

	d.waitMessage(messages.Submitted)
	require.NoError(t, d.finish())

	apps := sub.submitted()
	require.Len(t, apps, 1)
	assert.Equal(t, "New Name", apps[0].Name)
	assert.Equal(t, "old skills", apps[0].GeneralQA[0].Answer)
	assert.False(t, sess.Editing)
}

func TestRun_SubmitOutcomes(t *testing.T) {
	tests := []struct {
		name          string
		outcome       service.Outcome
		wantMessage   string
		wantSubmitted bool
	}{
		{"success", service.SubmitOK, messages.Submitted, true},
		{"duplicate", service.SubmitDuplicate, messages.SubmissionDuplicate, true},
		{"failure", service.SubmitFailed, messages.SubmissionError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewMemorySessionStore()
			tr := testutil.NewScriptTransport()
			sub := &fakeSubmitter{outcome: tt.outcome}
			reg := NewRegistry(NewQuestionnaire(), sub, zap.NewNop())

			sess := completedSession(5)
			sess.CurrentStep = domain.At(domain.StepConfirming)
			d := startConversation(t, reg, sess, store, tr)

			summary := d.waitMessage("Here is your application")
			d.click(summary, 0, 0)

			d.waitMessage(tt.wantMessage)
			require.NoError(t, d.finish())

			if tt.wantSubmitted {
				assert.NotNil(t, sess.SubmittedAt)
			} else {
				// failed submissions stay retryable
				assert.Nil(t, sess.SubmittedAt)
			}
			assert.False(t, sess.Active)
		})
	}
}

// completedSession builds a session with every question answered, parked
// before confirmation, with the media department selected.
func completedSession(userID int64) *domain.Session {
	sess := domain.NewSession(userID)
	sess.Active = true
	sess.Began = true
	sess.Ready = true
	sess.AnsweredDepartments = true
	sess.Application.Name = "Old Name"
	sess.Application.SelectedDepartments = []domain.DepartmentID{domain.DepartmentMedia}
	sess.Application.BeforeQA = domain.SetAt(nil, 0, domain.TextAnswer("old skills"))
	for i := 0; i < 3; i++ {
		sess.Application.SetDepartmentAnswer(domain.DepartmentMedia, i, 3, domain.TextAnswer(fmt.Sprintf("media %d", i+1)))
	}
	sess.Application.AfterQA = domain.SetAt(nil, 0, domain.TextAnswer("old motivation"))
	sess.Application.AfterQA = domain.SetAt(sess.Application.AfterQA, 1, domain.OptionsAnswer("hours-per-week-5-10"))
	sess.Application.AfterQA = domain.SetAt(sess.Application.AfterQA, 2, domain.TextAnswer("old deadlines"))
	sess.Application.AfterQA = domain.SetAt(sess.Application.AfterQA, 3, domain.TextAnswer("old portfolio"))
	sess.Application.AfterQA = domain.SetAt(sess.Application.AfterQA, 4, domain.TextAnswer("old learnt"))
	return sess
}

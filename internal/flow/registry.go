package flow

import (
	"context"
	"fmt"
	"time"

	"applybot/internal/domain"
	"applybot/internal/forms"
	"applybot/internal/messages"
	"applybot/internal/service"

	"go.uber.org/zap"
)

// ApplicationSubmitter writes a finished application to the record store(s).
type ApplicationSubmitter interface {
	Submit(ctx context.Context, app domain.CandidateApplication) service.Outcome
}

// stepDef is one node of the conversation graph: a forward handler that
// asks at most one question and returns the next node (nil terminates), and
// an optional backward function for /undo.
type stepDef struct {
	handle func(ctx context.Context, c *Conversation, s domain.Step) (*domain.Step, error)
	prev   func(s domain.Step, sess *domain.Session) *domain.Step
}

// Registry is the fixed directed graph of conversation steps.
type Registry struct {
	q         *Questionnaire
	submitter ApplicationSubmitter
	logger    *zap.Logger
	steps     map[domain.StepName]stepDef
}

// NewRegistry builds the candidate application step graph.
func NewRegistry(q *Questionnaire, submitter ApplicationSubmitter, logger *zap.Logger) *Registry {
	r := &Registry{q: q, submitter: submitter, logger: logger}
	r.steps = map[domain.StepName]stepDef{
		domain.StepBeginning:            {handle: r.handleBeginning},
		domain.StepFullName:             {handle: r.handleName},
		domain.StepBeforeDepartments:    {handle: r.handleBefore, prev: r.prevBefore},
		domain.StepSelectingDepartments: {handle: r.handleSelecting, prev: r.prevSelecting},
		domain.StepDepartmentsPreparing: {handle: r.handlePreparing, prev: r.prevPreparing},
		domain.StepDepartments:          {handle: r.handleDepartment, prev: r.prevDepartment},
		domain.StepDepartmentsDone:      {handle: r.handleDepartmentsDone},
		domain.StepAfterDepartments:     {handle: r.handleAfter, prev: r.prevAfter},
		domain.StepConfirming:           {handle: r.handleConfirming, prev: r.prevConfirming},
	}
	return r
}

// Run drives the conversation from the session's current step until a
// terminal node or an interruption. Answer mutations and the advance of the
// step pointer are persisted as one unit per transition, so a crash between
// transitions resumes by re-asking the current step without duplicating any
// saved answer.
func (r *Registry) Run(ctx context.Context, c *Conversation) error {
	cur := c.sess.CurrentStep
	for {
		def, ok := r.steps[cur.Name]
		if !ok {
			return fmt.Errorf("session points at unknown step %q", cur.Name)
		}

		next, err := r.invoke(ctx, c, def, cur)
		if err != nil {
			return err
		}

		if next != nil {
			c.sess.CurrentStep = *next
		} else {
			c.sess.Active = false
		}
		if err := c.Checkpoint(); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}
		if next == nil {
			return nil
		}
		cur = *next
	}
}

// invoke runs one step handler, converting panics into errors so a buggy
// handler can't take the process down; the durable pointer stays put.
func (r *Registry) invoke(
	ctx context.Context, c *Conversation, def stepDef, s domain.Step,
) (next *domain.Step, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("step %q panicked: %v", s.Name, p)
		}
	}()
	return def.handle(ctx, c, s)
}

// Prev computes the node /undo leads to, or nil when the current node does
// not support going back.
func (r *Registry) Prev(s domain.Step, sess *domain.Session) *domain.Step {
	def, ok := r.steps[s.Name]
	if !ok || def.prev == nil {
		return nil
	}
	return def.prev(s, sess)
}

func step(s domain.Step) *domain.Step { return &s }

func editHeader(sess *domain.Session) string {
	if sess.Editing {
		return messages.ReviewingHeader
	}
	return ""
}

func (r *Registry) handleBeginning(ctx context.Context, c *Conversation, _ domain.Step) (*domain.Step, error) {
	sess := c.Session()
	intro := r.q.Begin
	if sess.Began {
		intro = r.q.Continue
	}

	ans, err := intro.Ask(ctx, c, forms.AskParams{})
	if err != nil {
		return nil, err
	}

	switch ans.Option() {
	case optBegin, optContinue:
		sess.Began = true
		return step(domain.At(domain.StepFullName)), nil
	case optCancel:
		if _, err := c.Send(messages.BeginCancelled, nil); err != nil {
			return nil, err
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected intro answer %q", ans.Option())
	}
}

func (r *Registry) handleName(ctx context.Context, c *Conversation, _ domain.Step) (*domain.Step, error) {
	sess := c.Session()

	var old *domain.Answer
	if sess.Application.Name != "" {
		saved := domain.TextAnswer(sess.Application.Name)
		old = &saved
	}

	ans, err := r.q.Name.Ask(ctx, c, forms.AskParams{Header: editHeader(sess), Old: old})
	if err != nil {
		return nil, err
	}

	sess.Application.Name = ans.Text
	return step(domain.AtQuestion(domain.StepBeforeDepartments, 0)), nil
}

func (r *Registry) handleBefore(ctx context.Context, c *Conversation, s domain.Step) (*domain.Step, error) {
	sess := c.Session()
	i := s.Question

	if i < 0 {
		return step(domain.At(domain.StepFullName)), nil
	}
	if i >= len(r.q.Before) {
		return step(domain.At(domain.StepSelectingDepartments)), nil
	}

	saved := domain.AnswerAt(sess.Application.BeforeQA, i)
	ans, err := r.q.Before[i].Ask(ctx, c, forms.AskParams{Header: editHeader(sess), Old: saved})
	if err != nil {
		return nil, err
	}

	sess.Application.BeforeQA = domain.SetAt(sess.Application.BeforeQA, i, ans)
	return step(domain.AtQuestion(domain.StepBeforeDepartments, i+1)), nil
}

func (r *Registry) prevBefore(s domain.Step, _ *domain.Session) *domain.Step {
	if s.Question <= 0 {
		return step(domain.At(domain.StepFullName))
	}
	return step(domain.AtQuestion(domain.StepBeforeDepartments, s.Question-1))
}

func (r *Registry) handleSelecting(ctx context.Context, c *Conversation, _ domain.Step) (*domain.Step, error) {
	sess := c.Session()

	var old *domain.Answer
	if len(sess.Application.SelectedDepartments) > 0 {
		ids := make([]string, 0, len(sess.Application.SelectedDepartments))
		for _, d := range sess.Application.SelectedDepartments {
			ids = append(ids, string(d))
		}
		saved := domain.OptionsAnswer(ids...)
		old = &saved
	}

	ans, err := r.q.SelectDepartments.Ask(ctx, c, forms.AskParams{Header: editHeader(sess), Old: old})
	if err != nil {
		return nil, err
	}

	selected := make([]domain.DepartmentID, 0, len(ans.Options))
	for _, id := range ans.Options {
		selected = append(selected, domain.DepartmentID(id))
	}
	sess.Application.SelectedDepartments = selected

	if sess.Ready {
		if first := r.firstSelected(sess); first != nil {
			return step(domain.AtDepartment(*first, 0)), nil
		}
	}
	return step(domain.At(domain.StepDepartmentsPreparing)), nil
}

func (r *Registry) prevSelecting(_ domain.Step, _ *domain.Session) *domain.Step {
	return step(domain.AtQuestion(domain.StepBeforeDepartments, len(r.q.Before)-1))
}

func (r *Registry) handlePreparing(ctx context.Context, c *Conversation, _ domain.Step) (*domain.Step, error) {
	sess := c.Session()

	if len(sess.Application.SelectedDepartments) == 0 {
		return step(domain.At(domain.StepSelectingDepartments)), nil
	}
	if sess.Ready {
		if first := r.firstSelected(sess); first != nil {
			return step(domain.AtDepartment(*first, 0)), nil
		}
		return step(domain.At(domain.StepSelectingDepartments)), nil
	}

	if _, err := r.q.Ready.Ask(ctx, c, forms.AskParams{}); err != nil {
		return nil, err
	}
	sess.Ready = true
	// re-enter so the ready branch above runs
	return step(domain.At(domain.StepDepartmentsPreparing)), nil
}

func (r *Registry) prevPreparing(_ domain.Step, _ *domain.Session) *domain.Step {
	return step(domain.At(domain.StepSelectingDepartments))
}

func (r *Registry) handleDepartment(ctx context.Context, c *Conversation, s domain.Step) (*domain.Step, error) {
	sess := c.Session()
	dep := s.Department

	questions, ok := r.q.Departments[dep]
	if !ok || len(sess.Application.SelectedDepartments) == 0 {
		return step(domain.At(domain.StepSelectingDepartments)), nil
	}

	i := s.Question
	if i < 0 {
		i = 0
	}
	count := len(questions)

	var next domain.Step
	if i >= count-1 {
		if nextDep := r.nextSelectedAfter(sess, dep); nextDep != nil {
			next = domain.AtDepartment(*nextDep, 0)
		} else {
			next = domain.At(domain.StepDepartmentsDone)
		}
	} else {
		next = domain.AtDepartment(dep, i+1)
	}
	if i >= count {
		return &next, nil
	}

	saved := domain.AnswerAt(sess.Application.DepartmentQA[dep], i)
	header := fmt.Sprintf(messages.DepartmentQuestionHeader, dep.DisplayName(), i+1, count)
	if sess.Editing {
		header = messages.ReviewingHeader + "\n" + header
	}

	ans, err := questions[i].Ask(ctx, c, forms.AskParams{Header: header, Old: saved})
	if err != nil {
		return nil, err
	}

	sess.Application.SetDepartmentAnswer(dep, i, count, ans)
	return &next, nil
}

// prevDepartment steps back within a department, or to the last question of
// the previous selected department in canonical order, or to the department
// selection if this was the first.
func (r *Registry) prevDepartment(s domain.Step, sess *domain.Session) *domain.Step {
	if len(sess.Application.SelectedDepartments) == 0 {
		return step(domain.At(domain.StepSelectingDepartments))
	}
	if s.Question > 0 {
		return step(domain.AtDepartment(s.Department, s.Question-1))
	}

	depIndex := -1
	for i, d := range domain.DepartmentIDs {
		if d == s.Department {
			depIndex = i
			break
		}
	}
	for i := depIndex - 1; i >= 0; i-- {
		d := domain.DepartmentIDs[i]
		if sess.Application.Selected(d) {
			return step(domain.AtDepartment(d, len(r.q.Departments[d])-1))
		}
	}
	return step(domain.At(domain.StepSelectingDepartments))
}

func (r *Registry) handleDepartmentsDone(_ context.Context, c *Conversation, _ domain.Step) (*domain.Step, error) {
	sess := c.Session()
	if !sess.AnsweredDepartments {
		sess.AnsweredDepartments = true
		notice := fmt.Sprintf(messages.AlmostDone, len(r.q.After))
		if _, err := c.Send(notice, nil); err != nil {
			return nil, err
		}
	}
	return step(domain.AtQuestion(domain.StepAfterDepartments, 0)), nil
}

func (r *Registry) handleAfter(ctx context.Context, c *Conversation, s domain.Step) (*domain.Step, error) {
	sess := c.Session()
	i := s.Question

	if i < 0 {
		// /undo from the first post-department question jumps to the last
		// question of the last selected department
		selected := sess.Application.SelectedDepartments
		if len(selected) == 0 {
			return nil, nil
		}
		lastDep := selected[len(selected)-1]
		questions := r.q.Departments[lastDep]
		if len(questions) == 0 {
			return nil, nil
		}
		return step(domain.AtDepartment(lastDep, len(questions)-1)), nil
	}
	if i >= len(r.q.After) {
		return step(domain.At(domain.StepConfirming)), nil
	}

	saved := domain.AnswerAt(sess.Application.AfterQA, i)
	ans, err := r.q.After[i].Ask(ctx, c, forms.AskParams{Header: editHeader(sess), Old: saved})
	if err != nil {
		return nil, err
	}

	sess.Application.AfterQA = domain.SetAt(sess.Application.AfterQA, i, ans)
	return step(domain.AtQuestion(domain.StepAfterDepartments, i+1)), nil
}

func (r *Registry) prevAfter(s domain.Step, _ *domain.Session) *domain.Step {
	return step(domain.AtQuestion(domain.StepAfterDepartments, s.Question-1))
}

func (r *Registry) handleConfirming(ctx context.Context, c *Conversation, _ domain.Step) (*domain.Step, error) {
	sess := c.Session()
	sess.Editing = false

	ans, err := r.q.Confirm.Ask(ctx, c, forms.AskParams{})
	if err != nil {
		return nil, err
	}

	switch ans.Option() {
	case optSubmit:
		app := r.q.BuildApplication(c.userID, c.username, sess)
		outcome := r.submitter.Submit(ctx, app)

		var final string
		switch outcome {
		case service.SubmitOK:
			now := time.Now()
			sess.SubmittedAt = &now
			final = messages.Submitted
		case service.SubmitDuplicate:
			now := time.Now()
			sess.SubmittedAt = &now
			final = messages.SubmissionDuplicate
		default:
			final = messages.SubmissionError
		}
		if _, err := c.Send(final, nil); err != nil {
			return nil, err
		}
		return nil, nil

	case optReview:
		sess.Editing = true
		return step(domain.At(domain.StepFullName)), nil

	default:
		return nil, fmt.Errorf("unexpected confirmation answer %q", ans.Option())
	}
}

func (r *Registry) prevConfirming(_ domain.Step, _ *domain.Session) *domain.Step {
	return step(domain.AtQuestion(domain.StepAfterDepartments, len(r.q.After)-1))
}

// firstSelected returns the first selected department in canonical order.
func (r *Registry) firstSelected(sess *domain.Session) *domain.DepartmentID {
	for _, d := range domain.DepartmentIDs {
		if sess.Application.Selected(d) {
			dep := d
			return &dep
		}
	}
	return nil
}

// nextSelectedAfter returns the next selected department after dep in
// canonical order, or nil when dep is the last one.
func (r *Registry) nextSelectedAfter(sess *domain.Session, dep domain.DepartmentID) *domain.DepartmentID {
	found := false
	for _, d := range domain.DepartmentIDs {
		if found && sess.Application.Selected(d) {
			next := d
			return &next
		}
		if d == dep {
			found = true
		}
	}
	return nil
}

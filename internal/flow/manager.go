package flow

import (
	"context"
	"errors"
	"sync"

	"applybot/internal/chat"
	"applybot/internal/domain"
	"applybot/internal/messages"
	"applybot/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyActive means the user is already in the middle of the form.
	ErrAlreadyActive = errors.New("conversation already active")
	// ErrAlreadySubmitted means the user's application was already sent.
	ErrAlreadySubmitted = errors.New("application already submitted")
)

// UndoResult tells the handler layer what /undo did.
type UndoResult int

const (
	UndoInactive UndoResult = iota
	UndoImpossible
	UndoDone
)

const defaultInboxSize = 8

// Manager owns the live conversations: one runner goroutine per user in the
// middle of the form. Sessions whose runner died with the process are
// resumed lazily from their persisted step pointer when the user next
// writes.
type Manager struct {
	registry  *Registry
	sessions  repository.SessionRepository
	transport chat.Transport
	logger    *zap.Logger

	mu      sync.Mutex
	runners map[int64]*runner
	closed  bool
	wg      sync.WaitGroup
}

type runner struct {
	conv   *Conversation
	cancel context.CancelFunc
	done   chan struct{}
}

func NewManager(
	registry *Registry,
	sessions repository.SessionRepository,
	transport chat.Transport,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		registry:  registry,
		sessions:  sessions,
		transport: transport,
		logger:    logger,
		runners:   make(map[int64]*runner),
	}
}

// Begin starts (or resumes) the form for a user. A fresh session begins at
// the intro prompt; a paused one continues from its saved step.
func (m *Manager) Begin(userID int64, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrInterrupted
	}
	if _, ok := m.runners[userID]; ok {
		return ErrAlreadyActive
	}

	sess, err := m.sessions.Get(userID)
	if err != nil {
		return err
	}
	if sess == nil {
		sess = domain.NewSession(userID)
	}
	if sess.SubmittedAt != nil {
		return ErrAlreadySubmitted
	}

	sess.Active = true
	if err := m.sessions.Save(sess); err != nil {
		return err
	}

	m.spawnLocked(sess, username)
	return nil
}

// Deliver routes an inbound event to the user's conversation. When no
// runner is live but the persisted session is mid-form, a runner is spun up
// first so the form resumes at its saved step with this event buffered as
// the answer. Returns false when the user has no active conversation.
func (m *Manager) Deliver(userID int64, username string, ev chat.Event) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, nil
	}
	if r, ok := m.runners[userID]; ok {
		r.conv.Deliver(ev)
		return true, nil
	}

	sess, err := m.sessions.Get(userID)
	if err != nil {
		return false, err
	}
	if sess == nil || !sess.Active || sess.SubmittedAt != nil {
		return false, nil
	}

	r := m.spawnLocked(sess, username)
	r.conv.Deliver(ev)
	return true, nil
}

// Active reports whether the user currently has a live runner.
func (m *Manager) Active(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.runners[userID]
	return ok
}

// Cancel pauses the form: the runner stops, the step pointer rewinds to the
// intro, and the saved answers stay so the user can pick up later. Returns
// false when there was nothing to cancel.
func (m *Manager) Cancel(userID int64) (bool, error) {
	m.detach(userID)
	defer m.mu.Unlock()

	sess, err := m.sessions.Get(userID)
	if err != nil {
		return false, err
	}
	if sess == nil || !sess.Active {
		return false, nil
	}

	sess.Active = false
	sess.CurrentStep = domain.At(domain.StepBeginning)
	sess.ClearPending()
	if err := m.sessions.Save(sess); err != nil {
		return false, err
	}
	return true, nil
}

// Undo rewinds the conversation one question. The current runner is stopped
// mid-ask, the persisted pointer moves to the previous node, and a fresh
// runner re-asks from there.
func (m *Manager) Undo(userID int64, username string) (UndoResult, error) {
	sess, err := m.sessions.Get(userID)
	if err != nil {
		return UndoInactive, err
	}
	if sess == nil || !sess.Active || sess.SubmittedAt != nil {
		return UndoInactive, nil
	}
	if m.registry.Prev(sess.CurrentStep, sess) == nil {
		// already at an edge, leave any live runner alone
		return UndoImpossible, nil
	}

	m.detach(userID)
	defer m.mu.Unlock()

	// re-read under the guard: the stopped runner may have checkpointed
	// mid-ask state
	sess, err = m.sessions.Get(userID)
	if err != nil {
		return UndoInactive, err
	}
	if sess == nil || !sess.Active || sess.SubmittedAt != nil {
		return UndoInactive, nil
	}

	prev := m.registry.Prev(sess.CurrentStep, sess)
	if prev == nil {
		return UndoImpossible, nil
	}

	sess.CurrentStep = *prev
	sess.ClearPending()
	if err := m.sessions.Save(sess); err != nil {
		return UndoInactive, err
	}

	if m.closed {
		return UndoDone, nil
	}
	m.spawnLocked(sess, username)
	return UndoDone, nil
}

// Stop interrupts every live conversation and waits for the runners to
// finish. Step pointers are already durable, so users resume where they
// were after a restart.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	for _, r := range m.runners {
		r.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// spawnLocked starts the runner goroutine for a session. Caller holds m.mu.
func (m *Manager) spawnLocked(sess *domain.Session, username string) *runner {
	ctx, cancel := context.WithCancel(context.Background())
	conv := NewConversation(
		username,
		sess,
		m.transport,
		m.sessions,
		m.logger.With(zap.Int64("user_id", sess.UserID)),
		defaultInboxSize,
	)
	r := &runner{conv: conv, cancel: cancel, done: make(chan struct{})}
	m.runners[sess.UserID] = r

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		err := m.registry.Run(ctx, conv)

		m.mu.Lock()
		if m.runners[sess.UserID] == r {
			delete(m.runners, sess.UserID)
		}
		m.mu.Unlock()
		close(r.done)

		if err != nil && !errors.Is(err, ErrInterrupted) {
			m.logger.Error("conversation failed",
				zap.Int64("user_id", sess.UserID),
				zap.String("step", string(sess.CurrentStep.Name)),
				zap.Error(err),
			)
			if _, serr := conv.Send(messages.GenericError, nil); serr != nil {
				m.logger.Warn("failed to notify user about error", zap.Error(serr))
			}
		}
	}()
	return r
}

// detach stops the user's runner, looping in case an inbound event respawns
// one meanwhile, and returns holding m.mu so the caller can rewrite the
// session without racing a fresh runner. The caller must unlock.
func (m *Manager) detach(userID int64) {
	for {
		m.mu.Lock()
		r, ok := m.runners[userID]
		if !ok {
			return
		}
		m.mu.Unlock()
		r.cancel()
		<-r.done
	}
}

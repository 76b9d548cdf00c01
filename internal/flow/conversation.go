package flow

import (
	"context"
	"errors"

	"applybot/internal/chat"
	"applybot/internal/domain"
	"applybot/internal/repository"

	"go.uber.org/zap"
)

// ErrInterrupted is returned from a suspended ask when the conversation is
// pre-empted (cancel, undo, shutdown) instead of answered.
var ErrInterrupted = errors.New("conversation interrupted")

// Conversation carries one user's in-flight dialogue: the durable session,
// the transport to talk through, and the inbox the handler layer delivers
// inbound events into. A conversation is owned by exactly one runner
// goroutine at a time.
type Conversation struct {
	userID   int64
	username string
	sess     *domain.Session
	sessions repository.SessionRepository
	tr       chat.Transport
	logger   *zap.Logger
	inbox    chan chat.Event
}

// NewConversation wires a conversation around an existing session.
func NewConversation(
	username string,
	sess *domain.Session,
	tr chat.Transport,
	sessions repository.SessionRepository,
	logger *zap.Logger,
	inboxSize int,
) *Conversation {
	return &Conversation{
		userID:   sess.UserID,
		username: username,
		sess:     sess,
		sessions: sessions,
		tr:       tr,
		logger:   logger,
		inbox:    make(chan chat.Event, inboxSize),
	}
}

// Deliver hands an inbound event to the suspended conversation. Events
// beyond the inbox capacity are dropped; the transport is expected to
// throttle bursts upstream.
func (c *Conversation) Deliver(ev chat.Event) bool {
	select {
	case c.inbox <- ev:
		return true
	default:
		c.logger.Warn("conversation inbox full, dropping event",
			zap.Int64("user_id", c.userID),
		)
		return false
	}
}

// CloseInbox ends the event stream; a pending Await returns ErrInterrupted
// once the buffered events are drained.
func (c *Conversation) CloseInbox() {
	close(c.inbox)
}

// Await suspends until the next inbound event. Buffered events are drained
// before an interruption is honored, so delivery order is never lost to a
// racing cancel.
func (c *Conversation) Await(ctx context.Context) (chat.Event, error) {
	select {
	case ev, ok := <-c.inbox:
		if !ok {
			return chat.Event{}, ErrInterrupted
		}
		return ev, nil
	default:
	}

	select {
	case ev, ok := <-c.inbox:
		if !ok {
			return chat.Event{}, ErrInterrupted
		}
		return ev, nil
	case <-ctx.Done():
		return chat.Event{}, ErrInterrupted
	}
}

// Send delivers a message to the conversation's user.
func (c *Conversation) Send(text string, rows [][]chat.Button) (chat.MessageRef, error) {
	return c.tr.Send(c.userID, text, rows)
}

// Edit rewrites a previously sent message.
func (c *Conversation) Edit(ref chat.MessageRef, text string, rows [][]chat.Button) error {
	return c.tr.Edit(ref, text, rows)
}

// Respond acknowledges a button click.
func (c *Conversation) Respond(ev chat.Event, notice string) error {
	if ev.CallbackID == "" {
		return nil
	}
	return c.tr.Respond(ev.CallbackID, notice)
}

// Session exposes the durable per-user state.
func (c *Conversation) Session() *domain.Session {
	return c.sess
}

// Checkpoint persists the session without advancing the step pointer. Used
// for in-progress state (multi-select ticks) that should survive a restart.
func (c *Conversation) Checkpoint() error {
	return c.sessions.Save(c.sess)
}

// Logger returns the conversation-scoped logger.
func (c *Conversation) Logger() *zap.Logger {
	return c.logger
}

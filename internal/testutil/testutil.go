package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"applybot/internal/chat"
	"applybot/internal/domain"

	"go.uber.org/zap"
)

// ErrScriptDone is returned by FakeDialog.Await when the scripted events
// run out.
var ErrScriptDone = errors.New("scripted events exhausted")

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// MemorySessionStore is an in-memory repository.SessionRepository.
// Sessions round-trip through JSON so tests exercise the same encoding the
// real store uses and never share mutable state with the caller.
type MemorySessionStore struct {
	mu      sync.Mutex
	data    map[int64][]byte
	SaveErr error
	Saves   int
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[int64][]byte)}
}

func (s *MemorySessionStore) Get(userID int64) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[userID]
	if !ok {
		return nil, nil
	}
	var sess domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	sess.UserID = userID
	return &sess, nil
}

func (s *MemorySessionStore) Save(sess *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.data[sess.UserID] = raw
	s.Saves++
	return nil
}

func (s *MemorySessionStore) Delete(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

func (s *MemorySessionStore) DeleteSubmittedBefore(days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for userID, raw := range s.data {
		var sess domain.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			continue
		}
		if sess.SubmittedAt != nil {
			delete(s.data, userID)
			removed++
		}
	}
	return removed, nil
}

// SentMessage is one outbound message recorded by ScriptTransport.
type SentMessage struct {
	UserID int64
	Text   string
	Rows   [][]chat.Button
	Ref    chat.MessageRef
}

// EditedMessage is one message rewrite recorded by ScriptTransport.
type EditedMessage struct {
	Ref  chat.MessageRef
	Text string
	Rows [][]chat.Button
}

// Response is one callback acknowledgment recorded by ScriptTransport.
type Response struct {
	CallbackID string
	Notice     string
}

// ScriptTransport is a chat.Transport that records everything the code
// under test sends instead of talking to Telegram.
type ScriptTransport struct {
	mu        sync.Mutex
	nextID    int
	Sent      []SentMessage
	Edits     []EditedMessage
	Responses []Response
	SendErr   error
}

func NewScriptTransport() *ScriptTransport {
	return &ScriptTransport{}
}

func (t *ScriptTransport) Send(userID int64, text string, rows [][]chat.Button) (chat.MessageRef, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.SendErr != nil {
		return chat.MessageRef{}, t.SendErr
	}
	t.nextID++
	ref := chat.MessageRef{ChatID: userID, MessageID: t.nextID}
	t.Sent = append(t.Sent, SentMessage{UserID: userID, Text: text, Rows: rows, Ref: ref})
	return ref, nil
}

func (t *ScriptTransport) Edit(ref chat.MessageRef, text string, rows [][]chat.Button) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Edits = append(t.Edits, EditedMessage{Ref: ref, Text: text, Rows: rows})
	return nil
}

func (t *ScriptTransport) Respond(callbackID, notice string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Responses = append(t.Responses, Response{CallbackID: callbackID, Notice: notice})
	return nil
}

// SentSnapshot returns a copy of the sent messages, safe to read while the
// code under test keeps sending from another goroutine.
func (t *ScriptTransport) SentSnapshot() []SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]SentMessage(nil), t.Sent...)
}

// LastSent returns the most recent message, or nil when nothing was sent.
func (t *ScriptTransport) LastSent() *SentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Sent) == 0 {
		return nil
	}
	return &t.Sent[len(t.Sent)-1]
}

// SentTexts returns every sent message text in order.
func (t *ScriptTransport) SentTexts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	texts := make([]string, 0, len(t.Sent))
	for _, m := range t.Sent {
		texts = append(texts, m.Text)
	}
	return texts
}

// FakeDialog drives a single question with a scripted event sequence. It
// satisfies the dialog interface questions ask through.
type FakeDialog struct {
	Transport   *ScriptTransport
	Sess        *domain.Session
	Store       *MemorySessionStore
	Events      []chat.Event
	next        int
	Checkpoints int
	logger      *zap.Logger
}

// NewFakeDialog builds a dialog for the given user whose Await returns the
// given events one by one.
func NewFakeDialog(userID int64, events ...chat.Event) *FakeDialog {
	return &FakeDialog{
		Transport: NewScriptTransport(),
		Sess:      domain.NewSession(userID),
		Store:     NewMemorySessionStore(),
		Events:    events,
		logger:    zap.NewNop(),
	}
}

func (d *FakeDialog) Send(text string, rows [][]chat.Button) (chat.MessageRef, error) {
	return d.Transport.Send(d.Sess.UserID, text, rows)
}

func (d *FakeDialog) Edit(ref chat.MessageRef, text string, rows [][]chat.Button) error {
	return d.Transport.Edit(ref, text, rows)
}

func (d *FakeDialog) Respond(ev chat.Event, notice string) error {
	if ev.CallbackID == "" {
		return nil
	}
	return d.Transport.Respond(ev.CallbackID, notice)
}

func (d *FakeDialog) Await(ctx context.Context) (chat.Event, error) {
	if err := ctx.Err(); err != nil {
		return chat.Event{}, err
	}
	if d.next >= len(d.Events) {
		return chat.Event{}, fmt.Errorf("%w after %d events", ErrScriptDone, d.next)
	}
	ev := d.Events[d.next]
	d.next++
	return ev, nil
}

func (d *FakeDialog) Session() *domain.Session {
	return d.Sess
}

func (d *FakeDialog) Checkpoint() error {
	d.Checkpoints++
	return d.Store.Save(d.Sess)
}

func (d *FakeDialog) Logger() *zap.Logger {
	return d.logger
}

package repository

import (
	"context"
	"errors"

	"applybot/internal/domain"
)

// ErrCandidateExists is returned when a candidate record already exists for
// the Telegram identity being written.
var ErrCandidateExists = errors.New("candidate already exists")

// SessionRepository persists per-user conversation sessions.
type SessionRepository interface {
	Get(userID int64) (*domain.Session, error)
	Save(sess *domain.Session) error
	Delete(userID int64) error
	DeleteSubmittedBefore(days int) (int64, error)
}

// MemberRepository reads member records from the record store.
type MemberRepository interface {
	All(ctx context.Context) ([]domain.Member, error)
}

// CandidateRepository reads and writes candidate records in the record store.
type CandidateRepository interface {
	All(ctx context.Context) ([]domain.Candidate, error)
	Create(ctx context.Context, cand *domain.Candidate) error
}

package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"applybot/internal/domain"
	"applybot/internal/repository"

	"go.uber.org/zap"
)

const (
	membersRefreshInterval    = 5 * time.Second
	candidatesRefreshInterval = 30 * time.Second
)

// Directory answers "is this identity a member" and "is this identity a
// candidate" from a time-bounded cache over the record store, and writes
// new candidate records through it. A refresh failure is logged and the
// stale cache keeps serving; results are eventually consistent within the
// refresh interval.
type Directory struct {
	members    repository.MemberRepository
	candidates repository.CandidateRepository
	logger     *zap.Logger
	now        func() time.Time

	mu                    sync.Mutex
	cachedMembers         map[int64]domain.Member
	membersRefreshedAt    time.Time
	cachedCandidates      map[int64]domain.Candidate
	candidatesRefreshedAt time.Time
}

// NewDirectory creates a directory over the given record-store repositories.
func NewDirectory(
	members repository.MemberRepository,
	candidates repository.CandidateRepository,
	logger *zap.Logger,
) *Directory {
	return &Directory{
		members:    members,
		candidates: candidates,
		logger:     logger,
		now:        time.Now,
	}
}

// MemberByTelegramID returns the member with the given Telegram ID, or nil.
func (d *Directory) MemberByTelegramID(ctx context.Context, telegramID int64) (*domain.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refreshMembersLocked(ctx); err != nil {
		return nil, err
	}
	if m, ok := d.cachedMembers[telegramID]; ok {
		return &m, nil
	}
	return nil, nil
}

// CandidateByTelegramID returns the candidate with the given Telegram ID, or nil.
func (d *Directory) CandidateByTelegramID(ctx context.Context, telegramID int64) (*domain.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refreshCandidatesLocked(ctx); err != nil {
		return nil, err
	}
	if c, ok := d.cachedCandidates[telegramID]; ok {
		return &c, nil
	}
	return nil, nil
}

// AddCandidate writes a new candidate record built from a finished
// application. Returns repository.ErrCandidateExists if the identity
// already has one.
func (d *Directory) AddCandidate(ctx context.Context, app domain.CandidateApplication) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.refreshCandidatesLocked(ctx); err != nil {
		return err
	}
	if _, ok := d.cachedCandidates[app.TelegramID]; ok {
		return repository.ErrCandidateExists
	}

	cand := domain.Candidate{
		TelegramID:    app.TelegramID,
		Username:      app.TelegramUsername,
		Name:          app.Name,
		CommonQA:      FormatQA(app.GeneralQA),
		Departments:   app.SelectedDepartments,
		DepartmentsQA: FormatDepartmentsQA(app.DepartmentsQA),
		CreatedAt:     d.now(),
	}
	if err := d.candidates.Create(ctx, &cand); err != nil {
		return err
	}

	d.cachedCandidates[cand.TelegramID] = cand
	return nil
}

// Name implements CandidateSink.
func (d *Directory) Name() string { return "directory" }

// SubmitCandidate implements CandidateSink.
func (d *Directory) SubmitCandidate(ctx context.Context, app domain.CandidateApplication) error {
	return d.AddCandidate(ctx, app)
}

func (d *Directory) refreshMembersLocked(ctx context.Context) error {
	if d.cachedMembers != nil && d.now().Sub(d.membersRefreshedAt) < membersRefreshInterval {
		return nil
	}

	members, err := d.members.All(ctx)
	if err != nil {
		if d.cachedMembers == nil {
			return fmt.Errorf("failed to load members: %w", err)
		}
		d.logger.Error("failed to refresh members, serving stale cache", zap.Error(err))
		return nil
	}

	cache := make(map[int64]domain.Member, len(members))
	for _, m := range members {
		cache[m.TelegramID] = m
	}
	d.cachedMembers = cache
	d.membersRefreshedAt = d.now()
	return nil
}

func (d *Directory) refreshCandidatesLocked(ctx context.Context) error {
	if d.cachedCandidates != nil && d.now().Sub(d.candidatesRefreshedAt) < candidatesRefreshInterval {
		return nil
	}

	candidates, err := d.candidates.All(ctx)
	if err != nil {
		if d.cachedCandidates == nil {
			return fmt.Errorf("failed to load candidates: %w", err)
		}
		d.logger.Error("failed to refresh candidates, serving stale cache", zap.Error(err))
		return nil
	}

	cache := make(map[int64]domain.Candidate, len(candidates))
	for _, c := range candidates {
		cache[c.TelegramID] = c
	}
	d.cachedCandidates = cache
	d.candidatesRefreshedAt = d.now()
	return nil
}

// FormatQA renders question/answer pairs as a flat text block.
func FormatQA(qa []domain.QA) string {
	parts := make([]string, 0, len(qa))
	for _, pair := range qa {
		parts = append(parts, pair.Question+"\n"+pair.Answer)
	}
	return strings.Join(parts, "\n\n")
}

// FormatDepartmentsQA renders per-department answers in canonical department
// order, numbering questions within each department.
func FormatDepartmentsQA(qa map[domain.DepartmentID][]domain.QA) string {
	var rows []string
	for _, dep := range domain.DepartmentIDs {
		pairs, ok := qa[dep]
		if !ok || len(pairs) == 0 {
			continue
		}
		for i, pair := range pairs {
			rows = append(rows, fmt.Sprintf("%s Q%d — %s", dep.DisplayName(), i+1, pair.Question))
			rows = append(rows, pair.Answer+"\n")
		}
	}
	return strings.Join(rows, "\n")
}

package testutil

import (
	"context"

	"applybot/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockMemberRepository is a mock for MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) All(ctx context.Context) ([]domain.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}

// MockCandidateRepository is a mock for CandidateRepository
type MockCandidateRepository struct {
	mock.Mock
}

func (m *MockCandidateRepository) All(ctx context.Context) ([]domain.Candidate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) Create(ctx context.Context, cand *domain.Candidate) error {
	args := m.Called(ctx, cand)
	return args.Error(0)
}

// MockCandidateSink is a mock for service.CandidateSink
type MockCandidateSink struct {
	mock.Mock
	SinkName string
}

func (m *MockCandidateSink) Name() string {
	if m.SinkName != "" {
		return m.SinkName
	}
	return "mock"
}

func (m *MockCandidateSink) SubmitCandidate(ctx context.Context, app domain.CandidateApplication) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

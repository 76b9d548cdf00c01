package service

import (
	"context"
	"errors"

	"applybot/internal/domain"
	"applybot/internal/repository"

	"go.uber.org/zap"
)

// Outcome is the result of submitting an application across all sinks.
type Outcome int

const (
	// SubmitFailed means every sink failed; the session must not be marked
	// submitted so the terminal step can be retried.
	SubmitFailed Outcome = iota

	// SubmitOK means at least one sink accepted the record.
	SubmitOK

	// SubmitDuplicate means a sink reported the identity already applied.
	SubmitDuplicate
)

// CandidateSink is one independent submission target.
type CandidateSink interface {
	Name() string
	SubmitCandidate(ctx context.Context, app domain.CandidateApplication) error
}

// Submitter writes a finished application to every configured sink. One
// sink failing never aborts the others.
type Submitter struct {
	sinks  []CandidateSink
	logger *zap.Logger
}

// NewSubmitter creates a submitter over the given sinks.
func NewSubmitter(logger *zap.Logger, sinks ...CandidateSink) *Submitter {
	return &Submitter{sinks: sinks, logger: logger}
}

// Submit runs every sink and reports the combined outcome. A duplicate
// report wins over plain failures but loses to any success.
func (s *Submitter) Submit(ctx context.Context, app domain.CandidateApplication) Outcome {
	s.logger.Info("submitting candidate application",
		zap.Int64("telegram_id", app.TelegramID),
		zap.Int("sinks", len(s.sinks)),
	)

	var succeeded, duplicate bool
	for _, sink := range s.sinks {
		err := sink.SubmitCandidate(ctx, app)
		switch {
		case err == nil:
			succeeded = true
		case errors.Is(err, repository.ErrCandidateExists):
			duplicate = true
			s.logger.Info("candidate already exists",
				zap.String("sink", sink.Name()),
				zap.Int64("telegram_id", app.TelegramID),
			)
		default:
			s.logger.Error("submission sink failed",
				zap.String("sink", sink.Name()),
				zap.Int64("telegram_id", app.TelegramID),
				zap.Error(err),
			)
		}
	}

	switch {
	case succeeded:
		return SubmitOK
	case duplicate:
		return SubmitDuplicate
	default:
		return SubmitFailed
	}
}

package service

import (
	"applybot/internal/repository"

	"go.uber.org/zap"
)

// Submitted sessions are kept this long before being archived away.
const submittedSessionRetentionDays = 30

// MaintenanceService runs periodic housekeeping over stored sessions.
type MaintenanceService struct {
	sessions repository.SessionRepository
	logger   *zap.Logger
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(sessions repository.SessionRepository, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{sessions: sessions, logger: logger}
}

// CleanupOldData deletes sessions that finished submission long ago.
// In-progress sessions are never touched.
func (s *MaintenanceService) CleanupOldData() error {
	deleted, err := s.sessions.DeleteSubmittedBefore(submittedSessionRetentionDays)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("archived submitted sessions", zap.Int64("count", deleted))
	}
	return nil
}

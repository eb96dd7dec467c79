package server

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/postmat-dev/postmat/internal/models"
)

// newSweeper schedules removal of expired session rows
func (s *Server) newSweeper(schedule string) (*cron.Cron, error) {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(schedule, func() {
		if _, err := s.sweepExpiredSessions(); err != nil {
			s.logger.Error().Err(err).Msg("Session sweep failed")
		}
	}); err != nil {
		return nil, fmt.Errorf("invalid session sweep schedule %q: %w", schedule, err)
	}
	return scheduler, nil
}

// sweepExpiredSessions deletes sessions past their expiry and reports how many
func (s *Server) sweepExpiredSessions() (int64, error) {
	result := s.db.Where("expires_at <= ?", s.now()).Delete(&models.Session{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info().Int64("deleted", result.RowsAffected).Msg("Swept expired sessions")
	}
	return result.RowsAffected, nil
}

package service

import (
	"context"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit recorder.
// If repo is nil, audit entries are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditRecorder {
	return &auditService{repo: repo, log: log}
}

// Record persists an audit entry, best-effort. A failed write is logged and
// never fails the transition that produced it.
func (s *auditService) Record(ctx context.Context, entry *domain.AdminAudit) {
	s.log.Info().
		Str("action", string(entry.Action)).
		Str("operator_id", entry.OperatorID.String()).
		Str("target_user_id", entry.TargetUserID.String()).
		Int64("amount", entry.Amount).
		Msg("audit")

	if s.repo != nil {
		if err := s.repo.Create(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit entry")
		}
	}
}

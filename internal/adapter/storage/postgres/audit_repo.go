package postgres

import (
	"context"
	"fmt"

	"invest-backoffice/internal/core/domain"
)

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// Create persists an admin action audit record.
func (r *AuditRepo) Create(ctx context.Context, e *domain.AdminAudit) error {
	query := `INSERT INTO admin_action_audit (id, operator_id, action, target_user_id, amount, request_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		e.ID, e.OperatorID, string(e.Action), e.TargetUserID,
		e.Amount, e.RequestID, e.Details, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

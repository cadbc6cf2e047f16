package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited operator action.
type AuditAction string

const (
	AuditActionConfirm  AuditAction = "CONFIRM"
	AuditActionApprove  AuditAction = "APPROVE"
	AuditActionReject   AuditAction = "REJECT"
	AuditActionMarkPaid AuditAction = "MARK_PAID"
	AuditActionTopup    AuditAction = "TOPUP"
)

// AuditActionForStatus maps a committed transition's new status to the
// operator action it records.
func AuditActionForStatus(s WithdrawalStatus) AuditAction {
	switch s.CanonicalTarget() {
	case StatusConfirmed:
		return AuditActionConfirm
	case StatusScheduled:
		return AuditActionApprove
	case StatusPaid:
		return AuditActionMarkPaid
	default:
		return AuditActionReject
	}
}

// AdminAudit records who performed a transition, for compliance.
// Recording is best-effort and never blocks or rolls back a transition.
type AdminAudit struct {
	ID           uuid.UUID   `json:"id"`
	OperatorID   uuid.UUID   `json:"operator_id"`
	Action       AuditAction `json:"action"`
	TargetUserID uuid.UUID   `json:"target_user_id"`
	Amount       int64       `json:"amount"`
	RequestID    *uuid.UUID  `json:"request_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time   `json:"created_at"`
}

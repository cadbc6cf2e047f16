package ports

import (
	"context"
	"time"

	"invest-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Service Ports (Business Logic) ---

// WithdrawalService is the single authority for creating withdrawal requests
// and moving them between states.
type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, req CreateWithdrawalRequest) (*domain.WithdrawalRequest, error)
	Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error)
}

// CreateWithdrawalRequest holds validated input for a new withdrawal request.
type CreateWithdrawalRequest struct {
	UserID   uuid.UUID
	Amount   int64
	BankInfo string
}

// TransitionRequest holds validated input for a state transition. OperatorID
// is an explicit parameter: there is no ambient admin session.
type TransitionRequest struct {
	RequestID  uuid.UUID
	Target     domain.WithdrawalStatus
	OperatorID uuid.UUID
}

// TransitionResult is the outcome of a committed transition. AutoRejected is
// set when an approve was redirected to rejected by the insufficient-funds
// policy; the call still succeeds and Reason explains why.
type TransitionResult struct {
	Request      *domain.WithdrawalRequest
	AutoRejected bool
	Reason       string
}

// Ledger owns the invariant that a user's balance equals the sum of committed
// ledger entries. Debit, Credit and Refund run inside the caller's transaction
// so a status write and its balance effect commit atomically.
type Ledger interface {
	Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, withdrawalID uuid.UUID) error
	Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, withdrawalID uuid.UUID) error
	// Refund credits the request's amount back exactly once, guarded by the
	// write-once refunded flag. A second call reports credited=false with no
	// new ledger entry.
	Refund(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) (credited bool, err error)
	// Topup is a standalone credit in its own transaction (commission payout,
	// manual back-office adjustment).
	Topup(ctx context.Context, userID uuid.UUID, amount int64) (*domain.WalletAccount, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	// VerifyBalance cross-checks the stored balance against the ledger sum.
	VerifyBalance(ctx context.Context, userID uuid.UUID) error
}

// TransitionEvent describes a committed transition to the notification side.
type TransitionEvent struct {
	RequestID uuid.UUID               `json:"request_id"`
	UserID    uuid.UUID               `json:"user_id"`
	Status    domain.WithdrawalStatus `json:"status"`
	Amount    int64                   `json:"amount"`
	Reason    string                  `json:"reason,omitempty"`
}

// Notifier informs the affected user of a successful transition. Calls are
// attempted exactly once per transition; failures are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, event TransitionEvent) error
}

// AuditRecorder records operator actions for compliance, best-effort.
type AuditRecorder interface {
	Record(ctx context.Context, entry *domain.AdminAudit)
}

// ReportingService serves the read-only admin screens.
type ReportingService interface {
	ListWithdrawals(ctx context.Context, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
	GetWalletBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	GetLedger(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
	GetStats(ctx context.Context) (*WithdrawalStats, error)
}

// TokenService validates operator JWTs issued by the platform's auth system.
// Generate exists for the token issuer and for tests; there is no login flow
// in this service.
type TokenService interface {
	Generate(operatorID uuid.UUID, name string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed operator JWT claims.
type TokenClaims struct {
	OperatorID uuid.UUID
	Name       string
}

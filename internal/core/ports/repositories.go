package ports

import (
	"context"
	"time"

	"invest-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepository defines persistence operations for withdrawal requests.
// Methods accepting pgx.Tx run inside transaction blocks so that status and
// ledger writes commit as one unit.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *domain.WithdrawalRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error)
	List(ctx context.Context, params WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error)
	// UpdateStatusGuarded performs the compare-and-set transition write:
	// the row is updated only if its persisted status still matches from
	// (including legacy spellings). Returns false when the guard missed,
	// which the caller must surface as a conflict.
	UpdateStatusGuarded(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.WithdrawalStatus, operatorID uuid.UUID, processedAt time.Time) (bool, error)
	// MarkRefunded flips the write-once refunded flag. Returns false if the
	// flag was already set, making retried refunds a no-op.
	MarkRefunded(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	// Stats aggregates request counts and ledger totals for the dashboard.
	Stats(ctx context.Context) (*WithdrawalStats, error)
}

// WithdrawalListParams holds filter + sort + pagination for listing requests.
type WithdrawalListParams struct {
	UserID   *uuid.UUID
	Status   *domain.WithdrawalStatus
	SortBy   string // "requested_at" (default) or "amount"
	SortAsc  bool
	Page     int
	PageSize int
}

// WithdrawalStats holds aggregated withdrawal counts for the dashboard.
type WithdrawalStats struct {
	Total         int64
	Pending       int64
	Confirmed     int64
	Scheduled     int64
	Rejected      int64
	Paid          int64
	TotalPaidOut  int64 // Sum of amounts on paid requests
	TotalRefunded int64 // Sum of amounts on rejected+refunded requests
}

// WalletRepository defines persistence operations for wallet accounts.
// ForUpdate variants take a pessimistic row lock and must run inside a
// transaction; locks on different users never block each other.
type WalletRepository interface {
	Create(ctx context.Context, account *domain.WalletAccount) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.WalletAccount, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, newBalance int64) error
}

// LedgerRepository defines persistence for the append-only ledger trail.
type LedgerRepository interface {
	Append(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error)
}

// AuditRepository defines persistence for admin action audit records.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AdminAudit) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

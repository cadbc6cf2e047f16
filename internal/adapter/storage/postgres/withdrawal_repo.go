package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WithdrawalRepo implements ports.WithdrawalRepository.
type WithdrawalRepo struct {
	pool Pool
}

// NewWithdrawalRepo creates a new WithdrawalRepo.
func NewWithdrawalRepo(pool Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, user_id, amount, status, requested_at, processed_at, operator_id, bank_info, refunded`

// Create inserts a new withdrawal request.
func (r *WithdrawalRepo) Create(ctx context.Context, w *domain.WithdrawalRequest) error {
	query := `INSERT INTO withdrawal_requests (id, user_id, amount, status, requested_at, processed_at, operator_id, bank_info, refunded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Amount, string(w.Status),
		w.RequestedAt, w.ProcessedAt, w.OperatorID, w.BankInfo, w.Refunded,
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal request: %w", err)
	}
	return nil
}

// GetByID fetches a withdrawal request by its UUID. Returns nil, nil if absent.
func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE id = $1`

	w, err := scanWithdrawal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get withdrawal by id: %w", err)
	}
	return w, nil
}

// List fetches withdrawal requests with filtering, sorting and pagination.
func (r *WithdrawalRepo) List(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	argPos := 1

	if params.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, *params.UserID)
		argPos++
	}
	if params.Status != nil {
		// Match legacy spellings so filtering by scheduled also returns
		// rows written with the historical typo.
		where += fmt.Sprintf(" AND status = ANY($%d)", argPos)
		args = append(args, params.Status.Spellings())
		argPos++
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM withdrawal_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count withdrawals: %w", err)
	}

	orderCol := "requested_at"
	if params.SortBy == "amount" {
		orderCol = "amount"
	}
	direction := "DESC"
	if params.SortAsc {
		direction = "ASC"
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests` + where +
		fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", orderCol, direction, argPos, argPos+1)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}
	defer rows.Close()

	var result []domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan withdrawal row: %w", err)
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate withdrawals: %w", err)
	}
	return result, total, nil
}

// UpdateStatusGuarded performs the conditional transition write. The WHERE
// clause matches every raw spelling of the source status so the guard also
// hits rows stored with a legacy typo. Returns false if the guard missed.
func (r *WithdrawalRepo) UpdateStatusGuarded(ctx context.Context, tx pgx.Tx, id uuid.UUID, from, to domain.WithdrawalStatus, operatorID uuid.UUID, processedAt time.Time) (bool, error) {
	query := `UPDATE withdrawal_requests
		SET status = $1, operator_id = $2, processed_at = $3
		WHERE id = $4 AND status = ANY($5)`

	tag, err := tx.Exec(ctx, query, string(to), operatorID, processedAt, id, from.Spellings())
	if err != nil {
		return false, fmt.Errorf("guarded status update: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkRefunded flips the write-once refunded flag. Returns false if the flag
// was already set.
func (r *WithdrawalRepo) MarkRefunded(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `UPDATE withdrawal_requests SET refunded = TRUE WHERE id = $1 AND NOT refunded`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark refunded: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Stats aggregates request counts and totals for the dashboard.
func (r *WithdrawalRepo) Stats(ctx context.Context) (*ports.WithdrawalStats, error) {
	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'confirmed'),
		COUNT(*) FILTER (WHERE status IN ('scheduled', 'sheduled', 'approved')),
		COUNT(*) FILTER (WHERE status = 'rejected'),
		COUNT(*) FILTER (WHERE status = 'paid'),
		COALESCE(SUM(amount) FILTER (WHERE status = 'paid'), 0),
		COALESCE(SUM(amount) FILTER (WHERE status = 'rejected' AND refunded), 0)
		FROM withdrawal_requests`

	s := &ports.WithdrawalStats{}
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.Total, &s.Pending, &s.Confirmed, &s.Scheduled,
		&s.Rejected, &s.Paid, &s.TotalPaidOut, &s.TotalRefunded,
	)
	if err != nil {
		return nil, fmt.Errorf("withdrawal stats: %w", err)
	}
	return s, nil
}

// scanWithdrawal reads one row, normalizing the status at the boundary. An
// unrecognized status is a data-integrity error, not a silent pass-through.
func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	w := &domain.WithdrawalRequest{}
	var rawStatus string
	err := row.Scan(
		&w.ID, &w.UserID, &w.Amount, &rawStatus,
		&w.RequestedAt, &w.ProcessedAt, &w.OperatorID, &w.BankInfo, &w.Refunded,
	)
	if err != nil {
		return nil, err
	}

	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return nil, apperror.ErrCorruptStatus(err)
	}
	w.Status = status
	return w, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"invest-backoffice/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet account.
func (r *WalletRepo) Create(ctx context.Context, a *domain.WalletAccount) error {
	query := `INSERT INTO wallet_accounts (user_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, a.UserID, a.Balance, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet account: %w", err)
	}
	return nil
}

// GetByUserID fetches a wallet account without locking. Returns nil, nil if absent.
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	query := `SELECT user_id, balance, created_at, updated_at
		FROM wallet_accounts WHERE user_id = $1`

	a := &domain.WalletAccount{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(&a.UserID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet account: %w", err)
	}
	return a, nil
}

// GetByUserIDForUpdate fetches a wallet account with a pessimistic row lock.
// This MUST be called within a transaction. Locks on different users are
// independent: only the one row is locked.
func (r *WalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.WalletAccount, error) {
	query := `SELECT user_id, balance, created_at, updated_at
		FROM wallet_accounts WHERE user_id = $1 FOR UPDATE`

	a := &domain.WalletAccount{}
	err := tx.QueryRow(ctx, query, userID).Scan(&a.UserID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet account for update: %w", err)
	}
	return a, nil
}

// UpdateBalance writes the new balance within a transaction. The CHECK
// constraint on the column is the last line of defense against a negative
// committed balance.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, newBalance int64) error {
	query := `UPDATE wallet_accounts SET balance = $1, updated_at = NOW() WHERE user_id = $2`

	tag, err := tx.Exec(ctx, query, newBalance, userID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet account not found: %s", userID)
	}
	return nil
}

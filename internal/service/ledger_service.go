package service

import (
	"context"
	"fmt"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// RefundMarker is the slice of the withdrawal store the ledger needs to flip
// the write-once refunded flag inside the refund transaction.
type RefundMarker interface {
	MarkRefunded(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// LedgerServiceImpl implements ports.Ledger: atomic, idempotent balance
// mutation with a durable trail. Every mutation locks the wallet row, so
// concurrent calls for the same user serialize while different users
// proceed independently.
type LedgerServiceImpl struct {
	walletRepo   ports.WalletRepository
	ledgerRepo   ports.LedgerRepository
	refundMarker RefundMarker
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	refundMarker RefundMarker,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		walletRepo:   walletRepo,
		ledgerRepo:   ledgerRepo,
		refundMarker: refundMarker,
		transactor:   transactor,
		log:          log,
	}
}

// Debit decreases the user's balance and appends a debit ledger entry within
// the caller's transaction. Fails with InsufficientFunds when the resulting
// balance would be negative; nothing is written in that case.
func (s *LedgerServiceImpl) Debit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, withdrawalID uuid.UUID) error {
	if amount <= 0 {
		return apperror.ErrLedgerInvariant(fmt.Errorf("debit amount must be positive, got %d", amount))
	}

	account, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if account == nil {
		return apperror.ErrWalletNotFound()
	}

	newBalance := account.Balance - amount
	if newBalance < 0 {
		return apperror.ErrInsufficientFunds()
	}

	if err := s.walletRepo.UpdateBalance(ctx, tx, userID, newBalance); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.ledgerRepo.Append(ctx, tx, domain.NewDebitEntry(userID, amount, &withdrawalID)); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("append debit entry: %w", err))
	}

	s.log.Debug().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Int64("new_balance", newBalance).
		Msg("wallet debited")
	return nil
}

// Credit increases the user's balance and appends a credit ledger entry
// within the caller's transaction. Pass uuid.Nil as withdrawalID for credits
// unrelated to a withdrawal.
func (s *LedgerServiceImpl) Credit(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int64, withdrawalID uuid.UUID) error {
	if amount <= 0 {
		return apperror.ErrLedgerInvariant(fmt.Errorf("credit amount must be positive, got %d", amount))
	}

	account, err := s.walletRepo.GetByUserIDForUpdate(ctx, tx, userID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}
	if account == nil {
		return apperror.ErrWalletNotFound()
	}

	var related *uuid.UUID
	if withdrawalID != uuid.Nil {
		related = &withdrawalID
	}

	newBalance := account.Balance + amount
	if err := s.walletRepo.UpdateBalance(ctx, tx, userID, newBalance); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("update balance: %w", err))
	}
	if err := s.ledgerRepo.Append(ctx, tx, domain.NewCreditEntry(userID, amount, related)); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("append credit entry: %w", err))
	}

	s.log.Debug().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Int64("new_balance", newBalance).
		Msg("wallet credited")
	return nil
}

// Refund credits the request's amount back to its user exactly once. The
// write-once refunded flag is flipped in the same transaction as the credit;
// if it was already set this call is a no-op reporting credited=false, which
// makes a retried reject-and-refund safe.
func (s *LedgerServiceImpl) Refund(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) (bool, error) {
	marked, err := s.refundMarker.MarkRefunded(ctx, tx, w.ID)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("mark refunded: %w", err))
	}
	if !marked {
		s.log.Info().
			Str("request_id", w.ID.String()).
			Msg("refund already issued, skipping credit")
		return false, nil
	}

	if err := s.Credit(ctx, tx, w.UserID, w.Amount, w.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Topup is a standalone credit in its own transaction, used by the
// back-office for commission payouts and manual adjustments.
func (s *LedgerServiceImpl) Topup(ctx context.Context, userID uuid.UUID, amount int64) (*domain.WalletAccount, error) {
	if amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := s.Credit(ctx, tx, userID, amount, uuid.Nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Msg("topup applied")
	return account, nil
}

// Balance returns the user's committed balance.
func (s *LedgerServiceImpl) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, apperror.ErrDatabaseError(err)
	}
	if account == nil {
		return 0, apperror.ErrWalletNotFound()
	}
	return account.Balance, nil
}

// VerifyBalance cross-checks the stored balance against the sum of the
// user's ledger entries. A mismatch means something wrote around the ledger
// and is reported as an invariant violation.
func (s *LedgerServiceImpl) VerifyBalance(ctx context.Context, userID uuid.UUID) error {
	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if account == nil {
		return apperror.ErrWalletNotFound()
	}

	sum, err := s.ledgerRepo.SumByUser(ctx, userID)
	if err != nil {
		return apperror.ErrDatabaseError(err)
	}
	if sum != account.Balance {
		return apperror.ErrLedgerInvariant(
			fmt.Errorf("user %s: stored balance %d != ledger sum %d", userID, account.Balance, sum))
	}
	return nil
}

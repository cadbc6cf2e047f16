package service

import (
	"context"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/pkg/apperror"

	"github.com/google/uuid"
)

// reportingService implements ports.ReportingService.
type reportingService struct {
	withdrawalRepo ports.WithdrawalRepository
	walletRepo     ports.WalletRepository
	ledgerRepo     ports.LedgerRepository
}

// NewReportingService creates a new reporting service.
func NewReportingService(
	withdrawalRepo ports.WithdrawalRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
) ports.ReportingService {
	return &reportingService{
		withdrawalRepo: withdrawalRepo,
		walletRepo:     walletRepo,
		ledgerRepo:     ledgerRepo,
	}
}

// ListWithdrawals returns a filtered, paginated list of withdrawal requests.
func (s *reportingService) ListWithdrawals(ctx context.Context, params ports.WithdrawalListParams) ([]domain.WithdrawalRequest, int64, error) {
	if params.SortBy != "" && params.SortBy != "requested_at" && params.SortBy != "amount" {
		return nil, 0, apperror.Validation("sort_by must be requested_at or amount")
	}
	withdrawals, total, err := s.withdrawalRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}
	return withdrawals, total, nil
}

// GetWalletBalance returns the current balance for the user's wallet.
func (s *reportingService) GetWalletBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	account, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return 0, apperror.InternalError(err)
	}
	if account == nil {
		return 0, apperror.ErrWalletNotFound()
	}
	return account.Balance, nil
}

// GetLedger returns the user's most recent ledger entries.
func (s *reportingService) GetLedger(ctx context.Context, userID uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return entries, nil
}

// GetStats returns aggregated withdrawal counts for the dashboard.
func (s *reportingService) GetStats(ctx context.Context) (*ports.WithdrawalStats, error) {
	stats, err := s.withdrawalRepo.Stats(ctx)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return stats, nil
}

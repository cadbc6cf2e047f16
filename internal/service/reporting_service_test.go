package service

import (
	"context"
	"testing"

	"invest-backoffice/internal/core/domain"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reportingTestDeps struct {
	svc            ports.ReportingService
	withdrawalRepo *mocks.MockWithdrawalRepository
	walletRepo     *mocks.MockWalletRepository
	ledgerRepo     *mocks.MockLedgerRepository
	ctrl           *gomock.Controller
}

func setupReportingService(t *testing.T) *reportingTestDeps {
	ctrl := gomock.NewController(t)
	d := &reportingTestDeps{
		withdrawalRepo: mocks.NewMockWithdrawalRepository(ctrl),
		walletRepo:     mocks.NewMockWalletRepository(ctrl),
		ledgerRepo:     mocks.NewMockLedgerRepository(ctrl),
		ctrl:           ctrl,
	}
	d.svc = NewReportingService(d.withdrawalRepo, d.walletRepo, d.ledgerRepo)
	return d
}

func TestReportingService_ListWithdrawals(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	status := domain.StatusPending
	params := ports.WithdrawalListParams{
		Status:   &status,
		SortBy:   "amount",
		Page:     1,
		PageSize: 20,
	}

	d.withdrawalRepo.EXPECT().List(ctx, params).Return([]domain.WithdrawalRequest{
		{ID: uuid.New(), Status: domain.StatusPending, Amount: 40000},
	}, int64(1), nil)

	withdrawals, total, err := d.svc.ListWithdrawals(ctx, params)
	require.NoError(t, err)
	assert.Len(t, withdrawals, 1)
	assert.Equal(t, int64(1), total)
}

func TestReportingService_ListWithdrawals_InvalidSort(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	_, _, err := d.svc.ListWithdrawals(context.Background(), ports.WithdrawalListParams{
		SortBy: "bank_info",
	})
	assertAppError(t, err, "WDR_004")
}

func TestReportingService_GetWalletBalance(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(&domain.WalletAccount{
		UserID:  userID,
		Balance: 88000,
	}, nil)

	balance, err := d.svc.GetWalletBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(88000), balance)
}

func TestReportingService_GetWalletBalance_NotFound(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(nil, nil)

	_, err := d.svc.GetWalletBalance(ctx, userID)
	assertAppError(t, err, "WDR_007")
}

func TestReportingService_GetLedger(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.ledgerRepo.EXPECT().ListByUser(ctx, userID, 25).Return([]domain.LedgerEntry{
		{ID: uuid.New(), UserID: userID, Amount: -40000, Kind: domain.LedgerEntryDebit},
		{ID: uuid.New(), UserID: userID, Amount: 40000, Kind: domain.LedgerEntryCredit},
	}, nil)

	entries, err := d.svc.GetLedger(ctx, userID, 25)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReportingService_GetStats(t *testing.T) {
	d := setupReportingService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()

	d.withdrawalRepo.EXPECT().Stats(ctx).Return(&ports.WithdrawalStats{
		Total:        12,
		Pending:      3,
		Scheduled:    2,
		Paid:         5,
		Rejected:     2,
		TotalPaidOut: 450000,
	}, nil)

	stats, err := d.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.Total)
	assert.Equal(t, int64(450000), stats.TotalPaidOut)
}

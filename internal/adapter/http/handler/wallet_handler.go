package handler

import (
	"strconv"

	"invest-backoffice/internal/adapter/http/dto"
	"invest-backoffice/internal/adapter/http/middleware"
	"invest-backoffice/internal/core/ports"
	"invest-backoffice/pkg/apperror"
	"invest-backoffice/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet balance, ledger and topup endpoints.
type WalletHandler struct {
	ledger       ports.Ledger
	reportingSvc ports.ReportingService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledger ports.Ledger, reportingSvc ports.ReportingService) *WalletHandler {
	return &WalletHandler{ledger: ledger, reportingSvc: reportingSvc}
}

// GetBalance handles GET /api/v1/wallets/:user_id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a valid UUID"))
		return
	}

	balance, err := h.reportingSvc.GetWalletBalance(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletBalanceResponse{
		UserID:  userID.String(),
		Balance: balance,
	})
}

// Topup handles POST /api/v1/wallets/:user_id/topup.
func (h *WalletHandler) Topup(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a valid UUID"))
		return
	}

	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	account, err := h.ledger.Topup(c.Request.Context(), userID, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Expose the credited amount to the audit middleware.
	c.Set(middleware.CtxTopupAmount, req.Amount)

	response.OK(c, dto.WalletBalanceResponse{
		UserID:  account.UserID.String(),
		Balance: account.Balance,
	})
}

// GetLedger handles GET /api/v1/wallets/:user_id/ledger.
func (h *WalletHandler) GetLedger(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Error(c, apperror.Validation("user_id must be a valid UUID"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.reportingSvc.GetLedger(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		item := dto.LedgerEntryResponse{
			ID:        e.ID.String(),
			Amount:    e.Amount,
			Kind:      string(e.Kind),
			CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if e.RelatedWithdrawalID != nil {
			s := e.RelatedWithdrawalID.String()
			item.RelatedWithdrawalID = &s
		}
		items = append(items, item)
	}

	response.OK(c, dto.LedgerResponse{
		UserID:  userID.String(),
		Entries: items,
	})
}

package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("WDR_001", "Withdrawal request not found", http.StatusNotFound)
	assert.Equal(t, "[WDR_001] Withdrawal request not found", e.Error())

	wrapped := Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, errors.New("conn refused"))
	assert.Equal(t, "[SYS_001] Internal database error: conn refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := InternalError(fmt.Errorf("context: %w", inner))
	assert.True(t, errors.Is(wrapped, inner))

	plain := ErrWithdrawalNotFound()
	assert.Nil(t, errors.Unwrap(plain))
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"not found", ErrWithdrawalNotFound(), "WDR_001", http.StatusNotFound},
		{"conflict", ErrTransitionConflict("paid", "rejected"), "WDR_002", http.StatusConflict},
		{"insufficient funds", ErrInsufficientFunds(), "WDR_003", http.StatusPaymentRequired},
		{"invalid target", ErrInvalidTargetStatus("bogus"), "WDR_004", http.StatusBadRequest},
		{"ledger invariant", ErrLedgerInvariant(errors.New("negative balance")), "WDR_005", http.StatusInternalServerError},
		{"corrupt status", ErrCorruptStatus(errors.New("unknown status")), "WDR_006", http.StatusInternalServerError},
		{"wallet not found", ErrWalletNotFound(), "WDR_007", http.StatusNotFound},
		{"invalid token", ErrInvalidToken(), "AUTH_001", http.StatusUnauthorized},
		{"operator required", ErrOperatorRequired(), "AUTH_002", http.StatusUnauthorized},
		{"rate limited", ErrRateLimitExceeded(), "RATE_001", http.StatusTooManyRequests},
		{"database", ErrDatabaseError(errors.New("x")), "SYS_001", http.StatusInternalServerError},
		{"validation", Validation("amount must be positive"), "WDR_004", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestErrTransitionConflict_Message(t *testing.T) {
	e := ErrTransitionConflict("paid", "scheduled")
	assert.Contains(t, e.Message, "paid")
	assert.Contains(t, e.Message, "scheduled")
}

func TestErrorsAs(t *testing.T) {
	var appErr *AppError
	err := fmt.Errorf("handler: %w", ErrTransitionConflict("rejected", "paid"))
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "WDR_002", appErr.Code)
}

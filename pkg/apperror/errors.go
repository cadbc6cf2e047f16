package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Withdrawal Lifecycle (WDR) ----

// CodeInsufficientFunds identifies the WDR_003 error so the state machine can
// branch on it without string-matching messages.
const CodeInsufficientFunds = "WDR_003"

func ErrWithdrawalNotFound() *AppError {
	return New("WDR_001", "Withdrawal request not found", http.StatusNotFound)
}

// ErrTransitionConflict signals that the persisted status no longer matches
// the transition's source state: a stale view, a duplicate click, or a lost
// race. The caller should refresh and retry against the current state.
func ErrTransitionConflict(from, to string) *AppError {
	return New("WDR_002", fmt.Sprintf("Transition to %s is not possible from %s: request already processed", to, from), http.StatusConflict)
}

// ErrInsufficientFunds is never surfaced to the operator as a failure; the
// state machine catches it and redirects the transition to rejected.
func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrInvalidTargetStatus(target string) *AppError {
	return New("WDR_004", fmt.Sprintf("%q is not a valid target status", target), http.StatusBadRequest)
}

// ErrLedgerInvariant indicates a programming or data error that would leave
// the ledger inconsistent. Abort-and-alert, never user-facing detail.
func ErrLedgerInvariant(err error) *AppError {
	return Wrap("WDR_005", "Ledger invariant violation", http.StatusInternalServerError, err)
}

// ErrCorruptStatus reports an unrecognized status value in stored data.
func ErrCorruptStatus(err error) *AppError {
	return Wrap("WDR_006", "Corrupt withdrawal status in storage", http.StatusInternalServerError, err)
}

func ErrWalletNotFound() *AppError {
	return New("WDR_007", "Wallet account not found", http.StatusNotFound)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New("AUTH_001", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrOperatorRequired() *AppError {
	return New("AUTH_002", "Operator identity is required for every transition", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a WDR_004-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("WDR_004", message, http.StatusBadRequest)
}

package dto

// CreateWithdrawalRequest is the request body for a new withdrawal request.
type CreateWithdrawalRequest struct {
	UserID   string `json:"user_id" binding:"required,uuid"`
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	BankInfo string `json:"bank_info" binding:"required,max=500"`
}

// TransitionRequest is the request body for a status transition.
type TransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required,safe_id"`
}

// TopupRequest is the request body for a wallet topup.
type TopupRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// WithdrawalResponse is the response body for a withdrawal request.
type WithdrawalResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Amount      int64   `json:"amount"`
	Status      string  `json:"status"`
	RequestedAt string  `json:"requested_at"`
	ProcessedAt *string `json:"processed_at,omitempty"`
	OperatorID  *string `json:"operator_id,omitempty"`
	BankInfo    string  `json:"bank_info"`
	Refunded    bool    `json:"refunded"`
}

// TransitionResponse is the response body for a committed transition.
// AutoRejected is true when an approve was redirected to rejected because the
// wallet could not cover the amount; Reason carries the explanation.
type TransitionResponse struct {
	Request      WithdrawalResponse `json:"request"`
	AutoRejected bool               `json:"auto_rejected"`
	Reason       string             `json:"reason,omitempty"`
}

// WithdrawalListResponse wraps a paginated withdrawal list.
type WithdrawalListResponse struct {
	Items      []WithdrawalResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// WalletBalanceResponse is the response for a balance query.
type WalletBalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// LedgerEntryResponse is one row of a user's ledger trail.
type LedgerEntryResponse struct {
	ID                  string  `json:"id"`
	Amount              int64   `json:"amount"` // Signed: negative for debits
	Kind                string  `json:"kind"`
	RelatedWithdrawalID *string `json:"related_withdrawal_id,omitempty"`
	CreatedAt           string  `json:"created_at"`
}

// LedgerResponse wraps a user's recent ledger entries.
type LedgerResponse struct {
	UserID  string                `json:"user_id"`
	Entries []LedgerEntryResponse `json:"entries"`
}

// DashboardStatsResponse is the response for dashboard statistics.
type DashboardStatsResponse struct {
	Total         int64 `json:"total"`
	Pending       int64 `json:"pending"`
	Confirmed     int64 `json:"confirmed"`
	Scheduled     int64 `json:"scheduled"`
	Rejected      int64 `json:"rejected"`
	Paid          int64 `json:"paid"`
	TotalPaidOut  int64 `json:"total_paid_out"`
	TotalRefunded int64 `json:"total_refunded"`
}

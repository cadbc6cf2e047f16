package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntryKind represents the direction of a balance change.
type LedgerEntryKind string

const (
	LedgerEntryDebit  LedgerEntryKind = "debit"
	LedgerEntryCredit LedgerEntryKind = "credit"
)

// LedgerEntry is an immutable, append-only record of a single signed balance
// change, tied to at most one withdrawal request. The invariant
// balance(user) == sum(entries.amount) holds after every committed operation.
type LedgerEntry struct {
	ID                  uuid.UUID       `json:"id"`
	UserID              uuid.UUID       `json:"user_id"`
	Amount              int64           `json:"amount"` // Signed: negative for debits, positive for credits
	Kind                LedgerEntryKind `json:"kind"`
	RelatedWithdrawalID *uuid.UUID      `json:"related_withdrawal_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// NewDebitEntry builds a ledger entry decreasing the user's balance by amount.
func NewDebitEntry(userID uuid.UUID, amount int64, withdrawalID *uuid.UUID) *LedgerEntry {
	return &LedgerEntry{
		ID:                  uuid.New(),
		UserID:              userID,
		Amount:              -amount,
		Kind:                LedgerEntryDebit,
		RelatedWithdrawalID: withdrawalID,
		CreatedAt:           time.Now().UTC(),
	}
}

// NewCreditEntry builds a ledger entry increasing the user's balance by amount.
func NewCreditEntry(userID uuid.UUID, amount int64, withdrawalID *uuid.UUID) *LedgerEntry {
	return &LedgerEntry{
		ID:                  uuid.New(),
		UserID:              userID,
		Amount:              amount,
		Kind:                LedgerEntryCredit,
		RelatedWithdrawalID: withdrawalID,
		CreatedAt:           time.Now().UTC(),
	}
}

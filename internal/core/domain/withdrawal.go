package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WithdrawalStatus represents the lifecycle state of a withdrawal request.
type WithdrawalStatus string

const (
	StatusPending   WithdrawalStatus = "pending"
	StatusConfirmed WithdrawalStatus = "confirmed"
	StatusScheduled WithdrawalStatus = "scheduled"
	// StatusApproved is a legacy alias of StatusScheduled still present on
	// migrated rows. New approvals always write StatusScheduled; approved is
	// accepted as a transition source only.
	StatusApproved WithdrawalStatus = "approved"
	StatusRejected WithdrawalStatus = "rejected"
	StatusPaid     WithdrawalStatus = "paid"
)

// legacySpellings maps misspelled status strings found in migrated data to
// their canonical value. Anything else unknown is a data-integrity error.
var legacySpellings = map[string]WithdrawalStatus{
	"sheduled": StatusScheduled,
}

// ParseStatus normalizes a raw status string from storage or input.
// Unrecognized values are rejected rather than passed through.
func ParseStatus(raw string) (WithdrawalStatus, error) {
	switch WithdrawalStatus(raw) {
	case StatusPending, StatusConfirmed, StatusScheduled, StatusApproved, StatusRejected, StatusPaid:
		return WithdrawalStatus(raw), nil
	}
	if s, ok := legacySpellings[raw]; ok {
		return s, nil
	}
	return "", fmt.Errorf("unknown withdrawal status %q", raw)
}

// Spellings returns every raw string that may represent this status in
// storage. Conditional updates must match all of them so that a guarded
// write still hits rows written with a legacy spelling.
func (s WithdrawalStatus) Spellings() []string {
	spellings := []string{string(s)}
	for raw, canonical := range legacySpellings {
		if canonical == s {
			spellings = append(spellings, raw)
		}
	}
	return spellings
}

// IsTerminal returns true if no further transitions are legal.
func (s WithdrawalStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected
}

// CanonicalTarget collapses the legacy approved alias: a request to move a
// withdrawal into approved is treated as a request to schedule it.
func (s WithdrawalStatus) CanonicalTarget() WithdrawalStatus {
	if s == StatusApproved {
		return StatusScheduled
	}
	return s
}

// transitionSources maps a (canonical) target status to its legal source states.
var transitionSources = map[WithdrawalStatus][]WithdrawalStatus{
	StatusConfirmed: {StatusPending},
	StatusScheduled: {StatusPending, StatusConfirmed},
	StatusRejected:  {StatusPending, StatusConfirmed, StatusScheduled, StatusApproved},
	StatusPaid:      {StatusScheduled, StatusApproved},
}

// ValidTarget reports whether the status is one an operator may transition to.
func (s WithdrawalStatus) ValidTarget() bool {
	_, ok := transitionSources[s.CanonicalTarget()]
	return ok
}

// CanTransition reports whether a withdrawal in state from may move to state to.
func CanTransition(from, to WithdrawalStatus) bool {
	for _, src := range transitionSources[to.CanonicalTarget()] {
		if src == from {
			return true
		}
	}
	return false
}

// WithdrawalRequest is a user's request to move funds out of their platform
// wallet. It is created pending by the user-facing flow and mutated only by
// the back-office state machine; terminal states are paid and rejected.
type WithdrawalRequest struct {
	ID          uuid.UUID        `json:"id"`
	UserID      uuid.UUID        `json:"user_id"`
	Amount      int64            `json:"amount"` // In smallest currency unit, immutable after creation
	Status      WithdrawalStatus `json:"status"`
	RequestedAt time.Time        `json:"requested_at"`
	ProcessedAt *time.Time       `json:"processed_at,omitempty"`
	OperatorID  *uuid.UUID       `json:"operator_id,omitempty"` // Admin who last transitioned the request
	BankInfo    string           `json:"bank_info"`             // Opaque payout destination, never interpreted here
	Refunded    bool             `json:"refunded"`              // Write-once; true after the compensating credit
}

// IsTerminal returns true if the request is in a final state.
func (w *WithdrawalRequest) IsTerminal() bool {
	return w.Status.IsTerminal()
}

// NeedsRefundOnReject returns true if rejecting from the current state must
// credit the amount back: a debit only ever happened once scheduling succeeded.
func (w *WithdrawalRequest) NeedsRefundOnReject() bool {
	return w.Status == StatusScheduled || w.Status == StatusApproved
}

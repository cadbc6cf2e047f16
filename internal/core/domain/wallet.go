package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletAccount holds a user's platform balance. The balance is never left
// negative as a committed value and always equals the sum of the user's
// ledger entries.
type WalletAccount struct {
	UserID    uuid.UUID `json:"user_id"`
	Balance   int64     `json:"balance"` // In smallest currency unit
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

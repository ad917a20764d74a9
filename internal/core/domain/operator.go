package domain

import (
	"time"

	"github.com/google/uuid"
)

// OperatorStatus is the state of an admin operator account.
type OperatorStatus string

const (
	OperatorStatusActive    OperatorStatus = "ACTIVE"
	OperatorStatusSuspended OperatorStatus = "SUSPENDED"
)

// Operator is an admin user of the financial control dashboard.
type Operator struct {
	ID           uuid.UUID      `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"`
	DisplayName  string         `json:"display_name"`
	Status       OperatorStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsActive returns true if the operator may authenticate.
func (o *Operator) IsActive() bool {
	return o.Status == OperatorStatusActive
}

// Artisan is the payout profile of a seller: where their earnings go.
// Maintained by the marketplace CRUD screens; read-only for this engine.
type Artisan struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"` // M-Pesa destination, E.164
}

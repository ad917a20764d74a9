package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of money movement in the ledger.
type TransactionType string

const (
	TransactionTypeSale       TransactionType = "SALE"
	TransactionTypeCommission TransactionType = "COMMISSION"
	TransactionTypePayout     TransactionType = "PAYOUT"
	TransactionTypeRefund     TransactionType = "REFUND"
)

// TransactionStatus represents the lifecycle state of a transaction.
//
// Allowed transitions:
//
//	pending   -> completed  (gateway confirmed upstream)
//	pending   -> failed     (gateway rejected)
//	completed -> reconciled (automatic, during statement reconciliation)
//	failed    -> reconciled (manual operator resolution)
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusReconciled TransactionStatus = "RECONCILED"
)

// PaymentMethod is the channel the customer paid through.
type PaymentMethod string

const (
	PaymentMethodMPesa PaymentMethod = "MPESA"
	PaymentMethodCard  PaymentMethod = "CARD"
	PaymentMethodBank  PaymentMethod = "BANK"
)

// Transaction is an append-only ledger entry. Everything except Status,
// ReconciledAt and Notes is immutable once written.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	Type             TransactionType   `json:"type"`
	Amount           int64             `json:"amount"`     // minor currency units
	Commission       int64             `json:"commission"` // 0 for non-sale types
	ArtisanID        uuid.UUID         `json:"artisan_id"`
	ProductID        string            `json:"product_id,omitempty"`  // empty for payout
	CustomerID       string            `json:"customer_id,omitempty"` // empty for payout
	PaymentMethod    PaymentMethod     `json:"payment_method"`
	GatewayReference string            `json:"gateway_reference,omitempty"` // required iff M-Pesa
	Status           TransactionStatus `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
	ReconciledAt     *time.Time        `json:"reconciled_at,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
}

// Payout returns the artisan's share of a sale (amount minus commission).
func (t *Transaction) Payout() int64 {
	return t.Amount - t.Commission
}

// IsTerminal returns true once no further automatic transition applies.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusReconciled
}

// IsReconcilable reports whether the automatic completed -> reconciled
// transition may be applied.
func (t *Transaction) IsReconcilable() bool {
	return t.Status == TransactionStatusCompleted
}

// CanTransition reports whether a status change is an allowed edge of the
// lifecycle state machine.
func CanTransition(from, to TransactionStatus) bool {
	switch from {
	case TransactionStatusPending:
		return to == TransactionStatusCompleted || to == TransactionStatusFailed
	case TransactionStatusCompleted:
		return to == TransactionStatusReconciled
	case TransactionStatusFailed:
		return to == TransactionStatusReconciled
	default:
		return false
	}
}

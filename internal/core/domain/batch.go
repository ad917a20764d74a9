package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle state of a payout batch.
//
//	pending -> processing -> completed (all members paid)
//	                      -> failed    (one or more members failed)
//
// Failed batches are never retried in place; the still-unpaid members are
// picked up by the next CreateBatch run.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "PENDING"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
	BatchStatusFailed     BatchStatus = "FAILED"
)

// MemberStatus is the per-artisan outcome within a batch.
type MemberStatus string

const (
	MemberStatusPending MemberStatus = "PENDING"
	MemberStatusPaid    MemberStatus = "PAID"
	MemberStatusFailed  MemberStatus = "FAILED"
)

// BatchMember is one artisan's aggregated payout inside a batch, rolled up
// from the reconciled sale transactions listed in TransactionIDs.
type BatchMember struct {
	BatchID          uuid.UUID    `json:"batch_id"`
	ArtisanID        uuid.UUID    `json:"artisan_id"`
	Amount           int64        `json:"amount"` // sum of sale payouts, minor units
	DestinationPhone string       `json:"destination_phone"`
	TransactionIDs   []uuid.UUID  `json:"transaction_ids"`
	Status           MemberStatus `json:"status"`
	GatewayReference *string      `json:"gateway_reference,omitempty"`
	FailureReason    *string      `json:"failure_reason,omitempty"`
}

// PayoutBatch groups reconciled, unpaid artisan earnings for processing as
// one unit. A sale transaction belongs to at most one non-failed batch.
type PayoutBatch struct {
	ID                uuid.UUID     `json:"id"`
	BatchNumber       string        `json:"batch_number"`
	TotalAmount       int64         `json:"total_amount"`
	TotalTransactions int           `json:"total_transactions"`
	Status            BatchStatus   `json:"status"`
	Members           []BatchMember `json:"members"`
	CreatedAt         time.Time     `json:"created_at"`
	ProcessedAt       *time.Time    `json:"processed_at,omitempty"`
}

// FormatBatchNumber builds the human-facing batch identifier. The sequence
// is scoped per year and strictly increasing.
func FormatBatchNumber(year, sequence int) string {
	return fmt.Sprintf("BATCH-%d-%03d", year, sequence)
}

// IsTerminal reports whether the batch has reached a final state.
func (b *PayoutBatch) IsTerminal() bool {
	return b.Status == BatchStatusCompleted || b.Status == BatchStatusFailed
}

// Recount recomputes the aggregate totals from the member list. Used at
// construction time so totals can never drift from the member rows.
func (b *PayoutBatch) Recount() {
	b.TotalAmount = 0
	b.TotalTransactions = 0
	for _, m := range b.Members {
		b.TotalAmount += m.Amount
		b.TotalTransactions += len(m.TransactionIDs)
	}
}

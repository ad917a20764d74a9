package ports

import (
	"context"
	"errors"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrRowMissing is returned by compare-and-swap updates when the target row
// does not exist at all. The ledger and batch tables never delete rows, so
// callers escalate this instead of treating it as a plain guard miss.
var ErrRowMissing = errors.New("row missing during status update")

// LedgerRepository defines persistence for the append-only transaction ledger.
// Rows are never deleted; only status, reconciled_at and notes mutate.
type LedgerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// GetByGatewayReference returns nil, nil when no transaction carries the
	// reference. References are unique across the ledger.
	GetByGatewayReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// UpdateStatus performs a compare-and-swap on status: the update applies
	// only if the current status equals guard, returning false (not an
	// error) otherwise. Non-nil reconciledAt and notes are written in the
	// same guarded statement so they can never land on a lost swap. A
	// missing id is an error; the ledger never loses rows, so callers treat
	// it as corruption.
	UpdateStatus(ctx context.Context, id uuid.UUID, status, guard domain.TransactionStatus, reconciledAt *time.Time, notes *string) (bool, error)
	// ListEligibleForPayout returns reconciled sale transactions created at
	// or before the cutoff that are not linked to any non-failed batch. It
	// runs inside the caller's batch-creation transaction so the read is
	// ordered by the same lock that serializes batch creators.
	ListEligibleForPayout(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]domain.Transaction, error)
	// Reporting queries
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, periodStart *int64) (*TransactionStats, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	ArtisanID *uuid.UUID
	Status    *domain.TransactionStatus
	Type      *domain.TransactionType
	Method    *domain.PaymentMethod
	From      *int64 // Unix timestamp
	To        *int64 // Unix timestamp
	Page      int
	PageSize  int
}

// TransactionStats holds aggregated figures for the financial dashboard.
type TransactionStats struct {
	TotalTransactions int64
	Pending           int64
	Completed         int64
	Failed            int64
	Reconciled        int64
	SalesVolume       int64 // sum of sale amounts, excluding failed
	CommissionEarned  int64 // sum of commissions on those sales
	PaidOut           int64 // sum of payout-type transaction amounts
	Refunded          int64 // sum of refund-type transaction amounts
}

// PayoutBatchRepository defines persistence for payout batches, their members
// and the batch-to-transaction links that enforce single batch membership.
type PayoutBatchRepository interface {
	// Create persists the batch, its members and the transaction links in
	// one go. Members carry their underlying transaction ids.
	Create(ctx context.Context, tx pgx.Tx, batch *domain.PayoutBatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PayoutBatch, error)
	List(ctx context.Context, params BatchListParams) ([]domain.PayoutBatch, int64, error)
	// UpdateStatus is the batch-level compare-and-swap, mirroring the
	// ledger's: false when the guard does not hold.
	UpdateStatus(ctx context.Context, id uuid.UUID, status, guard domain.BatchStatus, processedAt *time.Time) (bool, error)
	UpdateMember(ctx context.Context, tx pgx.Tx, batchID, artisanID uuid.UUID, status domain.MemberStatus, gatewayRef, failureReason *string) error
	// NextSequence reserves the next per-year batch sequence number. Must be
	// called inside the same database transaction as Create.
	NextSequence(ctx context.Context, tx pgx.Tx, year int) (int, error)
}

// BatchListParams holds filter + pagination for listing payout batches.
type BatchListParams struct {
	Status   *domain.BatchStatus
	Page     int
	PageSize int
}

// ArtisanRepository is a read-only view of the marketplace seller directory,
// limited to what payouts need.
type ArtisanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Artisan, error)
}

// OperatorRepository defines persistence for dashboard operator accounts.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error)
	GetByUsername(ctx context.Context, username string) (*domain.Operator, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, type, amount, commission, artisan_id, product_id, customer_id,
	payment_method, gateway_reference, status, created_at, reconciled_at, notes`

// LedgerRepo implements ports.LedgerRepository.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Create inserts a new ledger entry within a database transaction. The
// gateway reference is stored as NULL when absent so the unique index only
// bites on real references.
func (r *LedgerRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	var gatewayRef *string
	if t.GatewayReference != "" {
		gatewayRef = &t.GatewayReference
	}

	_, err := tx.Exec(ctx, query,
		t.ID, t.Type, t.Amount, t.Commission, t.ArtisanID,
		t.ProductID, t.CustomerID, t.PaymentMethod, gatewayRef,
		t.Status, t.CreatedAt, t.ReconciledAt, t.Notes,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry by UUID.
func (r *LedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByGatewayReference fetches the ledger entry carrying the reference, or
// nil when none does.
func (r *LedgerRepo) GetByGatewayReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE gateway_reference = $1`
	return r.scanTransaction(r.pool.QueryRow(ctx, query, reference))
}

// UpdateStatus performs the guarded status swap. The WHERE clause carries
// both the id and the expected current status, so the row count tells the
// caller whether the guard held without a separate read. Notes ride in the
// same statement: a failure reason must not outlive a lost swap.
func (r *LedgerRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status, guard domain.TransactionStatus, reconciledAt *time.Time, notes *string) (bool, error) {
	query := `UPDATE transactions SET status = $1, reconciled_at = COALESCE($2, reconciled_at),
		notes = COALESCE($3, notes)
		WHERE id = $4 AND status = $5`

	tag, err := r.pool.Exec(ctx, query, status, reconciledAt, notes, id, guard)
	if err != nil {
		return false, fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Guard miss or missing row; only the latter is an error.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check transaction exists: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("transaction %s: %w", id, ports.ErrRowMissing)
	}
	return false, nil
}

// ListEligibleForPayout returns reconciled sales created at or before the
// cutoff that are not linked to any non-failed batch, oldest first. The read
// runs on the batch-creation transaction: by the time it executes, the
// sequence row lock has serialized this creator against any concurrent one,
// so the links committed by an earlier batch are already visible here.
func (r *LedgerRepo) ListEligibleForPayout(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t
		WHERE t.type = 'SALE' AND t.status = 'RECONCILED' AND t.created_at <= $1
		AND NOT EXISTS (
			SELECT 1 FROM payout_batch_transactions l
			JOIN payout_batches b ON b.id = l.batch_id
			WHERE l.transaction_id = t.id AND b.status <> 'FAILED'
		)
		ORDER BY t.created_at, t.id`

	rows, err := tx.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list eligible transactions: %w", err)
	}
	defer rows.Close()

	return r.collectTransactions(rows)
}

// List fetches ledger entries with filtering and pagination.
func (r *LedgerRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.ArtisanID != nil {
		conditions = append(conditions, fmt.Sprintf("artisan_id = $%d", argIdx))
		args = append(args, *params.ArtisanID)
		argIdx++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.Method != nil {
		conditions = append(conditions, fmt.Sprintf("payment_method = $%d", argIdx))
		args = append(args, *params.Method)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT `+transactionColumns+` FROM transactions %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns, err := r.collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// GetStats retrieves aggregated ledger figures, optionally limited to
// entries created after periodStart.
func (r *LedgerRepo) GetStats(ctx context.Context, periodStart *int64) (*ports.TransactionStats, error) {
	var args []any
	condition := "TRUE"
	if periodStart != nil {
		condition = "created_at >= to_timestamp($1)"
		args = append(args, *periodStart)
	}

	query := fmt.Sprintf(`SELECT
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
		COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COUNT(*) FILTER (WHERE status = 'RECONCILED') AS reconciled,
		COALESCE(SUM(amount) FILTER (WHERE type = 'SALE' AND status <> 'FAILED'), 0) AS sales_volume,
		COALESCE(SUM(commission) FILTER (WHERE type = 'SALE' AND status <> 'FAILED'), 0) AS commission_earned,
		COALESCE(SUM(amount) FILTER (WHERE type = 'PAYOUT' AND status <> 'FAILED'), 0) AS paid_out,
		COALESCE(SUM(amount) FILTER (WHERE type = 'REFUND' AND status <> 'FAILED'), 0) AS refunded
		FROM transactions WHERE %s`, condition)

	stats := &ports.TransactionStats{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalTransactions, &stats.Pending, &stats.Completed, &stats.Failed, &stats.Reconciled,
		&stats.SalesVolume, &stats.CommissionEarned, &stats.PaidOut, &stats.Refunded,
	)
	if err != nil {
		return nil, fmt.Errorf("get ledger stats: %w", err)
	}
	return stats, nil
}

func (r *LedgerRepo) collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var gatewayRef *string
		err := rows.Scan(
			&t.ID, &t.Type, &t.Amount, &t.Commission, &t.ArtisanID,
			&t.ProductID, &t.CustomerID, &t.PaymentMethod, &gatewayRef,
			&t.Status, &t.CreatedAt, &t.ReconciledAt, &t.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if gatewayRef != nil {
			t.GatewayReference = *gatewayRef
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func (r *LedgerRepo) scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var gatewayRef *string
	err := row.Scan(
		&t.ID, &t.Type, &t.Amount, &t.Commission, &t.ArtisanID,
		&t.ProductID, &t.CustomerID, &t.PaymentMethod, &gatewayRef,
		&t.Status, &t.CreatedAt, &t.ReconciledAt, &t.Notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	if gatewayRef != nil {
		t.GatewayReference = *gatewayRef
	}
	return t, nil
}

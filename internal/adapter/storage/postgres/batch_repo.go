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

// PayoutBatchRepo implements ports.PayoutBatchRepository across three tables:
// payout_batches, payout_batch_members and payout_batch_transactions. The
// last one links each sale to its batch and enforces single membership.
type PayoutBatchRepo struct {
	pool Pool
}

// NewPayoutBatchRepo creates a new PayoutBatchRepo.
func NewPayoutBatchRepo(pool Pool) *PayoutBatchRepo {
	return &PayoutBatchRepo{pool: pool}
}

// Create persists the batch header, member rows and transaction links inside
// the caller's database transaction.
func (r *PayoutBatchRepo) Create(ctx context.Context, tx pgx.Tx, batch *domain.PayoutBatch) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO payout_batches (id, batch_number, total_amount, total_transactions, status, created_at, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		batch.ID, batch.BatchNumber, batch.TotalAmount, batch.TotalTransactions,
		batch.Status, batch.CreatedAt, batch.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, m := range batch.Members {
		_, err := tx.Exec(ctx,
			`INSERT INTO payout_batch_members (batch_id, artisan_id, amount, destination_phone, status, gateway_reference, failure_reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			batch.ID, m.ArtisanID, m.Amount, m.DestinationPhone, m.Status, m.GatewayReference, m.FailureReason,
		)
		if err != nil {
			return fmt.Errorf("insert batch member %s: %w", m.ArtisanID, err)
		}
		for _, txnID := range m.TransactionIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO payout_batch_transactions (batch_id, artisan_id, transaction_id)
				VALUES ($1, $2, $3)`,
				batch.ID, m.ArtisanID, txnID,
			)
			if err != nil {
				return fmt.Errorf("link transaction %s: %w", txnID, err)
			}
		}
	}
	return nil
}

// GetByID fetches a batch with its members and their transaction links.
func (r *PayoutBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PayoutBatch, error) {
	batch := &domain.PayoutBatch{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, batch_number, total_amount, total_transactions, status, created_at, processed_at
		FROM payout_batches WHERE id = $1`, id,
	).Scan(
		&batch.ID, &batch.BatchNumber, &batch.TotalAmount, &batch.TotalTransactions,
		&batch.Status, &batch.CreatedAt, &batch.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}

	members, err := r.loadMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	batch.Members = members
	return batch, nil
}

// List fetches batch headers with filtering and pagination. Members are not
// loaded; GetByID serves the detail view.
func (r *PayoutBatchRepo) List(ctx context.Context, params ports.BatchListParams) ([]domain.PayoutBatch, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payout_batches %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count batches: %w", err)
	}

	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, batch_number, total_amount, total_transactions, status, created_at, processed_at
		FROM payout_batches %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.PayoutBatch
	for rows.Next() {
		var b domain.PayoutBatch
		err := rows.Scan(&b.ID, &b.BatchNumber, &b.TotalAmount, &b.TotalTransactions, &b.Status, &b.CreatedAt, &b.ProcessedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan batch row: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate batch rows: %w", err)
	}
	return batches, total, nil
}

// UpdateStatus performs the guarded batch status swap, mirroring the ledger
// repository's compare-and-swap contract.
func (r *PayoutBatchRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status, guard domain.BatchStatus, processedAt *time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payout_batches SET status = $1, processed_at = COALESCE($2, processed_at)
		WHERE id = $3 AND status = $4`,
		status, processedAt, id, guard,
	)
	if err != nil {
		return false, fmt.Errorf("update batch status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payout_batches WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check batch exists: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("batch %s: %w", id, ports.ErrRowMissing)
	}
	return false, nil
}

// UpdateMember records one member's processing outcome within the caller's
// database transaction.
func (r *PayoutBatchRepo) UpdateMember(ctx context.Context, tx pgx.Tx, batchID, artisanID uuid.UUID, status domain.MemberStatus, gatewayRef, failureReason *string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE payout_batch_members SET status = $1, gateway_reference = $2, failure_reason = $3
		WHERE batch_id = $4 AND artisan_id = $5`,
		status, gatewayRef, failureReason, batchID, artisanID,
	)
	if err != nil {
		return fmt.Errorf("update batch member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("batch member %s/%s not found", batchID, artisanID)
	}
	return nil
}

// NextSequence reserves the next per-year batch number. The upsert holds a
// row lock until the caller's transaction commits, so concurrent creations
// serialize and numbers never collide.
func (r *PayoutBatchRepo) NextSequence(ctx context.Context, tx pgx.Tx, year int) (int, error) {
	var seq int
	err := tx.QueryRow(ctx,
		`INSERT INTO payout_batch_sequences (year, last_value) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = payout_batch_sequences.last_value + 1
		RETURNING last_value`, year,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next batch sequence: %w", err)
	}
	return seq, nil
}

func (r *PayoutBatchRepo) loadMembers(ctx context.Context, batchID uuid.UUID) ([]domain.BatchMember, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT batch_id, artisan_id, amount, destination_phone, status, gateway_reference, failure_reason
		FROM payout_batch_members WHERE batch_id = $1 ORDER BY artisan_id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch members: %w", err)
	}
	defer rows.Close()

	var members []domain.BatchMember
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var m domain.BatchMember
		err := rows.Scan(&m.BatchID, &m.ArtisanID, &m.Amount, &m.DestinationPhone, &m.Status, &m.GatewayReference, &m.FailureReason)
		if err != nil {
			return nil, fmt.Errorf("scan batch member: %w", err)
		}
		index[m.ArtisanID] = len(members)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch members: %w", err)
	}

	linkRows, err := r.pool.Query(ctx,
		`SELECT artisan_id, transaction_id FROM payout_batch_transactions
		WHERE batch_id = $1 ORDER BY artisan_id, transaction_id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var artisanID, txnID uuid.UUID
		if err := linkRows.Scan(&artisanID, &txnID); err != nil {
			return nil, fmt.Errorf("scan batch link: %w", err)
		}
		if i, ok := index[artisanID]; ok {
			members[i].TransactionIDs = append(members[i].TransactionIDs, txnID)
		}
	}
	if err := linkRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch links: %w", err)
	}
	return members, nil
}

package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
	// batchLinks maps transaction id -> batch id for single batch membership.
	batchLinks map[uuid.UUID]uuid.UUID
	batches    *inMemoryBatchRepo
}

func newInMemoryLedgerRepo() *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{
		transactions: make(map[uuid.UUID]*domain.Transaction),
		batchLinks:   make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *inMemoryLedgerRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryLedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryLedgerRepo) GetByGatewayReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.transactions {
		if t.GatewayReference == reference {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryLedgerRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status, guard domain.TransactionStatus, reconciledAt *time.Time, notes *string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return false, fmt.Errorf("transaction %s: %w", id, ports.ErrRowMissing)
	}
	if t.Status != guard {
		return false, nil
	}
	t.Status = status
	if reconciledAt != nil {
		t.ReconciledAt = reconciledAt
	}
	if notes != nil {
		t.Notes = notes
	}
	return true, nil
}

func (r *inMemoryLedgerRepo) ListEligibleForPayout(ctx context.Context, tx pgx.Tx, cutoff time.Time) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if t.Type != domain.TransactionTypeSale || t.Status != domain.TransactionStatusReconciled {
			continue
		}
		if t.CreatedAt.After(cutoff) {
			continue
		}
		if batchID, linked := r.batchLinks[t.ID]; linked {
			if r.batches == nil || !r.batches.isFailed(batchID) {
				continue
			}
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inMemoryLedgerRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if params.ArtisanID != nil && t.ArtisanID != *params.ArtisanID {
			continue
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.Method != nil && t.PaymentMethod != *params.Method {
			continue
		}
		if params.From != nil && t.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && t.CreatedAt.Unix() > *params.To {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryLedgerRepo) GetStats(ctx context.Context, periodStart *int64) (*ports.TransactionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := &ports.TransactionStats{}
	for _, t := range r.transactions {
		if periodStart != nil && t.CreatedAt.Unix() < *periodStart {
			continue
		}
		stats.TotalTransactions++
		switch t.Status {
		case domain.TransactionStatusPending:
			stats.Pending++
		case domain.TransactionStatusCompleted:
			stats.Completed++
		case domain.TransactionStatusFailed:
			stats.Failed++
		case domain.TransactionStatusReconciled:
			stats.Reconciled++
		}
		if t.Status == domain.TransactionStatusFailed {
			continue
		}
		switch t.Type {
		case domain.TransactionTypeSale:
			stats.SalesVolume += t.Amount
			stats.CommissionEarned += t.Commission
		case domain.TransactionTypePayout:
			stats.PaidOut += t.Amount
		case domain.TransactionTypeRefund:
			stats.Refunded += t.Amount
		}
	}
	return stats, nil
}

// linkToBatch records batch membership the way the link table does.
func (r *inMemoryLedgerRepo) linkToBatch(batchID uuid.UUID, txnIDs []uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range txnIDs {
		r.batchLinks[id] = batchID
	}
}

// --- In-Memory Batch Repo ---

type inMemoryBatchRepo struct {
	mu        sync.RWMutex
	batches   map[uuid.UUID]*domain.PayoutBatch
	sequences map[int]int
	ledger    *inMemoryLedgerRepo
}

func newInMemoryBatchRepo(ledger *inMemoryLedgerRepo) *inMemoryBatchRepo {
	r := &inMemoryBatchRepo{
		batches:   make(map[uuid.UUID]*domain.PayoutBatch),
		sequences: make(map[int]int),
		ledger:    ledger,
	}
	ledger.batches = r
	return r
}

func (r *inMemoryBatchRepo) Create(ctx context.Context, tx pgx.Tx, batch *domain.PayoutBatch) error {
	r.mu.Lock()
	cp := *batch
	cp.Members = append([]domain.BatchMember(nil), batch.Members...)
	r.batches[batch.ID] = &cp
	r.mu.Unlock()

	for _, m := range batch.Members {
		r.ledger.linkToBatch(batch.ID, m.TransactionIDs)
	}
	return nil
}

func (r *inMemoryBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PayoutBatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	cp.Members = append([]domain.BatchMember(nil), b.Members...)
	return &cp, nil
}

func (r *inMemoryBatchRepo) List(ctx context.Context, params ports.BatchListParams) ([]domain.PayoutBatch, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.PayoutBatch
	for _, b := range r.batches {
		if params.Status != nil && b.Status != *params.Status {
			continue
		}
		cp := *b
		cp.Members = nil
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.PayoutBatch{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryBatchRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status, guard domain.BatchStatus, processedAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return false, fmt.Errorf("batch %s: %w", id, ports.ErrRowMissing)
	}
	if b.Status != guard {
		return false, nil
	}
	b.Status = status
	if processedAt != nil {
		b.ProcessedAt = processedAt
	}
	return true, nil
}

func (r *inMemoryBatchRepo) UpdateMember(ctx context.Context, tx pgx.Tx, batchID, artisanID uuid.UUID, status domain.MemberStatus, gatewayRef, failureReason *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return fmt.Errorf("batch %s not found", batchID)
	}
	for i := range b.Members {
		if b.Members[i].ArtisanID == artisanID {
			b.Members[i].Status = status
			b.Members[i].GatewayReference = gatewayRef
			b.Members[i].FailureReason = failureReason
			return nil
		}
	}
	return fmt.Errorf("batch member %s/%s not found", batchID, artisanID)
}

func (r *inMemoryBatchRepo) NextSequence(ctx context.Context, tx pgx.Tx, year int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequences[year]++
	return r.sequences[year], nil
}

func (r *inMemoryBatchRepo) isFailed(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.batches[id]
	return ok && b.Status == domain.BatchStatusFailed
}

// --- In-Memory Artisan Repo ---

type inMemoryArtisanRepo struct {
	mu       sync.RWMutex
	artisans map[uuid.UUID]*domain.Artisan
}

func newInMemoryArtisanRepo() *inMemoryArtisanRepo {
	return &inMemoryArtisanRepo{artisans: make(map[uuid.UUID]*domain.Artisan)}
}

func (r *inMemoryArtisanRepo) add(a *domain.Artisan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artisans[a.ID] = a
}

func (r *inMemoryArtisanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artisan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.artisans[id]
	if !ok {
		return nil, nil
	}
	return a, nil
}

// --- In-Memory Operator Repo ---

type inMemoryOperatorRepo struct {
	mu        sync.RWMutex
	operators map[uuid.UUID]*domain.Operator
}

func newInMemoryOperatorRepo() *inMemoryOperatorRepo {
	return &inMemoryOperatorRepo{operators: make(map[uuid.UUID]*domain.Operator)}
}

func (r *inMemoryOperatorRepo) Create(ctx context.Context, o *domain.Operator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.operators {
		if existing.Username == o.Username {
			return fmt.Errorf("username already exists")
		}
	}
	r.operators[o.ID] = o
	return nil
}

func (r *inMemoryOperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.operators[id]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (r *inMemoryOperatorRepo) GetByUsername(ctx context.Context, username string) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.operators {
		if o.Username == username {
			return o, nil
		}
	}
	return nil, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor hands out one transaction at a time. Holding the mutex
// from Begin to Commit/Rollback mirrors how the batch sequence row lock
// serializes concurrent batch creators in Postgres.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	tx := &noopTx{}
	tx.release = func() { t.mu.Unlock() }
	return tx, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing. Commit and
// Rollback release the transactor; the deferred Rollback after a Commit is a
// no-op thanks to the Once.
type noopTx struct {
	done    sync.Once
	release func()
}

func (t *noopTx) finish() {
	t.done.Do(func() {
		if t.release != nil {
			t.release()
		}
	})
}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

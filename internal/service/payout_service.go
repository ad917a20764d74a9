package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/config"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// receiptTTL keeps transfer confirmations around long enough to cover any
// realistic retry window for a stuck batch.
const receiptTTL = 7 * 24 * time.Hour

// PayoutServiceImpl implements ports.PayoutService.
type PayoutServiceImpl struct {
	ledgerRepo  ports.LedgerRepository
	batchRepo   ports.PayoutBatchRepository
	artisanRepo ports.ArtisanRepository
	gateway     ports.TransferGateway
	receipts    ports.TransferReceiptStore
	transactor  ports.DBTransactor
	payoutCfg   config.PayoutConfig
	callTimeout time.Duration
	log         zerolog.Logger
}

// NewPayoutService creates a new PayoutServiceImpl. callTimeout bounds each
// individual transfer call; the retry policy comes from payoutCfg.
func NewPayoutService(
	ledgerRepo ports.LedgerRepository,
	batchRepo ports.PayoutBatchRepository,
	artisanRepo ports.ArtisanRepository,
	gateway ports.TransferGateway,
	receipts ports.TransferReceiptStore,
	transactor ports.DBTransactor,
	payoutCfg config.PayoutConfig,
	callTimeout time.Duration,
	log zerolog.Logger,
) *PayoutServiceImpl {
	return &PayoutServiceImpl{
		ledgerRepo:  ledgerRepo,
		batchRepo:   batchRepo,
		artisanRepo: artisanRepo,
		gateway:     gateway,
		receipts:    receipts,
		transactor:  transactor,
		payoutCfg:   payoutCfg,
		callTimeout: callTimeout,
		log:         log,
	}
}

// CreateBatch gathers every reconciled, not-yet-batched sale created at or
// before the cutoff, rolls them up per artisan and persists the batch in one
// database transaction. Failing a single artisan lookup aborts the whole
// creation: a batch must never silently drop earnings.
func (s *PayoutServiceImpl) CreateBatch(ctx context.Context, periodCutoff time.Time) (*domain.PayoutBatch, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()

	// The sequence upsert locks the year row, so concurrent creators queue
	// here. Reading eligibility after the lock means a second creator sees
	// the first batch's committed links and cannot claim the same sale twice.
	seq, err := s.batchRepo.NextSequence(ctx, dbTx, now.Year())
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("next batch sequence: %w", err))
	}

	txns, err := s.ledgerRepo.ListEligibleForPayout(ctx, dbTx, periodCutoff)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list eligible: %w", err))
	}
	if len(txns) == 0 {
		// Rollback releases the reserved sequence number along with the lock.
		return nil, apperror.ErrNoEligibleTransactions()
	}

	// Group per artisan, preserving first-seen order so batch members come
	// out in a stable, explainable sequence.
	byArtisan := make(map[uuid.UUID]*domain.BatchMember)
	var order []uuid.UUID
	for _, txn := range txns {
		m, seen := byArtisan[txn.ArtisanID]
		if !seen {
			m = &domain.BatchMember{
				ArtisanID: txn.ArtisanID,
				Status:    domain.MemberStatusPending,
			}
			byArtisan[txn.ArtisanID] = m
			order = append(order, txn.ArtisanID)
		}
		m.Amount += txn.Payout()
		m.TransactionIDs = append(m.TransactionIDs, txn.ID)
	}

	batch := &domain.PayoutBatch{
		ID:          uuid.New(),
		BatchNumber: domain.FormatBatchNumber(now.Year(), seq),
		Status:      domain.BatchStatusPending,
		CreatedAt:   now,
	}

	for _, artisanID := range order {
		artisan, err := s.artisanRepo.GetByID(ctx, artisanID)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup artisan %s: %w", artisanID, err))
		}
		if artisan == nil {
			return nil, apperror.ErrArtisanNotFound(artisanID.String())
		}
		member := byArtisan[artisanID]
		member.BatchID = batch.ID
		member.DestinationPhone = artisan.Phone
		batch.Members = append(batch.Members, *member)
	}
	batch.Recount()

	if err := s.batchRepo.Create(ctx, dbTx, batch); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create batch: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Str("batch_number", batch.BatchNumber).
		Int("artisans", len(batch.Members)).
		Int("transactions", batch.TotalTransactions).
		Int64("total_amount", batch.TotalAmount).
		Msg("payout batch created")

	return batch, nil
}

// ProcessBatch claims the batch via a guarded pending -> processing swap and
// pays each member through the transfer gateway. Exactly one concurrent call
// proceeds; losers get an AlreadyProcessing outcome. Member failures never
// abort the run: the batch ends failed and the unpaid earnings return to the
// eligible pool for the next batch.
func (s *PayoutServiceImpl) ProcessBatch(ctx context.Context, batchID uuid.UUID) (*domain.ProcessOutcome, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if batch == nil {
		return nil, apperror.ErrBatchNotFound()
	}

	ok, err := s.batchRepo.UpdateStatus(ctx, batchID, domain.BatchStatusProcessing, domain.BatchStatusPending, nil)
	if err != nil {
		if errors.Is(err, ports.ErrRowMissing) {
			return nil, apperror.ErrLedgerCorruption(fmt.Errorf("batch %s vanished mid-update", batchID))
		}
		return nil, apperror.ErrDatabaseError(err)
	}
	if !ok {
		current, err := s.batchRepo.GetByID(ctx, batchID)
		if err != nil || current == nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("reread batch after guard miss: %w", err))
		}
		return &domain.ProcessOutcome{
			BatchID:     batchID,
			BatchNumber: current.BatchNumber,
			Status:      domain.ProcessStatusAlreadyProcessing,
			BatchStatus: current.Status,
			ProcessedAt: current.ProcessedAt,
		}, nil
	}

	outcome := &domain.ProcessOutcome{
		BatchID:     batchID,
		BatchNumber: batch.BatchNumber,
		Status:      domain.ProcessStatusProcessed,
	}

	for i := range batch.Members {
		if err := ctx.Err(); err != nil {
			// Leave the batch in processing: a fresh call will see the
			// guard miss and the receipts cache keeps payments idempotent
			// once an operator resolves the state by hand.
			return nil, err
		}
		memberOutcome := s.payMember(ctx, batch, &batch.Members[i])
		if memberOutcome.Status == domain.MemberStatusPaid {
			outcome.Paid++
		} else {
			outcome.Failed++
		}
		outcome.Members = append(outcome.Members, memberOutcome)
	}

	final := domain.BatchStatusCompleted
	if outcome.Failed > 0 {
		final = domain.BatchStatusFailed
	}
	now := time.Now().UTC()
	if _, err := s.batchRepo.UpdateStatus(ctx, batchID, final, domain.BatchStatusProcessing, &now); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("finalize batch: %w", err))
	}
	outcome.BatchStatus = final
	outcome.ProcessedAt = &now

	s.log.Info().
		Str("batch_id", batchID.String()).
		Str("batch_number", batch.BatchNumber).
		Str("status", string(final)).
		Int("paid", outcome.Paid).
		Int("failed", outcome.Failed).
		Msg("payout batch processed")

	return outcome, nil
}

// GetBatch returns a batch with its members.
func (s *PayoutServiceImpl) GetBatch(ctx context.Context, batchID uuid.UUID) (*domain.PayoutBatch, error) {
	batch, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if batch == nil {
		return nil, apperror.ErrBatchNotFound()
	}
	return batch, nil
}

// ListBatches returns a paginated batch listing.
func (s *PayoutServiceImpl) ListBatches(ctx context.Context, params ports.BatchListParams) ([]domain.PayoutBatch, int64, error) {
	batches, total, err := s.batchRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return batches, total, nil
}

// payMember disburses one member's aggregate amount. The receipts cache is
// checked first so a reprocessed member is never paid twice even if the
// member row update failed after a successful transfer.
func (s *PayoutServiceImpl) payMember(ctx context.Context, batch *domain.PayoutBatch, member *domain.BatchMember) domain.MemberOutcome {
	receipt, err := s.receipts.Get(ctx, batch.ID, member.ArtisanID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("batch_id", batch.ID.String()).
			Str("artisan_id", member.ArtisanID.String()).
			Msg("receipt cache read failed, falling through to gateway")
	}
	if receipt != nil {
		if err := s.settleMember(ctx, batch, member, receipt.Reference); err != nil {
			return s.failMember(ctx, batch, member, 0, err)
		}
		return domain.MemberOutcome{
			ArtisanID:        member.ArtisanID,
			Amount:           member.Amount,
			Status:           domain.MemberStatusPaid,
			GatewayReference: receipt.Reference,
		}
	}

	result, attempts, err := s.transferWithRetry(ctx, batch, member)
	if err != nil {
		return s.failMember(ctx, batch, member, attempts, err)
	}

	if err := s.settleMember(ctx, batch, member, result.Reference); err != nil {
		// The money moved; cache the receipt before reporting the member
		// failed so a rerun settles instead of paying again.
		s.cacheReceipt(ctx, batch.ID, member, result.Reference)
		return s.failMember(ctx, batch, member, attempts, err)
	}
	s.cacheReceipt(ctx, batch.ID, member, result.Reference)

	return domain.MemberOutcome{
		ArtisanID:        member.ArtisanID,
		Amount:           member.Amount,
		Status:           domain.MemberStatusPaid,
		GatewayReference: result.Reference,
		Attempts:         attempts,
	}
}

// transferWithRetry calls the gateway up to the configured attempt count with
// a doubling backoff between attempts. Each call carries its own timeout and
// the same idempotency key, so a retried call can never double-pay.
func (s *PayoutServiceImpl) transferWithRetry(ctx context.Context, batch *domain.PayoutBatch, member *domain.BatchMember) (*ports.TransferResult, int, error) {
	req := ports.TransferRequest{
		IdempotencyKey:   fmt.Sprintf("%s:%s", batch.ID, member.ArtisanID),
		DestinationPhone: member.DestinationPhone,
		Amount:           member.Amount,
		Remarks:          batch.BatchNumber,
	}

	maxAttempts := s.payoutCfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := s.payoutCfg.RetryBackoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		result, err := s.gateway.Transfer(callCtx, req)
		cancel()
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err
		s.log.Warn().Err(err).
			Str("batch_id", batch.ID.String()).
			Str("artisan_id", member.ArtisanID.String()).
			Int("attempt", attempt).
			Msg("transfer attempt failed")

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, maxAttempts, lastErr
}

// settleMember records a successful disbursement: a payout ledger entry plus
// the member row flip to paid, in one database transaction. The payout entry
// goes in completed; the next statement run reconciles it like any other.
func (s *PayoutServiceImpl) settleMember(ctx context.Context, batch *domain.PayoutBatch, member *domain.BatchMember, gatewayRef string) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	payout := &domain.Transaction{
		ID:               uuid.New(),
		Type:             domain.TransactionTypePayout,
		Amount:           member.Amount,
		ArtisanID:        member.ArtisanID,
		PaymentMethod:    domain.PaymentMethodMPesa,
		GatewayReference: gatewayRef,
		Status:           domain.TransactionStatusCompleted,
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, payout); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("record payout entry: %w", err))
	}

	if err := s.batchRepo.UpdateMember(ctx, dbTx, batch.ID, member.ArtisanID, domain.MemberStatusPaid, &gatewayRef, nil); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("mark member paid: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// failMember marks one member failed with the reason and builds its outcome.
func (s *PayoutServiceImpl) failMember(ctx context.Context, batch *domain.PayoutBatch, member *domain.BatchMember, attempts int, cause error) domain.MemberOutcome {
	reason := cause.Error()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("batch_id", batch.ID.String()).Msg("begin tx for member failure")
	} else {
		defer dbTx.Rollback(ctx) //nolint:errcheck
		if err := s.batchRepo.UpdateMember(ctx, dbTx, batch.ID, member.ArtisanID, domain.MemberStatusFailed, nil, &reason); err != nil {
			s.log.Error().Err(err).
				Str("batch_id", batch.ID.String()).
				Str("artisan_id", member.ArtisanID.String()).
				Msg("mark member failed")
		} else if err := dbTx.Commit(ctx); err != nil {
			s.log.Error().Err(err).Str("batch_id", batch.ID.String()).Msg("commit member failure")
		}
	}

	return domain.MemberOutcome{
		ArtisanID:     member.ArtisanID,
		Amount:        member.Amount,
		Status:        domain.MemberStatusFailed,
		FailureReason: reason,
		Attempts:      attempts,
	}
}

func (s *PayoutServiceImpl) cacheReceipt(ctx context.Context, batchID uuid.UUID, member *domain.BatchMember, reference string) {
	receipt := &domain.TransferReceipt{
		Reference: reference,
		Amount:    member.Amount,
		PaidAt:    time.Now().UTC(),
	}
	if err := s.receipts.Set(ctx, batchID, member.ArtisanID, receipt, receiptTTL); err != nil {
		s.log.Warn().Err(err).
			Str("batch_id", batchID.String()).
			Str("artisan_id", member.ArtisanID.String()).
			Msg("receipt cache write failed")
	}
}

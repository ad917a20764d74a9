package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// RecordSale validates and persists a sale, computing the commission split
// at write time so it never drifts if the platform rate changes later.
func (s *LedgerServiceImpl) RecordSale(ctx context.Context, req ports.SaleRequest) (*domain.Transaction, error) {
	split, err := domain.ComputeSplit(req.Amount, req.CommissionRatePercent)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return nil, apperror.ErrInvalidAmount()
		case errors.Is(err, domain.ErrInvalidRate):
			return nil, apperror.ErrInvalidRate()
		default:
			return nil, apperror.InternalError(err)
		}
	}
	if split.Commission > req.Amount {
		return nil, apperror.ErrCommissionExceedsAmount()
	}

	if err := s.checkGatewayReference(ctx, req.PaymentMethod, req.GatewayReference); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:               uuid.New(),
		Type:             domain.TransactionTypeSale,
		Amount:           req.Amount,
		Commission:       split.Commission,
		ArtisanID:        req.ArtisanID,
		ProductID:        req.ProductID,
		CustomerID:       req.CustomerID,
		PaymentMethod:    req.PaymentMethod,
		GatewayReference: req.GatewayReference,
		Status:           domain.TransactionStatusPending,
		CreatedAt:        time.Now().UTC(),
		Notes:            req.Notes,
	}

	if err := s.persist(ctx, txn); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", txn.ID.String()).
		Str("artisan_id", txn.ArtisanID.String()).
		Int64("amount", txn.Amount).
		Int64("commission", txn.Commission).
		Msg("sale recorded")

	return txn, nil
}

// RecordRefund persists a refund entry. Refunds carry no commission; the
// platform absorbs its share when money goes back to the customer.
func (s *LedgerServiceImpl) RecordRefund(ctx context.Context, req ports.RefundRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	if err := s.checkGatewayReference(ctx, req.PaymentMethod, req.GatewayReference); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:               uuid.New(),
		Type:             domain.TransactionTypeRefund,
		Amount:           req.Amount,
		ArtisanID:        req.ArtisanID,
		ProductID:        req.ProductID,
		CustomerID:       req.CustomerID,
		PaymentMethod:    req.PaymentMethod,
		GatewayReference: req.GatewayReference,
		Status:           domain.TransactionStatusPending,
		CreatedAt:        time.Now().UTC(),
		Notes:            req.Notes,
	}

	if err := s.persist(ctx, txn); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("transaction_id", txn.ID.String()).
		Int64("amount", txn.Amount).
		Msg("refund recorded")

	return txn, nil
}

// Confirm applies the pending -> completed transition.
func (s *LedgerServiceImpl) Confirm(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.transition(ctx, id, domain.TransactionStatusCompleted, nil)
}

// Fail applies the pending -> failed transition, recording the gateway's
// rejection reason in the notes.
func (s *LedgerServiceImpl) Fail(ctx context.Context, id uuid.UUID, reason string) (*domain.Transaction, error) {
	var notes *string
	if reason != "" {
		notes = &reason
	}
	return s.transition(ctx, id, domain.TransactionStatusFailed, notes)
}

// transition applies a guarded pending -> <target> status change. The guard
// makes concurrent confirm/fail calls race safely: exactly one wins, the
// loser gets a conflict describing the state it actually found.
func (s *LedgerServiceImpl) transition(ctx context.Context, id uuid.UUID, target domain.TransactionStatus, notes *string) (*domain.Transaction, error) {
	txn, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}

	ok, err := s.ledgerRepo.UpdateStatus(ctx, id, target, domain.TransactionStatusPending, nil, notes)
	if err != nil {
		if errors.Is(err, ports.ErrRowMissing) {
			return nil, apperror.ErrLedgerCorruption(fmt.Errorf("transaction %s vanished mid-update", id))
		}
		return nil, apperror.ErrDatabaseError(err)
	}
	if !ok {
		current, err := s.ledgerRepo.GetByID(ctx, id)
		if err != nil || current == nil {
			return nil, apperror.ErrLedgerCorruption(fmt.Errorf("transaction %s unreadable after guard miss: %w", id, err))
		}
		return nil, apperror.ErrInvalidStatusTransition(string(current.Status), string(target))
	}

	txn.Status = target
	if notes != nil {
		txn.Notes = notes
	}

	s.log.Info().
		Str("transaction_id", id.String()).
		Str("status", string(target)).
		Msg("transaction status updated")

	return txn, nil
}

// checkGatewayReference enforces the M-Pesa reference requirement and the
// ledger-wide uniqueness of references.
func (s *LedgerServiceImpl) checkGatewayReference(ctx context.Context, method domain.PaymentMethod, reference string) error {
	if method == domain.PaymentMethodMPesa && reference == "" {
		return apperror.ErrMissingGatewayReference()
	}
	if reference == "" {
		return nil
	}

	existing, err := s.ledgerRepo.GetByGatewayReference(ctx, reference)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("check gateway reference: %w", err))
	}
	if existing != nil {
		return apperror.ErrDuplicateGatewayReference()
	}
	return nil
}

func (s *LedgerServiceImpl) persist(ctx context.Context, txn *domain.Transaction) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.ledgerRepo.Create(ctx, dbTx, txn); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

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

// ReconciliationServiceImpl implements ports.ReconciliationService.
type ReconciliationServiceImpl struct {
	ledgerRepo ports.LedgerRepository
	matcher    ports.Matcher
	log        zerolog.Logger
}

// NewReconciliationService creates a new ReconciliationServiceImpl.
func NewReconciliationService(
	ledgerRepo ports.LedgerRepository,
	matcher ports.Matcher,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	return &ReconciliationServiceImpl{
		ledgerRepo: ledgerRepo,
		matcher:    matcher,
		log:        log,
	}
}

// ReconcileOne applies the completed -> reconciled transition to a single
// transaction. Calling it again for an already reconciled transaction reports
// AlreadyReconciled rather than failing, so retries are safe.
func (s *ReconciliationServiceImpl) ReconcileOne(ctx context.Context, id uuid.UUID) (*domain.ReconcileOutcome, error) {
	txn, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	return s.reconcileFrom(ctx, id, domain.TransactionStatusCompleted)
}

// ResolveFailed applies the manual failed -> reconciled transition, used when
// an operator verified off-system that the money actually settled.
func (s *ReconciliationServiceImpl) ResolveFailed(ctx context.Context, id uuid.UUID) (*domain.ReconcileOutcome, error) {
	txn, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}
	outcome, err := s.reconcileFrom(ctx, id, domain.TransactionStatusFailed)
	if err != nil {
		return nil, err
	}
	if outcome.Status == domain.ReconcileStatusReconciled {
		s.log.Info().
			Str("transaction_id", id.String()).
			Msg("failed transaction manually resolved")
	}
	return outcome, nil
}

// ReconcileStatement runs a full statement against the ledger, line by line.
// One bad line never aborts the run: each exception is recorded in the report
// and processing continues. Stops early only on context cancellation.
func (s *ReconciliationServiceImpl) ReconcileStatement(ctx context.Context, lines []domain.StatementLine) (*domain.ReconciliationReport, error) {
	if len(lines) == 0 {
		return nil, apperror.ErrEmptyStatement()
	}

	report := &domain.ReconciliationReport{StartedAt: time.Now().UTC()}

	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = time.Now().UTC()
			return report, err
		}
		lineNo := i + 1
		report.Processed++

		match, err := s.matcher.Match(ctx, line)
		if err != nil {
			report.Exceptions = append(report.Exceptions, domain.StatementLineResult{
				LineNumber: lineNo,
				Reference:  line.Reference,
				Result:     "ERROR",
				Detail:     err.Error(),
			})
			s.log.Error().Err(err).Int("line", lineNo).Str("reference", line.Reference).Msg("statement line match failed")
			continue
		}

		switch match.Status {
		case domain.MatchStatusOrphan:
			report.Orphans++
			report.Exceptions = append(report.Exceptions, domain.StatementLineResult{
				LineNumber: lineNo,
				Reference:  line.Reference,
				Result:     string(domain.MatchStatusOrphan),
				Detail:     "no transaction carries this reference",
			})
		case domain.MatchStatusAmountMismatch:
			report.AmountMismatches++
			report.Exceptions = append(report.Exceptions, domain.StatementLineResult{
				LineNumber:    lineNo,
				Reference:     line.Reference,
				Result:        string(domain.MatchStatusAmountMismatch),
				TransactionID: match.TransactionID,
				Detail:        fmt.Sprintf("ledger has %d, statement has %d", match.Expected, match.Got),
			})
		case domain.MatchStatusMatched:
			outcome, err := s.reconcileFrom(ctx, match.TransactionID, domain.TransactionStatusCompleted)
			if err != nil {
				report.Exceptions = append(report.Exceptions, domain.StatementLineResult{
					LineNumber:    lineNo,
					Reference:     line.Reference,
					Result:        "ERROR",
					TransactionID: match.TransactionID,
					Detail:        err.Error(),
				})
				s.log.Error().Err(err).Int("line", lineNo).Str("reference", line.Reference).Msg("statement line reconcile failed")
				continue
			}
			switch outcome.Status {
			case domain.ReconcileStatusReconciled:
				report.Reconciled++
			case domain.ReconcileStatusAlreadyReconciled:
				// A re-uploaded statement is routine; not an exception.
				report.AlreadyReconciled++
			case domain.ReconcileStatusNotEligible:
				report.NotEligible++
				report.Exceptions = append(report.Exceptions, domain.StatementLineResult{
					LineNumber:    lineNo,
					Reference:     line.Reference,
					Result:        string(domain.ReconcileStatusNotEligible),
					TransactionID: match.TransactionID,
					Detail:        fmt.Sprintf("transaction is %s, expected %s", outcome.CurrentStatus, domain.TransactionStatusCompleted),
				})
			}
		}
	}

	report.FinishedAt = time.Now().UTC()

	s.log.Info().
		Int("processed", report.Processed).
		Int("reconciled", report.Reconciled).
		Int("already_reconciled", report.AlreadyReconciled).
		Int("orphans", report.Orphans).
		Int("amount_mismatches", report.AmountMismatches).
		Int("not_eligible", report.NotEligible).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("statement reconciliation finished")

	return report, nil
}

// reconcileFrom performs the guarded status swap to reconciled. On a guard
// miss it re-reads to tell an idempotent retry (already reconciled) apart
// from a genuinely ineligible state.
func (s *ReconciliationServiceImpl) reconcileFrom(ctx context.Context, id uuid.UUID, guard domain.TransactionStatus) (*domain.ReconcileOutcome, error) {
	now := time.Now().UTC()
	ok, err := s.ledgerRepo.UpdateStatus(ctx, id, domain.TransactionStatusReconciled, guard, &now, nil)
	if err != nil {
		if errors.Is(err, ports.ErrRowMissing) {
			return nil, apperror.ErrLedgerCorruption(fmt.Errorf("transaction %s vanished mid-update", id))
		}
		return nil, apperror.ErrDatabaseError(err)
	}
	if ok {
		return &domain.ReconcileOutcome{
			Status:        domain.ReconcileStatusReconciled,
			TransactionID: id,
			ReconciledAt:  &now,
		}, nil
	}

	current, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if current == nil {
		return nil, apperror.ErrLedgerCorruption(fmt.Errorf("transaction %s unreadable after guard miss", id))
	}
	if current.Status == domain.TransactionStatusReconciled {
		return &domain.ReconcileOutcome{
			Status:        domain.ReconcileStatusAlreadyReconciled,
			TransactionID: id,
			ReconciledAt:  current.ReconciledAt,
		}, nil
	}
	return &domain.ReconcileOutcome{
		Status:        domain.ReconcileStatusNotEligible,
		TransactionID: id,
		CurrentStatus: current.Status,
	}, nil
}

package service

import (
	"context"
	"fmt"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"
)

// MatcherImpl implements ports.Matcher by exact gateway reference lookup.
type MatcherImpl struct {
	ledgerRepo ports.LedgerRepository
}

// NewMatcher creates a new MatcherImpl.
func NewMatcher(ledgerRepo ports.LedgerRepository) *MatcherImpl {
	return &MatcherImpl{ledgerRepo: ledgerRepo}
}

// Match classifies a statement line against the ledger. Orphans and amount
// mismatches are ordinary outcomes; only infrastructure failures error.
func (m *MatcherImpl) Match(ctx context.Context, line domain.StatementLine) (*domain.MatchResult, error) {
	txn, err := m.ledgerRepo.GetByGatewayReference(ctx, line.Reference)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup reference %s: %w", line.Reference, err))
	}
	if txn == nil {
		return &domain.MatchResult{
			Status:    domain.MatchStatusOrphan,
			Reference: line.Reference,
		}, nil
	}
	if txn.Amount != line.Amount {
		return &domain.MatchResult{
			Status:        domain.MatchStatusAmountMismatch,
			Reference:     line.Reference,
			TransactionID: txn.ID,
			Expected:      txn.Amount,
			Got:           line.Amount,
		}, nil
	}
	return &domain.MatchResult{
		Status:        domain.MatchStatusMatched,
		Reference:     line.Reference,
		TransactionID: txn.ID,
	}, nil
}

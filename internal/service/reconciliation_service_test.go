package service

import (
	"context"
	"testing"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reconTestDeps struct {
	svc        *ReconciliationServiceImpl
	ledgerRepo *mocks.MockLedgerRepository
	matcher    *mocks.MockMatcher
	ctrl       *gomock.Controller
}

func setupReconciliationService(t *testing.T) *reconTestDeps {
	ctrl := gomock.NewController(t)
	d := &reconTestDeps{
		ledgerRepo: mocks.NewMockLedgerRepository(ctrl),
		matcher:    mocks.NewMockMatcher(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewReconciliationService(d.ledgerRepo, d.matcher, zerolog.Nop())
	return d
}

// ==================== ReconcileOne Tests ====================

func TestReconciliationService_ReconcileOne_Success(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusCompleted,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusReconciled, domain.TransactionStatusCompleted, gomock.Any(), nil).Return(true, nil)

	outcome, err := d.svc.ReconcileOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileStatusReconciled, outcome.Status)
	assert.Equal(t, id, outcome.TransactionID)
	require.NotNil(t, outcome.ReconciledAt)
}

func TestReconciliationService_ReconcileOne_NotFound(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	outcome, err := d.svc.ReconcileOne(ctx, id)
	assert.Nil(t, outcome)
	assertAppError(t, err, "REC_001")
}

func TestReconciliationService_ReconcileOne_AlreadyReconciled(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	when := time.Now().UTC()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusReconciled,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusReconciled, domain.TransactionStatusCompleted, gomock.Any(), nil).Return(false, nil)
	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:           id,
		Status:       domain.TransactionStatusReconciled,
		ReconciledAt: &when,
	}, nil)

	outcome, err := d.svc.ReconcileOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileStatusAlreadyReconciled, outcome.Status)
	assert.Equal(t, &when, outcome.ReconciledAt)
}

func TestReconciliationService_ReconcileOne_NotEligible(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusPending,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusReconciled, domain.TransactionStatusCompleted, gomock.Any(), nil).Return(false, nil)
	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusPending,
	}, nil)

	outcome, err := d.svc.ReconcileOne(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileStatusNotEligible, outcome.Status)
	assert.Equal(t, domain.TransactionStatusPending, outcome.CurrentStatus)
}

// ==================== ResolveFailed Tests ====================

func TestReconciliationService_ResolveFailed_Success(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusFailed,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusReconciled, domain.TransactionStatusFailed, gomock.Any(), nil).Return(true, nil)

	outcome, err := d.svc.ResolveFailed(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileStatusReconciled, outcome.Status)
}

func TestReconciliationService_ResolveFailed_NotEligible(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusCompleted,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusReconciled, domain.TransactionStatusFailed, gomock.Any(), nil).Return(false, nil)
	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusCompleted,
	}, nil)

	outcome, err := d.svc.ResolveFailed(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ReconcileStatusNotEligible, outcome.Status)
	assert.Equal(t, domain.TransactionStatusCompleted, outcome.CurrentStatus)
}

// ==================== ReconcileStatement Tests ====================

func TestReconciliationService_ReconcileStatement_Empty(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	report, err := d.svc.ReconcileStatement(context.Background(), nil)
	assert.Nil(t, report)
	assertAppError(t, err, "REC_003")
}

func TestReconciliationService_ReconcileStatement_MixedOutcomes(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	matchedID := uuid.New()
	mismatchID := uuid.New()

	lines := []domain.StatementLine{
		{Reference: "REF-OK", Amount: 50000},
		{Reference: "REF-ORPHAN", Amount: 10000},
		{Reference: "REF-MISMATCH", Amount: 7000},
	}

	d.matcher.EXPECT().Match(ctx, lines[0]).Return(&domain.MatchResult{
		Status:        domain.MatchStatusMatched,
		Reference:     "REF-OK",
		TransactionID: matchedID,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, matchedID, domain.TransactionStatusReconciled, domain.TransactionStatusCompleted, gomock.Any(), nil).Return(true, nil)

	d.matcher.EXPECT().Match(ctx, lines[1]).Return(&domain.MatchResult{
		Status:    domain.MatchStatusOrphan,
		Reference: "REF-ORPHAN",
	}, nil)

	d.matcher.EXPECT().Match(ctx, lines[2]).Return(&domain.MatchResult{
		Status:        domain.MatchStatusAmountMismatch,
		Reference:     "REF-MISMATCH",
		TransactionID: mismatchID,
		Expected:      7500,
		Got:           7000,
	}, nil)

	report, err := d.svc.ReconcileStatement(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Reconciled)
	assert.Equal(t, 1, report.Orphans)
	assert.Equal(t, 1, report.AmountMismatches)
	require.Len(t, report.Exceptions, 2)
	assert.Equal(t, 2, report.Exceptions[0].LineNumber)
	assert.Equal(t, 3, report.Exceptions[1].LineNumber)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestReconciliationService_ReconcileStatement_RerunIsIdempotent(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	when := time.Now().UTC()
	lines := []domain.StatementLine{{Reference: "REF-OK", Amount: 50000}}

	d.matcher.EXPECT().Match(ctx, lines[0]).Return(&domain.MatchResult{
		Status:        domain.MatchStatusMatched,
		Reference:     "REF-OK",
		TransactionID: id,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusReconciled, domain.TransactionStatusCompleted, gomock.Any(), nil).Return(false, nil)
	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:           id,
		Status:       domain.TransactionStatusReconciled,
		ReconciledAt: &when,
	}, nil)

	report, err := d.svc.ReconcileStatement(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, 1, report.AlreadyReconciled)
	assert.Zero(t, report.Reconciled)
	// An idempotent rerun is clean, not an exception.
	assert.Empty(t, report.Exceptions)
}

func TestReconciliationService_ReconcileStatement_LineErrorContinues(t *testing.T) {
	d := setupReconciliationService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	goodID := uuid.New()
	lines := []domain.StatementLine{
		{Reference: "REF-BROKEN", Amount: 1000},
		{Reference: "REF-GOOD", Amount: 2000},
	}

	d.matcher.EXPECT().Match(ctx, lines[0]).Return(nil, assert.AnError)
	d.matcher.EXPECT().Match(ctx, lines[1]).Return(&domain.MatchResult{
		Status:        domain.MatchStatusMatched,
		Reference:     "REF-GOOD",
		TransactionID: goodID,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, goodID, domain.TransactionStatusReconciled, domain.TransactionStatusCompleted, gomock.Any(), nil).Return(true, nil)

	report, err := d.svc.ReconcileStatement(ctx, lines)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Reconciled)
	require.Len(t, report.Exceptions, 1)
	assert.Equal(t, "ERROR", report.Exceptions[0].Result)
}

// ==================== Matcher Tests ====================

func TestMatcher_Match_Matched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ledgerRepo := mocks.NewMockLedgerRepository(ctrl)
	m := NewMatcher(ledgerRepo)

	ctx := context.Background()
	id := uuid.New()
	line := domain.StatementLine{Reference: "REF-1", Amount: 5000}

	ledgerRepo.EXPECT().GetByGatewayReference(ctx, "REF-1").Return(&domain.Transaction{
		ID:     id,
		Amount: 5000,
	}, nil)

	result, err := m.Match(ctx, line)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusMatched, result.Status)
	assert.Equal(t, id, result.TransactionID)
}

func TestMatcher_Match_AmountMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ledgerRepo := mocks.NewMockLedgerRepository(ctrl)
	m := NewMatcher(ledgerRepo)

	ctx := context.Background()
	line := domain.StatementLine{Reference: "REF-1", Amount: 4000}

	ledgerRepo.EXPECT().GetByGatewayReference(ctx, "REF-1").Return(&domain.Transaction{
		ID:     uuid.New(),
		Amount: 5000,
	}, nil)

	result, err := m.Match(ctx, line)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusAmountMismatch, result.Status)
	assert.Equal(t, int64(5000), result.Expected)
	assert.Equal(t, int64(4000), result.Got)
}

func TestMatcher_Match_Orphan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ledgerRepo := mocks.NewMockLedgerRepository(ctrl)
	m := NewMatcher(ledgerRepo)

	ctx := context.Background()
	line := domain.StatementLine{Reference: "REF-UNKNOWN", Amount: 4000}

	ledgerRepo.EXPECT().GetByGatewayReference(ctx, "REF-UNKNOWN").Return(nil, nil)

	result, err := m.Match(ctx, line)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchStatusOrphan, result.Status)
	assert.Equal(t, "REF-UNKNOWN", result.Reference)
}

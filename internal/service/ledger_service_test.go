package service

import (
	"context"
	"testing"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports/mocks"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ledgerTestDeps struct {
	svc        *LedgerServiceImpl
	ledgerRepo *mocks.MockLedgerRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupLedgerService(t *testing.T) *ledgerTestDeps {
	ctrl := gomock.NewController(t)
	d := &ledgerTestDeps{
		ledgerRepo: mocks.NewMockLedgerRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewLedgerService(d.ledgerRepo, d.transactor, zerolog.Nop())
	return d
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

func saleRequest() ports.SaleRequest {
	return ports.SaleRequest{
		ArtisanID:             uuid.New(),
		ProductID:             "PROD-001",
		CustomerID:            "CUST-001",
		Amount:                85000,
		CommissionRatePercent: 15,
		PaymentMethod:         domain.PaymentMethodMPesa,
		GatewayReference:      "SFC3K1XQ2P",
	}
}

// ==================== RecordSale Tests ====================

func TestLedgerService_RecordSale_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	req := saleRequest()

	d.ledgerRepo.EXPECT().GetByGatewayReference(ctx, "SFC3K1XQ2P").Return(nil, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			assert.Equal(t, domain.TransactionTypeSale, txn.Type)
			assert.Equal(t, domain.TransactionStatusPending, txn.Status)
			assert.Equal(t, int64(12750), txn.Commission)
			return nil
		})

	txn, err := d.svc.RecordSale(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, int64(85000), txn.Amount)
	assert.Equal(t, int64(12750), txn.Commission)
	assert.Equal(t, int64(72250), txn.Payout())
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestLedgerService_RecordSale_InvalidAmount(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	req := saleRequest()
	req.Amount = 0

	txn, err := d.svc.RecordSale(context.Background(), req)
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_001")
}

func TestLedgerService_RecordSale_InvalidRate(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	req := saleRequest()
	req.CommissionRatePercent = 101

	txn, err := d.svc.RecordSale(context.Background(), req)
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_002")
}

func TestLedgerService_RecordSale_MPesaWithoutReference(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	req := saleRequest()
	req.GatewayReference = ""

	txn, err := d.svc.RecordSale(context.Background(), req)
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_004")
}

func TestLedgerService_RecordSale_DuplicateReference(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	req := saleRequest()

	d.ledgerRepo.EXPECT().GetByGatewayReference(ctx, "SFC3K1XQ2P").Return(&domain.Transaction{ID: uuid.New()}, nil)

	txn, err := d.svc.RecordSale(ctx, req)
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_005")
}

func TestLedgerService_RecordSale_CardWithoutReference(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	req := saleRequest()
	req.PaymentMethod = domain.PaymentMethodCard
	req.GatewayReference = ""

	// No reference means no uniqueness lookup.
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := d.svc.RecordSale(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, txn.GatewayReference)
}

// ==================== RecordRefund Tests ====================

func TestLedgerService_RecordRefund_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	req := ports.RefundRequest{
		ArtisanID:        uuid.New(),
		ProductID:        "PROD-002",
		CustomerID:       "CUST-002",
		Amount:           30000,
		PaymentMethod:    domain.PaymentMethodMPesa,
		GatewayReference: "SFC9Z8YT5W",
	}

	d.ledgerRepo.EXPECT().GetByGatewayReference(ctx, "SFC9Z8YT5W").Return(nil, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	txn, err := d.svc.RecordRefund(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeRefund, txn.Type)
	assert.Zero(t, txn.Commission)
	assert.Equal(t, domain.TransactionStatusPending, txn.Status)
}

func TestLedgerService_RecordRefund_InvalidAmount(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	txn, err := d.svc.RecordRefund(context.Background(), ports.RefundRequest{Amount: -5})
	assert.Nil(t, txn)
	assertAppError(t, err, "VAL_001")
}

// ==================== Confirm / Fail Tests ====================

func TestLedgerService_Confirm_Success(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusPending,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusCompleted, domain.TransactionStatusPending, nil, nil).Return(true, nil)

	txn, err := d.svc.Confirm(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
}

func TestLedgerService_Confirm_NotFound(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	txn, err := d.svc.Confirm(ctx, id)
	assert.Nil(t, txn)
	assertAppError(t, err, "REC_001")
}

func TestLedgerService_Confirm_GuardMiss(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusPending,
	}, nil)
	// Another caller completed it between the read and the swap.
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusCompleted, domain.TransactionStatusPending, nil, nil).Return(false, nil)
	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusFailed,
	}, nil)

	txn, err := d.svc.Confirm(ctx, id)
	assert.Nil(t, txn)
	assertAppError(t, err, "REC_002")
}

func TestLedgerService_Confirm_RowVanished(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusPending,
	}, nil)
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusCompleted, domain.TransactionStatusPending, nil, nil).Return(false, ports.ErrRowMissing)

	txn, err := d.svc.Confirm(ctx, id)
	assert.Nil(t, txn)
	assertAppError(t, err, "SYS_002")
}

func TestLedgerService_Fail_RecordsReason(t *testing.T) {
	d := setupLedgerService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()

	reason := "insufficient funds on customer wallet"
	d.ledgerRepo.EXPECT().GetByID(ctx, id).Return(&domain.Transaction{
		ID:     id,
		Status: domain.TransactionStatusPending,
	}, nil)
	// The reason must travel into the guarded update, not just the returned
	// copy, or it would never reach the row.
	d.ledgerRepo.EXPECT().UpdateStatus(ctx, id, domain.TransactionStatusFailed, domain.TransactionStatusPending, nil, &reason).Return(true, nil)

	txn, err := d.svc.Fail(ctx, id, "insufficient funds on customer wallet")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
	require.NotNil(t, txn.Notes)
	assert.Equal(t, "insufficient funds on customer wallet", *txn.Notes)
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}

package ports

import (
	"context"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"

	"github.com/google/uuid"
)

// LedgerService records money movements and drives the explicit (operator or
// upstream-gateway initiated) status transitions.
type LedgerService interface {
	RecordSale(ctx context.Context, req SaleRequest) (*domain.Transaction, error)
	RecordRefund(ctx context.Context, req RefundRequest) (*domain.Transaction, error)
	// Confirm applies pending -> completed after the upstream gateway
	// acknowledged the payment.
	Confirm(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	// Fail applies pending -> failed after a gateway rejection.
	Fail(ctx context.Context, id uuid.UUID, reason string) (*domain.Transaction, error)
}

// SaleRequest holds validated input for recording a sale.
type SaleRequest struct {
	ArtisanID             uuid.UUID
	ProductID             string
	CustomerID            string
	Amount                int64
	CommissionRatePercent float64
	PaymentMethod         domain.PaymentMethod
	GatewayReference      string
	Notes                 *string
}

// RefundRequest holds validated input for recording a refund.
type RefundRequest struct {
	ArtisanID        uuid.UUID
	ProductID        string
	CustomerID       string
	Amount           int64
	PaymentMethod    domain.PaymentMethod
	GatewayReference string
	Notes            *string
}

// Matcher resolves a statement line against the ledger without mutating it.
type Matcher interface {
	Match(ctx context.Context, line domain.StatementLine) (*domain.MatchResult, error)
}

// ReconciliationService advances transaction state against gateway settlement
// records, one transaction or one statement file at a time.
type ReconciliationService interface {
	ReconcileOne(ctx context.Context, id uuid.UUID) (*domain.ReconcileOutcome, error)
	ReconcileStatement(ctx context.Context, lines []domain.StatementLine) (*domain.ReconciliationReport, error)
	// ResolveFailed applies the manual failed -> reconciled transition after
	// an operator confirmed the money actually moved.
	ResolveFailed(ctx context.Context, id uuid.UUID) (*domain.ReconcileOutcome, error)
}

// PayoutService groups reconciled earnings into batches and drives them
// through the transfer gateway.
type PayoutService interface {
	CreateBatch(ctx context.Context, periodCutoff time.Time) (*domain.PayoutBatch, error)
	ProcessBatch(ctx context.Context, batchID uuid.UUID) (*domain.ProcessOutcome, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) (*domain.PayoutBatch, error)
	ListBatches(ctx context.Context, params BatchListParams) ([]domain.PayoutBatch, int64, error)
}

// TransferGateway is the external mobile-money disbursement collaborator.
// Implementations must be idempotent per IdempotencyKey.
type TransferGateway interface {
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// TransferRequest is one B2C disbursement.
type TransferRequest struct {
	IdempotencyKey   string
	DestinationPhone string
	Amount           int64
	Remarks          string
}

// TransferResult is the gateway confirmation of a successful disbursement.
type TransferResult struct {
	Reference string
}

// TransferReceiptStore caches gateway confirmations keyed by
// (batchID, artisanID) so member retries never double-pay.
type TransferReceiptStore interface {
	Get(ctx context.Context, batchID, artisanID uuid.UUID) (*domain.TransferReceipt, error)
	Set(ctx context.Context, batchID, artisanID uuid.UUID, receipt *domain.TransferReceipt, ttl time.Duration) error
}

// ReportingService serves the read side of the financial dashboard.
type ReportingService interface {
	GetDashboardStats(ctx context.Context, period string) (*TransactionStats, error)
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// AuthService defines operator authentication.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*domain.Operator, error)
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}

// RegisterRequest holds input for operator registration.
type RegisterRequest struct {
	Username    string
	Password    string
	DisplayName string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(operatorID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	OperatorID uuid.UUID
	Username   string
}

package dto

import (
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
)

// RegisterRequest is the request body for operator registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
}

// LoginRequest is the request body for operator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	OperatorID  string `json:"operator_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// SaleRequest is the request body for recording a sale.
type SaleRequest struct {
	ArtisanID             string  `json:"artisan_id" binding:"required,uuid"`
	ProductID             string  `json:"product_id" binding:"required,max=100,safe_id"`
	CustomerID            string  `json:"customer_id" binding:"required,max=100,safe_id"`
	Amount                int64   `json:"amount" binding:"required,gt=0"`
	CommissionRatePercent float64 `json:"commission_rate_percent" binding:"gte=0,lte=100"`
	PaymentMethod         string  `json:"payment_method" binding:"required,oneof=MPESA CARD BANK"`
	GatewayReference      string  `json:"gateway_reference,omitempty" binding:"max=100"`
	Notes                 *string `json:"notes,omitempty"`
}

// RefundRequest is the request body for recording a refund.
type RefundRequest struct {
	ArtisanID        string  `json:"artisan_id" binding:"required,uuid"`
	ProductID        string  `json:"product_id" binding:"required,max=100,safe_id"`
	CustomerID       string  `json:"customer_id" binding:"required,max=100,safe_id"`
	Amount           int64   `json:"amount" binding:"required,gt=0"`
	PaymentMethod    string  `json:"payment_method" binding:"required,oneof=MPESA CARD BANK"`
	GatewayReference string  `json:"gateway_reference,omitempty" binding:"max=100"`
	Notes            *string `json:"notes,omitempty"`
}

// FailRequest is the request body for marking a pending transaction failed.
type FailRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// CreateBatchRequest is the request body for creating a payout batch.
// PeriodCutoff is RFC3339; sales recorded after it stay for the next batch.
type CreateBatchRequest struct {
	PeriodCutoff time.Time `json:"period_cutoff" binding:"required"`
}

// TransactionResponse is the response body for a ledger entry.
type TransactionResponse struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	Amount           int64   `json:"amount"`
	Commission       int64   `json:"commission"`
	ArtisanID        string  `json:"artisan_id"`
	ProductID        string  `json:"product_id,omitempty"`
	CustomerID       string  `json:"customer_id,omitempty"`
	PaymentMethod    string  `json:"payment_method"`
	GatewayReference string  `json:"gateway_reference,omitempty"`
	Status           string  `json:"status"`
	CreatedAt        string  `json:"created_at"`
	ReconciledAt     *string `json:"reconciled_at,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

// FromTransaction maps a ledger entry to its API shape.
func FromTransaction(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:               t.ID.String(),
		Type:             string(t.Type),
		Amount:           t.Amount,
		Commission:       t.Commission,
		ArtisanID:        t.ArtisanID.String(),
		ProductID:        t.ProductID,
		CustomerID:       t.CustomerID,
		PaymentMethod:    string(t.PaymentMethod),
		GatewayReference: t.GatewayReference,
		Status:           string(t.Status),
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		Notes:            t.Notes,
	}
	if t.ReconciledAt != nil {
		s := t.ReconciledAt.Format(time.RFC3339)
		resp.ReconciledAt = &s
	}
	return resp
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// DashboardStatsResponse is the response for ledger statistics.
type DashboardStatsResponse struct {
	TotalTransactions int64 `json:"total_transactions"`
	Pending           int64 `json:"pending"`
	Completed         int64 `json:"completed"`
	Failed            int64 `json:"failed"`
	Reconciled        int64 `json:"reconciled"`
	SalesVolume       int64 `json:"sales_volume"`
	CommissionEarned  int64 `json:"commission_earned"`
	PaidOut           int64 `json:"paid_out"`
	Refunded          int64 `json:"refunded"`
}

// BatchMemberResponse is one artisan's slice of a payout batch.
type BatchMemberResponse struct {
	ArtisanID        string   `json:"artisan_id"`
	Amount           int64    `json:"amount"`
	DestinationPhone string   `json:"destination_phone"`
	TransactionIDs   []string `json:"transaction_ids,omitempty"`
	Status           string   `json:"status"`
	GatewayReference *string  `json:"gateway_reference,omitempty"`
	FailureReason    *string  `json:"failure_reason,omitempty"`
}

// BatchResponse is the response body for a payout batch.
type BatchResponse struct {
	ID                string                `json:"id"`
	BatchNumber       string                `json:"batch_number"`
	TotalAmount       int64                 `json:"total_amount"`
	TotalTransactions int                   `json:"total_transactions"`
	Status            string                `json:"status"`
	Members           []BatchMemberResponse `json:"members,omitempty"`
	CreatedAt         string                `json:"created_at"`
	ProcessedAt       *string               `json:"processed_at,omitempty"`
}

// FromBatch maps a payout batch to its API shape.
func FromBatch(b *domain.PayoutBatch) BatchResponse {
	resp := BatchResponse{
		ID:                b.ID.String(),
		BatchNumber:       b.BatchNumber,
		TotalAmount:       b.TotalAmount,
		TotalTransactions: b.TotalTransactions,
		Status:            string(b.Status),
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
	}
	if b.ProcessedAt != nil {
		s := b.ProcessedAt.Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	for _, m := range b.Members {
		member := BatchMemberResponse{
			ArtisanID:        m.ArtisanID.String(),
			Amount:           m.Amount,
			DestinationPhone: m.DestinationPhone,
			Status:           string(m.Status),
			GatewayReference: m.GatewayReference,
			FailureReason:    m.FailureReason,
		}
		for _, id := range m.TransactionIDs {
			member.TransactionIDs = append(member.TransactionIDs, id.String())
		}
		resp.Members = append(resp.Members, member)
	}
	return resp
}

// BatchListResponse wraps a paginated batch list.
type BatchListResponse struct {
	Items      []BatchResponse `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

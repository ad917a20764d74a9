package handler

import (
	"math"
	"strconv"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/adapter/http/dto"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles ledger write and read endpoints.
type TransactionHandler struct {
	ledgerSvc    ports.LedgerService
	reportingSvc ports.ReportingService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService, reportingSvc ports.ReportingService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc, reportingSvc: reportingSvc}
}

// RecordSale handles POST /api/v1/transactions/sales.
func (h *TransactionHandler) RecordSale(c *gin.Context) {
	var req dto.SaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	artisanID, err := uuid.Parse(req.ArtisanID)
	if err != nil {
		response.Error(c, apperror.Validation("artisan_id must be a UUID"))
		return
	}

	txn, err := h.ledgerSvc.RecordSale(c.Request.Context(), ports.SaleRequest{
		ArtisanID:             artisanID,
		ProductID:             req.ProductID,
		CustomerID:            req.CustomerID,
		Amount:                req.Amount,
		CommissionRatePercent: req.CommissionRatePercent,
		PaymentMethod:         domain.PaymentMethod(req.PaymentMethod),
		GatewayReference:      req.GatewayReference,
		Notes:                 req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// RecordRefund handles POST /api/v1/transactions/refunds.
func (h *TransactionHandler) RecordRefund(c *gin.Context) {
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	artisanID, err := uuid.Parse(req.ArtisanID)
	if err != nil {
		response.Error(c, apperror.Validation("artisan_id must be a UUID"))
		return
	}

	txn, err := h.ledgerSvc.RecordRefund(c.Request.Context(), ports.RefundRequest{
		ArtisanID:        artisanID,
		ProductID:        req.ProductID,
		CustomerID:       req.CustomerID,
		Amount:           req.Amount,
		PaymentMethod:    domain.PaymentMethod(req.PaymentMethod),
		GatewayReference: req.GatewayReference,
		Notes:            req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromTransaction(txn))
}

// Confirm handles POST /api/v1/transactions/:id/confirm.
func (h *TransactionHandler) Confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	txn, err := h.ledgerSvc.Confirm(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// Fail handles POST /api/v1/transactions/:id/fail.
func (h *TransactionHandler) Fail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	var req dto.FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	txn, err := h.ledgerSvc.Fail(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.TransactionListParams{
		Page:     page,
		PageSize: pageSize,
	}

	if s := c.Query("artisan_id"); s != "" {
		artisanID, err := uuid.Parse(s)
		if err != nil {
			response.Error(c, apperror.Validation("artisan_id must be a UUID"))
			return
		}
		params.ArtisanID = &artisanID
	}
	if s := c.Query("status"); s != "" {
		status := domain.TransactionStatus(s)
		params.Status = &status
	}
	if s := c.Query("type"); s != "" {
		txnType := domain.TransactionType(s)
		params.Type = &txnType
	}
	if s := c.Query("method"); s != "" {
		method := domain.PaymentMethod(s)
		params.Method = &method
	}
	if s := c.Query("from"); s != "" {
		from, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("from must be a Unix timestamp"))
			return
		}
		params.From = &from
	}
	if s := c.Query("to"); s != "" {
		to, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("to must be a Unix timestamp"))
			return
		}
		params.To = &to
	}

	txns, total, err := h.reportingSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, dto.FromTransaction(&txns[i]))
	}

	response.OK(c, dto.TransactionListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

// GetStats handles GET /api/v1/dashboard/stats.
func (h *TransactionHandler) GetStats(c *gin.Context) {
	period := c.DefaultQuery("period", "all")
	stats, err := h.reportingSvc.GetDashboardStats(c.Request.Context(), period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.DashboardStatsResponse{
		TotalTransactions: stats.TotalTransactions,
		Pending:           stats.Pending,
		Completed:         stats.Completed,
		Failed:            stats.Failed,
		Reconciled:        stats.Reconciled,
		SalesVolume:       stats.SalesVolume,
		CommissionEarned:  stats.CommissionEarned,
		PaidOut:           stats.PaidOut,
		Refunded:          stats.Refunded,
	})
}

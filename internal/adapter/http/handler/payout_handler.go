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

// PayoutHandler handles payout batch endpoints.
type PayoutHandler struct {
	payoutSvc ports.PayoutService
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(payoutSvc ports.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutSvc: payoutSvc}
}

// CreateBatch handles POST /api/v1/payouts/batches.
func (h *PayoutHandler) CreateBatch(c *gin.Context) {
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	batch, err := h.payoutSvc.CreateBatch(c.Request.Context(), req.PeriodCutoff)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromBatch(batch))
}

// ProcessBatch handles POST /api/v1/payouts/batches/:id/process.
func (h *PayoutHandler) ProcessBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	outcome, err := h.payoutSvc.ProcessBatch(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, outcome)
}

// GetBatch handles GET /api/v1/payouts/batches/:id.
func (h *PayoutHandler) GetBatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	batch, err := h.payoutSvc.GetBatch(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromBatch(batch))
}

// ListBatches handles GET /api/v1/payouts/batches.
func (h *PayoutHandler) ListBatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.BatchListParams{
		Page:     page,
		PageSize: pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := domain.BatchStatus(s)
		params.Status = &status
	}

	batches, total, err := h.payoutSvc.ListBatches(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.BatchResponse, 0, len(batches))
	for i := range batches {
		items = append(items, dto.FromBatch(&batches[i]))
	}

	response.OK(c, dto.BatchListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

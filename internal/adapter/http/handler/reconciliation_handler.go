package handler

import (
	"io"
	"strings"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/ingestion"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReconciliationHandler handles statement upload and manual reconciliation.
type ReconciliationHandler struct {
	reconSvc ports.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconSvc ports.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconSvc: reconSvc}
}

// UploadStatement handles POST /api/v1/reconciliation/statement.
//
// The statement CSV is accepted either as a multipart form file named
// "statement" or as the raw request body with a text/csv content type.
func (h *ReconciliationHandler) UploadStatement(c *gin.Context) {
	reader, err := statementReader(c)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	defer reader.Close()

	lines, err := ingestion.ParseMPesaCSV(reader)
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	report, err := h.reconSvc.ReconcileStatement(c.Request.Context(), lines)
	if err != nil {
		// A partial report may accompany the error when the run was cut
		// short; the client gets the error, the log keeps the report.
		response.Error(c, err)
		return
	}

	response.OK(c, report)
}

func statementReader(c *gin.Context) (io.ReadCloser, error) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		fileHeader, err := c.FormFile("statement")
		if err != nil {
			return nil, err
		}
		return fileHeader.Open()
	}
	return c.Request.Body, nil
}

// ReconcileOne handles POST /api/v1/reconciliation/transactions/:id.
func (h *ReconciliationHandler) ReconcileOne(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	outcome, err := h.reconSvc.ReconcileOne(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, outcome)
}

// ResolveFailed handles POST /api/v1/reconciliation/transactions/:id/resolve-failed.
func (h *ReconciliationHandler) ResolveFailed(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("id must be a UUID"))
		return
	}

	outcome, err := h.reconSvc.ResolveFailed(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, outcome)
}

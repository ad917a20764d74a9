package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("VAL_001", "Invalid amount", http.StatusBadRequest),
			expected: "[VAL_001] Invalid amount",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("VAL_001", "test", http.StatusBadRequest)
	assert.Nil(t, appErr.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidAmount", ErrInvalidAmount(), "VAL_001", 400},
		{"InvalidRate", ErrInvalidRate(), "VAL_002", 400},
		{"CommissionExceedsAmount", ErrCommissionExceedsAmount(), "VAL_003", 400},
		{"MissingGatewayReference", ErrMissingGatewayReference(), "VAL_004", 400},
		{"DuplicateGatewayReference", ErrDuplicateGatewayReference(), "VAL_005", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestReconciliationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"TransactionNotFound", ErrTransactionNotFound(), "REC_001", 404},
		{"InvalidStatusTransition", ErrInvalidStatusTransition("pending", "reconciled"), "REC_002", 409},
		{"EmptyStatement", ErrEmptyStatement(), "REC_003", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestBatchErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"NoEligibleTransactions", ErrNoEligibleTransactions(), "BATCH_001", 422},
		{"BatchNotFound", ErrBatchNotFound(), "BATCH_002", 404},
		{"ArtisanNotFound", ErrArtisanNotFound("abc"), "BATCH_003", 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestAuthErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"InvalidCredentials", ErrInvalidCredentials(), "AUTH_001", 401},
		{"UsernameExists", ErrUsernameExists(), "AUTH_002", 409},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", 401},
		{"OperatorSuspended", ErrOperatorSuspended(), "AUTH_004", 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	corruptErr := ErrLedgerCorruption(inner)
	assert.Equal(t, "SYS_002", corruptErr.Code)
	assert.Equal(t, 500, corruptErr.HTTPStatus)

	gwErr := ErrGatewayUnavailable(inner)
	assert.Equal(t, "SYS_003", gwErr.Code)
	assert.Equal(t, 502, gwErr.HTTPStatus)
}

func TestArtisanNotFound_Message(t *testing.T) {
	err := ErrArtisanNotFound("a1b2c3")
	assert.Contains(t, err.Message, "a1b2c3")
	assert.Equal(t, "BATCH_003", err.Code)
}

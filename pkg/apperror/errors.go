package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----
// Rejected at the boundary; never persisted.

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Amount must be a positive integer in minor units", http.StatusBadRequest)
}

func ErrInvalidRate() *AppError {
	return New("VAL_002", "Commission rate must be between 0 and 100", http.StatusBadRequest)
}

func ErrCommissionExceedsAmount() *AppError {
	return New("VAL_003", "Commission cannot exceed transaction amount", http.StatusBadRequest)
}

func ErrMissingGatewayReference() *AppError {
	return New("VAL_004", "Gateway reference is required for M-Pesa transactions", http.StatusBadRequest)
}

func ErrDuplicateGatewayReference() *AppError {
	return New("VAL_005", "Gateway reference is already assigned to another transaction", http.StatusConflict)
}

// Validation returns a VAL_000 error for malformed input.
func Validation(message string) *AppError {
	return New("VAL_000", message, http.StatusBadRequest)
}

// ---- Ledger & Reconciliation (REC) ----

func ErrTransactionNotFound() *AppError {
	return New("REC_001", "Transaction not found", http.StatusNotFound)
}

func ErrInvalidStatusTransition(from, to string) *AppError {
	return New("REC_002", fmt.Sprintf("Transition from %s to %s is not allowed", from, to), http.StatusConflict)
}

func ErrEmptyStatement() *AppError {
	return New("REC_003", "Statement contains no parseable lines", http.StatusBadRequest)
}

// ---- Payout batching (BATCH) ----

func ErrNoEligibleTransactions() *AppError {
	return New("BATCH_001", "No reconciled unbatched transactions eligible for payout", http.StatusUnprocessableEntity)
}

func ErrBatchNotFound() *AppError {
	return New("BATCH_002", "Payout batch not found", http.StatusNotFound)
}

func ErrArtisanNotFound(artisanID string) *AppError {
	return New("BATCH_003", fmt.Sprintf("Artisan %s has eligible earnings but no payout profile", artisanID), http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrOperatorSuspended() *AppError {
	return New("AUTH_004", "Operator account is suspended", http.StatusForbidden)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_001", "Internal database error", http.StatusInternalServerError, err)
}

// ErrLedgerCorruption signals an invariant violation detected post-hoc,
// such as a CAS against a missing transaction id. Never auto-repaired.
func ErrLedgerCorruption(err error) *AppError {
	return Wrap("SYS_002", "Ledger invariant violation detected", http.StatusInternalServerError, err)
}

func ErrGatewayUnavailable(err error) *AppError {
	return Wrap("SYS_003", "Payment gateway unavailable", http.StatusBadGateway, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

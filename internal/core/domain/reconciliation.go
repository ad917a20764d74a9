package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatementLine is one settlement notification from the M-Pesa statement
// feed: a gateway receipt reference, the settled amount in minor units, and
// the completion timestamp.
type StatementLine struct {
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// MatchStatus classifies a statement line against the ledger.
type MatchStatus string

const (
	MatchStatusMatched        MatchStatus = "MATCHED"
	MatchStatusAmountMismatch MatchStatus = "AMOUNT_MISMATCH"
	MatchStatusOrphan         MatchStatus = "ORPHAN"
)

// MatchResult is the outcome of looking up one statement line. Matching
// never mutates state; the reconciliation engine acts on the result.
type MatchResult struct {
	Status        MatchStatus `json:"status"`
	Reference     string      `json:"reference"`
	TransactionID uuid.UUID   `json:"transaction_id,omitempty"` // zero for orphans
	Expected      int64       `json:"expected,omitempty"`       // ledger amount on mismatch
	Got           int64       `json:"got,omitempty"`            // statement amount on mismatch
}

// ReconcileStatus classifies the outcome of reconciling one transaction.
type ReconcileStatus string

const (
	ReconcileStatusReconciled        ReconcileStatus = "RECONCILED"
	ReconcileStatusAlreadyReconciled ReconcileStatus = "ALREADY_RECONCILED"
	ReconcileStatusNotEligible       ReconcileStatus = "NOT_ELIGIBLE"
)

// ReconcileOutcome reports a single-transaction reconciliation. NotEligible
// is an expected operational state, not an error: the transaction was not in
// a status the requested transition applies to.
type ReconcileOutcome struct {
	Status        ReconcileStatus   `json:"status"`
	TransactionID uuid.UUID         `json:"transaction_id"`
	ReconciledAt  *time.Time        `json:"reconciled_at,omitempty"`
	CurrentStatus TransactionStatus `json:"current_status,omitempty"` // set for NotEligible
}

// StatementLineResult records how one statement line fared during a bulk run,
// keyed by its position in the file for manual follow-up.
type StatementLineResult struct {
	LineNumber    int       `json:"line_number"`
	Reference     string    `json:"reference"`
	Result        string    `json:"result"` // match or reconcile status
	TransactionID uuid.UUID `json:"transaction_id,omitempty"`
	Detail        string    `json:"detail,omitempty"`
}

// ReconciliationReport summarises a bulk statement run. Partial success is
// the expected common case, so every non-clean line is enumerated.
type ReconciliationReport struct {
	Processed         int                   `json:"processed"`
	Reconciled        int                   `json:"reconciled"`
	AlreadyReconciled int                   `json:"already_reconciled"`
	AmountMismatches  int                   `json:"amount_mismatches"`
	Orphans           int                   `json:"orphans"`
	NotEligible       int                   `json:"not_eligible"`
	Exceptions        []StatementLineResult `json:"exceptions,omitempty"`
	StartedAt         time.Time             `json:"started_at"`
	FinishedAt        time.Time             `json:"finished_at"`
}

// ProcessStatus classifies a ProcessBatch call.
type ProcessStatus string

const (
	ProcessStatusProcessed         ProcessStatus = "PROCESSED"
	ProcessStatusAlreadyProcessing ProcessStatus = "ALREADY_PROCESSING"
)

// MemberOutcome is the per-artisan result of a batch processing run.
type MemberOutcome struct {
	ArtisanID        uuid.UUID    `json:"artisan_id"`
	Amount           int64        `json:"amount"`
	Status           MemberStatus `json:"status"`
	GatewayReference string       `json:"gateway_reference,omitempty"`
	FailureReason    string       `json:"failure_reason,omitempty"`
	Attempts         int          `json:"attempts"`
}

// ProcessOutcome reports a ProcessBatch call. For the losing side of a
// concurrent call, Status is AlreadyProcessing and Members is empty.
type ProcessOutcome struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Status      ProcessStatus   `json:"status"`
	BatchStatus BatchStatus     `json:"batch_status"`
	Paid        int             `json:"paid"`
	Failed      int             `json:"failed"`
	Members     []MemberOutcome `json:"members,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

// TransferReceipt is the cached gateway confirmation for an idempotent
// transfer, keyed by (batch, artisan).
type TransferReceipt struct {
	Reference string    `json:"reference"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
}

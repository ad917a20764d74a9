package mpesa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/capoeira360/Craft-Art-Market-sub001/config"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"

	"github.com/rs/zerolog"
)

const transferEndpoint = "/b2c/v1/transfer"

// HTTPDoer is the subset of http.Client the gateway client uses.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements ports.TransferGateway against the M-Pesa B2C API.
// The caller supplies per-call deadlines through the context; the client
// itself never sets timeouts.
type Client struct {
	http HTTPDoer
	cfg  config.MPesaConfig
	log  zerolog.Logger
}

// NewClient creates a new M-Pesa transfer client.
func NewClient(httpClient HTTPDoer, cfg config.MPesaConfig, log zerolog.Logger) *Client {
	return &Client{http: httpClient, cfg: cfg, log: log}
}

type transferRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
	Phone          string `json:"phone"`
	Amount         int64  `json:"amount"`
	Remarks        string `json:"remarks,omitempty"`
}

type transferResponse struct {
	Reference string `json:"reference"`
	Message   string `json:"message,omitempty"`
}

// Transfer sends one B2C disbursement. The same idempotency key always
// yields the same disbursement on the provider side, so retrying a timed-out
// call is safe.
func (c *Client) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	body := transferRequest{
		IdempotencyKey: req.IdempotencyKey,
		Phone:          req.DestinationPhone,
		Amount:         req.Amount,
		Remarks:        req.Remarks,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode transfer request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+transferEndpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build transfer request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("transfer timed out: %w", err))
		}
		return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("transfer request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp transferResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("message", errResp.Message).
			Str("idempotency_key", req.IdempotencyKey).
			Msg("transfer rejected")
		return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("transfer rejected with status %d: %s", resp.StatusCode, errResp.Message))
	}

	var result transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperror.ErrGatewayUnavailable(fmt.Errorf("decode transfer response: %w", err))
	}
	if result.Reference == "" {
		return nil, apperror.ErrGatewayUnavailable(errors.New("transfer response missing reference"))
	}

	return &ports.TransferResult{Reference: result.Reference}, nil
}

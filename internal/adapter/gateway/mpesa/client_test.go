package mpesa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/capoeira360/Craft-Art-Market-sub001/config"
	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/ports"
	"github.com/capoeira360/Craft-Art-Market-sub001/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferReq() ports.TransferRequest {
	return ports.TransferRequest{
		IdempotencyKey:   "batch-1:artisan-1",
		DestinationPhone: "+255700000001",
		Amount:           89250,
		Remarks:          "BATCH-2026-001",
	}
}

func TestClient_Transfer_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, transferEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "batch-1:artisan-1", r.Header.Get("Idempotency-Key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "+255700000001", body["phone"])
		assert.Equal(t, float64(89250), body["amount"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"reference": "SFC7TRANSFER"})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), config.MPesaConfig{BaseURL: srv.URL, APIKey: "test-api-key"}, zerolog.Nop())

	result, err := client.Transfer(context.Background(), transferReq())
	require.NoError(t, err)
	assert.Equal(t, "SFC7TRANSFER", result.Reference)
}

func TestClient_Transfer_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "unregistered msisdn"})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), config.MPesaConfig{BaseURL: srv.URL, APIKey: "k"}, zerolog.Nop())

	result, err := client.Transfer(context.Background(), transferReq())
	assert.Nil(t, result)
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SYS_003", appErr.Code)
}

func TestClient_Transfer_MissingReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "accepted"})
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), config.MPesaConfig{BaseURL: srv.URL, APIKey: "k"}, zerolog.Nop())

	result, err := client.Transfer(context.Background(), transferReq())
	assert.Nil(t, result)
	require.Error(t, err)
}

func TestClient_Transfer_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), config.MPesaConfig{BaseURL: srv.URL, APIKey: "k"}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := client.Transfer(ctx, transferReq())
	assert.Nil(t, result)
	require.Error(t, err)
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferReceiptStore_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewTransferReceiptStore(client)
	ctx := context.Background()

	batchID := uuid.New()
	artisanID := uuid.New()
	receipt := &domain.TransferReceipt{
		Reference: "SFC7TRANSFER",
		Amount:    89250,
		PaidAt:    time.Now().UTC().Truncate(time.Second),
	}

	// Get before set => nil
	result, err := store.Get(ctx, batchID, artisanID)
	assert.NoError(t, err)
	assert.Nil(t, result)

	// Set
	err = store.Set(ctx, batchID, artisanID, receipt, time.Hour)
	require.NoError(t, err)

	// Get after set
	result, err = store.Get(ctx, batchID, artisanID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, receipt.Reference, result.Reference)
	assert.Equal(t, receipt.Amount, result.Amount)
	assert.True(t, receipt.PaidAt.Equal(result.PaidAt))
}

func TestTransferReceiptStore_KeyedPerBatchAndArtisan(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewTransferReceiptStore(client)
	ctx := context.Background()

	batchID := uuid.New()
	artisanA := uuid.New()
	artisanB := uuid.New()

	err := store.Set(ctx, batchID, artisanA, &domain.TransferReceipt{Reference: "REF-A", Amount: 100}, time.Hour)
	require.NoError(t, err)

	// A different artisan in the same batch has no receipt.
	result, err := store.Get(ctx, batchID, artisanB)
	assert.NoError(t, err)
	assert.Nil(t, result)

	result, err = store.Get(ctx, batchID, artisanA)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "REF-A", result.Reference)
}

func TestTransferReceiptStore_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewTransferReceiptStore(client)
	ctx := context.Background()

	batchID := uuid.New()
	artisanID := uuid.New()

	err := store.Set(ctx, batchID, artisanID, &domain.TransferReceipt{Reference: "REF-TTL", Amount: 1}, time.Second)
	require.NoError(t, err)

	// Fast-forward time in miniredis
	s.FastForward(2 * time.Second)

	result, err := store.Get(ctx, batchID, artisanID)
	assert.NoError(t, err)
	assert.Nil(t, result, "expired receipt should return nil")
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// TransferReceiptStore implements ports.TransferReceiptStore using Redis.
// Receipts are JSON blobs keyed by (batch, artisan) so a reprocessed batch
// member finds its earlier gateway confirmation before calling out again.
type TransferReceiptStore struct {
	client *goredis.Client
	prefix string
}

// NewTransferReceiptStore creates a new Redis-backed receipt store.
func NewTransferReceiptStore(client *goredis.Client) *TransferReceiptStore {
	return &TransferReceiptStore{
		client: client,
		prefix: "transfer-receipt:",
	}
}

// Get retrieves a cached receipt. Returns nil, nil if none exists.
func (s *TransferReceiptStore) Get(ctx context.Context, batchID, artisanID uuid.UUID) (*domain.TransferReceipt, error) {
	val, err := s.client.Get(ctx, s.key(batchID, artisanID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis receipt get: %w", err)
	}

	receipt := &domain.TransferReceipt{}
	if err := json.Unmarshal(val, receipt); err != nil {
		return nil, fmt.Errorf("unmarshal receipt: %w", err)
	}
	return receipt, nil
}

// Set stores a receipt with TTL.
func (s *TransferReceiptStore) Set(ctx context.Context, batchID, artisanID uuid.UUID, receipt *domain.TransferReceipt, ttl time.Duration) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if err := s.client.Set(ctx, s.key(batchID, artisanID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis receipt set: %w", err)
	}
	return nil
}

func (s *TransferReceiptStore) key(batchID, artisanID uuid.UUID) string {
	return s.prefix + batchID.String() + ":" + artisanID.String()
}

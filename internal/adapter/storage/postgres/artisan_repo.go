package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/capoeira360/Craft-Art-Market-sub001/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ArtisanRepo implements ports.ArtisanRepository. The artisans table is
// maintained by the marketplace side; this service only reads it.
type ArtisanRepo struct {
	pool Pool
}

// NewArtisanRepo creates a new ArtisanRepo.
func NewArtisanRepo(pool Pool) *ArtisanRepo {
	return &ArtisanRepo{pool: pool}
}

// GetByID fetches an artisan's payout profile, or nil when unknown.
func (r *ArtisanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artisan, error) {
	a := &domain.Artisan{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, phone FROM artisans WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan artisan: %w", err)
	}
	return a, nil
}

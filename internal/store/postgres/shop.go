package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// ShopRepo implements store.ShopRepository with sqlx.
type ShopRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewShopRepo returns a new ShopRepo.
func NewShopRepo(db *sqlx.DB, clk clock.Clock) *ShopRepo {
	return &ShopRepo{db: db, clock: clk}
}

// Create inserts the shop, or adopts the existing row for the same material
// and variant.
func (r *ShopRepo) Create(ctx context.Context, s *store.Shop) error {
	s.CreatedAt = r.clock.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO shops (material, variant, auction_type, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (material, variant) DO UPDATE SET material = EXCLUDED.material
		 RETURNING id, auction_type, created_at`,
		s.Material, s.Variant, s.AuctionType, s.CreatedAt,
	).Scan(&s.ID, &s.AuctionType, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating shop %s:%d: %w", s.Material, s.Variant, err)
	}
	return nil
}

func (r *ShopRepo) List(ctx context.Context) ([]store.Shop, error) {
	var shops []store.Shop
	err := r.db.SelectContext(ctx, &shops, `SELECT * FROM shops ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing shops: %w", err)
	}
	return shops, nil
}

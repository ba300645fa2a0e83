package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// SellerDataRepo implements store.SellerDataRepository with sqlx.
type SellerDataRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewSellerDataRepo returns a new SellerDataRepo.
func NewSellerDataRepo(db *sqlx.DB, clk clock.Clock) *SellerDataRepo {
	return &SellerDataRepo{db: db, clock: clk}
}

// Create inserts the seller data, adopting an existing row for the same
// player and shop.
func (r *SellerDataRepo) Create(ctx context.Context, sd *store.SellerData) error {
	sd.CreatedAt = r.clock.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO seller_data (player_id, shop_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (player_id, shop_id) DO UPDATE SET shop_id = EXCLUDED.shop_id
		 RETURNING id, created_at`,
		sd.PlayerID, sd.ShopID, sd.CreatedAt,
	).Scan(&sd.ID, &sd.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating seller data (player=%d, shop=%d): %w", sd.PlayerID, sd.ShopID, err)
	}
	return nil
}

func (r *SellerDataRepo) Find(ctx context.Context, player uuid.UUID, shopID int64) (*store.SellerData, error) {
	var sd store.SellerData
	err := r.db.GetContext(ctx, &sd,
		`SELECT sd.id, sd.player_id, sd.shop_id, sd.created_at,
		        p.id AS "player.id", p.uuid AS "player.uuid", p.name AS "player.name",
		        p.balance AS "player.balance", p.created_at AS "player.created_at",
		        p.updated_at AS "player.updated_at"
		 FROM seller_data sd
		 JOIN auction_players p ON p.id = sd.player_id
		 WHERE p.uuid = $1 AND sd.shop_id = $2`,
		player, shopID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("finding seller data: %w", store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding seller data: %w", err)
	}
	return &sd, nil
}

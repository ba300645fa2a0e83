package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// ShopEntityRepo implements store.ShopEntityRepository with sqlx.
type ShopEntityRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewShopEntityRepo returns a new ShopEntityRepo.
func NewShopEntityRepo(db *sqlx.DB, clk clock.Clock) *ShopEntityRepo {
	return &ShopEntityRepo{db: db, clock: clk}
}

func (r *ShopEntityRepo) Create(ctx context.Context, e *store.ShopEntity) error {
	e.CreatedAt = r.clock.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO shop_entities (shop_id, kind, data, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		e.ShopID, e.Kind, e.Data, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("creating shop entity: %w", err)
	}
	return nil
}

func (r *ShopEntityRepo) ListByShop(ctx context.Context, shopID int64) ([]store.ShopEntity, error) {
	var entities []store.ShopEntity
	err := r.db.SelectContext(ctx, &entities,
		`SELECT * FROM shop_entities WHERE shop_id = $1 ORDER BY id ASC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("listing entities of shop %d: %w", shopID, err)
	}
	return entities, nil
}

func (r *ShopEntityRepo) CountSimilar(ctx context.Context, kind, data string) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n,
		`SELECT count(*) FROM shop_entities WHERE kind = $1 AND data = $2`, kind, data)
	if err != nil {
		return 0, fmt.Errorf("counting similar entities: %w", err)
	}
	return n, nil
}

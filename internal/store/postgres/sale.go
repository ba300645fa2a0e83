package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// saleSelect fetches sales with their seller data and player in one query.
const saleSelect = `SELECT s.id, s.seller_data_id, s.item, s.price, s.created_at,
	sd.id AS "seller.id", sd.player_id AS "seller.player_id", sd.shop_id AS "seller.shop_id",
	sd.created_at AS "seller.created_at",
	p.id AS "seller.player.id", p.uuid AS "seller.player.uuid", p.name AS "seller.player.name",
	p.balance AS "seller.player.balance", p.created_at AS "seller.player.created_at",
	p.updated_at AS "seller.player.updated_at"
FROM sales s
JOIN seller_data sd ON sd.id = s.seller_data_id
JOIN auction_players p ON p.id = sd.player_id`

// SaleRepo implements store.SaleRepository with sqlx.
type SaleRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewSaleRepo returns a new SaleRepo.
func NewSaleRepo(db *sqlx.DB, clk clock.Clock) *SaleRepo {
	return &SaleRepo{db: db, clock: clk}
}

func (r *SaleRepo) Create(ctx context.Context, s *store.Sale) error {
	s.CreatedAt = r.clock.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sales (seller_data_id, item, price, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		s.SellerDataID, s.Item, s.Price, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("creating sale: %w", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*store.Sale, error) {
	var s store.Sale
	err := r.db.GetContext(ctx, &s, saleSelect+` WHERE s.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting sale %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale %d: %w", id, err)
	}
	return &s, nil
}

func (r *SaleRepo) ListByShop(ctx context.Context, shopID int64) ([]store.Sale, error) {
	var sales []store.Sale
	err := r.db.SelectContext(ctx, &sales, saleSelect+` WHERE sd.shop_id = $1 ORDER BY s.id ASC`, shopID)
	if err != nil {
		return nil, fmt.Errorf("listing sales of shop %d: %w", shopID, err)
	}
	return sales, nil
}

func (r *SaleRepo) ListBySellerData(ctx context.Context, sellerDataID int64) ([]store.Sale, error) {
	var sales []store.Sale
	err := r.db.SelectContext(ctx, &sales, saleSelect+` WHERE s.seller_data_id = $1 ORDER BY s.id ASC`, sellerDataID)
	if err != nil {
		return nil, fmt.Errorf("listing sales of seller data %d: %w", sellerDataID, err)
	}
	return sales, nil
}

func (r *SaleRepo) ListByPlayerAtShop(ctx context.Context, player uuid.UUID, shopID int64) ([]store.Sale, error) {
	var sales []store.Sale
	err := r.db.SelectContext(ctx, &sales,
		saleSelect+` WHERE p.uuid = $1 AND sd.shop_id = $2 ORDER BY s.id ASC`, player, shopID)
	if err != nil {
		return nil, fmt.Errorf("listing sales of %s at shop %d: %w", player, shopID, err)
	}
	return sales, nil
}

func (r *SaleRepo) UpdatePrice(ctx context.Context, id int64, price null.Float) error {
	result, err := r.db.ExecContext(ctx, `UPDATE sales SET price = $1 WHERE id = $2`, price, id)
	if err != nil {
		return fmt.Errorf("updating price of sale %d: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("sale %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *SaleRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting sale %d: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("sale %d: %w", id, store.ErrNotFound)
	}
	return nil
}

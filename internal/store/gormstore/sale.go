package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/store"
)

// SaleRepo implements store.SaleRepository with gorm.
type SaleRepo struct {
	db *gorm.DB
}

func (r *SaleRepo) sales(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&saleModel{}).Preload("Seller.Player")
}

func (r *SaleRepo) Create(ctx context.Context, s *store.Sale) error {
	m := saleModel{
		SellerDataID: s.SellerDataID,
		Item:         datatypes.NewJSONType(s.Item),
		Price:        s.Price,
	}
	if err := r.db.WithContext(ctx).Omit("Seller").Create(&m).Error; err != nil {
		return fmt.Errorf("creating sale: %w", err)
	}
	s.ID = m.ID
	s.CreatedAt = m.CreatedAt
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*store.Sale, error) {
	var m saleModel
	err := r.sales(ctx).Where("sales.id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("getting sale %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale %d: %w", id, err)
	}
	s := m.record()
	return &s, nil
}

func (r *SaleRepo) ListByShop(ctx context.Context, shopID int64) ([]store.Sale, error) {
	var rows []saleModel
	err := r.sales(ctx).
		Joins("JOIN seller_data ON seller_data.id = sales.seller_data_id").
		Where("seller_data.shop_id = ?", shopID).
		Order("sales.id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing sales of shop %d: %w", shopID, err)
	}
	return records(rows), nil
}

func (r *SaleRepo) ListBySellerData(ctx context.Context, sellerDataID int64) ([]store.Sale, error) {
	var rows []saleModel
	err := r.sales(ctx).Where("sales.seller_data_id = ?", sellerDataID).
		Order("sales.id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing sales of seller data %d: %w", sellerDataID, err)
	}
	return records(rows), nil
}

func (r *SaleRepo) ListByPlayerAtShop(ctx context.Context, player uuid.UUID, shopID int64) ([]store.Sale, error) {
	var rows []saleModel
	err := r.sales(ctx).
		Joins("JOIN seller_data ON seller_data.id = sales.seller_data_id").
		Joins("JOIN auction_players ON auction_players.id = seller_data.player_id").
		Where("auction_players.uuid = ? AND seller_data.shop_id = ?", player, shopID).
		Order("sales.id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing sales of %s at shop %d: %w", player, shopID, err)
	}
	return records(rows), nil
}

func (r *SaleRepo) UpdatePrice(ctx context.Context, id int64, price null.Float) error {
	res := r.db.WithContext(ctx).Model(&saleModel{}).Where("id = ?", id).Update("price", price)
	if res.Error != nil {
		return fmt.Errorf("updating price of sale %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sale %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *SaleRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&saleModel{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting sale %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sale %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func records(rows []saleModel) []store.Sale {
	sales := make([]store.Sale, len(rows))
	for i, m := range rows {
		sales[i] = m.record()
	}
	return sales
}

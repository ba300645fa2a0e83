package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jensholdgaard/auction-house/internal/store"
)

// ShopEntityRepo implements store.ShopEntityRepository with gorm.
type ShopEntityRepo struct {
	db *gorm.DB
}

func (r *ShopEntityRepo) Create(ctx context.Context, e *store.ShopEntity) error {
	m := shopEntityModel{ShopID: e.ShopID, Kind: e.Kind, Data: e.Data}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("creating shop entity: %w", err)
	}
	e.ID = m.ID
	e.CreatedAt = m.CreatedAt
	return nil
}

func (r *ShopEntityRepo) ListByShop(ctx context.Context, shopID int64) ([]store.ShopEntity, error) {
	var rows []shopEntityModel
	if err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing entities of shop %d: %w", shopID, err)
	}
	entities := make([]store.ShopEntity, len(rows))
	for i, m := range rows {
		entities[i] = m.record()
	}
	return entities, nil
}

func (r *ShopEntityRepo) CountSimilar(ctx context.Context, kind, data string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&shopEntityModel{}).
		Where("kind = ? AND data = ?", kind, data).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting similar entities: %w", err)
	}
	return n, nil
}

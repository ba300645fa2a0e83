package gormstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jensholdgaard/auction-house/internal/store"
)

// ShopRepo implements store.ShopRepository with gorm.
type ShopRepo struct {
	db *gorm.DB
}

// Create inserts the shop or adopts the existing row for the same key.
func (r *ShopRepo) Create(ctx context.Context, s *store.Shop) error {
	m := shopModel{Material: s.Material, Variant: s.Variant, AuctionType: s.AuctionType}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material"}, {Name: "variant"}},
		DoNothing: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("creating shop: %w", err)
	}

	var existing shopModel
	if err := r.db.WithContext(ctx).
		Where("material = ? AND variant = ?", s.Material, s.Variant).
		First(&existing).Error; err != nil {
		return fmt.Errorf("reading shop %s:%d: %w", s.Material, s.Variant, err)
	}
	*s = existing.record()
	return nil
}

func (r *ShopRepo) List(ctx context.Context) ([]store.Shop, error) {
	var rows []shopModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing shops: %w", err)
	}
	shops := make([]store.Shop, len(rows))
	for i, m := range rows {
		shops[i] = m.record()
	}
	return shops, nil
}

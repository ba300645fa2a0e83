package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jensholdgaard/auction-house/internal/store"
)

// SellerDataRepo implements store.SellerDataRepository with gorm.
type SellerDataRepo struct {
	db *gorm.DB
}

func (r *SellerDataRepo) Create(ctx context.Context, sd *store.SellerData) error {
	m := sellerDataModel{PlayerID: sd.PlayerID, ShopID: sd.ShopID}
	err := r.db.WithContext(ctx).Omit("Player").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "shop_id"}},
		DoNothing: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("creating seller data: %w", err)
	}

	var got sellerDataModel
	if err := r.db.WithContext(ctx).Preload("Player").
		Where("player_id = ? AND shop_id = ?", sd.PlayerID, sd.ShopID).
		First(&got).Error; err != nil {
		return fmt.Errorf("reading seller data: %w", err)
	}
	*sd = got.record()
	return nil
}

func (r *SellerDataRepo) Find(ctx context.Context, player uuid.UUID, shopID int64) (*store.SellerData, error) {
	var m sellerDataModel
	err := r.db.WithContext(ctx).Preload("Player").
		Joins("JOIN auction_players ON auction_players.id = seller_data.player_id").
		Where("auction_players.uuid = ? AND seller_data.shop_id = ?", player, shopID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("seller data of %s at shop %d: %w", player, shopID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("finding seller data: %w", err)
	}
	sd := m.record()
	return &sd, nil
}

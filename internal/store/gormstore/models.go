package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/item"
	"github.com/jensholdgaard/auction-house/internal/store"
)

type shopModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Material    string `gorm:"not null;uniqueIndex:idx_shop_key"`
	Variant     int    `gorm:"not null;uniqueIndex:idx_shop_key"`
	AuctionType string `gorm:"not null"`
	CreatedAt   time.Time
}

func (shopModel) TableName() string { return "shops" }

func (m shopModel) record() store.Shop {
	return store.Shop{ID: m.ID, Material: m.Material, Variant: m.Variant, AuctionType: m.AuctionType, CreatedAt: m.CreatedAt}
}

type playerModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UUID      uuid.UUID `gorm:"type:text;not null;uniqueIndex"`
	Name      string    `gorm:"not null"`
	Balance   float64   `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (playerModel) TableName() string { return "auction_players" }

func (m playerModel) record() store.Player {
	return store.Player{ID: m.ID, UUID: m.UUID, Name: m.Name, Balance: m.Balance, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

type sellerDataModel struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	PlayerID  int64 `gorm:"not null;uniqueIndex:idx_seller_shop"`
	ShopID    int64 `gorm:"not null;uniqueIndex:idx_seller_shop"`
	CreatedAt time.Time

	Player playerModel `gorm:"foreignKey:PlayerID"`
}

func (sellerDataModel) TableName() string { return "seller_data" }

func (m sellerDataModel) record() store.SellerData {
	return store.SellerData{ID: m.ID, PlayerID: m.PlayerID, ShopID: m.ShopID, CreatedAt: m.CreatedAt, Player: m.Player.record()}
}

type saleModel struct {
	ID           int64                         `gorm:"primaryKey;autoIncrement"`
	SellerDataID int64                         `gorm:"not null;index"`
	Item         datatypes.JSONType[item.Stack] `gorm:"not null"`
	Price        null.Float                    `gorm:"type:real"`
	CreatedAt    time.Time

	Seller sellerDataModel `gorm:"foreignKey:SellerDataID"`
}

func (saleModel) TableName() string { return "sales" }

func (m saleModel) record() store.Sale {
	return store.Sale{
		ID:           m.ID,
		SellerDataID: m.SellerDataID,
		Item:         m.Item.Data(),
		Price:        m.Price,
		CreatedAt:    m.CreatedAt,
		Seller:       m.Seller.record(),
	}
}

type shopEntityModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ShopID    int64  `gorm:"not null;index"`
	Kind      string `gorm:"not null;index:idx_entity_similar"`
	Data      string `gorm:"not null;index:idx_entity_similar"`
	CreatedAt time.Time
}

func (shopEntityModel) TableName() string { return "shop_entities" }

func (m shopEntityModel) record() store.ShopEntity {
	return store.ShopEntity{ID: m.ID, ShopID: m.ShopID, Kind: m.Kind, Data: m.Data, CreatedAt: m.CreatedAt}
}

type eventModel struct {
	Seq         int64          `gorm:"primaryKey;autoIncrement"`
	ID          string         `gorm:"not null;uniqueIndex"`
	AggregateID string         `gorm:"not null;index"`
	Type        string         `gorm:"not null;index"`
	Data        datatypes.JSON `gorm:"not null"`
	CreatedAt   time.Time
}

func (eventModel) TableName() string { return "events" }

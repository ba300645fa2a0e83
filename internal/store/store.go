package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/item"
)

// Errors returned by repositories.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Shop is the persisted form of a shop.
type Shop struct {
	ID          int64     `db:"id"`
	Material    string    `db:"material"`
	Variant     int       `db:"variant"`
	AuctionType string    `db:"auction_type"`
	CreatedAt   time.Time `db:"created_at"`
}

// Key returns the canonical item key of the shop.
func (s Shop) Key() item.Key {
	return item.Key{Material: s.Material, Variant: s.Variant}
}

// Player is a player known to the auction house.
type Player struct {
	ID        int64     `db:"id"`
	UUID      uuid.UUID `db:"uuid"`
	Name      string    `db:"name"`
	Balance   float64   `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SellerData is a player's selling relationship with one shop.
type SellerData struct {
	ID        int64     `db:"id"`
	PlayerID  int64     `db:"player_id"`
	ShopID    int64     `db:"shop_id"`
	CreatedAt time.Time `db:"created_at"`

	// Player is eagerly fetched by SellerDataRepository and SaleRepository.
	Player Player `db:"player"`
}

// Sale is an item listed for sale.
type Sale struct {
	ID           int64      `db:"id"`
	SellerDataID int64      `db:"seller_data_id"`
	Item         item.Stack `db:"item"`
	Price        null.Float `db:"price"`
	CreatedAt    time.Time  `db:"created_at"`

	// Seller is eagerly fetched by SaleRepository.
	Seller SellerData `db:"seller"`
}

// ShopEntity links an in-world object (sign, block, villager) to a shop.
type ShopEntity struct {
	ID        int64     `db:"id"`
	ShopID    int64     `db:"shop_id"`
	Kind      string    `db:"kind"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

// ShopRepository defines shop persistence operations.
type ShopRepository interface {
	Create(ctx context.Context, s *Shop) error
	List(ctx context.Context) ([]Shop, error)
}

// PlayerRepository defines auction player persistence operations.
type PlayerRepository interface {
	Create(ctx context.Context, p *Player) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*Player, error)
	UpdateName(ctx context.Context, id int64, name string) error
	// Deposit adds amount to the player's balance.
	Deposit(ctx context.Context, id uuid.UUID, amount float64) error
	// Transfer atomically moves amount between two balances and fails with
	// ErrInsufficientFunds when the payer cannot cover it.
	Transfer(ctx context.Context, from, to uuid.UUID, amount float64) error
}

// SellerDataRepository defines seller data persistence operations.
type SellerDataRepository interface {
	Create(ctx context.Context, sd *SellerData) error
	// Find returns the seller data of a player at a shop, ErrNotFound if none.
	Find(ctx context.Context, player uuid.UUID, shopID int64) (*SellerData, error)
}

// SaleRepository defines sale persistence operations. Every returned Sale has
// its Seller and Seller.Player populated.
type SaleRepository interface {
	Create(ctx context.Context, s *Sale) error
	GetByID(ctx context.Context, id int64) (*Sale, error)
	ListByShop(ctx context.Context, shopID int64) ([]Sale, error)
	ListBySellerData(ctx context.Context, sellerDataID int64) ([]Sale, error)
	ListByPlayerAtShop(ctx context.Context, player uuid.UUID, shopID int64) ([]Sale, error)
	UpdatePrice(ctx context.Context, id int64, price null.Float) error
	Delete(ctx context.Context, id int64) error
}

// ShopEntityRepository defines shop entity persistence operations.
type ShopEntityRepository interface {
	Create(ctx context.Context, e *ShopEntity) error
	ListByShop(ctx context.Context, shopID int64) ([]ShopEntity, error)
	// CountSimilar counts entities of the same kind carrying the same data.
	CountSimilar(ctx context.Context, kind, data string) (int64, error)
}

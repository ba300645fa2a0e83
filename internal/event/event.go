package event

import (
	"encoding/json"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	ShopCreated Type = "shop.created"

	SaleListed    Type = "sale.listed"
	SalePriced    Type = "sale.priced"
	SaleWithdrawn Type = "sale.withdrawn"
	SalePurchased Type = "sale.purchased"

	EntityAttached Type = "entity.attached"

	BalanceDeposited   Type = "balance.deposited"
	BalanceTransferred Type = "balance.transferred"
)

// Event represents a single audit event of the auction house.
type Event struct {
	ID          string          `json:"id" db:"id"`
	AggregateID string          `json:"aggregate_id" db:"aggregate_id"`
	Type        Type            `json:"type" db:"type"`
	Data        json.RawMessage `json:"data" db:"data"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// ShopCreatedData is the payload for ShopCreated events.
type ShopCreatedData struct {
	ShopID      int64  `json:"shop_id"`
	Key         string `json:"key"`
	AuctionType string `json:"auction_type"`
}

// SaleData is the payload shared by sale events.
type SaleData struct {
	SaleID   int64    `json:"sale_id"`
	ShopID   int64    `json:"shop_id"`
	SellerID string   `json:"seller_id"`
	Amount   int      `json:"amount"`
	Price    *float64 `json:"price,omitempty"`
}

// SalePurchasedData is the payload for SalePurchased events.
type SalePurchasedData struct {
	SaleData
	BuyerID string `json:"buyer_id"`
}

// EntityAttachedData is the payload for EntityAttached events.
type EntityAttachedData struct {
	ShopID int64  `json:"shop_id"`
	Kind   string `json:"kind"`
	Data   string `json:"data"`
}

// BalanceData is the payload for balance events. From is empty for deposits.
type BalanceData struct {
	From   string  `json:"from,omitempty"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

package api

import (
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/item"
)

// Client operations.
const (
	OpMenu     = "menu"
	OpOpenSell = "open_sell"
	OpOpenBuy  = "open_buy"
	OpSell     = "sell"
	OpPrice    = "price"
	OpWithdraw = "withdraw"
	OpBuy      = "buy"
	OpClose    = "close"
)

// Server frame types.
const (
	FrameOpen     = "open"
	FrameContents = "contents"
	FrameItem     = "item"
	FrameError    = "error"
)

// Request is a client frame.
type Request struct {
	Op     string      `json:"op"`
	Type   string      `json:"type,omitempty"`
	ShopID int64       `json:"shop_id,omitempty"`
	SaleID int64       `json:"sale_id,omitempty"`
	Item   *item.Stack `json:"item,omitempty"`
	Price  null.Float  `json:"price"`
}

// Frame is a server frame. Open and contents frames carry the view id they
// refer to; an item frame hands a stack back to the player.
type Frame struct {
	Frame string       `json:"frame"`
	View  int64        `json:"view,omitempty"`
	Kind  string       `json:"kind,omitempty"`
	Title string       `json:"title,omitempty"`
	Items []item.Stack `json:"items,omitempty"`
	Item  *item.Stack  `json:"item,omitempty"`
	Op    string       `json:"op,omitempty"`
	Error string       `json:"error,omitempty"`
}

// ShopResponse describes a loaded shop.
type ShopResponse struct {
	ID       int64  `json:"id"`
	Material string `json:"material"`
	Variant  int    `json:"variant,omitempty"`
	Type     string `json:"type"`
	Sales    int    `json:"sales"`
}

// SaleResponse describes an active sale.
type SaleResponse struct {
	ID        int64      `json:"id"`
	ShopID    int64      `json:"shop_id"`
	Item      item.Stack `json:"item"`
	Price     null.Float `json:"price"`
	Display   string     `json:"display,omitempty"`
	Seller    string     `json:"seller"`
	SellerID  string     `json:"seller_uuid"`
	CreatedAt string     `json:"created_at"`
}

// BalanceResponse is a player's balance.
type BalanceResponse struct {
	Player  string  `json:"player"`
	Balance float64 `json:"balance"`
	Display string  `json:"display"`
}

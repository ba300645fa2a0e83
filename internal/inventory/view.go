// Package inventory keeps every open auction view consistent with the
// market. Each player has at most one open sell view and one open buy view;
// opening a new view replaces the previous one.
package inventory

import (
	"github.com/google/uuid"

	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/item"
)

// Kind tags what a view shows. Titles are presentational only.
type Kind int

// View kinds.
const (
	KindMenu Kind = iota + 1
	KindSell
	KindBuy
)

func (k Kind) String() string {
	switch k {
	case KindMenu:
		return "menu"
	case KindSell:
		return "sell"
	case KindBuy:
		return "buy"
	default:
		return "unknown"
	}
}

// View is a host-side inventory window. Implementations must be comparable
// (pointer types) and SetContents must not block.
type View interface {
	SetContents(stacks []item.Stack)
}

// Viewer is a connected player able to display views.
type Viewer interface {
	UUID() uuid.UUID
	// NewView creates a view that is not yet shown.
	NewView(kind Kind, title string) View
	// Show closes the player's current top-level view and presents v. It is
	// called with the manager's lock held and must not call back into it.
	Show(v View)
}

// Titles are the window titles of each view kind.
type Titles struct {
	Base string
	Sell string
	Buy  string
}

// TitleSeparator joins the base title and a sub view label.
const TitleSeparator = " - "

// NewTitles derives the view titles from configuration.
func NewTitles(auction config.AuctionConfig, lang config.LangConfig) Titles {
	return Titles{
		Base: auction.MenuTitle,
		Sell: auction.MenuTitle + TitleSeparator + lang.SellTitle,
		Buy:  auction.MenuTitle + TitleSeparator + lang.BuyTitle,
	}
}

// For returns the title of a view kind.
func (t Titles) For(k Kind) string {
	switch k {
	case KindSell:
		return t.Sell
	case KindBuy:
		return t.Buy
	default:
		return t.Base
	}
}

package auction_test

import (
	"errors"
	"slices"
	"testing"

	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/item"
)

func newTestSale(id int64, amount int, price null.Float, seller string, lore ...string) *auction.Sale {
	stack := item.Stack{Material: "DIAMOND", Amount: amount}
	if len(lore) > 0 {
		stack.Meta = &item.Meta{Lore: lore}
	}
	return &auction.Sale{
		ID:     id,
		Item:   stack,
		Price:  price,
		Seller: &auction.SellerData{Player: auction.Player{Name: seller}},
	}
}

func TestDisplay_Refresh(t *testing.T) {
	d := auction.NewDisplay(config.Default().Lang, plainMoney{})

	tests := []struct {
		name string
		sale *auction.Sale
		want []string
	}{
		{
			name: "priced",
			sale: newTestSale(12, 4, null.FloatFrom(100), "Steve"),
			want: []string{"§8Sale#12", "§a100.0", "§225.0 p.u.", "§9Sold by Steve"},
		},
		{
			name: "no price",
			sale: newTestSale(3, 4, null.Float{}, "Steve"),
			want: []string{"§8Sale#3", "No price set up yet!", "§9Sold by Steve"},
		},
		{
			name: "unknown seller",
			sale: newTestSale(5, 1, null.FloatFrom(2), ""),
			want: []string{"§8Sale#5", "§a2.0", "§22.0 p.u.", "§9Sold by ???"},
		},
		{
			name: "existing lore kept",
			sale: newTestSale(8, 2, null.Float{}, "Alex", "Sharp", "Old"),
			want: []string{"Sharp", "Old", auction.LoreSeparator, "§8Sale#8", "No price set up yet!", "§9Sold by Alex"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d.Refresh(tt.sale)
			if !tt.sale.Displayed() {
				t.Fatal("Displayed() = false after Refresh")
			}
			got := tt.sale.TradeStack().Lore()
			if !slices.Equal(got, tt.want) {
				t.Errorf("lore = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplay_Refresh_DoesNotTouchItem(t *testing.T) {
	d := auction.NewDisplay(config.Default().Lang, plainMoney{})
	sale := newTestSale(1, 1, null.Float{}, "Steve", "Sharp")

	d.Refresh(sale)
	if got := sale.Item.Lore(); !slices.Equal(got, []string{"Sharp"}) {
		t.Errorf("item lore = %q, want unchanged", got)
	}
}

func TestDisplay_Refresh_NoSeller(t *testing.T) {
	d := auction.NewDisplay(config.Default().Lang, plainMoney{})
	sale := &auction.Sale{ID: 1, Item: item.Stack{Material: "STONE", Amount: 1}}

	d.Refresh(sale)
	d.Refresh(nil)
	if sale.Displayed() {
		t.Error("sale without seller data should not be displayed")
	}
}

func TestDisplay_Refresh_ZeroAmountPanics(t *testing.T) {
	d := auction.NewDisplay(config.Default().Lang, plainMoney{})
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero amount")
		}
	}()
	d.Refresh(newTestSale(1, 0, null.FloatFrom(10), "Steve"))
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name    string
		stack   item.Stack
		want    int64
		wantErr error
	}{
		{
			name:    "no meta",
			stack:   item.Stack{Material: "STONE", Amount: 1},
			wantErr: auction.ErrNotSaleToken,
		},
		{
			name:    "no token line",
			stack:   item.Stack{Material: "STONE", Amount: 1, Meta: &item.Meta{Lore: []string{"just lore"}}},
			wantErr: auction.ErrNotSaleToken,
		},
		{
			name:    "malformed digits",
			stack:   item.Stack{Material: "STONE", Amount: 1, Meta: &item.Meta{Lore: []string{"§8Sale#12x"}}},
			wantErr: auction.ErrInvalidToken,
		},
		{
			name:  "token first",
			stack: item.Stack{Material: "STONE", Amount: 1, Meta: &item.Meta{Lore: []string{"§8Sale#42", "No price"}}},
			want:  42,
		},
		{
			name:    "prefix inside a line",
			stack:   item.Stack{Material: "STONE", Amount: 1, Meta: &item.Meta{Lore: []string{"§9Sold by Sale#1"}}},
			wantErr: auction.ErrNotSaleToken,
		},
		{
			name: "generated token wins over lore",
			stack: item.Stack{Material: "STONE", Amount: 1, Meta: &item.Meta{
				Lore: []string{"Sale#1", auction.LoreSeparator, "§8Sale#77", "§9Sold by Steve"},
			}},
			want: 77,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auction.ParseToken(tt.stack)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseToken() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseToken() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseToken_RoundTrip(t *testing.T) {
	d := auction.NewDisplay(config.Default().Lang, plainMoney{})

	tests := []struct {
		name   string
		seller string
		price  null.Float
		lore   []string
	}{
		{name: "plain", seller: "Steve", price: null.FloatFrom(9)},
		{name: "lore mentions a token", seller: "Steve", price: null.FloatFrom(9), lore: []string{"Sale#5 from a previous life"}},
		{name: "lore holds a token line", seller: "Steve", price: null.FloatFrom(9), lore: []string{"Sale#3"}},
		{name: "colored token in lore", seller: "Steve", lore: []string{"§8Sale#3"}},
		{name: "seller named like a token", seller: "Sale#1", price: null.FloatFrom(9)},
		{name: "seller named like a bad token", seller: "Sale#x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, id := range []int64{1, 7, 10, 123456789} {
				sale := newTestSale(id, 3, tt.price, tt.seller, tt.lore...)
				d.Refresh(sale)
				got, err := auction.ParseToken(sale.TradeStack())
				if err != nil {
					t.Fatalf("ParseToken(%v) error = %v", sale.TradeStack().Lore(), err)
				}
				if got != id {
					t.Errorf("ParseToken(%v) = %d, want %d", sale.TradeStack().Lore(), got, id)
				}
			}
		})
	}
}

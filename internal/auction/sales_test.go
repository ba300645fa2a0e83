package auction_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/item"
	"github.com/jensholdgaard/auction-house/internal/store"
)

func TestSales_FromTradeStack_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	steve := auction.Identity{UUID: uuid.New(), Name: "Steve"}

	listed, err := f.manager.ListItem(ctx, steve, item.Stack{
		Material: "DIAMOND",
		Amount:   4,
		Meta:     &item.Meta{DisplayName: "Gems", Lore: []string{"From the deep"}},
	}, null.FloatFrom(100))
	if err != nil {
		t.Fatalf("ListItem() error = %v", err)
	}

	got, err := f.sales.FromTradeStack(ctx, listed.TradeStack())
	if err != nil {
		t.Fatalf("FromTradeStack() error = %v", err)
	}
	if got.ID != listed.ID {
		t.Errorf("ID = %d, want %d", got.ID, listed.ID)
	}
	if got.Shop() != listed.Shop() {
		t.Error("recovered sale is not bound to the live shop")
	}
	if !got.Displayed() {
		t.Error("recovered sale was not redisplayed")
	}
}

func TestSales_FromTradeStack_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		stack   item.Stack
		wantErr error
	}{
		{
			name:    "plain item",
			stack:   item.Stack{Material: "STONE", Amount: 1},
			wantErr: auction.ErrNotSaleToken,
		},
		{
			name:    "sale gone",
			stack:   item.Stack{Material: "STONE", Amount: 1, Meta: &item.Meta{Lore: []string{"§8Sale#404"}}},
			wantErr: store.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sales.FromTradeStack(ctx, tt.stack)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FromTradeStack() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSales_Queries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	steve := auction.Identity{UUID: uuid.New(), Name: "Steve"}
	alex := auction.Identity{UUID: uuid.New(), Name: "Alex"}

	mustList := func(ident auction.Identity, material string) *auction.Sale {
		t.Helper()
		s, err := f.manager.ListItem(ctx, ident, item.Stack{Material: material, Amount: 1}, null.FloatFrom(1))
		if err != nil {
			t.Fatalf("ListItem() error = %v", err)
		}
		return s
	}
	a := mustList(steve, "DIAMOND")
	mustList(alex, "DIAMOND")
	mustList(steve, "STONE")
	shop := a.Shop()

	byShop, err := f.sales.ByShop(ctx, shop)
	if err != nil {
		t.Fatalf("ByShop() error = %v", err)
	}
	if len(byShop) != 2 {
		t.Errorf("ByShop() returned %d sales, want 2", len(byShop))
	}
	for _, s := range byShop {
		if s.Shop() != shop {
			t.Errorf("sale %d bound to %p, want %p", s.ID, s.Shop(), shop)
		}
		if !s.Displayed() {
			t.Errorf("sale %d not displayed", s.ID)
		}
	}

	mine, err := f.sales.OfPlayerAtShop(ctx, shop, steve.UUID)
	if err != nil {
		t.Fatalf("OfPlayerAtShop() error = %v", err)
	}
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("OfPlayerAtShop() = %v, want sale %d", mine, a.ID)
	}

	bySeller, err := f.sales.BySeller(ctx, a.Seller)
	if err != nil {
		t.Fatalf("BySeller() error = %v", err)
	}
	if len(bySeller) != 1 {
		t.Errorf("BySeller() returned %d sales, want 1", len(bySeller))
	}
}

func TestSales_RehydrateAfterReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	steve := auction.Identity{UUID: uuid.New(), Name: "Steve"}

	listed, err := f.manager.ListItem(ctx, steve, item.Stack{Material: "DIAMOND", Amount: 1}, null.Float{})
	if err != nil {
		t.Fatalf("ListItem() error = %v", err)
	}
	stale := listed.Shop()

	if _, err := f.manager.Hydrate(ctx); err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	live, _ := f.registry.ByID(stale.ID)

	got, err := f.sales.ByID(ctx, listed.ID)
	if err != nil {
		t.Fatalf("ByID() error = %v", err)
	}
	if got.Shop() != live || got.Shop() == stale {
		t.Errorf("Shop() = %p, want live %p (stale %p)", got.Shop(), live, stale)
	}
	if live.Len() != 1 {
		t.Errorf("live shop has %d sales, want 1", live.Len())
	}
}

func TestSales_RehydrateUnknownShop(t *testing.T) {
	f := newFixture(t)
	sale := &auction.Sale{
		ID:     1,
		Item:   item.Stack{Material: "STONE", Amount: 1},
		Seller: &auction.SellerData{ShopID: 99},
	}
	if err := f.sales.Rehydrate(sale); !errors.Is(err, auction.ErrShopNotLoaded) {
		t.Errorf("Rehydrate() error = %v, want ErrShopNotLoaded", err)
	}
}

package auction_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/item"
)

func TestSellers_FindOrCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	steve := auction.Identity{UUID: uuid.New(), Name: "Steve"}

	shop, err := f.registry.GetOrCreate(ctx, item.Stack{Material: "DIAMOND", Amount: 1})
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	first, err := f.sellers.FindOrCreate(ctx, steve, shop)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	second, err := f.sellers.FindOrCreate(ctx, steve, shop)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("seller data ids = %d, %d, want equal", first.ID, second.ID)
	}
	if second.Player.Name != "Steve" || second.Player.UUID != steve.UUID {
		t.Errorf("Player = %+v, want Steve", second.Player)
	}
	if len(f.mem.players) != 1 {
		t.Errorf("created %d players, want 1", len(f.mem.players))
	}
}

func TestSellers_RebindsAfterReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	steve := auction.Identity{UUID: uuid.New(), Name: "Steve"}

	old, err := f.registry.GetOrCreate(ctx, item.Stack{Material: "DIAMOND", Amount: 1})
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if _, err := f.sellers.FindOrCreate(ctx, steve, old); err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}

	if _, err := f.registry.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	live, _ := f.registry.ByID(old.ID)

	sd, err := f.sellers.FindOrCreate(ctx, steve, live)
	if err != nil {
		t.Fatalf("FindOrCreate() error = %v", err)
	}
	if sd.Shop != live {
		t.Errorf("Shop = %p, want live singleton %p", sd.Shop, live)
	}
	if sd.Shop == old {
		t.Error("seller data still bound to the stale shop")
	}
}

func TestSellers_FindOrCreatePlayer_Rename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	if _, err := f.sellers.FindOrCreatePlayer(ctx, auction.Identity{UUID: id, Name: "Steve"}); err != nil {
		t.Fatalf("FindOrCreatePlayer() error = %v", err)
	}

	tests := []struct {
		name     string
		ident    auction.Identity
		wantName string
	}{
		{name: "new name is stored", ident: auction.Identity{UUID: id, Name: "Alex"}, wantName: "Alex"},
		{name: "offline keeps cached name", ident: auction.Identity{UUID: id}, wantName: "Alex"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.sellers.FindOrCreatePlayer(ctx, tt.ident)
			if err != nil {
				t.Fatalf("FindOrCreatePlayer() error = %v", err)
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
		})
	}
}

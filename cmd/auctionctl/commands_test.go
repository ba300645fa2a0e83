package main

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/item"
	"github.com/jensholdgaard/auction-house/internal/store"
	"github.com/jensholdgaard/auction-house/internal/store/gormstore"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	db, err := gormstore.Connect(context.Background(), ":memory:", clock.Real{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })
	return newEnv(config.Default(), gormstore.New(db))
}

func seedSale(t *testing.T, e *env, price null.Float) (*store.Shop, *store.Sale, *store.Player) {
	t.Helper()
	ctx := context.Background()

	shop := &store.Shop{Material: "IRON_ORE", AuctionType: "general"}
	if err := e.repos.Shops.Create(ctx, shop); err != nil {
		t.Fatalf("Shops.Create: %v", err)
	}
	p := &store.Player{UUID: uuid.New(), Name: "alice"}
	if err := e.repos.Players.Create(ctx, p); err != nil {
		t.Fatalf("Players.Create: %v", err)
	}
	sd := &store.SellerData{PlayerID: p.ID, ShopID: shop.ID}
	if err := e.repos.Sellers.Create(ctx, sd); err != nil {
		t.Fatalf("Sellers.Create: %v", err)
	}
	sale := &store.Sale{SellerDataID: sd.ID, Item: item.Stack{Material: "IRON_ORE", Amount: 4}, Price: price}
	if err := e.repos.Sales.Create(ctx, sale); err != nil {
		t.Fatalf("Sales.Create: %v", err)
	}
	return shop, sale, p
}

func TestListShops(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := listShops(ctx, &buf, e); err != nil {
		t.Fatalf("listShops: %v", err)
	}
	if !strings.Contains(buf.String(), "No shops yet.") {
		t.Errorf("empty store output = %q", buf.String())
	}

	seedSale(t, e, null.FloatFrom(10))
	buf.Reset()
	if err := listShops(ctx, &buf, e); err != nil {
		t.Fatalf("listShops: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header and one shop: %q", len(lines), buf.String())
	}
	if fields := strings.Fields(lines[1]); len(fields) != 4 || fields[1] != "IRON_ORE" || fields[3] != "1" {
		t.Errorf("shop line = %q", lines[1])
	}
}

func TestShowSales(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	shop, sale, _ := seedSale(t, e, null.FloatFrom(10))

	var buf bytes.Buffer
	if err := showSales(ctx, &buf, e, shop.ID); err != nil {
		t.Fatalf("showSales: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"4x IRON_ORE",
		"Sale#" + strconv.FormatInt(sale.ID, 10),
		"10.00 coins",
		"2.50 coins p.u.",
		"Sold by alice",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if err := showSales(ctx, &buf, e, 999); err == nil {
		t.Error("expected error for unknown shop")
	}
}

func TestDeposit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, _, p := seedSale(t, e, null.Float{})

	var buf bytes.Buffer
	if err := deposit(ctx, &buf, e, p.UUID, 7.5); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if got, want := strings.TrimSpace(buf.String()), "Deposited 7.50 coins. Balance: 7.50 coins"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if err := deposit(ctx, &buf, e, uuid.New(), 1); err == nil {
		t.Error("expected error for unknown player")
	}
}

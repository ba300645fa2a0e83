package auction_test

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/config"
	"github.com/jensholdgaard/auction-house/internal/event"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// --- mock helpers ---

// memStore is an in-memory implementation of every repository.
type memStore struct {
	mu sync.Mutex

	nextID      int64
	shops       map[int64]store.Shop
	players     map[uuid.UUID]*store.Player
	sellers     map[int64]store.SellerData
	sales       map[int64]store.Sale
	entities    []store.ShopEntity
	events      []event.Event
	shopCreates int
	createDelay time.Duration
	err         error
}

func newMemStore() *memStore {
	return &memStore{
		shops:   make(map[int64]store.Shop),
		players: make(map[uuid.UUID]*store.Player),
		sellers: make(map[int64]store.SellerData),
		sales:   make(map[int64]store.Sale),
	}
}

func (m *memStore) repos() *store.Repositories {
	return &store.Repositories{
		Shops:    memShops{m},
		Players:  memPlayers{m},
		Sellers:  memSellers{m},
		Sales:    memSales{m},
		Entities: memEntities{m},
		Events:   memEvents{m},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) playerByID(id int64) store.Player {
	for _, p := range m.players {
		if p.ID == id {
			return *p
		}
	}
	return store.Player{}
}

func (m *memStore) saleWithSeller(s store.Sale) store.Sale {
	sd := m.sellers[s.SellerDataID]
	sd.Player = m.playerByID(sd.PlayerID)
	s.Seller = sd
	s.Item = s.Item.Clone()
	return s
}

type memShops struct{ m *memStore }

func (r memShops) Create(_ context.Context, s *store.Shop) error {
	if r.m.createDelay > 0 {
		time.Sleep(r.m.createDelay)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return r.m.err
	}
	r.m.shopCreates++
	for _, existing := range r.m.shops {
		if existing.Material == s.Material && existing.Variant == s.Variant {
			*s = existing
			return nil
		}
	}
	s.ID = r.m.id()
	r.m.shops[s.ID] = *s
	return nil
}

func (r memShops) List(_ context.Context) ([]store.Shop, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []store.Shop
	for id := int64(1); id <= r.m.nextID; id++ {
		if s, ok := r.m.shops[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type memPlayers struct{ m *memStore }

func (r memPlayers) Create(_ context.Context, p *store.Player) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if existing, ok := r.m.players[p.UUID]; ok {
		*p = *existing
		return nil
	}
	p.ID = r.m.id()
	cp := *p
	r.m.players[p.UUID] = &cp
	return nil
}

func (r memPlayers) GetByUUID(_ context.Context, id uuid.UUID) (*store.Player, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPlayers) UpdateName(_ context.Context, id int64, name string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, p := range r.m.players {
		if p.ID == id {
			p.Name = name
			return nil
		}
	}
	return store.ErrNotFound
}

func (r memPlayers) Deposit(_ context.Context, id uuid.UUID, amount float64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Balance += amount
	return nil
}

func (r memPlayers) Transfer(_ context.Context, from, to uuid.UUID, amount float64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	payer, ok := r.m.players[from]
	if !ok {
		return store.ErrNotFound
	}
	payee, ok := r.m.players[to]
	if !ok {
		return store.ErrNotFound
	}
	if payer.Balance < amount {
		return store.ErrInsufficientFunds
	}
	payer.Balance -= amount
	payee.Balance += amount
	return nil
}

type memSellers struct{ m *memStore }

func (r memSellers) Create(_ context.Context, sd *store.SellerData) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	sd.ID = r.m.id()
	r.m.sellers[sd.ID] = *sd
	sd.Player = r.m.playerByID(sd.PlayerID)
	return nil
}

func (r memSellers) Find(_ context.Context, player uuid.UUID, shopID int64) (*store.SellerData, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.players[player]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, sd := range r.m.sellers {
		if sd.PlayerID == p.ID && sd.ShopID == shopID {
			sd.Player = *p
			return &sd, nil
		}
	}
	return nil, store.ErrNotFound
}

type memSales struct{ m *memStore }

func (r memSales) Create(_ context.Context, s *store.Sale) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.err != nil {
		return r.m.err
	}
	s.ID = r.m.id()
	r.m.sales[s.ID] = *s
	return nil
}

func (r memSales) GetByID(_ context.Context, id int64) (*store.Sale, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	s = r.m.saleWithSeller(s)
	return &s, nil
}

func (r memSales) list(keep func(store.Sale) bool) []store.Sale {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []store.Sale
	for id := int64(1); id <= r.m.nextID; id++ {
		s, ok := r.m.sales[id]
		if !ok {
			continue
		}
		s = r.m.saleWithSeller(s)
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r memSales) ListByShop(_ context.Context, shopID int64) ([]store.Sale, error) {
	return r.list(func(s store.Sale) bool { return s.Seller.ShopID == shopID }), nil
}

func (r memSales) ListBySellerData(_ context.Context, sellerDataID int64) ([]store.Sale, error) {
	return r.list(func(s store.Sale) bool { return s.SellerDataID == sellerDataID }), nil
}

func (r memSales) ListByPlayerAtShop(_ context.Context, player uuid.UUID, shopID int64) ([]store.Sale, error) {
	return r.list(func(s store.Sale) bool {
		return s.Seller.Player.UUID == player && s.Seller.ShopID == shopID
	}), nil
}

func (r memSales) UpdatePrice(_ context.Context, id int64, price null.Float) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sales[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Price = price
	r.m.sales[id] = s
	return nil
}

func (r memSales) Delete(_ context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sales[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.m.sales, id)
	return nil
}

type memEntities struct{ m *memStore }

func (r memEntities) Create(_ context.Context, e *store.ShopEntity) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e.ID = r.m.id()
	r.m.entities = append(r.m.entities, *e)
	return nil
}

func (r memEntities) ListByShop(_ context.Context, shopID int64) ([]store.ShopEntity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []store.ShopEntity
	for _, e := range r.m.entities {
		if e.ShopID == shopID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEntities) CountSimilar(_ context.Context, kind, data string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, e := range r.m.entities {
		if e.Kind == kind && e.Data == data {
			n++
		}
	}
	return n, nil
}

type memEvents struct{ m *memStore }

func (r memEvents) Append(_ context.Context, events ...event.Event) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.events = append(r.m.events, events...)
	return nil
}

func (r memEvents) Load(_ context.Context, aggregateID string) ([]event.Event, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []event.Event
	for _, e := range r.m.events {
		if e.AggregateID == aggregateID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memEvents) LoadByType(_ context.Context, t event.Type) ([]event.Event, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []event.Event
	for _, e := range r.m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out, nil
}

// plainMoney formats amounts with one decimal and no currency name.
type plainMoney struct{}

func (plainMoney) Format(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 1, 64)
}

// memPayments moves money through the mem store's player balances.
type memPayments struct{ m *memStore }

func (p memPayments) Transfer(ctx context.Context, from, to uuid.UUID, amount float64) error {
	return memPlayers{p.m}.Transfer(ctx, from, to, amount)
}

type recordingListener struct {
	mu        sync.Mutex
	listed    []int64
	purchased []int64
}

func (l *recordingListener) SaleListed(_ context.Context, sale *auction.Sale) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listed = append(l.listed, sale.ID)
}

func (l *recordingListener) SalePurchased(_ context.Context, sale *auction.Sale, _ auction.Identity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purchased = append(l.purchased, sale.ID)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Auction.Types = []config.TypeConfig{
		{Name: "ores", Materials: []string{"IRON_ORE", "GOLD_ORE"}},
	}
	return cfg
}

type fixture struct {
	mem      *memStore
	registry *auction.Registry
	sellers  *auction.Sellers
	sales    *auction.Sales
	manager  *auction.Manager
	listener *recordingListener
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, newMemStore())
}

func newFixtureWith(t *testing.T, mem *memStore) *fixture {
	t.Helper()
	cfg := testConfig()
	logger := slog.Default()
	repos := mem.repos()

	registry := auction.NewRegistry(repos.Shops, repos.Events, auction.NewTypes(cfg.Auction), logger, metricnoop.NewMeterProvider())
	sellers := auction.NewSellers(repos.Players, repos.Sellers, logger)
	display := auction.NewDisplay(cfg.Lang, plainMoney{})
	sales := auction.NewSales(repos.Sales, repos.Entities, registry, display)
	mgr := auction.NewManager(auction.Deps{
		Registry: registry,
		Sellers:  sellers,
		Sales:    sales,
		Repos:    repos,
		Payments: memPayments{mem},
	}, logger, noop.NewTracerProvider(), metricnoop.NewMeterProvider())
	l := &recordingListener{}
	mgr.AddListener(l)

	return &fixture{mem: mem, registry: registry, sellers: sellers, sales: sales, manager: mgr, listener: l}
}

func (f *fixture) fund(t *testing.T, ident auction.Identity, amount float64) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.sellers.FindOrCreatePlayer(ctx, ident); err != nil {
		t.Fatalf("FindOrCreatePlayer: %v", err)
	}
	if err := (memPlayers{f.mem}).Deposit(ctx, ident.UUID, amount); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
}

package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/event"
	"github.com/jensholdgaard/auction-house/internal/item"
	"github.com/jensholdgaard/auction-house/internal/store"
	"github.com/jensholdgaard/auction-house/internal/telemetry"
)

// Payments moves currency between players.
type Payments interface {
	Transfer(ctx context.Context, from, to uuid.UUID, amount float64) error
}

// Listener is notified after market state changes.
type Listener interface {
	SaleListed(ctx context.Context, sale *Sale)
	SalePurchased(ctx context.Context, sale *Sale, buyer Identity)
}

// Manager coordinates the market flows on top of the registry, seller and
// sale stores.
type Manager struct {
	registry *Registry
	sellers  *Sellers
	sales    *Sales
	repo     store.SaleRepository
	entities store.ShopEntityRepository
	payments Payments
	events   event.Store
	logger   *slog.Logger
	tracer   trace.Tracer

	listed    metric.Int64Counter
	purchased metric.Int64Counter

	// saleMu serialises sale mutations so a sale is paid for at most once.
	saleMu    sync.Mutex
	hydrated  atomic.Bool
	listeners []Listener
}

// Deps groups the collaborators of a Manager.
type Deps struct {
	Registry *Registry
	Sellers  *Sellers
	Sales    *Sales
	Repos    *store.Repositories
	Payments Payments
}

// NewManager returns a new Manager.
func NewManager(d Deps, logger *slog.Logger, tp trace.TracerProvider, mp metric.MeterProvider) *Manager {
	meter := mp.Meter("github.com/jensholdgaard/auction-house/internal/auction")
	listed, err := meter.Int64Counter("auction.sales.listed",
		metric.WithDescription("Sales listed by players."))
	if err != nil {
		logger.Warn("creating listed counter", slog.Any("error", err))
		listed = noop.Int64Counter{}
	}
	purchased, err := meter.Int64Counter("auction.sales.purchased",
		metric.WithDescription("Sales bought by players."))
	if err != nil {
		logger.Warn("creating purchased counter", slog.Any("error", err))
		purchased = noop.Int64Counter{}
	}

	return &Manager{
		registry:  d.Registry,
		sellers:   d.Sellers,
		sales:     d.Sales,
		repo:      d.Repos.Sales,
		entities:  d.Repos.Entities,
		payments:  d.Payments,
		events:    d.Repos.Events,
		logger:    logger,
		tracer:    tp.Tracer("github.com/jensholdgaard/auction-house/internal/auction"),
		listed:    listed,
		purchased: purchased,
	}
}

// AddListener registers l for market notifications. It must be called
// before the manager is used.
func (m *Manager) AddListener(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Registry returns the shop registry.
func (m *Manager) Registry() *Registry { return m.registry }

// Sales returns the sale store.
func (m *Manager) Sales() *Sales { return m.sales }

// Types returns the auction type classifier.
func (m *Manager) Types() *Types { return m.registry.Types() }

// Ready reports whether Hydrate has completed.
func (m *Manager) Ready() bool { return m.hydrated.Load() }

// Hydrate loads every persisted shop into the registry and fills each
// shop's live sale set. Calling it again rebuilds all singletons.
func (m *Manager) Hydrate(ctx context.Context) (int, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Hydrate")
	defer span.End()

	shops, err := m.registry.Load(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("loading shops: %w", err)
	}

	total := 0
	for _, shop := range m.registry.Loaded() {
		sales, err := m.sales.ByShop(ctx, shop)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("loading sales of shop %d: %w", shop.ID, err)
		}
		shop.reset(sales)
		total += len(sales)
	}
	m.hydrated.Store(true)

	m.logger.InfoContext(ctx, "auction house hydrated",
		slog.Int("shops", shops),
		slog.Int("sales", total),
	)
	return total, nil
}

// ListItem puts stack up for sale by ident. A null price lists the item
// without a price; it cannot be bought until one is set.
func (m *Manager) ListItem(ctx context.Context, ident Identity, stack item.Stack, price null.Float) (*Sale, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.ListItem",
		trace.WithAttributes(
			attribute.String("player", ident.UUID.String()),
			attribute.String("item", item.KeyFor(stack).String()),
			attribute.Int("amount", stack.Amount),
		),
	)
	defer span.End()

	if err := stack.Validate(); err != nil {
		return nil, err
	}
	if price.Valid && price.Float64 < 0 {
		return nil, ErrInvalidPrice
	}

	shop, err := m.registry.GetOrCreate(ctx, stack)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	sd, err := m.sellers.FindOrCreate(ctx, ident, shop)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	rec := &store.Sale{SellerDataID: sd.ID, Item: stack.Clone(), Price: price}
	if err := m.repo.Create(ctx, rec); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("persisting sale: %w", err)
	}

	sale := &Sale{ID: rec.ID, Item: rec.Item, Price: price, Seller: sd, CreatedAt: rec.CreatedAt}
	if err := m.sales.Rehydrate(sale); err != nil {
		return nil, err
	}
	shop.put(sale)
	m.listed.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(shop.Type))))

	m.record(ctx, event.SaleListed, shop.ID, saleData(sale))
	for _, l := range m.listeners {
		l.SaleListed(ctx, sale)
	}

	m.logger.InfoContext(ctx, "sale listed",
		slog.Int64("sale_id", sale.ID),
		slog.Int64("shop_id", shop.ID),
		slog.String("seller", ident.UUID.String()),
		slog.Int("amount", stack.Amount),
	)
	return sale, nil
}

// SetPrice changes the price of one of ident's sales. A null price takes
// the sale off the market without withdrawing it.
func (m *Manager) SetPrice(ctx context.Context, ident Identity, saleID int64, price null.Float) (*Sale, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.SetPrice",
		trace.WithAttributes(
			attribute.String("player", ident.UUID.String()),
			attribute.Int64("sale_id", saleID),
		),
	)
	defer span.End()

	if price.Valid && price.Float64 < 0 {
		return nil, ErrInvalidPrice
	}

	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	sale, err := m.sales.ByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.SellerUUID() != ident.UUID {
		return nil, ErrNotOwner
	}

	if err := m.repo.UpdatePrice(ctx, saleID, price); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("updating price: %w", err)
	}
	sale.Price = price
	if err := m.sales.Rehydrate(sale); err != nil {
		return nil, err
	}
	sale.Shop().put(sale)

	m.record(ctx, event.SalePriced, sale.Shop().ID, saleData(sale))
	m.logger.InfoContext(ctx, "sale priced",
		slog.Int64("sale_id", saleID),
		slog.Any("price", price),
	)
	return sale, nil
}

// Withdraw takes one of ident's sales off the market. The returned sale's
// Item is handed back to the player.
func (m *Manager) Withdraw(ctx context.Context, ident Identity, saleID int64) (*Sale, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Withdraw",
		trace.WithAttributes(
			attribute.String("player", ident.UUID.String()),
			attribute.Int64("sale_id", saleID),
		),
	)
	defer span.End()

	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	sale, err := m.sales.ByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.SellerUUID() != ident.UUID {
		return nil, ErrNotOwner
	}
	if err := m.repo.Delete(ctx, saleID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("deleting sale: %w", err)
	}
	sale.Shop().remove(saleID)

	m.record(ctx, event.SaleWithdrawn, sale.Shop().ID, saleData(sale))
	m.logger.InfoContext(ctx, "sale withdrawn", slog.Int64("sale_id", saleID))
	return sale, nil
}

// Buy purchases a sale for ident: the price moves from buyer to seller and
// the sale is removed. The returned sale's Item goes to the buyer.
func (m *Manager) Buy(ctx context.Context, buyer Identity, saleID int64) (*Sale, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.Buy",
		trace.WithAttributes(
			attribute.String("buyer", buyer.UUID.String()),
			attribute.Int64("sale_id", saleID),
		),
	)
	defer span.End()

	m.saleMu.Lock()
	defer m.saleMu.Unlock()

	sale, err := m.sales.ByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale.SellerUUID() == buyer.UUID {
		return nil, ErrOwnSale
	}
	if !sale.Price.Valid {
		return nil, ErrNotForSale
	}
	if _, err := m.sellers.FindOrCreatePlayer(ctx, buyer); err != nil {
		return nil, err
	}

	price := sale.Price.Float64
	seller := sale.SellerUUID()
	if price > 0 {
		if err := m.payments.Transfer(ctx, buyer.UUID, seller, price); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("paying for sale %d: %w", saleID, err)
		}
	}

	if err := m.repo.Delete(ctx, saleID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		if price > 0 {
			if rerr := m.payments.Transfer(ctx, seller, buyer.UUID, price); rerr != nil {
				m.logger.ErrorContext(ctx, "failed to refund buyer",
					slog.Int64("sale_id", saleID),
					slog.String("buyer", buyer.UUID.String()),
					slog.Any("error", rerr),
				)
			}
		}
		return nil, fmt.Errorf("deleting sale: %w", err)
	}
	sale.Shop().remove(saleID)
	m.purchased.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(sale.Type()))))

	m.record(ctx, event.SalePurchased, sale.Shop().ID, event.SalePurchasedData{
		SaleData: saleData(sale),
		BuyerID:  buyer.UUID.String(),
	})
	for _, l := range m.listeners {
		l.SalePurchased(ctx, sale, buyer)
	}

	m.logger.InfoContext(ctx, "sale purchased",
		slog.Int64("sale_id", saleID),
		slog.String("buyer", buyer.UUID.String()),
		slog.String("seller", seller.String()),
		slog.Float64("price", price),
	)
	return sale, nil
}

// BuyStack purchases the sale a trade stack was generated for.
func (m *Manager) BuyStack(ctx context.Context, buyer Identity, stack item.Stack) (*Sale, error) {
	id, err := ParseToken(stack)
	if err != nil {
		return nil, err
	}
	return m.Buy(ctx, buyer, id)
}

// SalesOfType returns a player's active sales across the loaded shops of
// one auction type.
func (m *Manager) SalesOfType(typ Type, player uuid.UUID) []*Sale {
	var out []*Sale
	for _, shop := range m.registry.Loaded() {
		if shop.Type != typ {
			continue
		}
		out = append(out, shop.SalesOf(player)...)
	}
	return out
}

// ShopsOfType returns the loaded shops of one auction type.
func (m *Manager) ShopsOfType(typ Type) []*Shop {
	var out []*Shop
	for _, shop := range m.registry.Loaded() {
		if shop.Type == typ {
			out = append(out, shop)
		}
	}
	return out
}

// AttachEntity links an in-world object to a shop. An object of the same
// kind and data already linked to any shop is rejected.
func (m *Manager) AttachEntity(ctx context.Context, shop *Shop, kind, data string) (*Entity, error) {
	ctx, span := m.tracer.Start(ctx, "Manager.AttachEntity",
		trace.WithAttributes(
			attribute.Int64("shop_id", shop.ID),
			attribute.String("kind", kind),
		),
	)
	defer span.End()

	e := Entity{ShopID: shop.ID, Kind: kind, Data: data}
	exists, err := m.sales.SimilarEntityExists(ctx, e)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEntity
	}

	rec := &store.ShopEntity{ShopID: shop.ID, Kind: kind, Data: data}
	if err := m.entities.Create(ctx, rec); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("persisting shop entity: %w", err)
	}
	e.ID = rec.ID

	m.record(ctx, event.EntityAttached, shop.ID, event.EntityAttachedData{ShopID: shop.ID, Kind: kind, Data: data})
	return &e, nil
}

// Entities returns the in-world objects linked to a shop.
func (m *Manager) Entities(ctx context.Context, shop *Shop) ([]Entity, error) {
	recs, err := m.entities.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("finding entities of shop %d: %w", shop.ID, err)
	}
	out := make([]Entity, len(recs))
	for i, rec := range recs {
		out[i] = entityFrom(rec)
	}
	return out, nil
}

// IsNotFound reports whether err means a sale or record no longer exists.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func (m *Manager) record(ctx context.Context, t event.Type, shopID int64, payload any) {
	data, _ := json.Marshal(payload)
	evt := event.Event{AggregateID: shopAggregate(shopID), Type: t, Data: data}
	if err := m.events.Append(ctx, evt); err != nil {
		telemetry.LogWithTrace(ctx, m.logger).ErrorContext(ctx, "failed to append event",
			slog.String("type", string(t)),
			slog.Any("error", err),
		)
	}
}

func saleData(sale *Sale) event.SaleData {
	d := event.SaleData{
		SaleID:   sale.ID,
		SellerID: sale.SellerUUID().String(),
		Amount:   sale.Item.Amount,
	}
	if shop := sale.Shop(); shop != nil {
		d.ShopID = shop.ID
	}
	if sale.Price.Valid {
		p := sale.Price.Float64
		d.Price = &p
	}
	return d
}

package inventory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/item"
)

// SalesSource supplies a player's active sales of one auction type.
type SalesSource interface {
	SalesOfType(typ auction.Type, player uuid.UUID) []*auction.Sale
}

type tracked struct {
	kind   Kind
	typ    auction.Type
	shopID int64
	viewer uuid.UUID
}

// Manager tracks the open views per auction type. All mutations and refresh
// fan-outs are serialised by one mutex.
type Manager struct {
	titles Titles
	types  *auction.Types
	source SalesSource
	logger *slog.Logger
	open   metric.Int64UpDownCounter

	mu      sync.Mutex
	sell    map[auction.Type]map[uuid.UUID]View
	buy     map[auction.Type]map[uuid.UUID]View
	views   map[View]tracked
	current map[uuid.UUID]View
}

// NewManager returns a Manager with no open views.
func NewManager(titles Titles, types *auction.Types, source SalesSource, logger *slog.Logger, mp metric.MeterProvider) *Manager {
	open, err := mp.Meter("github.com/jensholdgaard/auction-house/internal/inventory").
		Int64UpDownCounter("auction.views.open", metric.WithDescription("Auction views currently open."))
	if err != nil {
		logger.Warn("creating open views counter", slog.Any("error", err))
		open = noop.Int64UpDownCounter{}
	}
	return &Manager{
		titles:  titles,
		types:   types,
		source:  source,
		logger:  logger,
		open:    open,
		sell:    make(map[auction.Type]map[uuid.UUID]View),
		buy:     make(map[auction.Type]map[uuid.UUID]View),
		views:   make(map[View]tracked),
		current: make(map[uuid.UUID]View),
	}
}

// Titles returns the view titles.
func (m *Manager) Titles() Titles { return m.titles }

// OpenMenu shows the root menu of an auction type listing its shops.
func (m *Manager) OpenMenu(viewer Viewer, typ auction.Type, shops []*auction.Shop) View {
	stacks := make([]item.Stack, len(shops))
	for i, shop := range shops {
		stacks[i] = shop.RefItem()
	}
	v := viewer.NewView(KindMenu, m.titles.Base)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.show(viewer, v, tracked{kind: KindMenu, typ: typ, viewer: viewer.UUID()})
	v.SetContents(stacks)
	return v
}

// OpenSell shows the player's sales of one auction type.
func (m *Manager) OpenSell(viewer Viewer, typ auction.Type, sales []*auction.Sale) View {
	v := viewer.NewView(KindSell, m.titles.Sell)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.show(viewer, v, tracked{kind: KindSell, typ: typ, viewer: viewer.UUID()})
	v.SetContents(contents(sales))
	return v
}

// OpenBuy shows every active sale of a shop.
func (m *Manager) OpenBuy(viewer Viewer, shop *auction.Shop) View {
	v := viewer.NewView(KindBuy, m.titles.Buy)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.show(viewer, v, tracked{kind: KindBuy, typ: shop.Type, shopID: shop.ID, viewer: viewer.UUID()})
	v.SetContents(contents(shop.Sales()))
	return v
}

// show registers v, dropping whatever the viewer had open, and presents it.
func (m *Manager) show(viewer Viewer, v View, t tracked) {
	if prev, ok := m.current[t.viewer]; ok {
		m.untrack(prev)
	}

	var forward map[auction.Type]map[uuid.UUID]View
	switch t.kind {
	case KindSell:
		forward = m.sell
	case KindBuy:
		forward = m.buy
	}
	if forward != nil {
		byPlayer, ok := forward[t.typ]
		if !ok {
			byPlayer = make(map[uuid.UUID]View)
			forward[t.typ] = byPlayer
		}
		byPlayer[t.viewer] = v
	}
	m.views[v] = t
	m.current[t.viewer] = v
	m.open.Add(context.Background(), 1, metric.WithAttributes(attribute.String("kind", t.kind.String())))

	viewer.Show(v)
}

// untrack forgets v. The caller holds m.mu.
func (m *Manager) untrack(v View) bool {
	t, ok := m.views[v]
	if !ok {
		return false
	}
	delete(m.views, v)

	var forward map[auction.Type]map[uuid.UUID]View
	switch t.kind {
	case KindSell:
		forward = m.sell
	case KindBuy:
		forward = m.buy
	}
	if byPlayer, ok := forward[t.typ]; ok && byPlayer[t.viewer] == v {
		delete(byPlayer, t.viewer)
		if len(byPlayer) == 0 {
			delete(forward, t.typ)
		}
	}
	if m.current[t.viewer] == v {
		delete(m.current, t.viewer)
	}
	m.open.Add(context.Background(), -1, metric.WithAttributes(attribute.String("kind", t.kind.String())))
	return true
}

// OnSaleChanged refreshes after a sale was listed, priced or withdrawn at
// shop: the seller's sell view shows sellerSales and every buy view of the
// shop shows its current sales. Buy views of other shops of the same
// auction type list none of this shop's sales and are left untouched.
func (m *Manager) OnSaleChanged(seller uuid.UUID, shop *auction.Shop, sellerSales []*auction.Sale) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.sell[shop.Type][seller]; ok {
		v.SetContents(contents(sellerSales))
	}
	m.refreshBuy(shop)
}

// OnPurchase refreshes after a sale of shop was bought: every buy view of
// the shop, including the buyer's, and every sell view of the shop's type,
// since the seller's remaining stock changed. Only buy views of this shop
// are refreshed, not every buy view of the type.
func (m *Manager) OnPurchase(shop *auction.Shop) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refreshBuy(shop)
	for player, v := range m.sell[shop.Type] {
		v.SetContents(contents(m.source.SalesOfType(shop.Type, player)))
	}
}

func (m *Manager) refreshBuy(shop *auction.Shop) {
	byPlayer := m.buy[shop.Type]
	if len(byPlayer) == 0 {
		return
	}
	stacks := contents(shop.Sales())
	for _, v := range byPlayer {
		if m.views[v].shopID == shop.ID {
			v.SetContents(stacks)
		}
	}
}

// OnViewClosed forgets a closed view. Views this manager does not track
// are ignored.
func (m *Manager) OnViewClosed(v View, viewer uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.views[v]
	if !ok || t.viewer != viewer {
		return
	}
	m.untrack(v)
	m.logger.Debug("auction view closed",
		slog.String("player", viewer.String()),
		slog.String("kind", t.kind.String()),
	)
}

// CheckSell reports whether stack may be listed from the sell view v: the
// view must be an open sell view and the item must belong to its type.
func (m *Manager) CheckSell(v View, stack item.Stack) bool {
	m.mu.Lock()
	t, ok := m.views[v]
	m.mu.Unlock()
	return ok && t.kind == KindSell && m.types.Of(item.KeyFor(stack)) == t.typ
}

// Kind returns the kind of a tracked view.
func (m *Manager) Kind(v View) (Kind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.views[v]
	return t.kind, ok
}

// TypeOf returns the auction type of a tracked view.
func (m *Manager) TypeOf(v View) (auction.Type, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.views[v]
	return t.typ, ok
}

// IsAuctionView reports whether v is tracked by this manager.
func (m *Manager) IsAuctionView(v View) bool {
	_, ok := m.Kind(v)
	return ok
}

// IsMenu reports whether v is an open root menu.
func (m *Manager) IsMenu(v View) bool { return m.is(v, KindMenu) }

// IsSell reports whether v is an open sell view.
func (m *Manager) IsSell(v View) bool { return m.is(v, KindSell) }

// IsBuy reports whether v is an open buy view.
func (m *Manager) IsBuy(v View) bool { return m.is(v, KindBuy) }

func (m *Manager) is(v View, k Kind) bool {
	got, ok := m.Kind(v)
	return ok && got == k
}

// SellView returns the open sell view of a player for a type.
func (m *Manager) SellView(typ auction.Type, player uuid.UUID) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.sell[typ][player]
	return v, ok
}

// BuyView returns the open buy view of a player for a type.
func (m *Manager) BuyView(typ auction.Type, player uuid.UUID) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.buy[typ][player]
	return v, ok
}

// Tracked returns the number of tracked views.
func (m *Manager) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

func contents(sales []*auction.Sale) []item.Stack {
	stacks := make([]item.Stack, len(sales))
	for i, sale := range sales {
		stacks[i] = sale.TradeStack()
	}
	return stacks
}

package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"github.com/jensholdgaard/auction-house/internal/event"
	"github.com/jensholdgaard/auction-house/internal/item"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// Registry owns the live Shop singletons, indexed by key and by id. It is
// the only place shops are created.
type Registry struct {
	shops  store.ShopRepository
	events event.Store
	types  *Types
	logger *slog.Logger

	created metric.Int64Counter
	group   singleflight.Group

	mu    sync.RWMutex
	byKey map[item.Key]*Shop
	byID  map[int64]*Shop
}

// NewRegistry returns an empty Registry.
func NewRegistry(shops store.ShopRepository, events event.Store, types *Types, logger *slog.Logger, mp metric.MeterProvider) *Registry {
	meter := mp.Meter("github.com/jensholdgaard/auction-house/internal/auction")
	created, err := meter.Int64Counter("auction.shops.created",
		metric.WithDescription("Shops created for previously unseen item keys."))
	if err != nil {
		logger.Warn("creating shops counter", slog.Any("error", err))
		created = noop.Int64Counter{}
	}
	return &Registry{
		shops:   shops,
		events:  events,
		types:   types,
		logger:  logger,
		created: created,
		byKey:   make(map[item.Key]*Shop),
		byID:    make(map[int64]*Shop),
	}
}

// Types returns the classifier used for new shops.
func (r *Registry) Types() *Types { return r.types }

// GetOrCreate returns the shop for the stack's key, creating and persisting
// it on first reference. Concurrent callers for the same unseen key share
// one creation and receive the same *Shop.
func (r *Registry) GetOrCreate(ctx context.Context, stack item.Stack) (*Shop, error) {
	key := item.KeyFor(stack)
	if shop, ok := r.ByKey(key); ok {
		return shop, nil
	}

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		if shop, ok := r.ByKey(key); ok {
			return shop, nil
		}

		typ := r.types.Of(key)
		rec := &store.Shop{Material: key.Material, Variant: key.Variant, AuctionType: string(typ)}
		if err := r.shops.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("creating shop %s: %w", key, err)
		}
		shop := newShop(*rec, typ)
		r.Register(shop)
		r.created.Add(ctx, 1)

		data, _ := json.Marshal(event.ShopCreatedData{
			ShopID:      shop.ID,
			Key:         key.String(),
			AuctionType: string(typ),
		})
		evt := event.Event{AggregateID: shopAggregate(shop.ID), Type: event.ShopCreated, Data: data}
		if err := r.events.Append(ctx, evt); err != nil {
			r.logger.ErrorContext(ctx, "failed to append shop created event", slog.Any("error", err))
		}

		r.logger.InfoContext(ctx, "shop created",
			slog.Int64("shop_id", shop.ID),
			slog.String("key", key.String()),
			slog.String("type", string(typ)),
		)
		return shop, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Shop), nil
}

// Register admits a shop into both indices, replacing any shop previously
// registered under the same key or id.
func (r *Registry) Register(shop *Shop) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byKey[shop.Key]; ok && old.ID != shop.ID {
		delete(r.byID, old.ID)
	}
	r.byKey[shop.Key] = shop
	r.byID[shop.ID] = shop
}

// ByID returns the live shop with the given id.
func (r *Registry) ByID(id int64) (*Shop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shop, ok := r.byID[id]
	return shop, ok
}

// ByKey returns the live shop for the key.
func (r *Registry) ByKey(key item.Key) (*Shop, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shop, ok := r.byKey[key]
	return shop, ok
}

// List returns every persisted shop.
func (r *Registry) List(ctx context.Context) ([]store.Shop, error) {
	shops, err := r.shops.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing shops: %w", err)
	}
	return shops, nil
}

// Loaded returns the shops currently in memory ordered by id.
func (r *Registry) Loaded() []*Shop {
	r.mu.RLock()
	out := make([]*Shop, 0, len(r.byID))
	for _, shop := range r.byID {
		out = append(out, shop)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load replaces the in-memory indices with fresh singletons for every
// persisted shop. Shops handed out before a Load are stale afterwards.
func (r *Registry) Load(ctx context.Context) (int, error) {
	recs, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	byKey := make(map[item.Key]*Shop, len(recs))
	byID := make(map[int64]*Shop, len(recs))
	for _, rec := range recs {
		typ := r.types.Of(rec.Key())
		if rec.AuctionType != string(typ) {
			r.logger.InfoContext(ctx, "shop reclassified",
				slog.Int64("shop_id", rec.ID),
				slog.String("from", rec.AuctionType),
				slog.String("to", string(typ)),
			)
		}
		shop := newShop(rec, typ)
		byKey[shop.Key] = shop
		byID[shop.ID] = shop
	}

	r.mu.Lock()
	r.byKey = byKey
	r.byID = byID
	r.mu.Unlock()
	return len(recs), nil
}

func shopAggregate(id int64) string {
	return "shop-" + strconv.FormatInt(id, 10)
}

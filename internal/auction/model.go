package auction

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"

	"github.com/jensholdgaard/auction-house/internal/item"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// Identity is a player as the host knows them. Name may be empty when the
// player is offline.
type Identity struct {
	UUID uuid.UUID
	Name string
}

// Player is an auction player record.
type Player struct {
	ID   int64
	UUID uuid.UUID
	Name string
}

func playerFrom(rec store.Player) Player {
	return Player{ID: rec.ID, UUID: rec.UUID, Name: rec.Name}
}

// SellerData is a player's selling relationship with one shop. Shop is the
// live singleton; ShopID is the persisted reference it was resolved from.
type SellerData struct {
	ID     int64
	ShopID int64
	Player Player
	Shop   *Shop
}

// Sale is an item listed for sale.
type Sale struct {
	ID        int64
	Item      item.Stack
	Price     null.Float
	Seller    *SellerData
	CreatedAt time.Time

	trade    item.Stack
	hasTrade bool
}

func saleFrom(rec store.Sale) *Sale {
	return &Sale{
		ID:    rec.ID,
		Item:  rec.Item,
		Price: rec.Price,
		Seller: &SellerData{
			ID:     rec.Seller.ID,
			ShopID: rec.Seller.ShopID,
			Player: playerFrom(rec.Seller.Player),
		},
		CreatedAt: rec.CreatedAt,
	}
}

// TradeStack returns the display stack shown to buyers. It is the zero
// Stack until the sale has been rehydrated.
func (s *Sale) TradeStack() item.Stack {
	return s.trade.Clone()
}

// Displayed reports whether the trade stack has been generated.
func (s *Sale) Displayed() bool { return s.hasTrade }

// Shop returns the live shop of the sale, nil before rehydration.
func (s *Sale) Shop() *Shop {
	if s.Seller == nil {
		return nil
	}
	return s.Seller.Shop
}

// Type returns the auction type of the sale's shop.
func (s *Sale) Type() Type {
	if shop := s.Shop(); shop != nil {
		return shop.Type
	}
	return ""
}

// SellerUUID returns the identity of the seller.
func (s *Sale) SellerUUID() uuid.UUID {
	if s.Seller == nil {
		return uuid.Nil
	}
	return s.Seller.Player.UUID
}

// Shop holds all trade activity for one canonical item key. The live sale
// set is safe for concurrent use.
type Shop struct {
	ID        int64
	Key       item.Key
	Type      Type
	CreatedAt time.Time

	mu    sync.RWMutex
	sales map[int64]*Sale
}

func newShop(rec store.Shop, typ Type) *Shop {
	return &Shop{
		ID:        rec.ID,
		Key:       rec.Key(),
		Type:      typ,
		CreatedAt: rec.CreatedAt,
		sales:     make(map[int64]*Sale),
	}
}

// RefItem returns the reference item of the shop.
func (s *Shop) RefItem() item.Stack { return s.Key.Stack() }

// Sales returns the active sales ordered by id.
func (s *Shop) Sales() []*Sale {
	s.mu.RLock()
	out := make([]*Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SalesOf returns the active sales of one seller ordered by id.
func (s *Shop) SalesOf(player uuid.UUID) []*Sale {
	var out []*Sale
	for _, sale := range s.Sales() {
		if sale.SellerUUID() == player {
			out = append(out, sale)
		}
	}
	return out
}

// Len returns the number of active sales.
func (s *Shop) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sales)
}

// put adds or replaces a sale in the live set.
func (s *Shop) put(sale *Sale) {
	s.mu.Lock()
	s.sales[sale.ID] = sale
	s.mu.Unlock()
}

func (s *Shop) remove(id int64) {
	s.mu.Lock()
	delete(s.sales, id)
	s.mu.Unlock()
}

func (s *Shop) reset(sales []*Sale) {
	m := make(map[int64]*Sale, len(sales))
	for _, sale := range sales {
		m[sale.ID] = sale
	}
	s.mu.Lock()
	s.sales = m
	s.mu.Unlock()
}

// Entity links an in-world object (sign, block, villager) to a shop.
type Entity struct {
	ID     int64
	ShopID int64
	Kind   string
	Data   string
}

func entityFrom(rec store.ShopEntity) Entity {
	return Entity{ID: rec.ID, ShopID: rec.ShopID, Kind: rec.Kind, Data: rec.Data}
}

package auction

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jensholdgaard/auction-house/internal/item"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// Sales queries persisted sales. Every sale it returns has been rehydrated.
type Sales struct {
	repo     store.SaleRepository
	entities store.ShopEntityRepository
	registry *Registry
	display  *Display
}

// NewSales returns a new Sales store.
func NewSales(repo store.SaleRepository, entities store.ShopEntityRepository, registry *Registry, display *Display) *Sales {
	return &Sales{repo: repo, entities: entities, registry: registry, display: display}
}

// Rehydrate binds the sale's seller data to the live shop singleton and
// regenerates its trade stack. It must run on every sale built from a
// persisted record before the sale is used.
func (s *Sales) Rehydrate(sale *Sale) error {
	if sale == nil || sale.Seller == nil {
		return nil
	}
	shop, ok := s.registry.ByID(sale.Seller.ShopID)
	if !ok {
		return fmt.Errorf("sale %d of shop %d: %w", sale.ID, sale.Seller.ShopID, ErrShopNotLoaded)
	}
	sale.Seller.Shop = shop
	s.display.Refresh(sale)
	return nil
}

// ByShop returns the persisted sales of a shop.
func (s *Sales) ByShop(ctx context.Context, shop *Shop) ([]*Sale, error) {
	recs, err := s.repo.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("finding sales of shop %d: %w", shop.ID, err)
	}
	return s.load(recs)
}

// BySeller returns the persisted sales of one seller data.
func (s *Sales) BySeller(ctx context.Context, sd *SellerData) ([]*Sale, error) {
	recs, err := s.repo.ListBySellerData(ctx, sd.ID)
	if err != nil {
		return nil, fmt.Errorf("finding sales of seller data %d: %w", sd.ID, err)
	}
	return s.load(recs)
}

// OfPlayerAtShop returns a player's persisted sales at a shop.
func (s *Sales) OfPlayerAtShop(ctx context.Context, shop *Shop, player uuid.UUID) ([]*Sale, error) {
	recs, err := s.repo.ListByPlayerAtShop(ctx, player, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("finding sales of %s at shop %d: %w", player, shop.ID, err)
	}
	return s.load(recs)
}

// ByID returns one sale. A missing sale wraps store.ErrNotFound.
func (s *Sales) ByID(ctx context.Context, id int64) (*Sale, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding sale %d: %w", id, err)
	}
	sale := saleFrom(*rec)
	if err := s.Rehydrate(sale); err != nil {
		return nil, err
	}
	return sale, nil
}

// FromTradeStack recovers the sale a trade stack was generated for.
func (s *Sales) FromTradeStack(ctx context.Context, stack item.Stack) (*Sale, error) {
	id, err := ParseToken(stack)
	if err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

// SimilarEntityExists reports whether an entity of the same kind with the
// same data is already registered, whatever its shop.
func (s *Sales) SimilarEntityExists(ctx context.Context, e Entity) (bool, error) {
	n, err := s.entities.CountSimilar(ctx, e.Kind, e.Data)
	if err != nil {
		return false, fmt.Errorf("checking similar entity: %w", err)
	}
	return n > 0, nil
}

func (s *Sales) load(recs []store.Sale) ([]*Sale, error) {
	sales := make([]*Sale, 0, len(recs))
	for _, rec := range recs {
		sale := saleFrom(rec)
		if err := s.Rehydrate(sale); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, nil
}

package auction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jensholdgaard/auction-house/internal/store"
)

// Sellers resolves auction players and their per-shop seller data.
type Sellers struct {
	players store.PlayerRepository
	sellers store.SellerDataRepository
	logger  *slog.Logger
}

// NewSellers returns a new Sellers resolver.
func NewSellers(players store.PlayerRepository, sellers store.SellerDataRepository, logger *slog.Logger) *Sellers {
	return &Sellers{players: players, sellers: sellers, logger: logger}
}

// FindOrCreatePlayer returns the auction player for ident, creating it on
// first interaction. A changed display name is written back.
func (s *Sellers) FindOrCreatePlayer(ctx context.Context, ident Identity) (*Player, error) {
	rec, err := s.players.GetByUUID(ctx, ident.UUID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rec = &store.Player{UUID: ident.UUID, Name: ident.Name}
		if err := s.players.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("creating auction player %s: %w", ident.UUID, err)
		}
		s.logger.InfoContext(ctx, "auction player created",
			slog.String("player", ident.UUID.String()),
			slog.String("name", ident.Name),
		)
	case err != nil:
		return nil, fmt.Errorf("finding auction player %s: %w", ident.UUID, err)
	}

	p := playerFrom(*rec)
	if err := s.rename(ctx, &p, ident.Name); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindOrCreate returns the seller data of ident at shop. A found record is
// always re-bound to the passed live shop.
func (s *Sellers) FindOrCreate(ctx context.Context, ident Identity, shop *Shop) (*SellerData, error) {
	rec, err := s.sellers.Find(ctx, ident.UUID, shop.ID)
	if err == nil {
		p := playerFrom(rec.Player)
		if err := s.rename(ctx, &p, ident.Name); err != nil {
			return nil, err
		}
		return &SellerData{ID: rec.ID, ShopID: shop.ID, Player: p, Shop: shop}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("finding seller data: %w", err)
	}

	p, err := s.FindOrCreatePlayer(ctx, ident)
	if err != nil {
		return nil, err
	}
	rec = &store.SellerData{PlayerID: p.ID, ShopID: shop.ID}
	if err := s.sellers.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating seller data: %w", err)
	}
	return &SellerData{ID: rec.ID, ShopID: shop.ID, Player: *p, Shop: shop}, nil
}

func (s *Sellers) rename(ctx context.Context, p *Player, name string) error {
	if name == "" || name == p.Name {
		return nil
	}
	if err := s.players.UpdateName(ctx, p.ID, name); err != nil {
		return fmt.Errorf("renaming auction player %s: %w", p.UUID, err)
	}
	p.Name = name
	return nil
}

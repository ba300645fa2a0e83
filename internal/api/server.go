// Package api exposes the auction house over HTTP: a read-only JSON API and
// a websocket endpoint through which game hosts drive the inventory views.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/inventory"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// Balances reads player balances.
type Balances interface {
	Balance(ctx context.Context, player uuid.UUID) (float64, error)
}

// Server serves the auction house API.
type Server struct {
	market   *auction.Manager
	views    *inventory.Manager
	balances Balances
	money    auction.PriceFormatter
	log      *slog.Logger
	mux      *chi.Mux
	upgrader websocket.Upgrader

	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration
}

// New returns a Server with its routes mounted.
func New(market *auction.Manager, views *inventory.Manager, balances Balances, money auction.PriceFormatter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		market:   market,
		views:    views,
		balances: balances,
		money:    money,
		log:      logger,
		mux:      chi.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		WriteTimeout: 5 * time.Second,
	}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Mount attaches an extra handler, such as health checks, to the router.
func (s *Server) Mount(pattern string, h http.HandlerFunc) {
	s.mux.Get(pattern, h)
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleSession)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(s.readyMiddleware)
		r.Get("/types", s.handleTypes)
		r.Get("/shops", s.handleShops)
		r.Get("/shops/{id}/sales", s.handleShopSales)
		r.Get("/players/{uuid}/sales", s.handlePlayerSales)
		r.Get("/players/{uuid}/balance", s.handleBalance)
	})
}

func (s *Server) readyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.market.Ready() {
			writeError(w, http.StatusServiceUnavailable, "auction house is loading")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleTypes(w http.ResponseWriter, _ *http.Request) {
	types := s.market.Types()
	out := make([]string, 0)
	for _, t := range types.All() {
		out = append(out, string(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default": string(types.Default()),
		"types":   out,
	})
}

func (s *Server) handleShops(w http.ResponseWriter, r *http.Request) {
	var shops []*auction.Shop
	if name := r.URL.Query().Get("type"); name != "" {
		typ, ok := s.market.Types().Parse(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown auction type "+name)
			return
		}
		shops = s.market.ShopsOfType(typ)
	} else {
		shops = s.market.Registry().Loaded()
	}

	out := make([]ShopResponse, len(shops))
	for i, shop := range shops {
		out[i] = ShopResponse{
			ID:       shop.ID,
			Material: shop.Key.Material,
			Variant:  shop.Key.Variant,
			Type:     string(shop.Type),
			Sales:    shop.Len(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleShopSales(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shop id")
		return
	}
	shop, ok := s.market.Registry().ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "shop not found")
		return
	}
	writeJSON(w, http.StatusOK, s.saleResponses(shop.Sales()))
}

func (s *Server) handlePlayerSales(w http.ResponseWriter, r *http.Request) {
	player, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player uuid")
		return
	}

	types := s.market.Types().All()
	if name := r.URL.Query().Get("type"); name != "" {
		typ, ok := s.market.Types().Parse(name)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown auction type "+name)
			return
		}
		types = []auction.Type{typ}
	}

	var sales []*auction.Sale
	for _, typ := range types {
		sales = append(sales, s.market.SalesOfType(typ, player)...)
	}
	writeJSON(w, http.StatusOK, s.saleResponses(sales))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	player, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player uuid")
		return
	}
	balance, err := s.balances.Balance(r.Context(), player)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Player:  player.String(),
		Balance: balance,
		Display: s.money.Format(balance),
	})
}

func (s *Server) saleResponses(sales []*auction.Sale) []SaleResponse {
	out := make([]SaleResponse, len(sales))
	for i, sale := range sales {
		resp := SaleResponse{
			ID:        sale.ID,
			Item:      sale.Item,
			Price:     sale.Price,
			SellerID:  sale.SellerUUID().String(),
			CreatedAt: sale.CreatedAt.UTC().Format(time.RFC3339),
		}
		if sale.Seller != nil {
			resp.Seller = sale.Seller.Player.Name
		}
		if shop := sale.Shop(); shop != nil {
			resp.ShopID = shop.ID
		}
		if sale.Price.Valid {
			resp.Display = s.money.Format(sale.Price.Float64)
		}
		out[i] = resp
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

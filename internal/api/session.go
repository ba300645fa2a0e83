package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jensholdgaard/auction-house/internal/auction"
	"github.com/jensholdgaard/auction-house/internal/inventory"
	"github.com/jensholdgaard/auction-house/internal/item"
)

const (
	sessionBuffer  = 64
	maxFrameSize   = 64 << 10
	pingInterval   = 30 * time.Second
	requestTimeout = 10 * time.Second
)

var errNoItem = errors.New("request carries no item")

// session is one connected player. It implements inventory.Viewer.
type session struct {
	srv   *Server
	conn  *websocket.Conn
	ident auction.Identity
	log   *slog.Logger

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Write serialization
	writeMu sync.Mutex

	nextView atomic.Int64
	mu       sync.Mutex
	current  *sessionView
}

// sessionView is a view shown on a session's client.
type sessionView struct {
	s     *session
	id    int64
	kind  inventory.Kind
	title string
}

// SetContents pushes the view's new contents to the client.
func (v *sessionView) SetContents(stacks []item.Stack) {
	if stacks == nil {
		stacks = []item.Stack{}
	}
	v.s.send(Frame{Frame: FrameContents, View: v.id, Items: stacks})
}

func (s *session) UUID() uuid.UUID { return s.ident.UUID }

func (s *session) NewView(kind inventory.Kind, title string) inventory.View {
	return &sessionView{s: s, id: s.nextView.Add(1), kind: kind, title: title}
}

func (s *session) Show(v inventory.View) {
	sv, ok := v.(*sessionView)
	if !ok {
		return
	}
	s.mu.Lock()
	s.current = sv
	s.mu.Unlock()
	s.send(Frame{Frame: FrameOpen, View: sv.id, Kind: sv.kind.String(), Title: sv.title})
}

func (s *session) currentView() *sessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// handleSession upgrades the request to a websocket bound to the player
// named by the uuid and name query parameters.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("uuid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player uuid")
		return
	}
	if !s.market.Ready() {
		writeError(w, http.StatusServiceUnavailable, "auction house is loading")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	sess := &session{
		srv:   s,
		conn:  conn,
		ident: auction.Identity{UUID: id, Name: strings.TrimSpace(r.URL.Query().Get("name"))},
		log:   s.log.With(slog.String("player", id.String())),
		out:   make(chan []byte, sessionBuffer),
		done:  make(chan struct{}),
	}
	sess.log.Debug("session opened")

	go sess.writeLoop()
	sess.readLoop()
}

// readLoop handles client frames until the connection fails.
func (s *session) readLoop() {
	defer s.close()

	s.conn.SetReadLimit(maxFrameSize)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("session read failed", slog.Any("error", err))
			}
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.send(Frame{Frame: FrameError, Error: "malformed request: " + err.Error()})
			continue
		}
		if err := s.handle(req); err != nil {
			s.send(Frame{Frame: FrameError, Op: req.Op, Error: err.Error()})
		}
	}
}

// writeLoop drains the outbound queue and keeps the connection alive.
func (s *session) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case data := <-s.out:
			if err := s.write(websocket.TextMessage, data); err != nil {
				s.log.Debug("session write failed", slog.Any("error", err))
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, []byte("keepalive")); err != nil {
				s.log.Debug("failed to send ping", slog.Any("error", err))
				s.close()
				return
			}
		}
	}
}

func (s *session) write(kind int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.srv.WriteTimeout))
	return s.conn.WriteMessage(kind, data)
}

// send queues a frame. It never blocks: refreshes are fanned out under the
// inventory lock.
func (s *session) send(f Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		s.log.Error("encoding frame", slog.Any("error", err))
		return
	}
	select {
	case <-s.done:
	case s.out <- data:
	default:
		s.log.Warn("session buffer full, dropping frame", slog.String("frame", f.Frame))
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		if v := s.currentView(); v != nil {
			s.srv.views.OnViewClosed(v, s.ident.UUID)
		}
		close(s.done)

		s.writeMu.Lock()
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.writeMu.Unlock()
		s.conn.Close()
		s.log.Debug("session closed")
	})
}

func (s *session) handle(req Request) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	market, views := s.srv.market, s.srv.views
	switch req.Op {
	case OpMenu:
		typ, err := s.parseType(req.Type)
		if err != nil {
			return err
		}
		views.OpenMenu(s, typ, market.ShopsOfType(typ))

	case OpOpenSell:
		typ, err := s.parseType(req.Type)
		if err != nil {
			return err
		}
		views.OpenSell(s, typ, market.SalesOfType(typ, s.ident.UUID))

	case OpOpenBuy:
		shop, ok := market.Registry().ByID(req.ShopID)
		if !ok {
			return auction.ErrShopNotLoaded
		}
		views.OpenBuy(s, shop)

	case OpSell:
		if req.Item == nil {
			return errNoItem
		}
		v := s.currentView()
		if v == nil || !views.CheckSell(v, *req.Item) {
			return auction.ErrWrongType
		}
		sale, err := market.ListItem(ctx, s.ident, *req.Item, req.Price)
		if err != nil {
			return err
		}
		s.saleChanged(sale)

	case OpPrice:
		sale, err := market.SetPrice(ctx, s.ident, req.SaleID, req.Price)
		if err != nil {
			return err
		}
		s.saleChanged(sale)

	case OpWithdraw:
		sale, err := market.Withdraw(ctx, s.ident, req.SaleID)
		if err != nil {
			return err
		}
		s.saleChanged(sale)
		s.give(sale.Item)

	case OpBuy:
		var (
			sale *auction.Sale
			err  error
		)
		if req.Item != nil {
			sale, err = market.BuyStack(ctx, s.ident, *req.Item)
		} else {
			sale, err = market.Buy(ctx, s.ident, req.SaleID)
		}
		if err != nil {
			return err
		}
		views.OnPurchase(sale.Shop())
		s.give(sale.Item)

	case OpClose:
		if v := s.currentView(); v != nil {
			views.OnViewClosed(v, s.ident.UUID)
			s.mu.Lock()
			if s.current == v {
				s.current = nil
			}
			s.mu.Unlock()
		}

	default:
		return errors.New("unknown op " + req.Op)
	}
	return nil
}

func (s *session) parseType(name string) (auction.Type, error) {
	typ, ok := s.srv.market.Types().Parse(name)
	if !ok {
		return "", errors.New("unknown auction type " + name)
	}
	return typ, nil
}

// saleChanged refreshes the views affected by a change to one of the
// player's own sales.
func (s *session) saleChanged(sale *auction.Sale) {
	s.srv.views.OnSaleChanged(s.ident.UUID, sale.Shop(), s.srv.market.SalesOfType(sale.Type(), s.ident.UUID))
}

func (s *session) give(stack item.Stack) {
	s.send(Frame{Frame: FrameItem, Item: &stack})
}

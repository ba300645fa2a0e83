// Package economy moves currency between auction players and formats
// amounts for display.
package economy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/auction-house/internal/event"
	"github.com/jensholdgaard/auction-house/internal/store"
	"github.com/jensholdgaard/auction-house/internal/telemetry"
)

// ErrInvalidAmount is returned for zero or negative amounts.
var ErrInvalidAmount = errors.New("amount must be positive")

// Ledger handles balance operations.
type Ledger struct {
	players store.PlayerRepository
	events  event.Store
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewLedger returns a new Ledger.
func NewLedger(players store.PlayerRepository, events event.Store, logger *slog.Logger, tp trace.TracerProvider) *Ledger {
	return &Ledger{
		players: players,
		events:  events,
		logger:  logger,
		tracer:  tp.Tracer("github.com/jensholdgaard/auction-house/internal/economy"),
	}
}

// Deposit credits amount to a player.
func (l *Ledger) Deposit(ctx context.Context, player uuid.UUID, amount float64) error {
	ctx, span := l.tracer.Start(ctx, "Ledger.Deposit",
		trace.WithAttributes(
			attribute.String("player", player.String()),
			attribute.Float64("amount", amount),
		),
	)
	defer span.End()

	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := l.players.Deposit(ctx, player, amount); err != nil {
		return fmt.Errorf("depositing: %w", err)
	}

	l.record(ctx, event.BalanceDeposited, event.BalanceData{To: player.String(), Amount: amount})
	l.logger.InfoContext(ctx, "balance deposited",
		slog.String("player", player.String()),
		slog.Float64("amount", amount),
	)
	return nil
}

// Transfer moves amount from one player to another. It fails with
// store.ErrInsufficientFunds when the payer cannot cover it.
func (l *Ledger) Transfer(ctx context.Context, from, to uuid.UUID, amount float64) error {
	ctx, span := l.tracer.Start(ctx, "Ledger.Transfer",
		trace.WithAttributes(
			attribute.String("from", from.String()),
			attribute.String("to", to.String()),
			attribute.Float64("amount", amount),
		),
	)
	defer span.End()

	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := l.players.Transfer(ctx, from, to, amount); err != nil {
		return fmt.Errorf("transferring: %w", err)
	}

	l.record(ctx, event.BalanceTransferred, event.BalanceData{From: from.String(), To: to.String(), Amount: amount})
	l.logger.InfoContext(ctx, "balance transferred",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Float64("amount", amount),
	)
	return nil
}

// Balance returns a player's current balance.
func (l *Ledger) Balance(ctx context.Context, player uuid.UUID) (float64, error) {
	ctx, span := l.tracer.Start(ctx, "Ledger.Balance")
	defer span.End()

	p, err := l.players.GetByUUID(ctx, player)
	if err != nil {
		return 0, fmt.Errorf("getting balance: %w", err)
	}
	return p.Balance, nil
}

func (l *Ledger) record(ctx context.Context, t event.Type, d event.BalanceData) {
	data, _ := json.Marshal(d)
	evt := event.Event{AggregateID: d.To, Type: t, Data: data}
	if err := l.events.Append(ctx, evt); err != nil {
		telemetry.LogWithTrace(ctx, l.logger).ErrorContext(ctx, "failed to append balance event",
			slog.String("type", string(t)),
			slog.Any("error", err),
		)
	}
}

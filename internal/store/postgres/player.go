package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/auction-house/internal/clock"
	"github.com/jensholdgaard/auction-house/internal/store"
)

// PlayerRepo implements store.PlayerRepository with sqlx.
type PlayerRepo struct {
	db    *sqlx.DB
	clock clock.Clock
}

// NewPlayerRepo returns a new PlayerRepo.
func NewPlayerRepo(db *sqlx.DB, clk clock.Clock) *PlayerRepo {
	return &PlayerRepo{db: db, clock: clk}
}

// Create inserts the player. A concurrent insert of the same UUID is adopted
// instead of failing.
func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	now := r.clock.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO auction_players (uuid, name, balance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (uuid) DO UPDATE SET updated_at = EXCLUDED.updated_at
		 RETURNING id, balance, created_at`,
		p.UUID, p.Name, p.Balance, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID, &p.Balance, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating player %s: %w", p.UUID, err)
	}
	return nil
}

func (r *PlayerRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*store.Player, error) {
	var p store.Player
	err := r.db.GetContext(ctx, &p, `SELECT * FROM auction_players WHERE uuid = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting player %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting player %s: %w", id, err)
	}
	return &p, nil
}

func (r *PlayerRepo) UpdateName(ctx context.Context, id int64, name string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE auction_players SET name = $1, updated_at = $2 WHERE id = $3`,
		name, r.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating player name: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("player %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *PlayerRepo) Deposit(ctx context.Context, id uuid.UUID, amount float64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE auction_players SET balance = balance + $1, updated_at = $2 WHERE uuid = $3`,
		amount, r.clock.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("depositing to %s: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("player %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *PlayerRepo) Transfer(ctx context.Context, from, to uuid.UUID, amount float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE auction_players SET balance = balance - $1, updated_at = $2
		 WHERE uuid = $3 AND balance >= $1`,
		amount, now, from,
	)
	if err != nil {
		return fmt.Errorf("debiting %s: %w", from, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("debiting %s: %w", from, store.ErrInsufficientFunds)
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE auction_players SET balance = balance + $1, updated_at = $2 WHERE uuid = $3`,
		amount, now, to,
	)
	if err != nil {
		return fmt.Errorf("crediting %s: %w", to, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("crediting %s: %w", to, store.ErrNotFound)
	}

	return tx.Commit()
}

package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jensholdgaard/auction-house/internal/store"
)

// PlayerRepo implements store.PlayerRepository with gorm.
type PlayerRepo struct {
	db *gorm.DB
}

// Create inserts the player. A concurrent insert of the same UUID is adopted
// instead of failing.
func (r *PlayerRepo) Create(ctx context.Context, p *store.Player) error {
	m := playerModel{UUID: p.UUID, Name: p.Name, Balance: p.Balance}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uuid"}},
		DoNothing: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("creating player: %w", err)
	}
	got, err := r.GetByUUID(ctx, p.UUID)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

func (r *PlayerRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*store.Player, error) {
	var m playerModel
	err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("getting player %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting player %s: %w", id, err)
	}
	p := m.record()
	return &p, nil
}

func (r *PlayerRepo) UpdateName(ctx context.Context, id int64, name string) error {
	res := r.db.WithContext(ctx).Model(&playerModel{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return fmt.Errorf("renaming player %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("player %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *PlayerRepo) Deposit(ctx context.Context, id uuid.UUID, amount float64) error {
	res := r.db.WithContext(ctx).Model(&playerModel{}).Where("uuid = ?", id).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("depositing to %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("player %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (r *PlayerRepo) Transfer(ctx context.Context, from, to uuid.UUID, amount float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payer playerModel
		if err := tx.Where("uuid = ?", from).First(&payer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("player %s: %w", from, store.ErrNotFound)
			}
			return fmt.Errorf("reading payer: %w", err)
		}

		res := tx.Model(&playerModel{}).Where("id = ? AND balance >= ?", payer.ID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return fmt.Errorf("debiting %s: %w", from, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("debiting %s: %w", from, store.ErrInsufficientFunds)
		}

		res = tx.Model(&playerModel{}).Where("uuid = ?", to).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return fmt.Errorf("crediting %s: %w", to, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("player %s: %w", to, store.ErrNotFound)
		}
		return nil
	})
}

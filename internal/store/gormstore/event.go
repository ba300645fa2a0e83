package gormstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jensholdgaard/auction-house/internal/event"
)

// EventStore implements event.Store with gorm.
type EventStore struct {
	db *gorm.DB
}

func (s *EventStore) Append(ctx context.Context, events ...event.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]eventModel, len(events))
	for i, e := range events {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		rows[i] = eventModel{ID: id, AggregateID: e.AggregateID, Type: string(e.Type), Data: datatypes.JSON(e.Data)}
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("appending %d events: %w", len(events), err)
	}
	return nil
}

func (s *EventStore) Load(ctx context.Context, aggregateID string) ([]event.Event, error) {
	var rows []eventModel
	if err := s.db.WithContext(ctx).Where("aggregate_id = ?", aggregateID).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	return toEvents(rows), nil
}

func (s *EventStore) LoadByType(ctx context.Context, eventType event.Type) ([]event.Event, error) {
	var rows []eventModel
	if err := s.db.WithContext(ctx).Where("type = ?", string(eventType)).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading events by type: %w", err)
	}
	return toEvents(rows), nil
}

func toEvents(rows []eventModel) []event.Event {
	events := make([]event.Event, len(rows))
	for i, m := range rows {
		events[i] = event.Event{
			ID:          m.ID,
			AggregateID: m.AggregateID,
			Type:        event.Type(m.Type),
			Data:        []byte(m.Data),
			CreatedAt:   m.CreatedAt,
		}
	}
	return events
}

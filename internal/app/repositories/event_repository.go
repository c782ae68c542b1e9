package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/pkg/logger"
)

// EventRepository handles event database operations
type EventRepository struct {
	baseRepository
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{baseRepository: newBase(pool)}
}

// Create stores an event.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	sql, args, err := r.sb.Insert("events").
		Columns("title", "date", "location", "description", "created_by", "created_at").
		Values(e.Title, e.Date, e.Location, e.Description, e.CreatedBy, e.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create event query: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&e.ID); err != nil {
		logger.Error().Err(err).Str("title", e.Title).Msg("Error executing create event query")
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

// List returns events ordered by date, optionally only those from a given time.
func (r *EventRepository) List(ctx context.Context, from *time.Time) ([]*models.Event, error) {
	builder := r.sb.Select("id", "title", "date", "location", "description", "COALESCE(created_by, 0)", "created_at").
		From("events").
		OrderBy("date ASC")
	if from != nil {
		builder = builder.Where("date >= ?", *from)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list events query: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list events query")
		return nil, fmt.Errorf("error listing events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Event, error) {
		e := &models.Event{}
		err := row.Scan(&e.ID, &e.Title, &e.Date, &e.Location, &e.Description, &e.CreatedBy, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning events: %w", err)
	}
	return events, nil
}

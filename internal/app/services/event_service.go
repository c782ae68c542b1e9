package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/app/models/dto"
	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// EventService defines the interface for alumni event announcements
type EventService interface {
	Create(ctx context.Context, adminID int64, req *dto.CreateEventRequest) (*models.Event, error)
	List(ctx context.Context, upcomingOnly bool) ([]*models.Event, error)
}

type eventServiceImpl struct {
	events EventStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(events EventStore, logger zerolog.Logger) EventService {
	return &eventServiceImpl{events: events, logger: logger, now: time.Now}
}

func (s *eventServiceImpl) Create(ctx context.Context, adminID int64, req *dto.CreateEventRequest) (*models.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title", "title is required")
	}
	e := &models.Event{
		Title:       title,
		Date:        req.Date,
		Location:    strings.TrimSpace(req.Location),
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   adminID,
		CreatedAt:   s.now(),
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("adminID", adminID).Int64("eventID", e.ID).Msg("Event created")
	return e, nil
}

// List returns events by date. upcomingOnly hides events that already started.
func (s *eventServiceImpl) List(ctx context.Context, upcomingOnly bool) ([]*models.Event, error) {
	var from *time.Time
	if upcomingOnly {
		now := s.now()
		from = &now
	}
	return s.events.List(ctx, from)
}

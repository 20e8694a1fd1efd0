package service

import (
	"context"
	"time"

	"eventgraph/internal/auth"
	"eventgraph/internal/bus"
	"eventgraph/internal/cache"
	"eventgraph/internal/model"
	"eventgraph/internal/repository"
	"eventgraph/internal/validation"
	apperrors "eventgraph/pkg/app_errors"
	"eventgraph/pkg/logger"

	"go.uber.org/zap"
)

var errDatePast = apperrors.New("Event date must be in the future", apperrors.CodeValidation, 400)

type EventService interface {
	List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	MyEvents(ctx context.Context) ([]*model.Event, error)
	Create(ctx context.Context, input model.CreateEventInput) (*model.Event, error)
	Update(ctx context.Context, id string, input model.UpdateEventInput) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventServiceImpl struct {
	repo    repository.EventRepository
	regRepo repository.RegistrationRepository
	gate    cache.CapacityGate
	events  *bus.Bus
}

func NewEventService(
	repo repository.EventRepository,
	regRepo repository.RegistrationRepository,
	gate cache.CapacityGate,
	events *bus.Bus,
) EventService {
	return &EventServiceImpl{repo: repo, regRepo: regRepo, gate: gate, events: events}
}

func (s *EventServiceImpl) List(ctx context.Context, filter model.EventFilter) ([]*model.Event, error) {
	return s.repo.List(ctx, filter)
}

func (s *EventServiceImpl) Get(ctx context.Context, id string) (*model.Event, error) {
	eventID, err := parseID(id, apperrors.ErrEventNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, eventID)
}

func (s *EventServiceImpl) MyEvents(ctx context.Context) ([]*model.Event, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	organizerID, err := parseID(identity.UserID, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOrganizer(ctx, organizerID)
}

func (s *EventServiceImpl) Create(ctx context.Context, input model.CreateEventInput) (*model.Event, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if !input.Date.After(time.Now()) {
		return nil, errDatePast
	}

	organizerID, err := parseID(identity.UserID, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, &model.Event{
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		Capacity:    input.Capacity,
		OrganizerID: organizerID,
		Status:      model.EventStatusDraft,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(bus.TopicEventCreated, event.ID.String(), event)
	return event, nil
}

func (s *EventServiceImpl) Update(ctx context.Context, id string, input model.UpdateEventInput) (*model.Event, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.Date != nil && !input.Date.After(time.Now()) {
		return nil, errDatePast
	}

	eventID, err := parseID(id, apperrors.ErrEventNotFound)
	if err != nil {
		return nil, err
	}

	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID.String() != identity.UserID && identity.Role != model.RoleAdmin {
		return nil, apperrors.ErrUnauthorized
	}

	updated, err := s.repo.Update(ctx, eventID, input)
	if err != nil {
		return nil, err
	}

	// Publishing an event opens it for registration, and resizing a
	// published one changes the seats on offer; either way the capacity
	// gate is re-warmed with the seats still free.
	published := input.Status != nil && *input.Status == model.EventStatusPublished &&
		event.Status != model.EventStatusPublished
	resized := input.Capacity != nil && *input.Capacity != event.Capacity &&
		updated.Status == model.EventStatusPublished
	if published || resized {
		seats := updated.Capacity - updated.RegistrationsCount
		if seats < 0 {
			seats = 0
		}
		if err := s.gate.Warm(ctx, updated.ID.String(), seats); err != nil {
			logger.WithComponent("service").Warn("failed to warm capacity gate",
				zap.String("event_id", updated.ID.String()), zap.Error(err))
		}
	}

	s.events.Publish(bus.TopicEventUpdated, updated.ID.String(), updated)
	return updated, nil
}

func (s *EventServiceImpl) Delete(ctx context.Context, id string) error {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return err
	}

	eventID, err := parseID(id, apperrors.ErrEventNotFound)
	if err != nil {
		return err
	}

	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID.String() != identity.UserID && identity.Role != model.RoleAdmin {
		return apperrors.ErrUnauthorized
	}

	return s.repo.Delete(ctx, eventID)
}

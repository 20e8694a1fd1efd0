package service

import (
	"context"
	"errors"

	"eventgraph/internal/auth"
	"eventgraph/internal/bus"
	"eventgraph/internal/cache"
	"eventgraph/internal/model"
	"eventgraph/internal/repository"
	"eventgraph/internal/validation"
	apperrors "eventgraph/pkg/app_errors"
	"eventgraph/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxBeginner opens database transactions; satisfied by *pgxpool.Pool.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type RegistrationService interface {
	List(ctx context.Context, eventID, userID *string) ([]*model.Registration, error)
	Get(ctx context.Context, id string) (*model.Registration, error)
	MyRegistrations(ctx context.Context) ([]*model.Registration, error)
	Create(ctx context.Context, input model.CreateRegistrationInput) (*model.Registration, error)
	Update(ctx context.Context, id string, input model.UpdateRegistrationInput) (*model.Registration, error)
	Cancel(ctx context.Context, id string) (*model.Registration, error)
}

type RegistrationServiceImpl struct {
	db        TxBeginner
	repo      repository.RegistrationRepository
	eventRepo repository.EventRepository
	gate      cache.CapacityGate
	events    *bus.Bus
}

func NewRegistrationService(
	db TxBeginner,
	repo repository.RegistrationRepository,
	eventRepo repository.EventRepository,
	gate cache.CapacityGate,
	events *bus.Bus,
) RegistrationService {
	return &RegistrationServiceImpl{
		db:        db,
		repo:      repo,
		eventRepo: eventRepo,
		gate:      gate,
		events:    events,
	}
}

// Create registers the caller for a published event. Capacity is enforced
// twice: the Redis gate bounds the hot path, and the transaction (event row
// lock + live count + insert) is the authority. The partial unique index on
// (user_id, event_id) makes the duplicate guard hold under concurrency.
func (s *RegistrationServiceImpl) Create(ctx context.Context, input model.CreateRegistrationInput) (*model.Registration, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	eventID, err := parseID(input.EventID, apperrors.ErrEventNotFound)
	if err != nil {
		return nil, err
	}
	userID, err := parseID(identity.UserID, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != model.EventStatusPublished {
		return nil, apperrors.ErrEventNotPublished
	}

	if _, err := s.repo.FindByUserAndEvent(ctx, userID, eventID); err == nil {
		return nil, apperrors.ErrAlreadyRegistered
	} else if !errors.Is(err, apperrors.ErrRegistrationNotFound) {
		return nil, err
	}

	reserved, err := s.reserveSeat(ctx, event, userID)
	if err != nil {
		return nil, err
	}

	reg, err := s.insertRegistration(ctx, event, userID, input.Notes)
	if err != nil {
		if reserved {
			// The seat must come back even if the caller gave up; a
			// background context guarantees the rollback runs.
			if rbErr := s.gate.Release(context.Background(), eventID.String(), userID.String()); rbErr != nil {
				logger.WithComponent("service").Error("failed to release reserved seat",
					zap.String("event_id", eventID.String()), zap.Error(rbErr))
			}
		}
		return nil, err
	}

	s.events.Publish(bus.TopicRegistrationCreated, eventID.String(), reg)
	return reg, nil
}

// reserveSeat takes the fast-path reservation. A gate that has never seen
// the event is warmed from a live count and retried once; an unreachable
// gate is logged and skipped, the transaction still enforces capacity.
func (s *RegistrationServiceImpl) reserveSeat(ctx context.Context, event *model.Event, userID uuid.UUID) (bool, error) {
	eventKey := event.ID.String()
	userKey := userID.String()

	err := s.gate.Reserve(ctx, eventKey, userKey)
	if errors.Is(err, cache.ErrNotTracked) {
		count, countErr := s.repo.CountActive(ctx, event.ID)
		if countErr != nil {
			return false, countErr
		}
		seats := event.Capacity - count
		if seats < 0 {
			seats = 0
		}
		if warmErr := s.gate.Warm(ctx, eventKey, seats); warmErr != nil {
			logger.WithComponent("service").Warn("failed to warm capacity gate",
				zap.String("event_id", eventKey), zap.Error(warmErr))
			return false, nil
		}
		err = s.gate.Reserve(ctx, eventKey, userKey)
	}

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperrors.ErrEventFull), errors.Is(err, apperrors.ErrAlreadyRegistered):
		return false, err
	default:
		logger.WithComponent("service").Warn("capacity gate unavailable",
			zap.String("event_id", eventKey), zap.Error(err))
		return false, nil
	}
}

func (s *RegistrationServiceImpl) insertRegistration(ctx context.Context, event *model.Event, userID uuid.UUID, notes *string) (*model.Registration, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, apperrors.Wrap(err, "beginning registration transaction")
	}
	defer tx.Rollback(ctx)

	locked, err := s.eventRepo.FindByIDForUpdate(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountActiveTx(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}
	if count >= locked.Capacity {
		return nil, apperrors.ErrEventFull
	}

	reg, err := s.repo.Create(ctx, tx, &model.Registration{
		UserID:  userID,
		EventID: event.ID,
		Status:  model.RegistrationStatusPending,
		Notes:   notes,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Wrap(err, "committing registration")
	}
	return reg, nil
}

func (s *RegistrationServiceImpl) Update(ctx context.Context, id string, input model.UpdateRegistrationInput) (*model.Registration, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	regID, err := parseID(id, apperrors.ErrRegistrationNotFound)
	if err != nil {
		return nil, err
	}

	reg, err := s.repo.FindByID(ctx, regID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeMutation(ctx, identity, reg); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, regID, input)
	if err != nil {
		return nil, err
	}

	s.syncGate(reg.Status, updated)
	s.events.Publish(bus.TopicRegistrationUpdated, updated.EventID.String(), updated)
	return updated, nil
}

// Cancel is owner-only and unconditional: any prior status, ATTENDED
// included, moves to CANCELLED.
func (s *RegistrationServiceImpl) Cancel(ctx context.Context, id string) (*model.Registration, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	regID, err := parseID(id, apperrors.ErrRegistrationNotFound)
	if err != nil {
		return nil, err
	}

	reg, err := s.repo.FindByID(ctx, regID)
	if err != nil {
		return nil, err
	}
	if reg.UserID.String() != identity.UserID {
		return nil, apperrors.ErrUnauthorized
	}

	updated, err := s.repo.UpdateStatus(ctx, regID, model.RegistrationStatusCancelled)
	if err != nil {
		return nil, err
	}

	s.syncGate(reg.Status, updated)
	s.events.Publish(bus.TopicRegistrationUpdated, updated.EventID.String(), updated)
	return updated, nil
}

// authorizeMutation permits the registration owner, the parent event's
// organizer, and admins.
func (s *RegistrationServiceImpl) authorizeMutation(ctx context.Context, identity auth.Identity, reg *model.Registration) error {
	if reg.UserID.String() == identity.UserID || identity.Role == model.RoleAdmin {
		return nil
	}

	event, err := s.eventRepo.FindByID(ctx, reg.EventID)
	if err == nil && event.OrganizerID.String() == identity.UserID {
		return nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrEventNotFound) {
		return err
	}
	return apperrors.ErrUnauthorized
}

// syncGate keeps the seat inventory aligned with status flips, best effort.
func (s *RegistrationServiceImpl) syncGate(prev model.RegistrationStatus, updated *model.Registration) {
	eventKey := updated.EventID.String()
	userKey := updated.UserID.String()

	switch {
	case prev.HoldsSeat() && !updated.Status.HoldsSeat():
		if err := s.gate.Release(context.Background(), eventKey, userKey); err != nil {
			logger.WithComponent("service").Warn("failed to release seat",
				zap.String("event_id", eventKey), zap.Error(err))
		}
	case !prev.HoldsSeat() && updated.Status.HoldsSeat():
		if err := s.gate.Reserve(context.Background(), eventKey, userKey); err != nil &&
			!errors.Is(err, cache.ErrNotTracked) {
			logger.WithComponent("service").Warn("failed to re-reserve seat",
				zap.String("event_id", eventKey), zap.Error(err))
		}
	}
}

func (s *RegistrationServiceImpl) List(ctx context.Context, eventID, userID *string) ([]*model.Registration, error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}

	var filter model.RegistrationFilter
	if eventID != nil {
		id, err := parseID(*eventID, apperrors.ErrEventNotFound)
		if err != nil {
			return nil, err
		}
		filter.EventID = &id
	}
	if userID != nil {
		id, err := parseID(*userID, apperrors.ErrUserNotFound)
		if err != nil {
			return nil, err
		}
		filter.UserID = &id
	}

	return s.repo.List(ctx, filter)
}

func (s *RegistrationServiceImpl) Get(ctx context.Context, id string) (*model.Registration, error) {
	if _, err := auth.RequireAuth(ctx); err != nil {
		return nil, err
	}

	regID, err := parseID(id, apperrors.ErrRegistrationNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, regID)
}

func (s *RegistrationServiceImpl) MyRegistrations(ctx context.Context) ([]*model.Registration, error) {
	identity, err := auth.RequireAuth(ctx)
	if err != nil {
		return nil, err
	}

	userID, err := parseID(identity.UserID, apperrors.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, model.RegistrationFilter{UserID: &userID})
}

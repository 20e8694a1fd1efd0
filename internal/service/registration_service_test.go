package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgraph/internal/bus"
	"eventgraph/internal/model"
	"eventgraph/internal/service"
	apperrors "eventgraph/pkg/app_errors"
)

func newRegistrationService(db *fakeDB, regs *fakeRegRepo, events *fakeEventRepo, gate *fakeGate) (service.RegistrationService, *bus.Bus) {
	b := bus.New()
	return service.NewRegistrationService(db, regs, events, gate, b), b
}

func TestRegistrationService_Create(t *testing.T) {
	t.Run("Success - registers for a published event", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		db := &fakeDB{}
		gate := newFakeGate()
		require.NoError(t, gate.Warm(context.Background(), event.ID.String(), 10))

		svc, b := newRegistrationService(db, newFakeRegRepo(), newFakeEventRepo(event), gate)
		defer b.Close()

		reg, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusPending, reg.Status)
		assert.Equal(t, event.ID, reg.EventID)
		assert.Equal(t, user.ID.String(), reg.UserID.String())
		assert.Equal(t, 1, db.commits)
		assert.Equal(t, 9, gate.seats[event.ID.String()])
	})

	t.Run("Success - cold gate is warmed from a live count", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 5)
		gate := newFakeGate()

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(), newFakeEventRepo(event), gate)
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.NoError(t, err)
		assert.Equal(t, 1, gate.warmCalls)
		assert.Equal(t, 4, gate.seats[event.ID.String()])
	})

	t.Run("Error - event is full", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 1)
		taken := &model.Registration{
			ID:      uuid.New(),
			UserID:  uuid.New(),
			EventID: event.ID,
			Status:  model.RegistrationStatusConfirmed,
		}
		db := &fakeDB{}

		svc, b := newRegistrationService(db, newFakeRegRepo(taken), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.ErrorIs(t, err, apperrors.ErrEventFull)
		assert.Zero(t, db.commits)
	})

	t.Run("Error - full transaction check releases the gate seat", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 1)
		taken := &model.Registration{
			ID:      uuid.New(),
			UserID:  uuid.New(),
			EventID: event.ID,
			Status:  model.RegistrationStatusConfirmed,
		}
		gate := newFakeGate()
		// Stale gate still shows a free seat; the transaction is the
		// authority and must win.
		require.NoError(t, gate.Warm(context.Background(), event.ID.String(), 1))
		db := &fakeDB{}

		svc, b := newRegistrationService(db, newFakeRegRepo(taken), newFakeEventRepo(event), gate)
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.ErrorIs(t, err, apperrors.ErrEventFull)
		assert.Equal(t, 1, db.rollbacks)
		require.Len(t, gate.released, 1)
		assert.Equal(t, event.ID.String()+"/"+user.ID.String(), gate.released[0])
	})

	t.Run("Error - transaction failure stays classified as internal", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		gate := newFakeGate()
		require.NoError(t, gate.Warm(context.Background(), event.ID.String(), 10))
		db := &fakeDB{beginErr: errors.New("connection reset")}

		svc, b := newRegistrationService(db, newFakeRegRepo(), newFakeEventRepo(event), gate)
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "beginning registration transaction")
		require.ErrorIs(t, apperrors.From(err), apperrors.ErrInternalServerError)
		require.Len(t, gate.released, 1)
		assert.Equal(t, event.ID.String()+"/"+user.ID.String(), gate.released[0])
	})

	t.Run("Error - already registered", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		existing := &model.Registration{
			ID:      uuid.New(),
			UserID:  user.ID,
			EventID: event.ID,
			Status:  model.RegistrationStatusPending,
		}

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(existing), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)
	})

	t.Run("Error - event not published", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusDraft, 10)

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.ErrorIs(t, err, apperrors.ErrEventNotPublished)
	})

	t.Run("Error - unauthenticated", func(t *testing.T) {
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		_, err := svc.Create(context.Background(), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.ErrorIs(t, err, apperrors.ErrUnauthenticated)
	})

	t.Run("Error - malformed event id reads as not found", func(t *testing.T) {
		user := newUser(model.RoleUser)

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(), newFakeEventRepo(), newFakeGate())
		defer b.Close()

		_, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: "not-a-uuid"})

		require.ErrorIs(t, err, apperrors.ErrEventNotFound)
	})

	t.Run("Success - unreachable gate falls through to the transaction", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		gate := newFakeGate()
		gate.reserveErr = assert.AnError

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(), newFakeEventRepo(event), gate)
		defer b.Close()

		reg, err := svc.Create(authedCtx(user), model.CreateRegistrationInput{EventID: event.ID.String()})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusPending, reg.Status)
	})
}

func TestRegistrationService_Cancel(t *testing.T) {
	t.Run("Success - owner cancels and the seat comes back", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		reg := &model.Registration{
			ID:      uuid.New(),
			UserID:  user.ID,
			EventID: event.ID,
			Status:  model.RegistrationStatusConfirmed,
		}
		gate := newFakeGate()
		require.NoError(t, gate.Warm(context.Background(), event.ID.String(), 10))
		require.NoError(t, gate.Reserve(context.Background(), event.ID.String(), user.ID.String()))

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(reg), newFakeEventRepo(event), gate)
		defer b.Close()

		updated, err := svc.Cancel(authedCtx(user), reg.ID.String())

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusCancelled, updated.Status)
		assert.Equal(t, 10, gate.seats[event.ID.String()])
	})

	t.Run("Success - cancel is unconditional on prior status", func(t *testing.T) {
		user := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		reg := &model.Registration{
			ID:      uuid.New(),
			UserID:  user.ID,
			EventID: event.ID,
			Status:  model.RegistrationStatusAttended,
		}

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(reg), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		updated, err := svc.Cancel(authedCtx(user), reg.ID.String())

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusCancelled, updated.Status)
	})

	t.Run("Error - only the owner may cancel", func(t *testing.T) {
		owner := newUser(model.RoleUser)
		other := newUser(model.RoleAdmin)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		reg := &model.Registration{
			ID:      uuid.New(),
			UserID:  owner.ID,
			EventID: event.ID,
			Status:  model.RegistrationStatusPending,
		}

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(reg), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		_, err := svc.Cancel(authedCtx(other), reg.ID.String())

		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})
}

func TestRegistrationService_Update(t *testing.T) {
	t.Run("Success - organizer confirms a registration", func(t *testing.T) {
		organizer := newUser(model.RoleOrganizer)
		attendee := newUser(model.RoleUser)
		event := newEvent(organizer.ID, model.EventStatusPublished, 10)
		reg := &model.Registration{
			ID:      uuid.New(),
			UserID:  attendee.ID,
			EventID: event.ID,
			Status:  model.RegistrationStatusPending,
		}

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(reg), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		status := model.RegistrationStatusConfirmed
		updated, err := svc.Update(authedCtx(organizer), reg.ID.String(), model.UpdateRegistrationInput{Status: &status})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusConfirmed, updated.Status)
	})

	t.Run("Error - unrelated user may not update", func(t *testing.T) {
		attendee := newUser(model.RoleUser)
		stranger := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		reg := &model.Registration{
			ID:      uuid.New(),
			UserID:  attendee.ID,
			EventID: event.ID,
			Status:  model.RegistrationStatusPending,
		}

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(reg), newFakeEventRepo(event), newFakeGate())
		defer b.Close()

		status := model.RegistrationStatusConfirmed
		_, err := svc.Update(authedCtx(stranger), reg.ID.String(), model.UpdateRegistrationInput{Status: &status})

		require.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("Success - idempotent status update", func(t *testing.T) {
		attendee := newUser(model.RoleUser)
		event := newEvent(uuid.New(), model.EventStatusPublished, 10)
		reg := &model.Registration{
			ID:      uuid.New(),
			UserID:  attendee.ID,
			EventID: event.ID,
			Status:  model.RegistrationStatusCancelled,
		}
		gate := newFakeGate()
		require.NoError(t, gate.Warm(context.Background(), event.ID.String(), 10))

		svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(reg), newFakeEventRepo(event), gate)
		defer b.Close()

		status := model.RegistrationStatusCancelled
		updated, err := svc.Update(authedCtx(attendee), reg.ID.String(), model.UpdateRegistrationInput{Status: &status})

		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusCancelled, updated.Status)
		// No seat transition happened, so the gate is untouched.
		assert.Equal(t, 10, gate.seats[event.ID.String()])
	})
}

func TestRegistrationService_Queries(t *testing.T) {
	user := newUser(model.RoleUser)
	event := newEvent(uuid.New(), model.EventStatusPublished, 10)
	mine := &model.Registration{ID: uuid.New(), UserID: user.ID, EventID: event.ID, Status: model.RegistrationStatusPending}
	other := &model.Registration{ID: uuid.New(), UserID: uuid.New(), EventID: event.ID, Status: model.RegistrationStatusConfirmed}

	svc, b := newRegistrationService(&fakeDB{}, newFakeRegRepo(mine, other), newFakeEventRepo(event), newFakeGate())
	defer b.Close()

	t.Run("MyRegistrations returns only the caller's rows", func(t *testing.T) {
		regs, err := svc.MyRegistrations(authedCtx(user))
		require.NoError(t, err)
		require.Len(t, regs, 1)
		assert.Equal(t, mine.ID, regs[0].ID)
	})

	t.Run("List filters by event", func(t *testing.T) {
		eventID := event.ID.String()
		regs, err := svc.List(authedCtx(user), &eventID, nil)
		require.NoError(t, err)
		assert.Len(t, regs, 2)
	})

	t.Run("Get returns not found for unknown id", func(t *testing.T) {
		_, err := svc.Get(authedCtx(user), uuid.NewString())
		require.ErrorIs(t, err, apperrors.ErrRegistrationNotFound)
	})
}

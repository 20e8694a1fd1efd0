package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"eventgraph/internal/auth"
	"eventgraph/internal/cache"
	"eventgraph/internal/model"
	"eventgraph/internal/repository"
	apperrors "eventgraph/pkg/app_errors"
)

func authedCtx(user *model.User) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{
		UserID:        user.ID.String(),
		Role:          user.Role,
		Authenticated: true,
	})
}

func newUser(role model.Role) *model.User {
	return &model.User{
		ID:        uuid.New(),
		Name:      "Test User",
		Email:     uuid.NewString() + "@example.com",
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func newEvent(organizer uuid.UUID, status model.EventStatus, capacity int) *model.Event {
	return &model.Event{
		ID:          uuid.New(),
		Title:       "Go Meetup",
		Description: "An evening of lightning talks.",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    "Community Hall",
		Capacity:    capacity,
		OrganizerID: organizer,
		Status:      status,
		Category:    model.CategoryNetworking,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo(seed ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) (*model.User, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, apperrors.ErrEmailTaken
		}
	}
	stored := *user
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = &stored
	return &stored, nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]*model.User, error) {
	out := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateUserParams) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.Avatar != nil {
		u.Avatar = params.Avatar
	}
	return u, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// fakeEventRepo is an in-memory EventRepository.
type fakeEventRepo struct {
	events map[uuid.UUID]*model.Event
}

func newFakeEventRepo(seed ...*model.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[uuid.UUID]*model.Event)}
	for _, e := range seed {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, event *model.Event) (*model.Event, error) {
	stored := *event
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.events[stored.ID] = &stored
	return &stored, nil
}

func (r *fakeEventRepo) List(_ context.Context, filter model.EventFilter) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range r.events {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeEventRepo) ListByOrganizer(_ context.Context, organizerID uuid.UUID) ([]*model.Event, error) {
	var out []*model.Event
	for _, e := range r.events {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Event, error) {
	if e, ok := r.events[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, apperrors.ErrEventNotFound
}

func (r *fakeEventRepo) Update(_ context.Context, id uuid.UUID, params model.UpdateEventInput) (*model.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	if params.Title != nil {
		e.Title = *params.Title
	}
	if params.Description != nil {
		e.Description = *params.Description
	}
	if params.Date != nil {
		e.Date = *params.Date
	}
	if params.Location != nil {
		e.Location = *params.Location
	}
	if params.Capacity != nil {
		e.Capacity = *params.Capacity
	}
	if params.Category != nil {
		e.Category = *params.Category
	}
	if params.ImageURL != nil {
		e.ImageURL = params.ImageURL
	}
	if params.Status != nil {
		e.Status = *params.Status
	}
	e.UpdatedAt = time.Now()
	cp := *e
	return &cp, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.events[id]; !ok {
		return apperrors.ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) FindByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*model.Event, error) {
	return r.FindByID(ctx, id)
}

// fakeRegRepo is an in-memory RegistrationRepository. Create enforces the
// one-active-registration-per-user-and-event rule the way the partial
// unique index does.
type fakeRegRepo struct {
	regs map[uuid.UUID]*model.Registration
}

func newFakeRegRepo(seed ...*model.Registration) *fakeRegRepo {
	r := &fakeRegRepo{regs: make(map[uuid.UUID]*model.Registration)}
	for _, reg := range seed {
		r.regs[reg.ID] = reg
	}
	return r
}

func (r *fakeRegRepo) List(_ context.Context, filter model.RegistrationFilter) ([]*model.Registration, error) {
	var out []*model.Registration
	for _, reg := range r.regs {
		if filter.EventID != nil && reg.EventID != *filter.EventID {
			continue
		}
		if filter.UserID != nil && reg.UserID != *filter.UserID {
			continue
		}
		out = append(out, reg)
	}
	return out, nil
}

func (r *fakeRegRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Registration, error) {
	if reg, ok := r.regs[id]; ok {
		cp := *reg
		return &cp, nil
	}
	return nil, apperrors.ErrRegistrationNotFound
}

func (r *fakeRegRepo) FindByUserAndEvent(_ context.Context, userID, eventID uuid.UUID) (*model.Registration, error) {
	for _, reg := range r.regs {
		if reg.UserID == userID && reg.EventID == eventID {
			return reg, nil
		}
	}
	return nil, apperrors.ErrRegistrationNotFound
}

func (r *fakeRegRepo) CountActive(_ context.Context, eventID uuid.UUID) (int, error) {
	count := 0
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.Status.HoldsSeat() {
			count++
		}
	}
	return count, nil
}

func (r *fakeRegRepo) Update(_ context.Context, id uuid.UUID, params model.UpdateRegistrationInput) (*model.Registration, error) {
	reg, ok := r.regs[id]
	if !ok {
		return nil, apperrors.ErrRegistrationNotFound
	}
	if params.Status != nil {
		reg.Status = *params.Status
	}
	if params.Notes != nil {
		reg.Notes = params.Notes
	}
	reg.UpdatedAt = time.Now()
	return reg, nil
}

func (r *fakeRegRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.RegistrationStatus) (*model.Registration, error) {
	reg, ok := r.regs[id]
	if !ok {
		return nil, apperrors.ErrRegistrationNotFound
	}
	reg.Status = status
	reg.UpdatedAt = time.Now()
	cp := *reg
	return &cp, nil
}

func (r *fakeRegRepo) Create(_ context.Context, _ pgx.Tx, reg *model.Registration) (*model.Registration, error) {
	for _, existing := range r.regs {
		if existing.UserID == reg.UserID && existing.EventID == reg.EventID {
			return nil, apperrors.ErrAlreadyRegistered
		}
	}
	stored := *reg
	stored.ID = uuid.New()
	stored.RegisteredAt = time.Now()
	stored.CreatedAt = stored.RegisteredAt
	stored.UpdatedAt = stored.RegisteredAt
	r.regs[stored.ID] = &stored
	return &stored, nil
}

func (r *fakeRegRepo) CountActiveTx(ctx context.Context, _ pgx.Tx, eventID uuid.UUID) (int, error) {
	return r.CountActive(ctx, eventID)
}

// fakeCommentRepo is an in-memory CommentRepository.
type fakeCommentRepo struct {
	comments map[uuid.UUID]*model.Comment
}

func newFakeCommentRepo(seed ...*model.Comment) *fakeCommentRepo {
	r := &fakeCommentRepo{comments: make(map[uuid.UUID]*model.Comment)}
	for _, c := range seed {
		r.comments[c.ID] = c
	}
	return r
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *model.Comment) (*model.Comment, error) {
	stored := *comment
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.comments[stored.ID] = &stored
	return &stored, nil
}

func (r *fakeCommentRepo) ListByEvent(_ context.Context, eventID uuid.UUID) ([]*model.Comment, error) {
	var out []*model.Comment
	for _, c := range r.comments {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Comment, error) {
	if c, ok := r.comments[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrCommentNotFound
}

func (r *fakeCommentRepo) Update(_ context.Context, id uuid.UUID, params model.UpdateCommentInput) (*model.Comment, error) {
	c, ok := r.comments[id]
	if !ok {
		return nil, apperrors.ErrCommentNotFound
	}
	if params.Content != nil {
		c.Content = *params.Content
	}
	if params.Rating != nil {
		c.Rating = params.Rating
	}
	c.UpdatedAt = time.Now()
	return c, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.comments[id]; !ok {
		return apperrors.ErrCommentNotFound
	}
	delete(r.comments, id)
	return nil
}

// fakeGate mimics the Redis capacity gate in memory, recording releases
// and warm calls so tests can assert rollback behavior.
type fakeGate struct {
	seats map[string]int
	held  map[string]map[string]bool

	reserveErr error
	warmErr    error

	warmCalls int
	released  []string
}

func newFakeGate() *fakeGate {
	return &fakeGate{
		seats: make(map[string]int),
		held:  make(map[string]map[string]bool),
	}
}

func (g *fakeGate) Warm(_ context.Context, eventID string, seats int) error {
	if g.warmErr != nil {
		return g.warmErr
	}
	g.warmCalls++
	g.seats[eventID] = seats
	g.held[eventID] = make(map[string]bool)
	return nil
}

func (g *fakeGate) Reserve(_ context.Context, eventID, userID string) error {
	if g.reserveErr != nil {
		return g.reserveErr
	}
	seats, ok := g.seats[eventID]
	if !ok {
		return cache.ErrNotTracked
	}
	if g.held[eventID][userID] {
		return apperrors.ErrAlreadyRegistered
	}
	if seats <= 0 {
		return apperrors.ErrEventFull
	}
	g.seats[eventID] = seats - 1
	g.held[eventID][userID] = true
	return nil
}

func (g *fakeGate) Release(_ context.Context, eventID, userID string) error {
	if g.held[eventID][userID] {
		delete(g.held[eventID], userID)
		g.seats[eventID]++
	}
	g.released = append(g.released, eventID+"/"+userID)
	return nil
}

// fakeDB hands out no-op transactions and counts commits and rollbacks.
type fakeDB struct {
	beginErr  error
	commits   int
	rollbacks int
}

func (db *fakeDB) BeginTx(_ context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	return &fakeTx{db: db}, nil
}

// fakeTx satisfies pgx.Tx for services that only Begin, Commit and
// Rollback; the repository fakes never touch the connection.
type fakeTx struct {
	db   *fakeDB
	done bool
}

func (t *fakeTx) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }

func (t *fakeTx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.rollbacks++
	return nil
}

func (t *fakeTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *fakeTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }

func (t *fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *fakeTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *fakeTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *fakeTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return nil }

func (t *fakeTx) Conn() *pgx.Conn { return nil }

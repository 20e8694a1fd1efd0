package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"eventgraph/config"
	"eventgraph/internal/database"
	"eventgraph/internal/model"
	"eventgraph/internal/repository"
)

// Needs the local test Postgres (port 5433); skips when it is not up.
// Migrations run once per process against the test database.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	cfg := config.LoadTestConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		t.Skipf("test postgres unavailable: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(&cfg.Database); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return pool
}

func seedUser(t *testing.T, pool *pgxpool.Pool) *model.User {
	t.Helper()
	repo := repository.NewUserRepository(pool)
	user, err := repo.Create(context.Background(), &model.User{
		Name:         "Seed User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleOrganizer,
	})
	require.NoError(t, err)
	return user
}

func seedEvent(t *testing.T, pool *pgxpool.Pool, organizer uuid.UUID, status model.EventStatus, capacity int) *model.Event {
	t.Helper()
	repo := repository.NewEventRepository(pool)
	event, err := repo.Create(context.Background(), &model.Event{
		Title:       "Seed Event",
		Description: "Seed event for repository tests.",
		Date:        time.Now().Add(72 * time.Hour),
		Location:    "Test Hall",
		Capacity:    capacity,
		OrganizerID: organizer,
		Status:      status,
		Category:    model.CategoryOther,
	})
	require.NoError(t, err)
	return event
}

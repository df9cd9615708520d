package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/luminary-journal/internal/migrations"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.DB.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(storage))

	return storage
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser регистрирует пользователя с пробным периодом до trialUntil.
func (f *TestDataFactory) CreateUser(t *testing.T, userID int64, username string, trialUntil time.Time) {
	t.Helper()
	require.NoError(t, f.storage.UpsertUser(context.Background(), userID, &username, trialUntil))
}

// CreateOnboardedUser регистрирует пользователя и отмечает согласие с условиями.
func (f *TestDataFactory) CreateOnboardedUser(t *testing.T, userID int64, trialUntil time.Time) {
	t.Helper()
	f.CreateUser(t, userID, "user", trialUntil)
	agreed := true
	require.NoError(t, f.storage.UpdateUser(context.Background(), userID, models.UserUpdate{Agreed: &agreed}))
}

// CreateEntry добавляет запись дневника.
func (f *TestDataFactory) CreateEntry(t *testing.T, userID int64, text string, at time.Time) int64 {
	t.Helper()
	id, err := f.storage.InsertEntry(context.Background(), models.JournalEntry{
		UserID:    userID,
		Text:      text,
		CreatedAt: at,
	})
	require.NoError(t, err)
	return id
}

// CreateMark добавляет отметку об отправленной аффирмации.
func (f *TestDataFactory) CreateMark(t *testing.T, userID int64, fingerprint string, at time.Time) {
	t.Helper()
	require.NoError(t, f.storage.InsertMark(context.Background(), models.SentAffirmationMark{
		UserID:      userID,
		Fingerprint: fingerprint,
		SentAt:      at,
	}))
}

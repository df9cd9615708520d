package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/luminary-journal/internal/cache"
	"github.com/magabrotheeeer/luminary-journal/internal/config"
	"github.com/magabrotheeeer/luminary-journal/internal/metrics"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
	"github.com/magabrotheeeer/luminary-journal/internal/services/access"
	"github.com/magabrotheeeer/luminary-journal/internal/storage/repository"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertUser(ctx context.Context, userID int64, username *string, trialUntil time.Time) error {
	args := m.Called(ctx, userID, username, trialUntil)
	return args.Error(0)
}

func (m *MockStore) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) UpdateUser(ctx context.Context, userID int64, upd models.UserUpdate) error {
	args := m.Called(ctx, userID, upd)
	return args.Error(0)
}

func (m *MockStore) InsertEntry(ctx context.Context, entry models.JournalEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) WipeJournal(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var now = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }
func strPtr(s string) *string        { return &s }
func boolPtr(b bool) *bool           { return &b }

func notFound() error {
	return fmt.Errorf("storage.GetUser: %w", repository.ErrUserNotFound)
}

func setupService(t *testing.T) (*Service, *MockStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	flags, err := cache.InitServer(context.Background(), config.RedisConnection{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = flags.Close() })

	store := new(MockStore)
	checker := access.NewService(store, access.TrialSubscriptionPolicy{}, newNoopLogger())
	svc := NewService(store, flags, checker, Settings{
		TrialPeriod: 32 * 24 * time.Hour,
		PendingTTL:  time.Hour,
	}, newNoopLogger())
	svc.now = func() time.Time { return now }
	return svc, store, mr
}

func activeUser(id int64) *models.User {
	return &models.User{ID: id, Agreed: true, TrialUntil: timePtr(time.Now().Add(24 * time.Hour))}
}

func expiredUser(id int64) *models.User {
	return &models.User{ID: id, Agreed: true, TrialUntil: timePtr(time.Now().Add(-24 * time.Hour))}
}

func TestIsAgreement(t *testing.T) {
	for _, s := range []string{"да", "Да", " ДА ", "yes", "Yes", "согласен"} {
		assert.True(t, IsAgreement(s), s)
	}
	for _, s := range []string{"нет", "да!", "согласна", ""} {
		assert.False(t, IsAgreement(s), s)
	}
}

func TestSoftNameFrom(t *testing.T) {
	assert.Equal(t, strPtr("Аня"), SoftNameFrom("  Аня "))
	assert.Nil(t, SoftNameFrom("без имени"))
	assert.Nil(t, SoftNameFrom("Не хочу"))
	assert.Nil(t, SoftNameFrom("НЕТ"))
	assert.Nil(t, SoftNameFrom("никак"))
	assert.Nil(t, SoftNameFrom("   "))
}

func TestAddressing(t *testing.T) {
	assert.Equal(t, "Марина, ", Addressing(strPtr("Марина")))
	assert.Equal(t, "", Addressing(nil))
	assert.Equal(t, "", Addressing(strPtr("")))
}

func TestService_Register(t *testing.T) {
	svc, store, _ := setupService(t)
	username := strPtr("anya")
	store.On("UpsertUser", mock.Anything, int64(1), username, now.Add(32*24*time.Hour)).Return(nil).Once()

	require.NoError(t, svc.Register(context.Background(), 1, username))
	store.AssertExpectations(t)
}

func TestService_Register_Error(t *testing.T) {
	svc, store, _ := setupService(t)
	store.On("UpsertUser", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	assert.Error(t, svc.Register(context.Background(), 1, nil))
}

func TestService_HandleText_Onboarding(t *testing.T) {
	svc, store, mr := setupService(t)
	ctx := context.Background()

	pending := &models.User{ID: 1, TrialUntil: timePtr(time.Now().Add(time.Hour))}
	store.On("GetUser", mock.Anything, int64(1)).Return(pending, nil).Once()
	store.On("UpdateUser", mock.Anything, int64(1), models.UserUpdate{Agreed: boolPtr(true)}).Return(nil).Once()

	res, err := svc.HandleText(ctx, 1, "Да")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAgreed, res.Outcome)
	assert.True(t, mr.Exists("onboarding:1"))

	store.On("GetUser", mock.Anything, int64(1)).Return(activeUser(1), nil).Once()
	store.On("UpdateUser", mock.Anything, int64(1), models.UserUpdate{SoftName: strPtr("Аня")}).Return(nil).Once()

	res, err = svc.HandleText(ctx, 1, "Аня")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSoftNameSet, res.Outcome)
	assert.Equal(t, strPtr("Аня"), res.SoftName)
	assert.False(t, mr.Exists("onboarding:1"))

	store.On("GetUser", mock.Anything, int64(1)).Return(activeUser(1), nil).Once()
	store.On("InsertEntry", mock.Anything, mock.MatchedBy(func(e models.JournalEntry) bool {
		return e.UserID == 1 && e.Text == "первая запись" && e.EntryType == models.EntryTypeFree && e.CreatedAt.Equal(now)
	})).Return(int64(42), nil).Once()

	res, err = svc.HandleText(ctx, 1, "первая запись")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEntrySaved, res.Outcome)
	assert.Equal(t, int64(42), res.EntryID)
	store.AssertExpectations(t)
}

func TestService_HandleText_NoNameClears(t *testing.T) {
	svc, store, mr := setupService(t)
	require.NoError(t, mr.Set("onboarding:1", "true"))

	store.On("GetUser", mock.Anything, int64(1)).Return(activeUser(1), nil).Once()
	store.On("UpdateUser", mock.Anything, int64(1), models.UserUpdate{ClearSoftName: true}).Return(nil).Once()

	res, err := svc.HandleText(context.Background(), 1, "без имени")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSoftNameSet, res.Outcome)
	assert.Nil(t, res.SoftName)
	store.AssertExpectations(t)
}

func TestService_HandleText_Routing(t *testing.T) {
	dbErr := errors.New("db down")

	tests := []struct {
		name        string
		text        string
		pending     bool
		setupMocks  func(*MockStore)
		wantOutcome Outcome
		wantErr     error
	}{
		{
			name: "unknown user",
			text: "привет",
			setupMocks: func(s *MockStore) {
				s.On("GetUser", mock.Anything, int64(1)).Return(nil, notFound()).Once()
			},
			wantOutcome: OutcomeNeedsStart,
		},
		{
			name: "not agreed yet",
			text: "привет",
			setupMocks: func(s *MockStore) {
				s.On("GetUser", mock.Anything, int64(1)).Return(&models.User{ID: 1}, nil).Once()
			},
			wantOutcome: OutcomeNeedsAgreement,
		},
		{
			name: "agreement word from onboarded user is an entry",
			text: "да",
			setupMocks: func(s *MockStore) {
				s.On("GetUser", mock.Anything, int64(1)).Return(activeUser(1), nil).Once()
				s.On("InsertEntry", mock.Anything, mock.Anything).Return(int64(1), nil).Once()
			},
			wantOutcome: OutcomeEntrySaved,
		},
		{
			name: "expired user cannot write",
			text: "запись",
			setupMocks: func(s *MockStore) {
				s.On("GetUser", mock.Anything, int64(1)).Return(expiredUser(1), nil).Once()
			},
			wantOutcome: OutcomeAccessDenied,
		},
		{
			name:    "expired user cannot finish onboarding",
			text:    "Аня",
			pending: true,
			setupMocks: func(s *MockStore) {
				s.On("GetUser", mock.Anything, int64(1)).Return(expiredUser(1), nil).Once()
			},
			wantOutcome: OutcomeAccessDenied,
		},
		{
			name: "store unavailable",
			text: "запись",
			setupMocks: func(s *MockStore) {
				s.On("GetUser", mock.Anything, int64(1)).Return(nil, dbErr).Once()
			},
			wantErr: access.ErrStoreUnavailable,
		},
		{
			name: "insert fails",
			text: "запись",
			setupMocks: func(s *MockStore) {
				s.On("GetUser", mock.Anything, int64(1)).Return(activeUser(1), nil).Once()
				s.On("InsertEntry", mock.Anything, mock.Anything).Return(int64(0), dbErr).Once()
			},
			wantErr: dbErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, mr := setupService(t)
			if tt.pending {
				require.NoError(t, mr.Set("onboarding:1", "true"))
			}
			tt.setupMocks(store)

			res, err := svc.HandleText(context.Background(), 1, tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			store.AssertExpectations(t)
		})
	}
}

// Решение о доступе учитывается в метриках и для незарегистрированных пользователей.
func TestService_UnknownUserCountsDenial(t *testing.T) {
	denied := metrics.AccessDecisions.WithLabelValues(metrics.DecisionDenied)

	t.Run("text", func(t *testing.T) {
		svc, store, _ := setupService(t)
		store.On("GetUser", mock.Anything, int64(1)).Return(nil, notFound()).Once()
		before := testutil.ToFloat64(denied)

		res, err := svc.HandleText(context.Background(), 1, "привет")
		require.NoError(t, err)
		assert.Equal(t, OutcomeNeedsStart, res.Outcome)
		assert.Equal(t, before+1, testutil.ToFloat64(denied))
	})

	t.Run("wipe", func(t *testing.T) {
		svc, store, _ := setupService(t)
		store.On("GetUser", mock.Anything, int64(1)).Return(nil, notFound()).Once()
		before := testutil.ToFloat64(denied)

		_, err := svc.Wipe(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, before+1, testutil.ToFloat64(denied))
	})
}

func TestService_Agree_NotRegistered(t *testing.T) {
	svc, store, mr := setupService(t)
	store.On("UpdateUser", mock.Anything, int64(1), mock.Anything).
		Return(fmt.Errorf("storage.UpdateUser: %w", repository.ErrUserNotFound)).Once()

	err := svc.Agree(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.False(t, mr.Exists("onboarding:1"))
}

func TestService_Wipe(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		svc, store, _ := setupService(t)
		store.On("GetUser", mock.Anything, int64(1)).Return(activeUser(1), nil).Once()
		store.On("WipeJournal", mock.Anything, int64(1)).Return(3, nil).Once()

		res, err := svc.Wipe(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, res.Decision.Granted)
		assert.Equal(t, 3, res.Deleted)
		store.AssertExpectations(t)
	})

	t.Run("denied", func(t *testing.T) {
		svc, store, _ := setupService(t)
		store.On("GetUser", mock.Anything, int64(1)).Return(expiredUser(1), nil).Once()

		res, err := svc.Wipe(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, res.Decision.Granted)
		store.AssertNotCalled(t, "WipeJournal", mock.Anything, mock.Anything)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, store, _ := setupService(t)
		store.On("GetUser", mock.Anything, int64(1)).Return(nil, notFound()).Once()

		res, err := svc.Wipe(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, res.Decision.Granted)
		assert.Equal(t, access.ReasonNotFound, res.Decision.Reason)
	})

	t.Run("store unavailable", func(t *testing.T) {
		svc, store, _ := setupService(t)
		store.On("GetUser", mock.Anything, int64(1)).Return(nil, errors.New("timeout")).Once()

		_, err := svc.Wipe(context.Background(), 1)
		assert.ErrorIs(t, err, access.ErrStoreUnavailable)
	})
}

func TestService_PlanFor(t *testing.T) {
	svc, _, _ := setupService(t)

	assert.Equal(t, 30, svc.PlanFor(9900).Days)
	assert.Equal(t, 365, svc.PlanFor(89000).Days)
	assert.Equal(t, 30, svc.PlanFor(1).Days, "unknown amount falls back to the shortest plan")
	assert.Len(t, svc.Plans(), 2)
}

func TestService_ActivateSubscription(t *testing.T) {
	tests := []struct {
		name   string
		amount int
		want   time.Time
	}{
		{name: "month", amount: 9900, want: now.AddDate(0, 0, 30)},
		{name: "year", amount: 89000, want: now.AddDate(0, 0, 365)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := setupService(t)
			store.On("UpdateUser", mock.Anything, int64(1), models.UserUpdate{
				Subscribed:        boolPtr(true),
				SubscriptionUntil: timePtr(tt.want),
			}).Return(nil).Once()

			until, err := svc.ActivateSubscription(context.Background(), 1, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, until)
			store.AssertExpectations(t)
		})
	}
}

func TestService_ActivateSubscription_NotRegistered(t *testing.T) {
	svc, store, _ := setupService(t)
	store.On("UpdateUser", mock.Anything, int64(1), mock.Anything).
		Return(fmt.Errorf("storage.UpdateUser: %w", repository.ErrUserNotFound)).Once()

	_, err := svc.ActivateSubscription(context.Background(), 1, 9900)
	assert.ErrorIs(t, err, ErrNotRegistered)
}

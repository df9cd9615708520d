// Package cached добавляет кеш redis поверх хранилища пользователей.
package cached

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// Store операции хранилища, которые меняют запись пользователя.
type Store interface {
	UpsertUser(ctx context.Context, userID int64, username *string, trialUntil time.Time) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateUser(ctx context.Context, userID int64, upd models.UserUpdate) error
	InsertEntry(ctx context.Context, entry models.JournalEntry) (int64, error)
	WipeJournal(ctx context.Context, userID int64) (int, error)
}

// Cache JSON-кеш (см. cache.Cache).
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Users читает пользователей через кеш. Запись сбрасывается до и после любого
// изменения в хранилище, чтобы параллельное чтение не вернуло в кеш старую строку.
// Ошибки кеша не мешают работе: запрос уходит в хранилище.
type Users struct {
	store Store
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewUsers создает новый экземпляр Users.
func NewUsers(store Store, cache Cache, ttl time.Duration, log *slog.Logger) *Users {
	return &Users{
		store: store,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func userKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

func (u *Users) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	found, err := u.cache.Get(ctx, userKey(userID), &user)
	if err != nil {
		u.log.Warn("user cache read failed", sl.UserID(userID), sl.Err(err))
	}
	if found {
		return &user, nil
	}

	loaded, err := u.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err = u.cache.Set(ctx, userKey(userID), loaded, u.ttl); err != nil {
		u.log.Warn("user cache write failed", sl.UserID(userID), sl.Err(err))
	}
	return loaded, nil
}

func (u *Users) UpsertUser(ctx context.Context, userID int64, username *string, trialUntil time.Time) error {
	u.Forget(ctx, userID)
	defer u.Forget(ctx, userID)
	return u.store.UpsertUser(ctx, userID, username, trialUntil)
}

func (u *Users) UpdateUser(ctx context.Context, userID int64, upd models.UserUpdate) error {
	u.Forget(ctx, userID)
	defer u.Forget(ctx, userID)
	return u.store.UpdateUser(ctx, userID, upd)
}

func (u *Users) InsertEntry(ctx context.Context, entry models.JournalEntry) (int64, error) {
	u.Forget(ctx, entry.UserID)
	defer u.Forget(ctx, entry.UserID)
	return u.store.InsertEntry(ctx, entry)
}

func (u *Users) WipeJournal(ctx context.Context, userID int64) (int, error) {
	u.Forget(ctx, userID)
	defer u.Forget(ctx, userID)
	return u.store.WipeJournal(ctx, userID)
}

// Forget удаляет пользователя из кеша.
func (u *Users) Forget(ctx context.Context, userID int64) {
	if err := u.cache.Invalidate(context.WithoutCancel(ctx), userKey(userID)); err != nil {
		u.log.Warn("user cache invalidation failed", sl.UserID(userID), sl.Err(err))
	}
}

package affirmation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/metrics"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// ErrInProgress возвращается, когда для пользователя уже выполняется другой вызов Next.
var ErrInProgress = errors.New("affirmation selection already in progress")

// MarkRepository журнал отправленных аффирмаций.
type MarkRepository interface {
	QueryFingerprints(ctx context.Context, userID int64, since time.Time) (map[string]struct{}, error)
	InsertMark(ctx context.Context, mark models.SentAffirmationMark) error
}

// ContentGenerator выдаёт случайную аффирмацию и её отпечаток.
type ContentGenerator interface {
	Generate() (text, fingerprint string)
}

// Locker рекомендательная блокировка по ключу (см. cache.Cache).
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

// Settings параметры выбора аффирмации.
type Settings struct {
	Window   time.Duration
	Attempts int
	LockTTL  time.Duration
}

// Tracker выбирает для пользователя аффирмацию, которую он не получал в пределах окна.
type Tracker struct {
	repo     MarkRepository
	gen      ContentGenerator
	locker   Locker
	settings Settings
	log      *slog.Logger
	now      func() time.Time
}

// NewTracker создает трекер. locker может быть nil.
func NewTracker(repo MarkRepository, gen ContentGenerator, locker Locker, settings Settings, log *slog.Logger) *Tracker {
	if settings.Attempts < 1 {
		settings.Attempts = 1
	}
	return &Tracker{
		repo:     repo,
		gen:      gen,
		locker:   locker,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

// Next возвращает аффирмацию для пользователя и записывает отметку об отправке.
// Если все попытки дали повторы, возвращается последний кандидат.
func (t *Tracker) Next(ctx context.Context, userID int64) (string, error) {
	const op = "affirmation.Next"

	if t.locker != nil {
		key := "affirmation:lock:" + strconv.FormatInt(userID, 10)
		token, ok, err := t.locker.TryLock(ctx, key, t.settings.LockTTL)
		switch {
		case err != nil:
			t.log.Warn("affirmation lock unavailable, continuing without it", sl.UserID(userID), sl.Err(err))
		case !ok:
			return "", fmt.Errorf("%s: %w", op, ErrInProgress)
		default:
			defer func() {
				if err := t.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					t.log.Warn("failed to release affirmation lock", sl.UserID(userID), sl.Err(err))
				}
			}()
		}
	}

	now := t.now().UTC()
	seen, err := t.repo.QueryFingerprints(ctx, userID, now.Add(-t.settings.Window))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var text, fingerprint string
	fresh := false
	for range t.settings.Attempts {
		text, fingerprint = t.gen.Generate()
		if _, dup := seen[fingerprint]; !dup {
			fresh = true
			break
		}
	}
	if !fresh {
		metrics.AffirmationRepeats.Inc()
		t.log.Warn("no fresh affirmation found, repeating",
			sl.UserID(userID),
			slog.Int("attempts", t.settings.Attempts),
			slog.Int("seen", len(seen)),
		)
	}

	err = t.repo.InsertMark(ctx, models.SentAffirmationMark{
		UserID:      userID,
		Fingerprint: fingerprint,
		SentAt:      now,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return text, nil
}

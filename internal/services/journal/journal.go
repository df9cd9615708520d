// Package journal реализует сценарии дневника: регистрацию, согласие с условиями,
// выбор мягкого имени, запись свободного текста, удаление записей и оплату подписки.
package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/luminary-journal/internal/config"
	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/metrics"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
	"github.com/magabrotheeeer/luminary-journal/internal/services/access"
	"github.com/magabrotheeeer/luminary-journal/internal/storage/repository"
)

// ErrNotRegistered возвращается для операций над пользователем, который не писал /start.
var ErrNotRegistered = errors.New("user is not registered")

var (
	agreementWords = map[string]struct{}{"да": {}, "yes": {}, "согласен": {}}
	noNameWords    = map[string]struct{}{"без имени": {}, "не хочу": {}, "нет": {}, "никак": {}}
)

// Outcome как был обработан свободный текст.
type Outcome int

const (
	OutcomeEntrySaved Outcome = iota
	OutcomeAgreed
	OutcomeSoftNameSet
	OutcomeNeedsStart
	OutcomeNeedsAgreement
	OutcomeAccessDenied
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEntrySaved:
		return "entry_saved"
	case OutcomeAgreed:
		return "agreed"
	case OutcomeSoftNameSet:
		return "soft_name_set"
	case OutcomeNeedsStart:
		return "needs_start"
	case OutcomeNeedsAgreement:
		return "needs_agreement"
	case OutcomeAccessDenied:
		return "access_denied"
	default:
		return "unknown"
	}
}

// TextResult результат обработки свободного текста.
type TextResult struct {
	Outcome  Outcome
	SoftName *string
	EntryID  int64
}

// WipeResult результат удаления записей.
type WipeResult struct {
	Decision access.Decision
	Deleted  int
}

// Store хранилище пользователей и записей (см. cached.Users).
type Store interface {
	UpsertUser(ctx context.Context, userID int64, username *string, trialUntil time.Time) error
	UpdateUser(ctx context.Context, userID int64, upd models.UserUpdate) error
	InsertEntry(ctx context.Context, entry models.JournalEntry) (int64, error)
	WipeJournal(ctx context.Context, userID int64) (int, error)
}

// Flags короткоживущие флаги онбординга (см. cache.Cache).
type Flags interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Checker загружает пользователя и применяет к нему политику доступа (см. access.Service).
type Checker interface {
	Check(ctx context.Context, userID int64) (access.Decision, error)
}

// Settings параметры сценариев дневника.
type Settings struct {
	TrialPeriod time.Duration
	PendingTTL  time.Duration
	Plans       []config.Plan
}

// Service содержит бизнес-логику дневника.
type Service struct {
	store    Store
	flags    Flags
	access   Checker
	settings Settings
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(store Store, flags Flags, checker Checker, settings Settings, log *slog.Logger) *Service {
	if len(settings.Plans) == 0 {
		settings.Plans = config.DefaultPlans()
	}
	return &Service{
		store:    store,
		flags:    flags,
		access:   checker,
		settings: settings,
		log:      log,
		now:      time.Now,
	}
}

func pendingKey(userID int64) string {
	return "onboarding:" + strconv.FormatInt(userID, 10)
}

// IsAgreement сообщает, является ли текст согласием с условиями.
func IsAgreement(text string) bool {
	_, ok := agreementWords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// SoftNameFrom возвращает мягкое имя из ответа пользователя; nil означает «без имени».
func SoftNameFrom(text string) *string {
	name := strings.TrimSpace(text)
	if _, ok := noNameWords[strings.ToLower(name)]; ok || name == "" {
		return nil
	}
	return &name
}

// Addressing возвращает обращение вида "Аня, " или пустую строку.
func Addressing(softName *string) string {
	if softName == nil || *softName == "" {
		return ""
	}
	return *softName + ", "
}

// Register регистрирует пользователя при первом контакте и запускает пробный период.
// Повторный вызов обновляет только username.
func (s *Service) Register(ctx context.Context, userID int64, username *string) error {
	const op = "journal.Register"
	trialUntil := s.now().UTC().Add(s.settings.TrialPeriod)
	if err := s.store.UpsertUser(ctx, userID, username, trialUntil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", sl.UserID(userID))
	return nil
}

// Agree отмечает согласие с условиями и ждёт мягкое имя следующим сообщением.
func (s *Service) Agree(ctx context.Context, userID int64) error {
	const op = "journal.Agree"
	agreed := true
	err := s.store.UpdateUser(ctx, userID, models.UserUpdate{Agreed: &agreed})
	if errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotRegistered)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.flags.Set(ctx, pendingKey(userID), true, s.settings.PendingTTL); err != nil {
		s.log.Warn("failed to mark soft name as pending", sl.UserID(userID), sl.Err(err))
	}
	return nil
}

// HandleText обрабатывает свободный текст пользователя.
func (s *Service) HandleText(ctx context.Context, userID int64, text string) (TextResult, error) {
	const op = "journal.HandleText"

	decision, err := s.access.Check(ctx, userID)
	if err != nil {
		return TextResult{}, fmt.Errorf("%s: %w", op, err)
	}
	user := decision.User
	if user == nil {
		return TextResult{Outcome: OutcomeNeedsStart}, nil
	}

	if !user.Agreed {
		if !IsAgreement(text) {
			return TextResult{Outcome: OutcomeNeedsAgreement}, nil
		}
		if err = s.Agree(ctx, userID); err != nil {
			return TextResult{}, fmt.Errorf("%s: %w", op, err)
		}
		return TextResult{Outcome: OutcomeAgreed}, nil
	}

	if !decision.Granted {
		return TextResult{Outcome: OutcomeAccessDenied}, nil
	}

	if s.namePending(ctx, userID) {
		return s.setSoftName(ctx, userID, text)
	}

	id, err := s.store.InsertEntry(ctx, models.JournalEntry{
		UserID:    userID,
		Text:      text,
		EntryType: models.EntryTypeFree,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return TextResult{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.JournalEntries.Inc()
	return TextResult{Outcome: OutcomeEntrySaved, EntryID: id, SoftName: user.SoftName}, nil
}

func (s *Service) namePending(ctx context.Context, userID int64) bool {
	var pending bool
	found, err := s.flags.Get(ctx, pendingKey(userID), &pending)
	if err != nil {
		s.log.Warn("failed to read onboarding flag", sl.UserID(userID), sl.Err(err))
		return false
	}
	return found && pending
}

func (s *Service) setSoftName(ctx context.Context, userID int64, text string) (TextResult, error) {
	const op = "journal.setSoftName"
	name := SoftNameFrom(text)
	upd := models.UserUpdate{SoftName: name, ClearSoftName: name == nil}
	if err := s.store.UpdateUser(ctx, userID, upd); err != nil {
		return TextResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.flags.Invalidate(ctx, pendingKey(userID)); err != nil {
		s.log.Warn("failed to clear onboarding flag", sl.UserID(userID), sl.Err(err))
	}
	return TextResult{Outcome: OutcomeSoftNameSet, SoftName: name}, nil
}

// Wipe удаляет все записи пользователя и сбрасывает мягкое имя и время последней записи.
// Пользователь и журнал аффирмаций сохраняются.
func (s *Service) Wipe(ctx context.Context, userID int64) (WipeResult, error) {
	const op = "journal.Wipe"

	decision, err := s.access.Check(ctx, userID)
	if err != nil {
		return WipeResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if !decision.Granted {
		return WipeResult{Decision: decision}, nil
	}

	deleted, err := s.store.WipeJournal(ctx, userID)
	if err != nil {
		return WipeResult{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("journal wiped", sl.UserID(userID), slog.Int("entries", deleted))
	return WipeResult{Decision: decision, Deleted: deleted}, nil
}

// Plans возвращает тарифы подписки.
func (s *Service) Plans() []config.Plan {
	return s.settings.Plans
}

// PlanFor находит тариф по сумме платежа; неизвестная сумма даёт самый короткий тариф.
func (s *Service) PlanFor(amount int) config.Plan {
	shortest := s.settings.Plans[0]
	for _, p := range s.settings.Plans {
		if p.Amount == amount {
			return p
		}
		if p.Days < shortest.Days {
			shortest = p
		}
	}
	return shortest
}

// ActivateSubscription включает подписку после успешной оплаты и возвращает дату её окончания.
func (s *Service) ActivateSubscription(ctx context.Context, userID int64, amount int) (time.Time, error) {
	const op = "journal.ActivateSubscription"
	plan := s.PlanFor(amount)
	until := s.now().UTC().AddDate(0, 0, plan.Days)
	subscribed := true
	err := s.store.UpdateUser(ctx, userID, models.UserUpdate{
		Subscribed:        &subscribed,
		SubscriptionUntil: &until,
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrNotRegistered)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription activated",
		sl.UserID(userID),
		slog.String("plan", plan.Label),
		slog.Time("until", until),
	)
	return until, nil
}

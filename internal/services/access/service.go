package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/metrics"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
	"github.com/magabrotheeeer/luminary-journal/internal/storage/repository"
)

// ErrStoreUnavailable возвращается, когда хранилище не ответило. Это не отказ в доступе.
var ErrStoreUnavailable = errors.New("access store unavailable")

// Причины решения.
const (
	ReasonGranted  = "granted"
	ReasonNotFound = "user_not_found"
	ReasonExpired  = "access_expired"
)

// UserGetter чтение пользователя из хранилища.
type UserGetter interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

// Decision результат проверки доступа.
type Decision struct {
	Granted bool
	Reason  string
	User    *models.User
}

// Service применяет политику к пользователю из хранилища.
type Service struct {
	users  UserGetter
	policy Policy
	log    *slog.Logger
	now    func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(users UserGetter, policy Policy, log *slog.Logger) *Service {
	return &Service{
		users:  users,
		policy: policy,
		log:    log,
		now:    time.Now,
	}
}

// Check загружает пользователя и выносит решение. Отсутствующий пользователь
// получает отказ, ошибка хранилища оборачивается в ErrStoreUnavailable.
func (s *Service) Check(ctx context.Context, userID int64) (Decision, error) {
	const op = "access.Check"

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		metrics.AccessDecisions.WithLabelValues(metrics.DecisionDenied).Inc()
		return Decision{Reason: ReasonNotFound}, nil
	}
	if err != nil {
		s.log.Error("failed to load user for access check", sl.UserID(userID), sl.Err(err))
		return Decision{}, fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}

	return s.Decide(user), nil
}

// Decide применяет политику к уже загруженному пользователю.
func (s *Service) Decide(user *models.User) Decision {
	if s.policy.HasAccess(user, s.now()) {
		metrics.AccessDecisions.WithLabelValues(metrics.DecisionGranted).Inc()
		return Decision{Granted: true, Reason: ReasonGranted, User: user}
	}
	metrics.AccessDecisions.WithLabelValues(metrics.DecisionDenied).Inc()
	return Decision{Reason: ReasonExpired, User: user}
}

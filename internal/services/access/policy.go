// Package access решает, может ли пользователь пользоваться дневником.
package access

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// Названия политик в конфигурации.
const (
	PolicyTrialSubscription = "trial_subscription"
	PolicyAgreement         = "agreement"
)

// Policy чистая функция доступа от состояния пользователя и текущего времени.
type Policy interface {
	HasAccess(user *models.User, now time.Time) bool
}

// TrialSubscriptionPolicy даёт доступ при активном пробном периоде или активной подписке.
type TrialSubscriptionPolicy struct{}

func (TrialSubscriptionPolicy) HasAccess(user *models.User, now time.Time) bool {
	if user == nil {
		return false
	}
	if user.TrialUntil != nil && user.TrialUntil.After(now) {
		return true
	}
	return user.Subscribed && user.SubscriptionUntil != nil && user.SubscriptionUntil.After(now)
}

// AgreementPolicy даёт доступ всем, кто принял условия.
type AgreementPolicy struct{}

func (AgreementPolicy) HasAccess(user *models.User, _ time.Time) bool {
	return user != nil && user.Agreed
}

// NewPolicy возвращает политику по её названию.
func NewPolicy(name string) (Policy, error) {
	switch name {
	case PolicyTrialSubscription, "":
		return TrialSubscriptionPolicy{}, nil
	case PolicyAgreement:
		return AgreementPolicy{}, nil
	default:
		return nil, fmt.Errorf("access.NewPolicy: unknown policy %q", name)
	}
}

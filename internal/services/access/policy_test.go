package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestTrialSubscriptionPolicy_HasAccess(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		now  time.Time
		want bool
	}{
		{name: "nil user", user: nil, now: t0, want: false},
		{name: "no trial no subscription", user: &models.User{ID: 1}, now: t0, want: false},
		{name: "active trial", user: &models.User{TrialUntil: timePtr(t0.Add(time.Hour))}, now: t0, want: true},
		{name: "trial ends exactly now", user: &models.User{TrialUntil: timePtr(t0)}, now: t0, want: false},
		{
			name: "active subscription",
			user: &models.User{Subscribed: true, SubscriptionUntil: timePtr(t0.Add(time.Hour))},
			now:  t0,
			want: true,
		},
		{
			name: "subscription date without flag",
			user: &models.User{Subscribed: false, SubscriptionUntil: timePtr(t0.Add(time.Hour))},
			now:  t0,
			want: false,
		},
		{
			name: "subscribed without date",
			user: &models.User{Subscribed: true},
			now:  t0,
			want: false,
		},
		{
			name: "expired trial, active subscription",
			user: &models.User{
				TrialUntil:        timePtr(t0.Add(-time.Hour)),
				Subscribed:        true,
				SubscriptionUntil: timePtr(t0.Add(time.Hour)),
			},
			now:  t0,
			want: true,
		},
		{
			name: "agreement does not matter",
			user: &models.User{Agreed: true, TrialUntil: timePtr(t0.Add(-time.Hour))},
			now:  t0,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrialSubscriptionPolicy{}.HasAccess(tt.user, tt.now))
		})
	}
}

// Доступ монотонен: если его нет в момент t, его нет и позже, пока поля не менялись.
func TestTrialSubscriptionPolicy_Monotonic(t *testing.T) {
	users := []*models.User{
		{TrialUntil: timePtr(t0.AddDate(0, 0, 3))},
		{Subscribed: true, SubscriptionUntil: timePtr(t0.AddDate(0, 0, 10))},
		{TrialUntil: timePtr(t0.AddDate(0, 0, 5)), Subscribed: true, SubscriptionUntil: timePtr(t0.AddDate(0, 0, 2))},
		{},
	}
	policy := TrialSubscriptionPolicy{}
	for i, u := range users {
		lost := false
		for h := 0; h < 24*20; h++ {
			has := policy.HasAccess(u, t0.Add(time.Duration(h)*time.Hour))
			if lost {
				assert.False(t, has, "user %d regained access at hour %d", i, h)
			}
			if !has {
				lost = true
			}
		}
	}
}

func TestTrialSubscriptionPolicy_TrialThenSubscription(t *testing.T) {
	policy := TrialSubscriptionPolicy{}
	user := &models.User{TrialUntil: timePtr(t0.AddDate(0, 0, 32))}

	assert.True(t, policy.HasAccess(user, t0.AddDate(0, 0, 31)))
	assert.False(t, policy.HasAccess(user, t0.AddDate(0, 0, 33)))

	user.Subscribed = true
	user.SubscriptionUntil = timePtr(t0.AddDate(0, 0, 33+30))
	assert.True(t, policy.HasAccess(user, t0.AddDate(0, 0, 40)))
	assert.False(t, policy.HasAccess(user, t0.AddDate(0, 0, 64)))
}

func TestAgreementPolicy_HasAccess(t *testing.T) {
	policy := AgreementPolicy{}
	assert.False(t, policy.HasAccess(nil, t0))
	assert.False(t, policy.HasAccess(&models.User{TrialUntil: timePtr(t0.AddDate(1, 0, 0))}, t0))
	assert.True(t, policy.HasAccess(&models.User{Agreed: true}, t0.AddDate(10, 0, 0)))
}

func TestNewPolicy(t *testing.T) {
	p, err := NewPolicy(PolicyTrialSubscription)
	require.NoError(t, err)
	assert.IsType(t, TrialSubscriptionPolicy{}, p)

	p, err = NewPolicy(PolicyAgreement)
	require.NoError(t, err)
	assert.IsType(t, AgreementPolicy{}, p)

	_, err = NewPolicy("everyone")
	assert.Error(t, err)
}

// Package metrics регистрирует метрики Prometheus дневника.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "journal"

var (
	// BroadcastRuns число запусков ежедневной рассылки.
	BroadcastRuns = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_runs_total",
		Help:      "Number of daily broadcast runs.",
	})

	// BroadcastResults результаты рассылки по пользователям.
	BroadcastResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_results_total",
		Help:      "Per-user broadcast outcomes.",
	}, []string{"result"})

	// AffirmationRepeats выдачи повтора, когда все попытки попали в окно исключений.
	AffirmationRepeats = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "affirmation_repeats_total",
		Help:      "Affirmations issued on the degrade-to-repeat path.",
	})

	// AccessDecisions решения политики доступа.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_decisions_total",
		Help:      "Access policy decisions.",
	}, []string{"decision"})

	// JournalEntries сохранённые записи дневника.
	JournalEntries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_total",
		Help:      "Saved journal entries.",
	})
)

const (
	ResultDelivered = "delivered"
	ResultFailed    = "failed"

	DecisionGranted = "granted"
	DecisionDenied  = "denied"
)

// Package scheduler рассылает ежедневные аффирмации.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/luminary-journal/internal/lib/sl"
	"github.com/magabrotheeeer/luminary-journal/internal/metrics"
	"github.com/magabrotheeeer/luminary-journal/internal/models"
)

// UserLister выдаёт пользователей, которым положена рассылка.
type UserLister interface {
	ListEligibleUserIDs(ctx context.Context, eligibility models.Eligibility, now time.Time) ([]int64, error)
}

// AffirmationSource выбирает аффирмацию и записывает отметку о ней.
type AffirmationSource interface {
	Next(ctx context.Context, userID int64) (string, error)
}

// Sender доставляет текст пользователю.
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Result содержит итог рассылки для одного пользователя. Err == nil означает доставку.
type Result struct {
	UserID int64
	Err    error
}

// Report содержит итог одного запуска рассылки.
type Report struct {
	RunID   string
	Results []Result
}

// Failed возвращает число пользователей, которым не удалось доставить аффирмацию.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// SchedulerService выполняет ежедневную рассылку.
type SchedulerService struct {
	users       UserLister
	source      AffirmationSource
	sender      Sender
	eligibility models.Eligibility
	limiter     *rate.Limiter
	log         *slog.Logger
	now         func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
// limiter может быть nil, тогда отправка не ограничивается.
func NewSchedulerService(users UserLister, source AffirmationSource, sender Sender,
	eligibility models.Eligibility, limiter *rate.Limiter, log *slog.Logger,
) *SchedulerService {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &SchedulerService{
		users:       users,
		source:      source,
		sender:      sender,
		eligibility: eligibility,
		limiter:     limiter,
		log:         log,
		now:         time.Now,
	}
}

// FireDaily запускает рассылку каждый день в hour:minute часового пояса loc,
// пока не отменён ctx. Пропущенные запуски не догоняются.
func (s *SchedulerService) FireDaily(ctx context.Context, hour, minute int, loc *time.Location) {
	for {
		now := s.now()
		next := NextRun(now, hour, minute, loc)
		s.log.Info("next daily broadcast scheduled", slog.Time("at", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("daily broadcast stopped")
			return
		case <-timer.C:
		}

		if _, err := s.Broadcast(ctx); err != nil {
			s.log.Error("daily broadcast failed", sl.Err(err))
		}
	}
}

// NextRun возвращает ближайший момент hour:minute в loc строго после now.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}

// Broadcast выполняет один запуск рассылки. Ошибка возвращается, только если
// не удалось получить список пользователей; сбои по отдельным пользователям
// попадают в Report и не прерывают запуск.
func (s *SchedulerService) Broadcast(ctx context.Context) (Report, error) {
	const op = "scheduler.Broadcast"
	report := Report{RunID: uuid.NewString()}
	log := s.log.With(slog.String("run_id", report.RunID))
	metrics.BroadcastRuns.Inc()

	log.Info("starting daily broadcast", slog.String("eligibility", string(s.eligibility)))
	userIDs, err := s.users.ListEligibleUserIDs(ctx, s.eligibility, s.now().UTC())
	if err != nil {
		return report, fmt.Errorf("%s: %w", op, err)
	}
	if len(userIDs) == 0 {
		log.Info("no eligible users found")
		return report, nil
	}
	log.Info("found eligible users", "count", len(userIDs))

	report.Results = make([]Result, 0, len(userIDs))
	for _, userID := range userIDs {
		if err = s.limiter.Wait(ctx); err != nil {
			log.Warn("broadcast interrupted", sl.Err(err), slog.Int("done", len(report.Results)))
			return report, nil
		}
		res := s.deliver(ctx, userID)
		if res.Err != nil {
			metrics.BroadcastResults.WithLabelValues(metrics.ResultFailed).Inc()
			log.Error("failed to deliver affirmation", sl.UserID(userID), sl.Err(res.Err))
		} else {
			metrics.BroadcastResults.WithLabelValues(metrics.ResultDelivered).Inc()
		}
		report.Results = append(report.Results, res)
	}

	log.Info("daily broadcast finished",
		slog.Int("total", len(report.Results)),
		slog.Int("failed", report.Failed()),
	)
	return report, nil
}

func (s *SchedulerService) deliver(ctx context.Context, userID int64) (res Result) {
	res.UserID = userID
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
	}()

	text, err := s.source.Next(ctx, userID)
	if err != nil {
		res.Err = err
		return res
	}
	res.Err = s.sender.Send(ctx, userID, text)
	return res
}

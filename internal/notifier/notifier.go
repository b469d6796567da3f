package notifier

import (
	"context"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	timeoutDuration = 30 * time.Second
	// resendGuard keeps a run that fires twice within the same hour from sending twice.
	resendGuard = 23 * time.Hour

	jobDue          = "due"
	jobHousekeeping = "housekeeping"
)

type digestRepository interface {
	ListScheduled(ctx context.Context) ([]models.ScheduledDigest, error)
	MarkSent(ctx context.Context, userID string, t models.DigestType, at time.Time) error
}

type duePublisher interface {
	PublishDue(ctx context.Context, sd models.ScheduledDigest, scheduledFor time.Time) error
}

type sessionEvicter interface {
	Evict(ttl time.Duration) int
}

// Notifier turns preferred hours into due digests and reading reminders.
type Notifier struct {
	repo       digestRepository
	publisher  duePublisher
	sessions   sessionEvicter
	logger     zerolog.Logger
	cron       *cron.Cron
	cancel     context.CancelFunc
	m          *metrics.Metrics
	dueSpec    string
	housekeep  string
	weeklyDay  time.Weekday
	sessionTTL time.Duration
	now        func() time.Time
}

// Schedule configures when the notifier runs.
type Schedule struct {
	DueSpec          string
	HousekeepingSpec string
	WeeklyDay        time.Weekday
	SessionTTL       time.Duration
}

func New(
	repo digestRepository,
	pub duePublisher,
	sessions sessionEvicter,
	logger zerolog.Logger,
	sched Schedule,
	m *metrics.Metrics,
) *Notifier {
	logger = logger.With().Str("component", "Notifier").Logger()
	return &Notifier{
		repo:       repo,
		publisher:  pub,
		sessions:   sessions,
		logger:     logger,
		cron:       cron.New(cron.WithSeconds()),
		m:          m,
		dueSpec:    sched.DueSpec,
		housekeep:  sched.HousekeepingSpec,
		weeklyDay:  sched.WeeklyDay,
		sessionTTL: sched.SessionTTL,
		now:        time.Now,
	}
}

// Start schedules the due and housekeeping jobs.
func (n *Notifier) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel

	if _, err := n.cron.AddFunc(n.dueSpec, func() {
		n.m.CronJob(jobDue, func() { n.RunDue(ctx, n.now()) })
	}); err != nil {
		n.logger.Error().Err(err).Msg("failed to schedule due job")
		n.m.TechnicalErrors.WithLabelValues("cron_schedule_error", "critical").Inc()
		cancel()
		return err
	}

	if _, err := n.cron.AddFunc(n.housekeep, func() {
		n.m.CronJob(jobHousekeeping, n.Housekeep)
	}); err != nil {
		n.logger.Error().Err(err).Msg("failed to schedule housekeeping job")
		n.m.TechnicalErrors.WithLabelValues("cron_schedule_error", "critical").Inc()
		cancel()
		return err
	}

	n.cron.Start()
	n.logger.Info().
		Str("due_spec", n.dueSpec).
		Str("weekly_day", n.weeklyDay.String()).
		Msg("notifier started")
	return nil
}

// Stop cancels all scheduled jobs and waits for running ones.
func (n *Notifier) Stop() {
	if n.cancel != nil {
		n.cancel()
	}
	stopCtx := n.cron.Stop()
	<-stopCtx.Done()
	n.logger.Info().Msg("all cron jobs finished, notifier stopped")
}

// Housekeep drops idle preference sessions.
func (n *Notifier) Housekeep() {
	evicted := n.sessions.Evict(n.sessionTTL)
	if evicted > 0 {
		n.logger.Info().Int("evicted", evicted).Msg("idle sessions evicted")
	}
}

// RunDue publishes every subscription due at now and records it as sent.
func (n *Notifier) RunDue(ctx context.Context, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, timeoutDuration)
	defer cancel()

	subs, err := n.repo.ListScheduled(ctx)
	if err != nil {
		n.logger.Error().Err(err).Msg("error fetching scheduled subscriptions")
		n.m.TechnicalErrors.WithLabelValues("fetch_scheduled", "critical").Inc()
		return
	}

	var wg sync.WaitGroup
	due := 0
	for _, sub := range subs {
		if !IsDue(sub, now, n.weeklyDay) {
			continue
		}
		due++
		wg.Add(1)
		go func(sd models.ScheduledDigest) {
			defer wg.Done()
			if err := n.SendOne(ctx, sd, now); err != nil {
				n.logger.Error().Err(err).
					Str("user_id", sd.UserID).
					Str("type", string(sd.Type)).
					Msg("error publishing due notification")
			}
		}(sub)
	}
	wg.Wait()

	n.logger.Info().Int("scheduled", len(subs)).Int("due", due).Msg("completed due run")
}

// SendOne publishes one due notification, then updates last_sent_at.
func (n *Notifier) SendOne(ctx context.Context, sd models.ScheduledDigest, now time.Time) error {
	if err := n.publisher.PublishDue(ctx, sd, now); err != nil {
		n.m.TechnicalErrors.WithLabelValues("publish_due_error", "critical").Inc()
		return err
	}
	n.m.DueNotifications.WithLabelValues(string(sd.Type)).Inc()

	return n.repo.MarkSent(ctx, sd.UserID, sd.Type, now)
}

// IsDue reports whether sd should go out at now. The preferred hour is read
// in the owner's timezone, falling back to UTC for unknown zones. Reading
// reminders and workdays digests go out Monday to Friday, weekly digests on
// weeklyDay.
func IsDue(sd models.ScheduledDigest, now time.Time, weeklyDay time.Weekday) bool {
	if sd.LastSentAt != nil && now.Sub(*sd.LastSentAt) < resendGuard {
		return false
	}

	local := now.In(location(sd.Timezone))
	if local.Hour() != sd.PreferredHour {
		return false
	}

	if sd.Type == models.DigestTypeReadingReminder {
		return isWorkday(local.Weekday())
	}

	switch sd.SendType {
	case models.SendTypeDaily:
		return isWorkday(local.Weekday())
	case models.SendTypeWeekly:
		return local.Weekday() == weeklyDay
	default:
		return false
	}
}

func isWorkday(d time.Weekday) bool {
	return d != time.Saturday && d != time.Sunday
}

func location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

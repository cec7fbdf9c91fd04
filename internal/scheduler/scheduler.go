package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/studyplan/internal/logger"
	"github.com/example/studyplan/internal/timezone"
	"github.com/example/studyplan/pkg/models"
)

// Local hours during which backlog warnings may be sent
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 21
)

// Notifier delivers backlog warnings and recovery reports to a user
type Notifier interface {
	NotifyBacklog(userID int64, status *models.BacklogStatus) error
	NotifyRecovery(userID int64, result *models.RecoveryResult) error
}

// UserLister lists the users the monitor checks
type UserLister interface {
	ListActive(ctx context.Context) ([]models.User, error)
}

// BacklogService is the part of the review service the monitor drives
type BacklogService interface {
	AnalyzeBacklog(ctx context.Context, userID int64) (*models.BacklogStatus, error)
	ActivateRecovery(ctx context.Context, userID int64, daysToSpread int) (*models.RecoveryResult, error)
}

// BacklogMonitor periodically analyzes every active user's backlog
type BacklogMonitor struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	users     UserLister
	service   BacklogService
	notifier  Notifier
	log       *logger.Logger
	now       func() time.Time

	StartHour int
	EndHour   int
}

// New creates a backlog monitor running every interval
func New(interval time.Duration, users UserLister, service BacklogService, notifier Notifier, log *logger.Logger) *BacklogMonitor {
	if log == nil {
		log = logger.Nop()
	}
	return &BacklogMonitor{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		users:     users,
		service:   service,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
		StartHour: DefaultNotificationStartHour,
		EndHour:   DefaultNotificationEndHour,
	}
}

// Start begins running the periodic check. The first run happens immediately.
func (m *BacklogMonitor) Start() error {
	_, err := m.scheduler.Every(m.interval).SingletonMode().Do(m.checkBacklogs)
	if err != nil {
		return fmt.Errorf("failed to schedule backlog check: %w", err)
	}
	m.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (m *BacklogMonitor) Stop() {
	m.scheduler.Stop()
}

func (m *BacklogMonitor) checkBacklogs() {
	ctx := context.Background()
	users, err := m.users.ListActive(ctx)
	if err != nil {
		m.log.Error("failed to list users for backlog check", "error", err)
		return
	}

	for _, user := range users {
		if err := m.checkUser(ctx, user.ID, user.AutoRecovery, m.inNotificationHours(user)); err != nil {
			m.log.Warn("backlog check failed", "user_id", user.ID, "error", err)
		}
	}
}

// RunManualCheck analyzes one user now and notifies regardless of the hour.
// Auto recovery is not applied.
func (m *BacklogMonitor) RunManualCheck(ctx context.Context, userID int64) (*models.BacklogStatus, error) {
	status, err := m.service.AnalyzeBacklog(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status.RecoveryRecommended {
		if err := m.notifier.NotifyBacklog(userID, status); err != nil {
			return status, fmt.Errorf("failed to notify user %d: %w", userID, err)
		}
	}
	return status, nil
}

func (m *BacklogMonitor) checkUser(ctx context.Context, userID int64, autoRecovery, notify bool) error {
	status, err := m.service.AnalyzeBacklog(ctx, userID)
	if err != nil {
		return err
	}
	if !status.RecoveryRecommended {
		return nil
	}

	if autoRecovery {
		result, err := m.service.ActivateRecovery(ctx, userID, status.SuggestedDays)
		if err != nil {
			return fmt.Errorf("auto recovery: %w", err)
		}
		m.log.Info("auto recovery applied", "user_id", userID, "batch_id", result.BatchID, "redistributed", result.RedistributedCount)
		if notify {
			return m.notifier.NotifyRecovery(userID, result)
		}
		return nil
	}

	if notify {
		return m.notifier.NotifyBacklog(userID, status)
	}
	m.log.Debug("backlog warning held outside notification hours", "user_id", userID, "severity", status.Severity)
	return nil
}

// inNotificationHours checks the current hour in the user's own timezone
func (m *BacklogMonitor) inNotificationHours(user models.User) bool {
	loc, err := timezone.ParseTimezone(user.Timezone)
	if err != nil {
		m.log.Warn("invalid user timezone, using UTC", "user_id", user.ID, "timezone", user.Timezone)
	}
	hour := m.now().In(loc).Hour()
	return hour >= m.StartHour && hour <= m.EndHour
}

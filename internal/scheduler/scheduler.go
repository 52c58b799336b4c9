package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"inventaris/internal/database"
	"inventaris/internal/logger"
	"inventaris/internal/models"

	"github.com/robfig/cron/v3"
)

// SessionCleaner drops expired sessions from stores that do not expire
// them on their own.
type SessionCleaner interface {
	Cleanup(ctx context.Context) (int64, error)
}

type Reminder interface {
	IsEnabled() bool
	SendOverdueReminder(ctx context.Context, appName string, borrower *models.User, b *models.Borrowing) error
}

type Config struct {
	CleanupSchedule  string
	ReminderSchedule string
}

type Scheduler struct {
	cron     *cron.Cron
	db       *sql.DB
	sessions SessionCleaner
	reminder Reminder
	now      func() time.Time
}

// New registers the jobs. A nil cleaner or a disabled reminder skips the
// matching job.
func New(db *sql.DB, cfg Config, sessions SessionCleaner, reminder Reminder) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(logger.GetLogger())
	s := &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLogger), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		db:       db,
		sessions: sessions,
		reminder: reminder,
		now:      time.Now,
	}

	if sessions != nil {
		if _, err := s.cron.AddFunc(cfg.CleanupSchedule, s.runCleanup); err != nil {
			return nil, fmt.Errorf("invalid cleanup schedule %q: %w", cfg.CleanupSchedule, err)
		}
	}

	if reminder != nil && reminder.IsEnabled() {
		if _, err := s.cron.AddFunc(cfg.ReminderSchedule, s.runReminders); err != nil {
			return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.ReminderSchedule, err)
		}
	}

	return s, nil
}

func (s *Scheduler) Start() {
	logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.sessions.Cleanup(ctx)
	if err != nil {
		logger.Error("Session cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		logger.Info("Expired sessions removed", "count", removed)
	}
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	sent, err := s.SendOverdueReminders(ctx)
	if err != nil {
		logger.Error("Overdue reminders failed", "error", err)
	}
	logger.Info("Overdue reminders sent", "count", sent)
}

// SendOverdueReminders mails every borrower holding an item past its return
// date and reports how many reminders went out.
func (s *Scheduler) SendOverdueReminders(ctx context.Context) (int, error) {
	overdue, err := database.GetOverdueBorrowings(s.db, database.Today(s.now()))
	if err != nil {
		return 0, err
	}
	if len(overdue) == 0 {
		return 0, nil
	}

	settings, err := database.GetSettings(s.db)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range overdue {
		b := &overdue[i]

		borrower, err := database.GetUserByID(s.db, b.UserID)
		if err != nil {
			logger.Warn("Skipping reminder for missing borrower", "borrowing_id", b.ID, "error", err)
			continue
		}
		if borrower.Email == "" {
			continue
		}

		if err := s.reminder.SendOverdueReminder(ctx, settings.AppName, borrower, b); err != nil {
			logger.Warn("Failed to send overdue reminder", "borrowing_id", b.ID, "error", err)
			continue
		}
		sent++
	}

	return sent, nil
}

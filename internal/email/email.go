package email

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"inventaris/internal/config"
	"inventaris/internal/logger"
	"inventaris/internal/models"

	"github.com/mailgun/mailgun-go/v5"
)

var ErrDisabled = errors.New("email service is not configured")

// adminNotifyTimeout caps one background fan-out to the admins.
const adminNotifyTimeout = 30 * time.Second

type Service struct {
	client      mailgun.Mailgun
	domain      string
	senderEmail string
	senderName  string
	enabled     bool

	pending sync.WaitGroup
}

func NewService(cfg *config.Config) *Service {
	enabled := cfg.MailgunDomain != "" && cfg.MailgunAPIKey != ""

	var client mailgun.Mailgun
	if enabled {
		client = mailgun.NewMailgun(cfg.MailgunAPIKey)
		if cfg.MailgunAPIBase != "" {
			if err := client.SetAPIBase(cfg.MailgunAPIBase); err != nil {
				logger.Warn("Ignoring MAILGUN_API_BASE", "error", err)
			}
		}
	}

	return &Service{
		client:      client,
		domain:      cfg.MailgunDomain,
		senderEmail: cfg.MailgunSenderEmail,
		senderName:  cfg.MailgunSenderName,
		enabled:     enabled,
	}
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.enabled
}

func (s *Service) send(ctx context.Context, to string, msg message) error {
	if !s.IsEnabled() {
		return ErrDisabled
	}

	m := mailgun.NewMessage(
		s.domain,
		fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail),
		msg.subject,
		msg.text,
		to,
	)
	m.SetHTML(msg.html)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.client.Send(ctx, m); err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", msg.subject, to, err)
	}

	logger.Info("Email sent", "subject", msg.subject, "email", to)
	return nil
}

// NotifyBorrowingRequested emails every admin with an address about a new
// request. Sending happens in the background and outlives ctx; failures are
// logged. Use Wait to drain pending sends.
func (s *Service) NotifyBorrowingRequested(ctx context.Context, appName string, admins []models.User, b *models.Borrowing) error {
	if !s.IsEnabled() {
		return ErrDisabled
	}

	var recipients []string
	for _, admin := range admins {
		if admin.Email != "" {
			recipients = append(recipients, admin.Email)
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	msg := borrowingRequested(appName, b)
	borrowingID := b.ID
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), adminNotifyTimeout)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()

		var wg sync.WaitGroup
		for _, to := range recipients {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.send(ctx, to, msg); err != nil {
					logger.Warn("Failed to send borrowing request email", "borrowing_id", borrowingID, "error", err)
				}
			}()
		}
		wg.Wait()
	}()
	return nil
}

// Wait blocks until background notifications finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	if s == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NotifyBorrowingDecision tells the borrower their request was approved,
// rejected or recorded as returned.
func (s *Service) NotifyBorrowingDecision(ctx context.Context, appName string, borrower *models.User, b *models.Borrowing) error {
	if borrower == nil || borrower.Email == "" {
		return nil
	}
	return s.send(ctx, borrower.Email, borrowingDecision(appName, borrower, b))
}

func (s *Service) SendOverdueReminder(ctx context.Context, appName string, borrower *models.User, b *models.Borrowing) error {
	if borrower == nil || borrower.Email == "" {
		return nil
	}
	return s.send(ctx, borrower.Email, overdueReminder(appName, borrower, b))
}

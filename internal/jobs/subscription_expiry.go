// subscription_expiry.go implements the SubscriptionExpiryNotifier background job, which
// periodically deactivates subscriptions past their end date and sends a warning email
// to the owning organization's admins ahead of expiry. Notification state is persisted
// in the database (notified_at column) so emails are sent exactly once even across
// server restarts. The email step is a no-op when notifications.enabled is false or
// when the SMTP host is not configured; the deactivation sweep always runs, so the
// job is always safe to start regardless of deployment environment.
package jobs

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/tanx-mis/tanx-mis/internal/config"
	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/telemetry"
)

// SubscriptionExpiryNotifier deactivates lapsed subscriptions and emails org
// admins whose subscription is about to expire.
type SubscriptionExpiryNotifier struct {
	subRepo  *repositories.SubscriptionRepository
	orgRepo  *repositories.OrganizationRepository
	cfg      *config.NotificationsConfig
	interval time.Duration
	stopChan chan struct{}
}

// NewSubscriptionExpiryNotifier creates a new SubscriptionExpiryNotifier.
// The check interval defaults to 24h.
func NewSubscriptionExpiryNotifier(
	subRepo *repositories.SubscriptionRepository,
	orgRepo *repositories.OrganizationRepository,
	cfg *config.NotificationsConfig,
) *SubscriptionExpiryNotifier {
	hours := cfg.SubscriptionExpiryCheckIntervalHours
	if hours <= 0 {
		hours = 24
	}
	return &SubscriptionExpiryNotifier{
		subRepo:  subRepo,
		orgRepo:  orgRepo,
		cfg:      cfg,
		interval: time.Duration(hours) * time.Hour,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background expiry loop.
// It runs an initial check immediately, then repeats on the configured interval.
// The loop exits when ctx is cancelled or Stop() is called.
func (n *SubscriptionExpiryNotifier) Start(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	log.Printf("subscription expiry notifier started (check interval: %v, warning window: %d days)",
		n.interval, n.cfg.SubscriptionExpiryWarningDays)

	// Run once immediately on startup
	n.runCheck(ctx)

	for {
		select {
		case <-ticker.C:
			n.runCheck(ctx)
		case <-n.stopChan:
			log.Println("subscription expiry notifier stopped")
			return
		case <-ctx.Done():
			log.Println("subscription expiry notifier context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (n *SubscriptionExpiryNotifier) Stop() {
	close(n.stopChan)
}

// emailsEnabled reports whether the warning-email step should run.
func (n *SubscriptionExpiryNotifier) emailsEnabled() bool {
	return n.cfg.Enabled && n.cfg.SMTP.Host != ""
}

// runCheck deactivates lapsed subscriptions, then sends warning emails for
// subscriptions inside the warning window.
func (n *SubscriptionExpiryNotifier) runCheck(ctx context.Context) {
	deactivated, err := n.subRepo.DeactivateExpired(ctx)
	if err != nil {
		log.Printf("subscription expiry notifier: failed to deactivate lapsed subscriptions: %v", err)
	} else if deactivated > 0 {
		log.Printf("subscription expiry notifier: deactivated %d lapsed subscription(s)", deactivated)
	}

	if !n.emailsEnabled() {
		return
	}

	warningDays := n.cfg.SubscriptionExpiryWarningDays
	if warningDays <= 0 {
		warningDays = 7
	}

	subs, err := n.subRepo.ListExpiring(ctx, time.Duration(warningDays)*24*time.Hour)
	if err != nil {
		log.Printf("subscription expiry notifier: failed to query expiring subscriptions: %v", err)
		return
	}

	if len(subs) == 0 {
		return
	}

	log.Printf("subscription expiry notifier: found %d subscription(s) approaching expiry", len(subs))

	for _, sub := range subs {
		emails, err := n.orgRepo.ListAdminEmails(ctx, sub.OrganizationID)
		if err != nil {
			log.Printf("subscription expiry notifier: could not resolve admins for organization %s: %v",
				sub.OrganizationID, err)
			continue
		}
		if len(emails) == 0 {
			continue
		}

		if err := n.sendExpiryEmail(emails, sub); err != nil {
			log.Printf("subscription expiry notifier: failed to send email for subscription %s: %v", sub.ID, err)
			continue
		}

		telemetry.SubscriptionExpiryNotificationsSentTotal.Inc()

		if err := n.subRepo.MarkNotified(ctx, sub.ID); err != nil {
			log.Printf("subscription expiry notifier: failed to mark notification sent for subscription %s: %v",
				sub.ID, err)
		}
	}
}

// sendExpiryEmail composes and delivers a plain-text warning email via SMTP.
func (n *SubscriptionExpiryNotifier) sendExpiryEmail(toEmails []string, sub *models.OrganizationSubscription) error {
	daysLeft := int(time.Until(sub.EndDate).Hours()/24) + 1
	if daysLeft < 0 {
		daysLeft = 0
	}

	subject := fmt.Sprintf("Action Required: Your subscription expires in %d day(s)", daysLeft)
	body := strings.Join([]string{
		"Hello,",
		"",
		fmt.Sprintf("Your organization's subscription will expire on %s (%d day(s) from now).",
			sub.EndDate.UTC().Format(time.RFC1123), daysLeft),
		"",
		"Once the subscription lapses, active projects stay readable but no new",
		"projects can be activated until a renewal request is approved.",
		"",
		"To avoid disruption, please submit a renewal request before the expiry date:",
		"  1. Log in to the platform.",
		"  2. Navigate to Settings > Subscription.",
		"  3. Request a renewal or upgrade.",
		"",
		"— tanx-mis",
	}, "\r\n")

	smtpCfg := &n.cfg.SMTP
	headers := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n",
		smtpCfg.From, strings.Join(toEmails, ", "), subject,
	)
	msg := []byte(headers + body + "\r\n")

	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)
	auth := smtp.PlainAuth("", smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)

	if smtpCfg.UseTLS {
		return sendMailTLS(addr, smtpCfg.Host, auth, smtpCfg.From, toEmails, msg)
	}
	return smtp.SendMail(addr, auth, smtpCfg.From, toEmails, msg)
}

// sendMailTLS connects via implicit TLS (port 465 / SMTPS) and sends a message.
// Use this when UseTLS=true and the port is 465; for port 587 STARTTLS,
// smtp.SendMail handles the upgrade automatically — but we call this path for
// both so the config is unambiguous: UseTLS=true always means an encrypted connection.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		// Fall back to STARTTLS via the standard smtp.SendMail path (port 587 pattern)
		return smtp.SendMail(addr, auth, from, to, msg)
	}
	defer conn.Close()

	hostname, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, hostname)
	if err != nil {
		return fmt.Errorf("smtp new client: %w", err)
	}
	defer c.Quit() //nolint:errcheck

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := c.Rcpt(addr); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", addr, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	return w.Close()
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/backlot-hq/backlot-backend/config"
	istore "github.com/backlot-hq/backlot-backend/internal/store"
	"github.com/backlot-hq/backlot-backend/logger"
	"github.com/backlot-hq/backlot-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/resend/resend-go/v2"
)

type EmailMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

// EmailService sends rejection notifications to entry owners through
// Resend. Sending is best-effort; the rejection itself never waits on it.
type EmailService struct {
	config  *config.EmailConfig
	client  *resend.Client
	users   istore.UserStore
	metrics *EmailMetrics
}

func NewEmailService(cfg *config.EmailConfig, users istore.UserStore) *EmailService {
	return NewEmailServiceWithRegistry(cfg, users, prometheus.DefaultRegisterer)
}

func NewEmailServiceWithRegistry(cfg *config.EmailConfig, users istore.UserStore, reg prometheus.Registerer) *EmailService {
	logger.GetLogger().Infow("Initializing email service", "from", cfg.FromAddress)
	client := resend.NewClient(cfg.ResendAPIKey)
	metrics := &EmailMetrics{
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backlot_email_send_duration_seconds",
			Help:    "Time taken to send emails",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		}),
		errorCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backlot_email_errors_total",
			Help: "Total number of email sending errors",
		}),
		sentCount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backlot_emails_sent_total",
			Help: "Total number of emails sent",
		}),
	}

	reg.MustRegister(metrics.sendLatency)
	reg.MustRegister(metrics.errorCount)
	reg.MustRegister(metrics.sentCount)

	return &EmailService{
		config:  cfg,
		client:  client,
		users:   users,
		metrics: metrics,
	}
}

type rejectionTemplateData struct {
	EntryLabel      string
	TotalAmount     string
	Currency        string
	RejectionReason string
}

// NotifyRejection emails the entry owner their submission was rejected,
// including the approver's reason when one was given.
func (s *EmailService) NotifyRejection(ctx context.Context, ownerUserID string, entry *types.ExpenseEntry) error {
	startTime := time.Now()
	log := logger.GetLogger()
	defer func() {
		s.metrics.sendLatency.Observe(time.Since(startTime).Seconds())
	}()

	email, err := s.users.GetUserEmail(ctx, ownerUserID)
	if err != nil {
		s.metrics.errorCount.Inc()
		return fmt.Errorf("failed to resolve owner email: %w", err)
	}

	data := rejectionTemplateData{
		EntryLabel:      entryLabel(entry),
		TotalAmount:     entry.TotalAmount.StringFixed(2),
		Currency:        entry.Currency,
		RejectionReason: entry.RejectionReason,
	}

	tmpl, err := template.New("rejection").Parse(rejectionEmailTemplate)
	if err != nil {
		s.metrics.errorCount.Inc()
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var htmlContent bytes.Buffer
	if err := tmpl.Execute(&htmlContent, data); err != nil {
		s.metrics.errorCount.Inc()
		return fmt.Errorf("failed to execute template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress),
		To:      []string{email},
		Subject: fmt.Sprintf("Expense rejected: %s", data.EntryLabel),
		Html:    htmlContent.String(),
	}

	if _, err := s.client.Emails.Send(params); err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to send rejection email",
			"error", err,
			"entry_id", entry.ID)
		return fmt.Errorf("email send failed: %w", err)
	}

	s.metrics.sentCount.Inc()
	log.Infow("Rejection email sent", "entry_id", entry.ID)
	return nil
}

func entryLabel(entry *types.ExpenseEntry) string {
	if entry.Kind == types.EntryKindKitRental && entry.KitName != "" {
		return entry.KitName
	}
	if entry.StartAddress != "" && entry.EndAddress != "" {
		return fmt.Sprintf("%s to %s", entry.StartAddress, entry.EndAddress)
	}
	return "expense entry"
}

const rejectionEmailTemplate = `
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Your expense entry was rejected</h2>
    <p><strong>{{.EntryLabel}}</strong> ({{.TotalAmount}} {{.Currency}}) was
    rejected by an approver.</p>
    {{if .RejectionReason}}
    <p>Reason: {{.RejectionReason}}</p>
    {{end}}
    <p>You can edit the entry and submit it again from the expenses page.</p>
</body>
</html>
`

package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	gomail "gopkg.in/mail.v2"

	"github.com/wonny/alphaforge/internal/screening"
	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/logger"
)

// Message is a rendered notification
type Message struct {
	Subject string
	Body    string
}

// Mailer sends batch summaries over SMTP
// ⭐ SSOT: 배치 결과 메일 발송은 여기서만
type Mailer struct {
	cfg    config.SMTPConfig
	logger *logger.Logger
	send   func(m *gomail.Message) error
}

// NewMailer creates a new Mailer
func NewMailer(cfg config.SMTPConfig, log *logger.Logger) *Mailer {
	m := &Mailer{
		cfg:    cfg,
		logger: log.WithField("module", "notify"),
	}
	m.send = m.dialAndSend
	return m
}

// Enabled reports whether SMTP delivery is configured
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.Host != "" && m.cfg.To != ""
}

// SendBatchSummary mails the summary of one batch run (no-op when disabled)
func (m *Mailer) SendBatchSummary(ctx context.Context, summary *screening.BatchSummary) error {
	if !m.Enabled() {
		m.logger.Debug("SMTP disabled, skipping batch summary")
		return nil
	}
	if summary == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := RenderBatchSummary(summary)

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from())
	gm.SetHeader("To", splitAddresses(m.cfg.To)...)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)

	if err := m.send(gm); err != nil {
		m.logger.WithError(err).WithField("subject", msg.Subject).Error("Failed to send batch summary")
		return fmt.Errorf("send batch summary: %w", err)
	}

	m.logger.WithField("subject", msg.Subject).Info("Batch summary sent")
	return nil
}

func (m *Mailer) dialAndSend(msg *gomail.Message) error {
	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.User, m.cfg.Password)
	dialer.Timeout = 10 * time.Second
	return dialer.DialAndSend(msg)
}

func (m *Mailer) from() string {
	if m.cfg.From != "" {
		return m.cfg.From
	}
	return m.cfg.User
}

// splitAddresses parses a comma separated recipient list
func splitAddresses(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// RenderBatchSummary builds the subject and plain text body
func RenderBatchSummary(s *screening.BatchSummary) Message {
	subject := fmt.Sprintf("AlphaForge screening: %d processed, %d errors, %d total",
		s.Processed, s.Errors, s.Total)

	var b strings.Builder
	fmt.Fprintf(&b, "Run ID:      %s\n", s.RunID)
	fmt.Fprintf(&b, "Started:     %s\n", s.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration:    %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Config hash: %s\n", s.ConfigHash)
	fmt.Fprintf(&b, "Processed:   %s / %s (errors: %s)\n",
		humanize.Comma(int64(s.Processed)), humanize.Comma(int64(s.Total)), humanize.Comma(int64(s.Errors)))

	fmt.Fprintf(&b, "\nDisqualified (%d)\n", len(s.Disqualified))
	if len(s.Disqualified) == 0 {
		b.WriteString("  none\n")
	}
	for _, d := range s.Disqualified {
		fmt.Fprintf(&b, "  - %s (id %d, score %d)", displaySymbol(d.Symbol), d.CompanyID, d.QualityScore)
		if d.Reason != "" {
			fmt.Fprintf(&b, ": %s", d.Reason)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nFailures (%d)\n", len(s.Failures))
	if len(s.Failures) == 0 {
		b.WriteString("  none\n")
	}
	for _, f := range s.Failures {
		fmt.Fprintf(&b, "  - id %d: %s\n", f.CompanyID, f.Error)
	}

	return Message{Subject: subject, Body: b.String()}
}

func displaySymbol(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

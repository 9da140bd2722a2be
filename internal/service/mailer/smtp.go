package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockBrief/internal/domain/models"
	drepo "StockBrief/internal/domain/repository"
	applogger "StockBrief/pkg/logger"

	"github.com/wneessen/go-mail"
)

// Config holds SMTP settings. The sender address doubles as the login.
type Config struct {
	Host      string
	Port      int
	From      string
	Password  string
	Recipient string
	Timeout   time.Duration
}

// SMTP sends reports over STARTTLS with PLAIN auth. There is no retry.
type SMTP struct {
	cfg  Config
	log  *applogger.Logger
	dial func(ctx context.Context, c *mail.Client, msg *mail.Msg) error
}

var _ drepo.Mailer = (*SMTP)(nil)

func New(cfg Config, log *applogger.Logger) *SMTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTP{
		cfg: cfg,
		log: log.With(applogger.String("component", "mailer")),
		dial: func(ctx context.Context, c *mail.Client, msg *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, msg)
		},
	}
}

// Send delivers report to the configured recipient.
func (s *SMTP) Send(ctx context.Context, report models.Report) error {
	msg, err := s.message(report)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.From),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := s.dial(ctx, client, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Info("report emailed", applogger.String("recipient", s.cfg.Recipient), applogger.String("subject", report.Subject))
	return nil
}

func (s *SMTP) message(report models.Report) (*mail.Msg, error) {
	if report.HTML == "" {
		return nil, errors.New("empty report")
	}
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(s.cfg.Recipient); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	msg.Subject(report.Subject)
	msg.SetDate()

	// the HTML part is the preferred alternative, so it goes last
	text := report.Text
	if text == "" {
		text = report.Subject
	}
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, report.HTML)
	return msg, nil
}

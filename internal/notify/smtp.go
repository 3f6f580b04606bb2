package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"custodian/internal/platform/config"
	"custodian/pkg/platform/circuit"
)

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers email through a relay. Repeated relay failures open the
// circuit so a dead relay does not stall every account in a run.
type SMTP struct {
	addr     string
	from     string
	auth     smtp.Auth
	timeout  time.Duration
	breaker  *circuit.Breaker
	logger   *slog.Logger
	sendMail sendMailFunc
	now      func() time.Time
}

// SMTPOption configures the SMTP notifier.
type SMTPOption func(*SMTP)

func WithBreaker(b *circuit.Breaker) SMTPOption {
	return func(s *SMTP) { s.breaker = b }
}

func WithSMTPLogger(logger *slog.Logger) SMTPOption {
	return func(s *SMTP) { s.logger = logger }
}

func withSendMail(fn sendMailFunc) SMTPOption {
	return func(s *SMTP) { s.sendMail = fn }
}

func NewSMTP(cfg config.SMTPConfig, opts ...SMTPOption) *SMTP {
	s := &SMTP{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:     cfg.From,
		timeout:  cfg.Timeout,
		breaker:  circuit.New("smtp"),
		logger:   slog.Default(),
		sendMail: smtp.SendMail,
		now:      time.Now,
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SMTP) Send(ctx context.Context, msg Message) bool {
	if len(msg.Recipients) == 0 {
		s.logger.WarnContext(ctx, "email has no recipients", "subject", msg.Subject)
		return false
	}
	if err := ctx.Err(); err != nil {
		return false
	}

	raw := s.compose(msg)
	change, err := s.breaker.Execute(func() error {
		return s.deliver(ctx, msg.Recipients, raw)
	})
	if change.Opened {
		s.logger.ErrorContext(ctx, "smtp circuit opened", "breaker", s.breaker.Name())
	}
	if change.Closed {
		s.logger.InfoContext(ctx, "smtp circuit closed", "breaker", s.breaker.Name())
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "email delivery failed",
			"subject", msg.Subject,
			"recipients", msg.Recipients,
			"error", err,
		)
		return false
	}
	return true
}

// deliver bounds the blocking smtp call by the configured timeout and ctx.
func (s *SMTP) deliver(ctx context.Context, to []string, raw []byte) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	done := make(chan error, 1)
	go func() {
		done <- s.sendMail(s.addr, s.auth, s.from, to, raw)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

func (s *SMTP) compose(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.Recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", s.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return b.Bytes()
}

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"freezewatch/internal/types"
)

// smtpSendMail matches the signature of smtp.SendMail; extracted so tests can
// intercept the wire call without a live SMTP server.
type smtpSendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPProvider implements EmailProvider over authenticated SMTP with
// STARTTLS, the path the original deployment uses with Gmail app passwords.
type SMTPProvider struct {
	host     string
	port     int
	username string
	password types.SecretString
	sendMail smtpSendMail
	logger   *slog.Logger
}

// SMTPProviderConfig holds the settings for creating an SMTPProvider.
type SMTPProviderConfig struct {
	Host     string
	Port     int
	Username string
	Password types.SecretString
	Logger   *slog.Logger
}

// NewSMTPProvider creates an SMTPProvider for the given server and
// credentials.
func NewSMTPProvider(cfg SMTPProviderConfig) *SMTPProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPProvider{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		sendMail: smtp.SendMail,
		logger:   logger,
	}
}

// Name returns the provider identifier for logging.
func (p *SMTPProvider) Name() string { return "smtp" }

// Send submits the message via SMTP. smtp.SendMail negotiates STARTTLS when
// the server advertises it, which Gmail's submission port requires.
func (p *SMTPProvider) Send(ctx context.Context, input SendInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	auth := smtp.PlainAuth("", p.username, p.password.Unmask(), p.host)

	msg := buildMessage(input)
	if err := p.sendMail(addr, auth, input.From, []string{input.To}, msg); err != nil {
		return "", types.NewAppError(
			types.ErrCodeUpstreamEmailProvider,
			fmt.Sprintf("smtp send via %s: %v", addr, err),
			err,
		)
	}

	// SMTP has no provider message ID; the reference ID stands in.
	return input.ReferenceID, nil
}

// buildMessage assembles an RFC 5322 plaintext message.
func buildMessage(input SendInput) []byte {
	from := input.From
	if input.FromName != "" {
		from = fmt.Sprintf("%s <%s>", input.FromName, input.From)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", input.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", input.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(input.BodyText)
	return []byte(b.String())
}

// Compile-time assertion that SMTPProvider implements EmailProvider.
var _ EmailProvider = (*SMTPProvider)(nil)

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"freezewatch/internal/types"
)

// resendEmailsAPI is the subset of the Resend emails service used by
// ResendProvider, extracted for testability.
type resendEmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendProvider implements EmailProvider using the Resend API.
type ResendProvider struct {
	emails resendEmailsAPI
	logger *slog.Logger
}

// NewResendProvider creates a ResendProvider with the given API key.
func NewResendProvider(apiKey types.SecretString, logger *slog.Logger) *ResendProvider {
	if logger == nil {
		logger = slog.Default()
	}
	client := resend.NewClient(apiKey.Unmask())
	return &ResendProvider{
		emails: client.Emails,
		logger: logger,
	}
}

// newResendProviderWithAPI is the test constructor taking a mock emails
// service.
func newResendProviderWithAPI(emails resendEmailsAPI, logger *slog.Logger) *ResendProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResendProvider{
		emails: emails,
		logger: logger,
	}
}

// Name returns the provider identifier for logging.
func (p *ResendProvider) Name() string { return "resend" }

// Send transmits the message through the Resend API and returns the message
// ID Resend assigns.
func (p *ResendProvider) Send(ctx context.Context, input SendInput) (string, error) {
	from := input.From
	if input.FromName != "" {
		from = fmt.Sprintf("%s <%s>", input.FromName, input.From)
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{input.To},
		Subject: input.Subject,
		Text:    input.BodyText,
	}

	sent, err := p.emails.SendWithContext(ctx, params)
	if err != nil {
		return "", types.NewAppError(
			types.ErrCodeUpstreamEmailProvider,
			fmt.Sprintf("resend send failed: %v", err),
			err,
		)
	}

	return sent.Id, nil
}

// Compile-time assertion that ResendProvider implements EmailProvider.
var _ EmailProvider = (*ResendProvider)(nil)

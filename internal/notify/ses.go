package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"freezewatch/internal/types"
)

// SESAPI defines the subset of the SES v2 client used by SESProvider.
// Extracted for testability — tests can provide a mock implementation.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESProviderConfig holds the configuration for creating an SESProvider.
type SESProviderConfig struct {
	// ConfigSetName is the SES configuration set name for tracking.
	// Optional; if empty, no configuration set is used.
	ConfigSetName string
	Logger        *slog.Logger
}

// SESProvider implements EmailProvider using AWS SES v2. Authentication is
// handled via IAM roles, which makes it the natural choice for the Lambda
// entrypoint.
type SESProvider struct {
	api           SESAPI
	configSetName string
	logger        *slog.Logger
}

// NewSESProvider creates an SESProvider from an AWS config.
func NewSESProvider(awsCfg aws.Config, cfg SESProviderConfig) *SESProvider {
	return NewSESProviderWithAPI(sesv2.NewFromConfig(awsCfg), cfg)
}

// NewSESProviderWithAPI creates an SESProvider with a pre-configured SESAPI.
// Useful for testing with a mock SES interface.
func NewSESProviderWithAPI(api SESAPI, cfg SESProviderConfig) *SESProvider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SESProvider{
		api:           api,
		configSetName: cfg.ConfigSetName,
		logger:        logger,
	}
}

// Name returns the provider identifier for logging.
func (p *SESProvider) Name() string { return "ses" }

// Send transmits the message using SES v2 SendEmail with simple plaintext
// content.
//
// Error mapping:
//   - MessageRejected → ErrCodeEmailBlocked
//   - TooManyRequestsException → ErrCodeUpstreamRateLimited
//   - Other → ErrCodeUpstreamEmailProvider
func (p *SESProvider) Send(ctx context.Context, input SendInput) (string, error) {
	fromAddr := input.From
	if input.FromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", input.FromName, input.From)
	}

	emailInput := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddr),
		Destination: &sestypes.Destination{
			ToAddresses: []string{input.To},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{
					Data:    aws.String(input.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &sestypes.Body{
					Text: &sestypes.Content{
						Data:    aws.String(input.BodyText),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if p.configSetName != "" {
		emailInput.ConfigurationSetName = aws.String(p.configSetName)
	}

	if input.ReferenceID != "" {
		emailInput.EmailTags = []sestypes.MessageTag{
			{
				Name:  aws.String("ReferenceID"),
				Value: aws.String(input.ReferenceID),
			},
		}
	}

	result, err := p.api.SendEmail(ctx, emailInput)
	if err != nil {
		return "", mapSESError(err)
	}

	return aws.ToString(result.MessageId), nil
}

// mapSESError translates AWS SES errors into domain AppErrors.
func mapSESError(err error) error {
	var msgRejected *sestypes.MessageRejected
	if errors.As(err, &msgRejected) {
		return types.NewAppError(
			types.ErrCodeEmailBlocked,
			fmt.Sprintf("SES rejected message: %v", err),
			err,
		)
	}

	var tooManyReqs *sestypes.TooManyRequestsException
	if errors.As(err, &tooManyReqs) {
		return types.NewAppError(
			types.ErrCodeUpstreamRateLimited,
			fmt.Sprintf("SES rate limit exceeded: %v", err),
			err,
		)
	}

	return types.NewAppError(
		types.ErrCodeUpstreamEmailProvider,
		fmt.Sprintf("SES error: %v", err),
		err,
	)
}

// Compile-time assertion that SESProvider implements EmailProvider.
var _ EmailProvider = (*SESProvider)(nil)

package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freezewatch/internal/types"
)

// mockResendEmails captures the send request and returns a canned response.
type mockResendEmails struct {
	params *resend.SendEmailRequest
	resp   *resend.SendEmailResponse
	err    error
}

func (m *mockResendEmails) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func TestResendProviderSend(t *testing.T) {
	ctx := context.Background()
	input := SendInput{
		To:       "dest@example.com",
		From:     "alerts@example.com",
		FromName: "Freeze Alerts",
		Subject:  "SECOND FROST - Scotts Mills Oregon",
		BodyText: "SECOND FROST\nLow: 30F",
	}

	t.Run("sends plaintext and returns the message ID", func(t *testing.T) {
		api := &mockResendEmails{resp: &resend.SendEmailResponse{Id: "re-msg-1"}}
		p := newResendProviderWithAPI(api, nil)

		msgID, err := p.Send(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, "re-msg-1", msgID)
		require.NotNil(t, api.params)
		assert.Equal(t, "Freeze Alerts <alerts@example.com>", api.params.From)
		assert.Equal(t, []string{"dest@example.com"}, api.params.To)
		assert.Equal(t, input.Subject, api.params.Subject)
		assert.Equal(t, input.BodyText, api.params.Text)
		assert.Empty(t, api.params.Html)
	})

	t.Run("API failure maps to an upstream provider error", func(t *testing.T) {
		api := &mockResendEmails{err: errors.New("401 invalid api key")}
		p := newResendProviderWithAPI(api, nil)

		_, err := p.Send(ctx, input)

		require.Error(t, err)
		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeUpstreamEmailProvider, appErr.Code)
	})
}

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"freezewatch/internal/alert"
	"freezewatch/internal/types"
)

// footerTimeLayout formats the run timestamp in the message footer.
const footerTimeLayout = "01/02 03:04PM MST"

// Notifier renders alert events and status summaries into plaintext messages
// and delivers them through the configured EmailProvider. A failed send is
// reported to the caller but never retried here; the history mutation that
// produced the event stays committed either way.
type Notifier struct {
	provider     EmailProvider
	sender       string
	senderName   string
	recipient    string
	locationName string
	location     *time.Location
	clock        types.Clock
	logger       *slog.Logger
}

// NotifierConfig holds the dependencies and addressing for a Notifier.
type NotifierConfig struct {
	Provider     EmailProvider
	Sender       string
	SenderName   string
	Recipient    string
	LocationName string
	Location     *time.Location
	Clock        types.Clock
	Logger       *slog.Logger
}

// NewNotifier creates a Notifier with the given configuration.
func NewNotifier(cfg NotifierConfig) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Notifier{
		provider:     cfg.Provider,
		sender:       cfg.Sender,
		senderName:   cfg.SenderName,
		recipient:    cfg.Recipient,
		locationName: cfg.LocationName,
		location:     loc,
		clock:        clock,
		logger:       logger,
	}
}

// SendAlert delivers one alert event.
func (n *Notifier) SendAlert(ctx context.Context, ev types.AlertEvent, refID string) error {
	subject := fmt.Sprintf("%s - %s", ev.Kind.Headline(), n.locationName)
	body := n.withFooter(ev.Kind.Headline() + "\n" + ev.Message)
	return n.deliver(ctx, subject, body, refID)
}

// SendStatus delivers the no-alert status message with the window minimums,
// so a silent scheduled run is distinguishable from a broken one.
func (n *Notifier) SendStatus(ctx context.Context, sum alert.Summary, refID string) error {
	lines := []string{"No freeze detected", ""}
	if sum.Min48hF != nil {
		lines = append(lines, fmt.Sprintf("48hr low: %.0fF", *sum.Min48hF))
	}
	if sum.Min7dF != nil {
		lines = append(lines, fmt.Sprintf("7day low: %.0fF", *sum.Min7dF))
	}

	subject := fmt.Sprintf("Freeze check - %s", n.locationName)
	body := n.withFooter(strings.Join(lines, "\n"))
	return n.deliver(ctx, subject, body, refID)
}

// withFooter appends the location name and the local send time.
func (n *Notifier) withFooter(body string) string {
	now := n.clock.Now().In(n.location)
	return fmt.Sprintf("%s\n\n%s\n%s", body, n.locationName, now.Format(footerTimeLayout))
}

func (n *Notifier) deliver(ctx context.Context, subject, body, refID string) error {
	msgID, err := n.provider.Send(ctx, SendInput{
		To:          n.recipient,
		From:        n.sender,
		FromName:    n.senderName,
		Subject:     subject,
		BodyText:    body,
		ReferenceID: refID,
	})
	if err != nil {
		return err
	}

	n.logger.InfoContext(ctx, "notification sent",
		"provider", n.provider.Name(),
		"subject", subject,
		"message_id", msgID,
	)
	return nil
}

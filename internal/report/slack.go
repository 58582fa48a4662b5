package report

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/birthday-service/internal/birthday"
	"github.com/slack-go/slack"
)

// SlackEmitter posts the report to a Slack incoming webhook.
type SlackEmitter struct {
	WebhookURL string
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
}

var defaultSlackClient = &http.Client{Timeout: 10 * time.Second}

func (s *SlackEmitter) Emit(ctx context.Context, r birthday.Report) error {
	color := "good"
	if r.Failed > 0 {
		color = "warning"
	}
	msg := &slack.WebhookMessage{
		Text: r.Subject(),
		Attachments: []slack.Attachment{{
			Color: color,
			Fields: []slack.AttachmentField{
				{Title: "Total birthday users", Value: strconv.Itoa(r.Total()), Short: true},
				{Title: "Sent", Value: strconv.Itoa(r.Succeeded), Short: true},
				{Title: "Failed", Value: strconv.Itoa(r.Failed), Short: true},
				{Title: "Duration", Value: fmt.Sprintf("%ds", r.DurationSeconds()), Short: true},
			},
			Footer: r.RunID,
		}},
	}
	client := s.HTTPClient
	if client == nil {
		client = defaultSlackClient
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.WebhookURL, client, msg); err != nil {
		return fmt.Errorf("slack report: %w", err)
	}
	return nil
}

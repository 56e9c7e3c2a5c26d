package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

// SlackNotifier posts run summaries to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL, channel string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		channel:    channel,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, summary RunSummary) error {
	color := "#36a64f" // green
	switch summary.Outcome {
	case OutcomePartial:
		color = "#ff9900" // orange
	case OutcomeAborted:
		color = "#cc0000" // dark red
	}

	totals := summary.Totals()
	fields := []slackField{
		{Title: "Outcome", Value: string(summary.Outcome), Short: true},
		{Title: "Duration", Value: summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond).String(), Short: true},
		{Title: "Created", Value: fmt.Sprintf("%d", totals.Created), Short: true},
		{Title: "Existing", Value: fmt.Sprintf("%d", totals.Existing), Short: true},
	}
	for _, c := range summary.Sources {
		fields = append(fields, slackField{
			Title: sourceLabel(c.AlertType),
			Value: fmt.Sprintf("%d scanned, %d created, %d failed", c.Scanned, c.Created, c.Failed),
			Short: false,
		})
	}
	if summary.Error != "" {
		fields = append(fields, slackField{Title: "Error", Value: summary.Error})
	}
	if len(summary.Failures) > 0 {
		value := strings.Join(summary.Failures, "\n")
		if summary.MoreFailures > 0 {
			value += fmt.Sprintf("\n... and %d more", summary.MoreFailures)
		}
		fields = append(fields, slackField{Title: "Failures", Value: value})
	}

	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color:  color,
				Title:  fmt.Sprintf("Fleet Expiry Guardian: alert generation %s", summary.Outcome),
				Fields: fields,
				Footer: "Fleet Expiry Guardian",
				Ts:     summary.FinishedAt.Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack summary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
}

func sourceLabel(t model.AlertType) string {
	switch t {
	case model.AlertDocumentExpiry:
		return "Documents"
	case model.AlertMaintenanceDue:
		return "Maintenance"
	default:
		return string(t)
	}
}

type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Fields []slackField `json:"fields"`
	Footer string       `json:"footer"`
	Ts     int64        `json:"ts"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/costwatch/costwatch/pkg/model"
)

// SlackNotifier sends anomaly alerts to a Slack webhook.
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

func (s *SlackNotifier) Send(ctx context.Context, alert Alert) error {
	color := "#36a64f" // green
	switch alert.Severity {
	case model.SeverityLow:
		color = "#ffcc00" // yellow
	case model.SeverityMedium:
		color = "#ff9900" // orange
	case model.SeverityHigh:
		color = "#ff0000" // red
	}

	payload := slackPayload{
		Channel: s.channel,
		Attachments: []slackAttachment{
			{
				Color: color,
				Title: fmt.Sprintf("Costwatch: %s severity cost anomaly", string(alert.Severity)),
				Fields: []slackField{
					{Title: "Resource", Value: alert.ResourceID, Short: false},
					{Title: "Subscription", Value: alert.SubscriptionID, Short: true},
					{Title: "Date", Value: alert.Date.Format("2006-01-02"), Short: true},
					{Title: "Actual Cost", Value: fmt.Sprintf("$%.2f", alert.ActualCost), Short: true},
					{Title: "Expected Cost", Value: fmt.Sprintf("$%.2f", alert.ExpectedCost), Short: true},
					{Title: "Deviation Score", Value: fmt.Sprintf("%.2f", alert.DeviationScore), Short: true},
				},
				Footer: "Costwatch",
				Ts:     time.Now().Unix(),
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
		return fmt.Errorf("send slack alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}
	return nil
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

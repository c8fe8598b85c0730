package alerts

import (
	"context"
	"time"

	"github.com/costwatch/costwatch/pkg/model"
)

// Alert is a single anomaly notification for external delivery.
type Alert struct {
	Severity       model.Severity `json:"severity"`
	ResourceID     string         `json:"resource_id"`
	SubscriptionID string         `json:"subscription_id"`
	Date           time.Time      `json:"date"`
	ActualCost     float64        `json:"actual_cost"`
	ExpectedCost   float64        `json:"expected_cost"`
	DeviationScore float64        `json:"deviation_score"`
	Message        string         `json:"message"`
}

// Notifier delivers alerts to an external system.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}

// Package alerts routes classified anomalies to notification channels.
// High severity anomalies are dispatched individually to every configured
// notifier; Medium and Low are recorded in aggregate only.
package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/costwatch/costwatch/pkg/model"
)

// Router partitions anomaly records by severity and dispatches them.
type Router struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// NewRouter creates an alert router. An empty notifier list is valid:
// routing then only produces the tally and log records.
func NewRouter(notifiers []Notifier, logger *slog.Logger) *Router {
	return &Router{notifiers: notifiers, logger: logger}
}

// Dispatch routes one run's anomalies and returns the per-severity tally.
// Delivery failures are logged and never discard the tally or the records:
// notification is a best-effort side channel.
func (r *Router) Dispatch(ctx context.Context, records []model.AnomalyRecord) model.AlertTally {
	tally := model.NewAlertTally()

	var high []model.AnomalyRecord
	for _, rec := range records {
		tally[rec.Severity]++
		if rec.Severity == model.SeverityHigh {
			high = append(high, rec)
		}
	}

	for _, rec := range high {
		r.logger.Warn("high severity cost anomaly",
			"resource", rec.ResourceID,
			"date", rec.Date.Format("2006-01-02"),
			"actual_cost", rec.ActualCost,
			"expected_cost", rec.ExpectedCost,
			"deviation_score", rec.DeviationScore,
		)
		r.send(ctx, alertFor(rec))
	}

	if n := tally[model.SeverityMedium]; n > 0 {
		r.logger.Info("medium severity cost anomalies", "count", n)
	}
	if n := tally[model.SeverityLow]; n > 0 {
		r.logger.Info("low severity cost anomalies", "count", n)
	}

	return tally
}

func (r *Router) send(ctx context.Context, alert Alert) {
	for _, n := range r.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			r.logger.Error("send alert failed",
				"notifier", n.Name(),
				"resource", alert.ResourceID,
				"error", err,
			)
		}
	}
}

func alertFor(rec model.AnomalyRecord) Alert {
	return Alert{
		Severity:       rec.Severity,
		ResourceID:     rec.ResourceID,
		SubscriptionID: rec.SubscriptionID,
		Date:           rec.Date,
		ActualCost:     rec.ActualCost,
		ExpectedCost:   rec.ExpectedCost,
		DeviationScore: rec.DeviationScore,
		Message: fmt.Sprintf("Cost %s on %s: $%.2f against an expected $%.2f (deviation score %.2f)",
			rec.Direction, rec.ResourceID, rec.ActualCost, rec.ExpectedCost, rec.DeviationScore),
	}
}

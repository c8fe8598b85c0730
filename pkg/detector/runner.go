package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/costwatch/costwatch/pkg/alerts"
	"github.com/costwatch/costwatch/pkg/model"
	"github.com/costwatch/costwatch/pkg/profiles"
	"github.com/costwatch/costwatch/pkg/storage"
)

// DefaultLookbackDays is the detection window used when the caller does not
// supply one.
const DefaultLookbackDays = 30

// ErrMissingSubscription is returned when a run is requested without a
// subscription id. The run never starts.
var ErrMissingSubscription = errors.New("subscription id is required")

// RunConfig holds the run-level defaults a Runner falls back to when no
// per-subscription profile overrides them.
type RunConfig struct {
	Detector     Config
	LookbackDays int
}

// Runner executes one detection run end to end: read the telemetry window
// from storage, run the statistical core, persist results, route alerts.
// Persistence and alert delivery are best-effort side channels; their
// failure never discards computed records or the run summary.
type Runner struct {
	store    storage.Storage
	router   *alerts.Router
	registry *profiles.Registry
	cfg      RunConfig
	logger   *slog.Logger
}

// NewRunner creates a detection runner. registry may be nil when no
// per-subscription profiles are configured.
func NewRunner(store storage.Storage, router *alerts.Router, registry *profiles.Registry, cfg RunConfig, logger *slog.Logger) *Runner {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	return &Runner{
		store:    store,
		router:   router,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run performs one detection run for a subscription over the lookback
// window. lookbackDays <= 0 selects the configured default. A run over a
// window with no observations is not an error: it reports a zero-anomaly
// summary. A cancelled context aborts the run without a partial tally.
func (r *Runner) Run(ctx context.Context, subscriptionID string, lookbackDays int) (*model.RunSummary, error) {
	if strings.TrimSpace(subscriptionID) == "" {
		return nil, ErrMissingSubscription
	}
	if lookbackDays <= 0 {
		lookbackDays = r.cfg.LookbackDays
	}

	runID := uuid.New().String()
	since := model.Day(time.Now().UTC()).AddDate(0, 0, -lookbackDays)

	observations, err := r.store.QueryObservations(ctx, subscriptionID, since)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}

	summary := &model.RunSummary{
		RunID:          runID,
		SubscriptionID: subscriptionID,
		LookbackDays:   lookbackDays,
		AlertTally:     model.NewAlertTally(),
		HighSeverity:   []model.AnomalyRecord{},
		Timestamp:      time.Now().UTC(),
	}

	if len(observations) == 0 {
		r.logger.Info("no cost data available for analysis", "subscription", subscriptionID, "lookback_days", lookbackDays)
		return summary, nil
	}

	det := New(r.resolveConfig(subscriptionID))
	result, err := det.Detect(ctx, observations)
	if err != nil {
		return nil, fmt.Errorf("detect anomalies: %w", err)
	}

	detectedAt := time.Now().UTC()
	for i := range result.Anomalies {
		result.Anomalies[i].ID = uuid.New().String()
		result.Anomalies[i].RunID = runID
		result.Anomalies[i].DetectedAt = detectedAt
	}

	if err := r.store.SaveAnomalies(ctx, result.Anomalies); err != nil {
		r.logger.Error("persist anomalies failed", "subscription", subscriptionID, "run_id", runID, "error", err)
	}

	summary.ResourcesAnalyzed = result.ResourcesAnalyzed
	summary.AnomaliesDetected = len(result.Anomalies)
	summary.AlertTally = r.router.Dispatch(ctx, result.Anomalies)
	for _, rec := range result.Anomalies {
		if rec.Severity == model.SeverityHigh {
			summary.HighSeverity = append(summary.HighSeverity, rec)
		}
	}

	r.logger.Info("detection run completed",
		"subscription", subscriptionID,
		"run_id", runID,
		"lookback_days", lookbackDays,
		"resources", summary.ResourcesAnalyzed,
		"anomalies", summary.AnomaliesDetected,
		"high", summary.AlertTally[model.SeverityHigh],
		"medium", summary.AlertTally[model.SeverityMedium],
		"low", summary.AlertTally[model.SeverityLow],
	)

	return summary, nil
}

// resolveConfig applies the subscription's profile overrides, if any, on top
// of the runner defaults.
func (r *Runner) resolveConfig(subscriptionID string) Config {
	cfg := r.cfg.Detector
	if r.registry == nil {
		return cfg
	}

	p, ok := r.registry.Get(subscriptionID)
	if !ok {
		return cfg
	}

	if p.ZScoreThreshold > 0 {
		cfg.ZScoreThreshold = p.ZScoreThreshold
	}
	if p.MinCostThreshold > 0 {
		cfg.MinCostThreshold = p.MinCostThreshold
	}
	if p.ConfidenceThreshold > 0 {
		cfg.ConfidenceThreshold = p.ConfidenceThreshold
	}
	if p.MinHistoryDays > 0 {
		cfg.MinHistoryDays = p.MinHistoryDays
	}
	return cfg
}

package detector_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/pkg/alerts"
	"github.com/costwatch/costwatch/pkg/detector"
	"github.com/costwatch/costwatch/pkg/model"
	"github.com/costwatch/costwatch/pkg/profiles"
	"github.com/costwatch/costwatch/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRunner(t *testing.T, notifiers []alerts.Notifier) (*detector.Runner, storage.Storage) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := testLogger()
	router := alerts.NewRouter(notifiers, logger)
	runner := detector.NewRunner(store, router, nil, detector.RunConfig{
		Detector: detector.Config{
			ZScoreThreshold:  2.0,
			MinCostThreshold: 10.0,
		},
		LookbackDays: 30,
	}, logger)
	return runner, store
}

// recentObs places observations on the i-th day before today so they land
// inside the runner's lookback window.
func recentObs(resource string, daysAgo int, cost float64) model.Observation {
	return model.Observation{
		ResourceID:     resource,
		SubscriptionID: "sub-1",
		Date:           model.Day(time.Now().UTC()).AddDate(0, 0, -daysAgo),
		Cost:           cost,
	}
}

func seedSpikedResource(t *testing.T, store storage.Storage, resource string) {
	t.Helper()
	var observations []model.Observation
	for i := 29; i >= 1; i-- {
		cost := 98.0
		if i%2 == 1 {
			cost = 102.0
		}
		observations = append(observations, recentObs(resource, i, cost))
	}
	observations = append(observations, recentObs(resource, 0, 400))
	require.NoError(t, store.SaveObservations(context.Background(), observations))
}

func TestRunner_MissingSubscription(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	_, err := runner.Run(context.Background(), "", 30)
	require.ErrorIs(t, err, detector.ErrMissingSubscription)

	_, err = runner.Run(context.Background(), "   ", 30)
	require.ErrorIs(t, err, detector.ErrMissingSubscription)
}

func TestRunner_NoData(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	summary, err := runner.Run(context.Background(), "sub-1", 30)
	require.NoError(t, err)

	assert.Equal(t, "sub-1", summary.SubscriptionID)
	assert.Equal(t, 30, summary.LookbackDays)
	assert.Zero(t, summary.ResourcesAnalyzed)
	assert.Zero(t, summary.AnomaliesDetected)
	assert.Equal(t, 0, summary.AlertTally.Total())
	// Every tier is reported even when empty.
	for _, severity := range model.Severities {
		_, ok := summary.AlertTally[severity]
		assert.True(t, ok)
	}
}

func TestRunner_EndToEnd(t *testing.T) {
	runner, store := newTestRunner(t, nil)
	seedSpikedResource(t, store, "vm-1")

	summary, err := runner.Run(context.Background(), "sub-1", 30)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ResourcesAnalyzed)
	assert.Equal(t, 1, summary.AnomaliesDetected)
	assert.Equal(t, 1, summary.AlertTally[model.SeverityHigh])
	assert.Equal(t, summary.AnomaliesDetected, summary.AlertTally.Total())
	require.Len(t, summary.HighSeverity, 1)
	assert.Equal(t, "vm-1", summary.HighSeverity[0].ResourceID)
	assert.NotEmpty(t, summary.RunID)

	// Anomalies are persisted with run id and detection timestamp.
	records, err := store.QueryAnomalies(context.Background(), model.AnomalyFilter{SubscriptionID: "sub-1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, summary.RunID, records[0].RunID)
	assert.False(t, records[0].DetectedAt.IsZero())
}

func TestRunner_DefaultLookback(t *testing.T) {
	runner, _ := newTestRunner(t, nil)

	summary, err := runner.Run(context.Background(), "sub-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.LookbackDays)
}

func TestRunner_CancelledRun(t *testing.T) {
	runner, store := newTestRunner(t, nil)
	seedSpikedResource(t, store, "vm-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := runner.Run(ctx, "sub-1", 30)
	require.Error(t, err)
	assert.Nil(t, summary)
}

type failingSink struct {
	storage.Storage
}

func (f *failingSink) SaveAnomalies(context.Context, []model.AnomalyRecord) error {
	return errors.New("sink unreachable")
}

func TestRunner_SinkFailureDoesNotAbortRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	seedSpikedResource(t, store, "vm-1")

	logger := testLogger()
	runner := detector.NewRunner(&failingSink{Storage: store}, alerts.NewRouter(nil, logger), nil, detector.RunConfig{
		Detector: detector.Config{ZScoreThreshold: 2.0, MinCostThreshold: 10.0},
	}, logger)

	// Persistence is a best-effort side channel: the summary still
	// reports the computed anomalies.
	summary, err := runner.Run(context.Background(), "sub-1", 30)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.AnomaliesDetected)
	assert.Equal(t, 1, summary.AlertTally[model.SeverityHigh])
}

func TestRunner_ProfileOverridesThresholds(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := storage.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	seedSpikedResource(t, store, "vm-1")

	registry := profiles.NewRegistry()
	require.NoError(t, registry.Register(&profiles.Profile{
		Subscription:     "sub-1",
		MinCostThreshold: 500, // above the spike cost, suppressing it
	}))

	logger := testLogger()
	runner := detector.NewRunner(store, alerts.NewRouter(nil, logger), registry, detector.RunConfig{
		Detector: detector.Config{ZScoreThreshold: 2.0, MinCostThreshold: 10.0},
	}, logger)

	summary, err := runner.Run(context.Background(), "sub-1", 30)
	require.NoError(t, err)
	assert.Zero(t, summary.AnomaliesDetected)
}

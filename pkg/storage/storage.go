package storage

import (
	"context"
	"time"

	"github.com/costwatch/costwatch/pkg/model"
)

// Storage defines the persistence layer for cost observations and
// detected anomalies.
type Storage interface {
	// SaveObservations persists a batch of raw cost observations.
	SaveObservations(ctx context.Context, observations []model.Observation) error

	// QueryObservations retrieves the observations for one subscription
	// on or after the given day, ordered by date ascending.
	QueryObservations(ctx context.Context, subscriptionID string, since time.Time) ([]model.Observation, error)

	// SaveAnomalies persists detected anomaly records.
	SaveAnomalies(ctx context.Context, records []model.AnomalyRecord) error

	// QueryAnomalies retrieves anomaly records matching the given filter,
	// newest first.
	QueryAnomalies(ctx context.Context, filter model.AnomalyFilter) ([]model.AnomalyRecord, error)

	// Close releases resources.
	Close() error
}

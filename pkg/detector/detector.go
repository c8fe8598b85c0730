// Package detector implements the statistical core of cost anomaly
// detection: assembling per-resource daily series, scoring each day against
// a rolling baseline, classifying deviations by severity, and orchestrating
// full detection runs against storage and alerting collaborators.
package detector

import (
	"context"

	"github.com/costwatch/costwatch/pkg/model"
)

// Config holds the thresholds one detection pass runs with.
type Config struct {
	ZScoreThreshold     float64
	MinCostThreshold    float64
	ConfidenceThreshold float64
	MinHistoryDays      int
}

// Result is the output of one detection pass.
type Result struct {
	Anomalies []model.AnomalyRecord
	// ResourcesAnalyzed counts distinct resources in the raw input,
	// including those skipped for insufficient history.
	ResourcesAnalyzed int
	// Baselines maps resource id to the baselines of its scoring pass.
	// The carry-forward baseline seeds the next incremental evaluation.
	Baselines map[string]Baselines
}

// Detector runs the statistical core over one batch of observations.
// It is pure and deterministic: identical input and configuration always
// yield an identical set of anomaly records.
type Detector struct {
	classifier Classifier
	minHistory int
}

// New creates a detector from config, substituting defaults for zero values.
func New(cfg Config) *Detector {
	minHistory := cfg.MinHistoryDays
	if minHistory <= 0 {
		minHistory = MinHistoryDays
	}
	return &Detector{
		classifier: NewClassifier(cfg.ZScoreThreshold, cfg.MinCostThreshold),
		minHistory: minHistory,
	}
}

// Detect assembles, scores, and classifies one batch of observations.
// Degenerate series (too short, zero variance) are skipped per resource and
// never fail the run. Cancellation is all-or-nothing: a cancelled context
// returns ctx.Err() and no partial result.
func (d *Detector) Detect(ctx context.Context, observations []model.Observation) (*Result, error) {
	series := AssembleSeries(observations, d.minHistory)

	result := &Result{
		ResourcesAnalyzed: CountResources(observations),
		Baselines:         make(map[string]Baselines, len(series)),
	}

	for _, s := range series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		scored, baselines := ScoreSeries(s)
		if scored == nil {
			continue
		}
		result.Baselines[s.ResourceID] = baselines

		for _, p := range scored {
			record, ok := d.classifier.Classify(s.ResourceID, s.SubscriptionID, p, baselines.Scoring)
			if !ok {
				continue
			}
			result.Anomalies = append(result.Anomalies, record)
		}
	}

	return result, nil
}

package detector

import (
	"math"

	"github.com/costwatch/costwatch/pkg/model"
)

// Default anomaly qualification thresholds.
const (
	DefaultZScoreThreshold  = 2.0
	DefaultMinCostThreshold = 10.0
)

// Severity boundaries. Severity takes the more severe of the statistical
// signal and the absolute dollar impact.
const (
	highScoreBound    = 3.0
	highImpactBound   = 1000.0
	mediumScoreBound  = 2.0
	mediumImpactBound = 100.0
)

// Classifier turns scored points into anomaly verdicts. A point qualifies
// only when the deviation score clears ZScoreThreshold AND the actual cost
// clears MinCostThreshold: a large statistical deviation on a negligible
// cost must not alert.
type Classifier struct {
	ZScoreThreshold  float64
	MinCostThreshold float64
}

// NewClassifier creates a classifier, substituting defaults for
// non-positive thresholds.
func NewClassifier(zScoreThreshold, minCostThreshold float64) Classifier {
	if zScoreThreshold <= 0 {
		zScoreThreshold = DefaultZScoreThreshold
	}
	if minCostThreshold <= 0 {
		minCostThreshold = DefaultMinCostThreshold
	}
	return Classifier{
		ZScoreThreshold:  zScoreThreshold,
		MinCostThreshold: minCostThreshold,
	}
}

// Classify evaluates one scored point against its baseline. Non-anomalous
// points produce no record; the second return reports whether a record was
// emitted.
func (c Classifier) Classify(resourceID, subscriptionID string, p ScoredPoint, baseline model.Baseline) (model.AnomalyRecord, bool) {
	absScore := math.Abs(p.Score)
	if absScore < c.ZScoreThreshold || p.Point.Cost < c.MinCostThreshold {
		return model.AnomalyRecord{}, false
	}

	direction := model.DirectionDrop
	if p.Point.Cost > baseline.Mean {
		direction = model.DirectionSurge
	}

	variancePercent := 0.0
	if baseline.Mean > 0 {
		variancePercent = (p.Point.Cost - baseline.Mean) / baseline.Mean * 100
	}

	return model.AnomalyRecord{
		ResourceID:      resourceID,
		SubscriptionID:  subscriptionID,
		Date:            p.Point.Date,
		ActualCost:      p.Point.Cost,
		ExpectedCost:    baseline.Mean,
		Variance:        p.Point.Cost - baseline.Mean,
		VariancePercent: variancePercent,
		DeviationScore:  p.Score,
		Direction:       direction,
		Severity:        severityFor(p.Score, p.Point.Cost, baseline.Mean),
		Confidence:      math.Min(1.0, absScore/3.0),
		IsAnomaly:       true,
	}, true
}

// severityFor grades an anomaly by the stronger of two signals: statistical
// magnitude and absolute dollar impact. High is checked before Medium, so a
// record matching both boundaries lands on the more severe tier.
func severityFor(score, actual, expected float64) model.Severity {
	absScore := math.Abs(score)
	impact := math.Abs(actual - expected)

	switch {
	case absScore >= highScoreBound || impact >= highImpactBound:
		return model.SeverityHigh
	case absScore >= mediumScoreBound || impact >= mediumImpactBound:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/costwatch/costwatch/pkg/detector"
	"github.com/costwatch/costwatch/pkg/model"
)

func scoredPoint(cost, score float64) detector.ScoredPoint {
	return detector.ScoredPoint{
		Point: model.SeriesPoint{Date: day(0), Cost: cost},
		Score: score,
	}
}

func TestClassify_EmitsAnomalyAboveThresholds(t *testing.T) {
	c := detector.NewClassifier(2.0, 10.0)
	baseline := model.Baseline{Mean: 100, StdDev: 50}

	rec, ok := c.Classify("vm-1", "sub-1", scoredPoint(250, 3.0), baseline)
	require.True(t, ok)

	assert.Equal(t, "vm-1", rec.ResourceID)
	assert.Equal(t, "sub-1", rec.SubscriptionID)
	assert.True(t, rec.IsAnomaly)
	assert.Equal(t, 250.0, rec.ActualCost)
	assert.Equal(t, 100.0, rec.ExpectedCost)
	assert.Equal(t, 150.0, rec.Variance)
	assert.InDelta(t, 150.0, rec.VariancePercent, 1e-9)
	assert.Equal(t, model.DirectionSurge, rec.Direction)
}

func TestClassify_BelowZScoreThreshold(t *testing.T) {
	c := detector.NewClassifier(2.0, 10.0)
	_, ok := c.Classify("vm-1", "sub-1", scoredPoint(150, 1.5), model.Baseline{Mean: 100, StdDev: 33})
	assert.False(t, ok)
}

func TestClassify_CostFloorSuppresses(t *testing.T) {
	c := detector.NewClassifier(2.0, 10.0)

	// A large statistical deviation on a negligible cost must not alert.
	_, ok := c.Classify("vm-1", "sub-1", scoredPoint(8, 3.0), model.Baseline{Mean: 5, StdDev: 1})
	assert.False(t, ok)

	// The same deviation above the cost floor does.
	rec, ok := c.Classify("vm-1", "sub-1", scoredPoint(25, 20.0), model.Baseline{Mean: 5, StdDev: 1})
	require.True(t, ok)
	assert.Equal(t, model.DirectionSurge, rec.Direction)
}

func TestClassify_DirectionMatchesVarianceSign(t *testing.T) {
	c := detector.NewClassifier(2.0, 10.0)
	baseline := model.Baseline{Mean: 100, StdDev: 10}

	surge, ok := c.Classify("vm-1", "sub-1", scoredPoint(150, 5.0), baseline)
	require.True(t, ok)
	assert.Equal(t, model.DirectionSurge, surge.Direction)
	assert.Positive(t, surge.Variance)

	drop, ok := c.Classify("vm-1", "sub-1", scoredPoint(20, -8.0), baseline)
	require.True(t, ok)
	assert.Equal(t, model.DirectionDrop, drop.Direction)
	assert.Negative(t, drop.Variance)
}

func TestClassify_ConfidenceSaturation(t *testing.T) {
	c := detector.NewClassifier(2.0, 10.0)
	baseline := model.Baseline{Mean: 100, StdDev: 10}

	tests := []struct {
		score      float64
		confidence float64
	}{
		{2.1, 0.7},
		{-2.4, 0.8},
		{3.0, 1.0},
		{-3.0, 1.0},
		{6.0, 1.0},
		{-15.0, 1.0},
	}

	for _, tt := range tests {
		rec, ok := c.Classify("vm-1", "sub-1", scoredPoint(500, tt.score), baseline)
		require.True(t, ok)
		assert.InDelta(t, tt.confidence, rec.Confidence, 1e-9, "score %.2f", tt.score)
		assert.GreaterOrEqual(t, rec.Confidence, 0.0)
		assert.LessOrEqual(t, rec.Confidence, 1.0)
	}
}

func TestClassify_SeverityTiers(t *testing.T) {
	// A low qualification threshold so the Low tier is reachable.
	c := detector.NewClassifier(1.5, 10.0)

	tests := []struct {
		name     string
		cost     float64
		mean     float64
		score    float64
		severity model.Severity
	}{
		{"high by score", 150, 100, 3.0, model.SeverityHigh},
		{"high by dollar impact", 1150, 100, 2.1, model.SeverityHigh},
		{"high when both boundaries match", 1300, 100, 3.5, model.SeverityHigh},
		{"medium by score", 180, 100, 2.5, model.SeverityMedium},
		{"medium by dollar impact", 250, 100, 2.1, model.SeverityMedium},
		{"low otherwise", 130, 100, 1.7, model.SeverityLow},
		{"drop graded by magnitude", 20, 100, -8.0, model.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := c.Classify("vm-1", "sub-1", scoredPoint(tt.cost, tt.score), model.Baseline{Mean: tt.mean, StdDev: 10})
			require.True(t, ok)
			assert.Equal(t, tt.severity, rec.Severity)
		})
	}
}

func TestClassify_SeverityMonotonic(t *testing.T) {
	c := detector.NewClassifier(2.0, 10.0)
	rank := map[model.Severity]int{
		model.SeverityLow:    0,
		model.SeverityMedium: 1,
		model.SeverityHigh:   2,
	}

	// Holding dollar impact fixed, a growing deviation score never lowers
	// the severity tier.
	prev := -1
	for _, score := range []float64{2.0, 2.5, 3.0, 4.0, 8.0} {
		rec, ok := c.Classify("vm-1", "sub-1", scoredPoint(130, score), model.Baseline{Mean: 100, StdDev: 10})
		require.True(t, ok)
		assert.GreaterOrEqual(t, rank[rec.Severity], prev)
		prev = rank[rec.Severity]
	}

	// Holding the score fixed, growing dollar impact never lowers the tier.
	prev = -1
	for _, cost := range []float64{130, 250, 700, 1200, 5000} {
		rec, ok := c.Classify("vm-1", "sub-1", scoredPoint(cost, 2.0), model.Baseline{Mean: 100, StdDev: 10})
		require.True(t, ok)
		assert.GreaterOrEqual(t, rank[rec.Severity], prev)
		prev = rank[rec.Severity]
	}
}

func TestClassify_VariancePercentZeroBaseline(t *testing.T) {
	c := detector.NewClassifier(2.0, 10.0)
	rec, ok := c.Classify("vm-1", "sub-1", scoredPoint(50, 4.0), model.Baseline{Mean: 0, StdDev: 10})
	require.True(t, ok)
	assert.Zero(t, rec.VariancePercent)
}

func TestNewClassifier_Defaults(t *testing.T) {
	c := detector.NewClassifier(0, 0)
	assert.Equal(t, detector.DefaultZScoreThreshold, c.ZScoreThreshold)
	assert.Equal(t, detector.DefaultMinCostThreshold, c.MinCostThreshold)
}

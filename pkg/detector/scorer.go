package detector

import (
	"math"

	"github.com/costwatch/costwatch/pkg/model"
)

// trailingWindow is the number of most recent points used to refresh the
// carry-forward baseline after a scoring pass.
const trailingWindow = 7

// ScoredPoint pairs one series point with its deviation score.
type ScoredPoint struct {
	Point model.SeriesPoint
	Score float64
}

// Baselines holds the two baselines produced by one scoring pass. Scoring is
// the long-history baseline every point in the batch was evaluated against:
// mean and stddev of all points except the most recent. CarryForward is the
// trailing-window refresh kept as the seed for the next incremental run; it
// is never applied to the current batch.
type Baselines struct {
	Scoring      model.Baseline
	CarryForward model.Baseline
}

// ScoreSeries computes a deviation score for every point in the series.
// A series with zero variance in its history window cannot produce a
// meaningful score and yields nil.
func ScoreSeries(s model.Series) ([]ScoredPoint, Baselines) {
	n := len(s.Points)
	if n < 2 {
		return nil, Baselines{}
	}

	costs := make([]float64, n)
	for i, p := range s.Points {
		costs[i] = p.Cost
	}

	scoring := baselineOf(costs[:n-1])
	if scoring.StdDev == 0 {
		return nil, Baselines{}
	}

	scored := make([]ScoredPoint, n)
	for i, p := range s.Points {
		scored[i] = ScoredPoint{
			Point: p,
			Score: (p.Cost - scoring.Mean) / scoring.StdDev,
		}
	}

	trailing := costs
	if n > trailingWindow {
		trailing = costs[n-trailingWindow:]
	}

	return scored, Baselines{
		Scoring:      scoring,
		CarryForward: baselineOf(trailing),
	}
}

// baselineOf computes the mean and population standard deviation of costs.
func baselineOf(costs []float64) model.Baseline {
	if len(costs) == 0 {
		return model.Baseline{}
	}

	var sum float64
	for _, c := range costs {
		sum += c
	}
	mean := sum / float64(len(costs))

	var sq float64
	for _, c := range costs {
		d := c - mean
		sq += d * d
	}

	return model.Baseline{
		Mean:   mean,
		StdDev: math.Sqrt(sq / float64(len(costs))),
	}
}

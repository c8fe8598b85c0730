package detector

import (
	"sort"
	"time"

	"github.com/costwatch/costwatch/pkg/model"
)

// MinHistoryDays is the default minimum number of daily points a resource
// needs before a baseline can be established. Resources with less history
// are skipped, not errored.
const MinHistoryDays = 7

// AssembleSeries groups raw observations into one ordered daily cost series
// per resource. Costs for the same resource and day are summed. Resources
// with fewer than minHistory points are dropped. The returned slice is
// sorted by resource id so identical input always yields identical output.
//
// All observations for a resource are assumed to carry the same subscription
// id; the series takes it from whichever observation is seen first.
func AssembleSeries(observations []model.Observation, minHistory int) []model.Series {
	if minHistory <= 0 {
		minHistory = MinHistoryDays
	}

	type resource struct {
		subscriptionID string
		daily          map[int64]float64 // unix day -> summed cost
	}

	byResource := make(map[string]*resource)
	for _, obs := range observations {
		r, ok := byResource[obs.ResourceID]
		if !ok {
			r = &resource{
				subscriptionID: obs.SubscriptionID,
				daily:          make(map[int64]float64),
			}
			byResource[obs.ResourceID] = r
		}
		r.daily[model.Day(obs.Date).Unix()] += obs.Cost
	}

	ids := make([]string, 0, len(byResource))
	for id, r := range byResource {
		if len(r.daily) < minHistory {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	series := make([]model.Series, 0, len(ids))
	for _, id := range ids {
		r := byResource[id]

		days := make([]int64, 0, len(r.daily))
		for day := range r.daily {
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

		points := make([]model.SeriesPoint, 0, len(days))
		for _, day := range days {
			points = append(points, model.SeriesPoint{
				Date: time.Unix(day, 0).UTC(),
				Cost: r.daily[day],
			})
		}

		series = append(series, model.Series{
			ResourceID:     id,
			SubscriptionID: r.subscriptionID,
			Points:         points,
		})
	}
	return series
}

// CountResources returns the number of distinct resource ids in the raw
// input, including resources later dropped for insufficient history.
func CountResources(observations []model.Observation) int {
	seen := make(map[string]struct{}, len(observations))
	for _, obs := range observations {
		seen[obs.ResourceID] = struct{}{}
	}
	return len(seen)
}

package model

import "time"

// Observation is a single raw billing record: the cost attributed to one
// resource on one calendar day. Several observations may exist for the same
// resource and day (one per meter); they are summed before analysis.
type Observation struct {
	ResourceID     string    `json:"resource_id" db:"resource_id"`
	SubscriptionID string    `json:"subscription_id" db:"subscription_id"`
	Date           time.Time `json:"date" db:"date"`
	Cost           float64   `json:"cost" db:"cost"`
}

// SeriesPoint is one day in a resource's cost series.
type SeriesPoint struct {
	Date time.Time `json:"date"`
	Cost float64   `json:"cost"`
}

// Series is the ordered daily cost history for one resource, strictly
// ascending by date. Missing days are absent, not zero-filled.
type Series struct {
	ResourceID     string        `json:"resource_id"`
	SubscriptionID string        `json:"subscription_id"`
	Points         []SeriesPoint `json:"points"`
}

// Baseline characterizes the expected cost for a resource: the mean and
// standard deviation of a history window.
type Baseline struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Direction indicates which side of the baseline an anomaly sits on.
type Direction string

const (
	DirectionSurge Direction = "Surge"
	DirectionDrop  Direction = "Drop"
)

// Severity is the urgency tier assigned to an anomaly.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Severities lists all tiers in decreasing urgency.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// AnomalyRecord is one detected cost deviation. Only anomalous points are
// materialized; IsAnomaly is always true on emitted records.
type AnomalyRecord struct {
	ID              string    `json:"id" db:"id"`
	RunID           string    `json:"run_id,omitempty" db:"run_id"`
	ResourceID      string    `json:"resource_id" db:"resource_id"`
	SubscriptionID  string    `json:"subscription_id" db:"subscription_id"`
	Date            time.Time `json:"date" db:"date"`
	ActualCost      float64   `json:"actual_cost" db:"actual_cost"`
	ExpectedCost    float64   `json:"expected_cost" db:"expected_cost"`
	Variance        float64   `json:"variance" db:"variance"`
	VariancePercent float64   `json:"variance_percent" db:"variance_percent"`
	DeviationScore  float64   `json:"deviation_score" db:"deviation_score"`
	Direction       Direction `json:"direction" db:"direction"`
	Severity        Severity  `json:"severity" db:"severity"`
	Confidence      float64   `json:"confidence" db:"confidence"`
	IsAnomaly       bool      `json:"is_anomaly" db:"is_anomaly"`
	DetectedAt      time.Time `json:"detected_at,omitempty" db:"detected_at"`
}

// AlertTally counts the anomalies routed per severity tier in one run.
// Every tier is present, missing tiers as zero.
type AlertTally map[Severity]int

// NewAlertTally returns a tally with all tiers initialized to zero.
func NewAlertTally() AlertTally {
	t := make(AlertTally, len(Severities))
	for _, s := range Severities {
		t[s] = 0
	}
	return t
}

// Total returns the sum of all tier counts.
func (t AlertTally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// RunSummary is the caller-facing result of one detection run.
type RunSummary struct {
	RunID             string          `json:"run_id"`
	SubscriptionID    string          `json:"subscription_id"`
	LookbackDays      int             `json:"lookback_days"`
	ResourcesAnalyzed int             `json:"resources_analyzed"`
	AnomaliesDetected int             `json:"anomalies_detected"`
	AlertTally        AlertTally      `json:"alert_tally"`
	HighSeverity      []AnomalyRecord `json:"high_severity_anomalies"`
	Timestamp         time.Time       `json:"timestamp"`
}

// AnomalyFilter controls which persisted anomaly records are returned.
type AnomalyFilter struct {
	SubscriptionID string    `json:"subscription_id,omitempty"`
	ResourceID     string    `json:"resource_id,omitempty"`
	Severity       Severity  `json:"severity,omitempty"`
	StartDate      time.Time `json:"start_date,omitempty"`
	EndDate        time.Time `json:"end_date,omitempty"`
}

// Day truncates t to midnight UTC. Observations are keyed by calendar day;
// any time-of-day component in the input is discarded.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/costwatch/costwatch/pkg/model"

	_ "modernc.org/sqlite"
)

// dayFormat is how calendar days are stored; observations have no
// time-of-day component.
const dayFormat = "2006-01-02"

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveObservations(ctx context.Context, observations []model.Observation) error {
	if len(observations) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin observations insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (id, resource_id, subscription_id, date, cost)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare observations insert: %w", err)
	}
	defer stmt.Close()

	for _, obs := range observations {
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), obs.ResourceID, obs.SubscriptionID,
			model.Day(obs.Date).Format(dayFormat), obs.Cost,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert observation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit observations: %w", err)
	}
	return nil
}

func (s *SQLite) QueryObservations(ctx context.Context, subscriptionID string, since time.Time) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource_id, subscription_id, date, cost
		 FROM observations
		 WHERE subscription_id = ? AND date >= ?
		 ORDER BY date ASC, resource_id ASC`,
		subscriptionID, model.Day(since).Format(dayFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var observations []model.Observation
	for rows.Next() {
		var obs model.Observation
		var day string
		if err := rows.Scan(&obs.ResourceID, &obs.SubscriptionID, &day, &obs.Cost); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		obs.Date, err = time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse observation date %q: %w", day, err)
		}
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}

func (s *SQLite) SaveAnomalies(ctx context.Context, records []model.AnomalyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin anomalies insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO anomalies (id, run_id, resource_id, subscription_id, date,
		   actual_cost, expected_cost, variance, variance_percent,
		   deviation_score, direction, severity, confidence, detected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare anomalies insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		detectedAt := rec.DetectedAt
		if detectedAt.IsZero() {
			detectedAt = time.Now().UTC()
		}

		_, err := stmt.ExecContext(ctx,
			id, rec.RunID, rec.ResourceID, rec.SubscriptionID,
			model.Day(rec.Date).Format(dayFormat),
			rec.ActualCost, rec.ExpectedCost, rec.Variance, rec.VariancePercent,
			rec.DeviationScore, string(rec.Direction), string(rec.Severity),
			rec.Confidence, detectedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit anomalies: %w", err)
	}
	return nil
}

func (s *SQLite) QueryAnomalies(ctx context.Context, filter model.AnomalyFilter) ([]model.AnomalyRecord, error) {
	query := `SELECT id, run_id, resource_id, subscription_id, date,
		actual_cost, expected_cost, variance, variance_percent,
		deviation_score, direction, severity, confidence, detected_at
	FROM anomalies`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY date DESC, deviation_score DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var records []model.AnomalyRecord
	for rows.Next() {
		var rec model.AnomalyRecord
		var day, direction, severity string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.ResourceID, &rec.SubscriptionID, &day,
			&rec.ActualCost, &rec.ExpectedCost, &rec.Variance, &rec.VariancePercent,
			&rec.DeviationScore, &direction, &severity, &rec.Confidence, &rec.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan anomaly row: %w", err)
		}
		rec.Date, err = time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse anomaly date %q: %w", day, err)
		}
		rec.Direction = model.Direction(direction)
		rec.Severity = model.Severity(severity)
		rec.IsAnomaly = true
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from an AnomalyFilter.
func buildWhereClause(filter model.AnomalyFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.SubscriptionID != "" {
		conditions = append(conditions, "subscription_id = ?")
		args = append(args, filter.SubscriptionID)
	}
	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.Severity != "" {
		conditions = append(conditions, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if !filter.StartDate.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, model.Day(filter.StartDate).Format(dayFormat))
	}
	if !filter.EndDate.IsZero() {
		conditions = append(conditions, "date < ?")
		args = append(args, model.Day(filter.EndDate).Format(dayFormat))
	}

	return strings.Join(conditions, " AND "), args
}

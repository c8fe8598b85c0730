package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: Initial schema
	`CREATE TABLE IF NOT EXISTS observations (
		id              TEXT PRIMARY KEY,
		resource_id     TEXT NOT NULL,
		subscription_id TEXT NOT NULL,
		date            TEXT NOT NULL,
		cost            REAL NOT NULL DEFAULT 0.0,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_obs_subscription ON observations(subscription_id);
	CREATE INDEX IF NOT EXISTS idx_obs_resource ON observations(resource_id);
	CREATE INDEX IF NOT EXISTS idx_obs_date ON observations(date);

	CREATE TABLE IF NOT EXISTS anomalies (
		id               TEXT PRIMARY KEY,
		run_id           TEXT NOT NULL,
		resource_id      TEXT NOT NULL,
		subscription_id  TEXT NOT NULL,
		date             TEXT NOT NULL,
		actual_cost      REAL NOT NULL,
		expected_cost    REAL NOT NULL,
		variance         REAL NOT NULL,
		variance_percent REAL NOT NULL,
		deviation_score  REAL NOT NULL,
		direction        TEXT NOT NULL CHECK(direction IN ('Surge', 'Drop')),
		severity         TEXT NOT NULL CHECK(severity IN ('High', 'Medium', 'Low')),
		confidence       REAL NOT NULL,
		detected_at      DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_anomaly_subscription ON anomalies(subscription_id);
	CREATE INDEX IF NOT EXISTS idx_anomaly_resource ON anomalies(resource_id);
	CREATE INDEX IF NOT EXISTS idx_anomaly_severity ON anomalies(severity);
	CREATE INDEX IF NOT EXISTS idx_anomaly_date ON anomalies(date);

	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
	// Ensure migration tracking table exists
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("check migration version: %w", err)
	}

	for i := currentVersion; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("run migration %d: %w", i+1, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", i+1); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
	}

	return nil
}

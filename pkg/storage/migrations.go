package storage

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	// Migration 1: fleet records
	`CREATE TABLE IF NOT EXISTS vehicles (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		registration_number TEXT NOT NULL,
		vehicle_type        TEXT NOT NULL DEFAULT 'other',
		make                TEXT NOT NULL DEFAULT '',
		model               TEXT NOT NULL DEFAULT '',
		year                INTEGER NOT NULL DEFAULT 0,
		vin                 TEXT NOT NULL DEFAULT '',
		license_plate       TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'active',
		created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_vehicles_user ON vehicles(user_id);

	CREATE TABLE IF NOT EXISTS documents (
		id            TEXT PRIMARY KEY,
		user_id       TEXT NOT NULL,
		vehicle_id    TEXT,
		title         TEXT NOT NULL,
		document_type TEXT NOT NULL DEFAULT 'other',
		expiry_date   TEXT,
		status        TEXT NOT NULL DEFAULT 'active',
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);
	CREATE INDEX IF NOT EXISTS idx_documents_expiry ON documents(expiry_date) WHERE expiry_date IS NOT NULL;

	CREATE TABLE IF NOT EXISTS maintenance_records (
		id               TEXT PRIMARY KEY,
		user_id          TEXT NOT NULL,
		vehicle_id       TEXT NOT NULL,
		maintenance_type TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		cost             REAL,
		status           TEXT NOT NULL DEFAULT 'scheduled',
		next_due_date    TEXT,
		created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_maintenance_vehicle ON maintenance_records(vehicle_id);
	CREATE INDEX IF NOT EXISTS idx_maintenance_due ON maintenance_records(next_due_date) WHERE next_due_date IS NOT NULL;`,

	// Migration 2: expiry alerts keyed by checkpoint
	`CREATE TABLE IF NOT EXISTS expiry_alerts (
		id                    TEXT PRIMARY KEY,
		user_id               TEXT NOT NULL,
		document_id           TEXT,
		vehicle_id            TEXT,
		maintenance_record_id TEXT,
		source_id             TEXT NOT NULL,
		alert_type            TEXT NOT NULL CHECK(alert_type IN ('document_expiry', 'maintenance_due')),
		title                 TEXT NOT NULL,
		description           TEXT NOT NULL DEFAULT '',
		expiry_date           TEXT NOT NULL,
		alert_date            TEXT NOT NULL,
		is_sent               INTEGER NOT NULL DEFAULT 0,
		is_acknowledged       INTEGER NOT NULL DEFAULT 0,
		acknowledged_at       DATETIME,
		created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_checkpoint ON expiry_alerts(source_id, alert_type, alert_date);
	CREATE INDEX IF NOT EXISTS idx_alerts_user ON expiry_alerts(user_id, expiry_date);`,
}

// runMigrations applies pending schema migrations.
func runMigrations(db *sql.DB) error {
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

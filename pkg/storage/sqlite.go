package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

var _ Storage = (*SQLite)(nil)

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
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

func (s *SQLite) ListDocumentsWithExpiry(ctx context.Context) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, listDocumentsSQL)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var vehicleID sql.NullString
		if err := rows.Scan(&d.ID, &d.UserID, &vehicleID, &d.Title, &d.DocumentType,
			&d.ExpiryDate, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		d.VehicleID = vehicleID.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *SQLite) ListMaintenanceDue(ctx context.Context) ([]model.MaintenanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, listMaintenanceSQL)
	if err != nil {
		return nil, fmt.Errorf("list maintenance records: %w", err)
	}
	defer rows.Close()

	var records []model.MaintenanceRecord
	for rows.Next() {
		var r model.MaintenanceRecord
		var cost sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.UserID, &r.VehicleID, &r.MaintenanceType, &r.Description,
			&cost, &r.Status, &r.NextDueDate, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan maintenance row: %w", err)
		}
		if cost.Valid {
			r.Cost = &cost.Float64
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) FindAlert(ctx context.Context, key model.AlertKey) (*model.Alert, error) {
	a, err := scanAlert(s.db.QueryRowContext(ctx, findAlertSQL,
		key.SourceID, string(key.AlertType), model.FormatDate(model.Day(key.AlertDate))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find alert: %w", err)
	}
	return a, nil
}

func (s *SQLite) InsertAlert(ctx context.Context, alert *model.Alert) error {
	generatedID := alert.ID == ""
	if err := prepareAlert(alert); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, insertAlertSQL, insertAlertArgs(alert)...)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		if generatedID {
			alert.ID = ""
		}
		return ErrAlertExists
	}
	return nil
}

func (s *SQLite) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	a, err := scanAlert(s.db.QueryRowContext(ctx, getAlertSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

func (s *SQLite) ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.Alert, error) {
	query, args := listAlertsQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []model.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

func (s *SQLite) AcknowledgeAlert(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, ackAlertSQL, ackArgs(id, at)...)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alert %q: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLite) SaveVehicle(ctx context.Context, v *model.Vehicle) error {
	stampNew(&v.ID, &v.CreatedAt)
	_, err := s.db.ExecContext(ctx, saveVehicleSQL,
		v.ID, v.UserID, v.RegistrationNumber, v.VehicleType, v.Make, v.Model, v.Year,
		v.VIN, v.LicensePlate, v.Status, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save vehicle: %w", err)
	}
	return nil
}

func (s *SQLite) SaveDocument(ctx context.Context, d *model.Document) error {
	stampNew(&d.ID, &d.CreatedAt)
	_, err := s.db.ExecContext(ctx, saveDocumentSQL,
		d.ID, d.UserID, nullString(d.VehicleID), d.Title, d.DocumentType,
		d.ExpiryDate, d.Status, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (s *SQLite) SaveMaintenanceRecord(ctx context.Context, r *model.MaintenanceRecord) error {
	stampNew(&r.ID, &r.CreatedAt)
	_, err := s.db.ExecContext(ctx, saveMaintenanceSQL,
		r.ID, r.UserID, r.VehicleID, r.MaintenanceType, r.Description,
		nullFloat(r.Cost), r.Status, r.NextDueDate, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save maintenance record: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

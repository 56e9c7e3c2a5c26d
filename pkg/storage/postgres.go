package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

// Postgres implements the Storage interface on PostgreSQL.
type Postgres struct {
	db *sqlx.DB
}

var _ Storage = (*Postgres)(nil)

// NewPostgres connects to dsn and applies pending schema migrations.
// dsn must be a postgres:// URL.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := MigratePostgresUp(dsn); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) ListDocumentsWithExpiry(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	err := p.db.SelectContext(ctx, &docs,
		`SELECT id, user_id, COALESCE(vehicle_id, '') AS vehicle_id, title, document_type,
		        expiry_date, status, created_at
		 FROM documents WHERE expiry_date IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

func (p *Postgres) ListMaintenanceDue(ctx context.Context) ([]model.MaintenanceRecord, error) {
	var records []model.MaintenanceRecord
	err := p.db.SelectContext(ctx, &records, listMaintenanceSQL)
	if err != nil {
		return nil, fmt.Errorf("list maintenance records: %w", err)
	}
	return records, nil
}

func (p *Postgres) FindAlert(ctx context.Context, key model.AlertKey) (*model.Alert, error) {
	a, err := scanAlert(p.db.QueryRowContext(ctx, p.db.Rebind(findAlertSQL),
		key.SourceID, string(key.AlertType), model.FormatDate(model.Day(key.AlertDate))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find alert: %w", err)
	}
	return a, nil
}

func (p *Postgres) InsertAlert(ctx context.Context, alert *model.Alert) error {
	generatedID := alert.ID == ""
	if err := prepareAlert(alert); err != nil {
		return err
	}

	result, err := p.db.ExecContext(ctx, p.db.Rebind(insertAlertSQL), insertAlertArgs(alert)...)
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

func (p *Postgres) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	a, err := scanAlert(p.db.QueryRowContext(ctx, p.db.Rebind(getAlertSQL), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return a, nil
}

func (p *Postgres) ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.Alert, error) {
	query, args := listAlertsQuery(filter)
	rows, err := p.db.QueryContext(ctx, p.db.Rebind(query), args...)
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

func (p *Postgres) AcknowledgeAlert(ctx context.Context, id string, at time.Time) error {
	result, err := p.db.ExecContext(ctx, p.db.Rebind(ackAlertSQL), ackArgs(id, at)...)
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

func (p *Postgres) SaveVehicle(ctx context.Context, v *model.Vehicle) error {
	stampNew(&v.ID, &v.CreatedAt)
	_, err := p.db.ExecContext(ctx, p.db.Rebind(saveVehicleSQL),
		v.ID, v.UserID, v.RegistrationNumber, v.VehicleType, v.Make, v.Model, v.Year,
		v.VIN, v.LicensePlate, v.Status, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save vehicle: %w", err)
	}
	return nil
}

func (p *Postgres) SaveDocument(ctx context.Context, d *model.Document) error {
	stampNew(&d.ID, &d.CreatedAt)
	_, err := p.db.ExecContext(ctx, p.db.Rebind(saveDocumentSQL),
		d.ID, d.UserID, nullString(d.VehicleID), d.Title, d.DocumentType,
		d.ExpiryDate, d.Status, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

func (p *Postgres) SaveMaintenanceRecord(ctx context.Context, r *model.MaintenanceRecord) error {
	stampNew(&r.ID, &r.CreatedAt)
	_, err := p.db.ExecContext(ctx, p.db.Rebind(saveMaintenanceSQL),
		r.ID, r.UserID, r.VehicleID, r.MaintenanceType, r.Description,
		nullFloat(r.Cost), r.Status, r.NextDueDate, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save maintenance record: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

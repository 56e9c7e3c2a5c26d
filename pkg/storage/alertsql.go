package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

// Queries shared by the SQL backends. They use ? placeholders; the Postgres
// backend rebinds them.
const (
	alertColumns = `id, user_id, document_id, vehicle_id, maintenance_record_id, alert_type,
		title, description, expiry_date, alert_date, is_sent, is_acknowledged, acknowledged_at, created_at`

	insertAlertSQL = `INSERT INTO expiry_alerts (id, user_id, document_id, vehicle_id, maintenance_record_id,
		source_id, alert_type, title, description, expiry_date, alert_date, is_sent, is_acknowledged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id, alert_type, alert_date) DO NOTHING`

	findAlertSQL = `SELECT ` + alertColumns + ` FROM expiry_alerts
		WHERE source_id = ? AND alert_type = ? AND alert_date = ?`

	getAlertSQL = `SELECT ` + alertColumns + ` FROM expiry_alerts WHERE id = ?`

	ackAlertSQL = `UPDATE expiry_alerts
		SET is_acknowledged = ?, acknowledged_at = COALESCE(acknowledged_at, ?)
		WHERE id = ?`

	listDocumentsSQL = `SELECT id, user_id, vehicle_id, title, document_type, expiry_date, status, created_at
		FROM documents WHERE expiry_date IS NOT NULL ORDER BY id`

	listMaintenanceSQL = `SELECT id, user_id, vehicle_id, maintenance_type, description, cost, status, next_due_date, created_at
		FROM maintenance_records WHERE next_due_date IS NOT NULL ORDER BY id`

	saveVehicleSQL = `INSERT INTO vehicles (id, user_id, registration_number, vehicle_type, make, model, year, vin, license_plate, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  user_id = excluded.user_id,
		  registration_number = excluded.registration_number,
		  vehicle_type = excluded.vehicle_type,
		  make = excluded.make,
		  model = excluded.model,
		  year = excluded.year,
		  vin = excluded.vin,
		  license_plate = excluded.license_plate,
		  status = excluded.status`

	saveDocumentSQL = `INSERT INTO documents (id, user_id, vehicle_id, title, document_type, expiry_date, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  user_id = excluded.user_id,
		  vehicle_id = excluded.vehicle_id,
		  title = excluded.title,
		  document_type = excluded.document_type,
		  expiry_date = excluded.expiry_date,
		  status = excluded.status`

	saveMaintenanceSQL = `INSERT INTO maintenance_records (id, user_id, vehicle_id, maintenance_type, description, cost, status, next_due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		  user_id = excluded.user_id,
		  vehicle_id = excluded.vehicle_id,
		  maintenance_type = excluded.maintenance_type,
		  description = excluded.description,
		  cost = excluded.cost,
		  status = excluded.status,
		  next_due_date = excluded.next_due_date`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*model.Alert, error) {
	var (
		a                     model.Alert
		documentID, vehicleID sql.NullString
		maintenanceID         sql.NullString
		targetDate, alertDate string
		acknowledgedAt        sql.NullTime
	)
	err := row.Scan(&a.ID, &a.UserID, &documentID, &vehicleID, &maintenanceID, &a.AlertType,
		&a.Title, &a.Description, &targetDate, &alertDate, &a.IsSent, &a.IsAcknowledged,
		&acknowledgedAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.DocumentID = documentID.String
	a.VehicleID = vehicleID.String
	a.MaintenanceRecordID = maintenanceID.String
	if acknowledgedAt.Valid {
		t := acknowledgedAt.Time.UTC()
		a.AcknowledgedAt = &t
	}
	if a.TargetDate, err = model.ParseDate(targetDate); err != nil {
		return nil, fmt.Errorf("alert %s target date: %w", a.ID, err)
	}
	if a.AlertDate, err = model.ParseDate(alertDate); err != nil {
		return nil, fmt.Errorf("alert %s alert date: %w", a.ID, err)
	}
	return &a, nil
}

func insertAlertArgs(a *model.Alert) []any {
	return []any{
		a.ID, a.UserID, nullString(a.DocumentID), nullString(a.VehicleID), nullString(a.MaintenanceRecordID),
		a.SourceID(), string(a.AlertType), a.Title, a.Description,
		model.FormatDate(a.TargetDate), model.FormatDate(a.AlertDate),
		a.IsSent, a.IsAcknowledged, a.CreatedAt,
	}
}

// buildAlertWhere constructs a SQL WHERE clause from an AlertFilter.
func buildAlertWhere(filter model.AlertFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.AlertType != "" {
		conditions = append(conditions, "alert_type = ?")
		args = append(args, string(filter.AlertType))
	}
	if filter.Unacknowledged {
		conditions = append(conditions, "is_acknowledged = ?")
		args = append(args, false)
	}
	if !filter.DueBy.IsZero() {
		conditions = append(conditions, "alert_date <= ?")
		args = append(args, model.FormatDate(model.Day(filter.DueBy)))
	}

	return strings.Join(conditions, " AND "), args
}

func listAlertsQuery(filter model.AlertFilter) (string, []any) {
	query := "SELECT " + alertColumns + " FROM expiry_alerts"
	where, args := buildAlertWhere(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY expiry_date, alert_date, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return query, args
}

// prepareAlert fills generated fields and normalizes dates before insert.
func prepareAlert(a *model.Alert) error {
	if a.SourceID() == "" {
		return fmt.Errorf("insert alert: missing source id for %s", a.AlertType)
	}
	stampNew(&a.ID, &a.CreatedAt)
	a.TargetDate = model.Day(a.TargetDate)
	a.AlertDate = model.Day(a.AlertDate)
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func ackArgs(id string, at time.Time) []any {
	return []any{true, at.UTC(), id}
}

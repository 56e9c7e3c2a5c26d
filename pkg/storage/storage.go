package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlertExists is returned by InsertAlert when an alert with the same
	// (source, type, alert date) key is already stored. Callers generating
	// alerts treat it as success.
	ErrAlertExists = errors.New("alert already exists")
)

// Storage defines the persistence layer for fleet records and expiry alerts.
type Storage interface {
	// ListDocumentsWithExpiry returns all documents whose expiry date is set.
	ListDocumentsWithExpiry(ctx context.Context) ([]model.Document, error)

	// ListMaintenanceDue returns all maintenance records whose next due date is set.
	ListMaintenanceDue(ctx context.Context) ([]model.MaintenanceRecord, error)

	// FindAlert looks up the alert for a checkpoint. Returns ErrNotFound if absent.
	FindAlert(ctx context.Context, key model.AlertKey) (*model.Alert, error)

	// InsertAlert persists a new alert, assigning its ID and CreatedAt.
	// Returns ErrAlertExists if the checkpoint already has an alert.
	InsertAlert(ctx context.Context, alert *model.Alert) error

	// GetAlert retrieves an alert by ID.
	GetAlert(ctx context.Context, id string) (*model.Alert, error)

	// ListAlerts returns alerts matching the filter ordered by target date.
	ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.Alert, error)

	// AcknowledgeAlert marks an alert acknowledged. The first acknowledgement
	// time is kept on repeated calls.
	AcknowledgeAlert(ctx context.Context, id string, at time.Time) error

	// SaveVehicle creates or updates a vehicle.
	SaveVehicle(ctx context.Context, v *model.Vehicle) error

	// SaveDocument creates or updates a document.
	SaveDocument(ctx context.Context, d *model.Document) error

	// SaveMaintenanceRecord creates or updates a maintenance record.
	SaveMaintenanceRecord(ctx context.Context, r *model.MaintenanceRecord) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

package model

import "time"

// AlertType identifies which source kind an alert was derived from.
type AlertType string

const (
	AlertDocumentExpiry AlertType = "document_expiry"
	AlertMaintenanceDue AlertType = "maintenance_due"
)

// Valid reports whether t is one of the known alert types.
func (t AlertType) Valid() bool {
	return t == AlertDocumentExpiry || t == AlertMaintenanceDue
}

// Vehicle is a fleet vehicle owned by a user.
type Vehicle struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	RegistrationNumber string    `json:"registration_number" db:"registration_number"`
	VehicleType        string    `json:"vehicle_type" db:"vehicle_type"`
	Make               string    `json:"make,omitempty" db:"make"`
	Model              string    `json:"model,omitempty" db:"model"`
	Year               int       `json:"year,omitempty" db:"year"`
	VIN                string    `json:"vin,omitempty" db:"vin"`
	LicensePlate       string    `json:"license_plate,omitempty" db:"license_plate"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// Document is an uploaded document that may carry an expiry date.
type Document struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	VehicleID    string    `json:"vehicle_id,omitempty" db:"vehicle_id"`
	Title        string    `json:"title" db:"title"`
	DocumentType string    `json:"document_type" db:"document_type"`
	ExpiryDate   NullDate  `json:"expiry_date" db:"expiry_date"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MaintenanceRecord is a service entry for a vehicle. NextDueDate marks the
// next time the same maintenance is due.
type MaintenanceRecord struct {
	ID              string    `json:"id" db:"id"`
	UserID          string    `json:"user_id" db:"user_id"`
	VehicleID       string    `json:"vehicle_id" db:"vehicle_id"`
	MaintenanceType string    `json:"maintenance_type" db:"maintenance_type"`
	Description     string    `json:"description,omitempty" db:"description"`
	Cost            *float64  `json:"cost,omitempty" db:"cost"`
	Status          string    `json:"status" db:"status"`
	NextDueDate     NullDate  `json:"next_due_date" db:"next_due_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Alert is a persisted checkpoint derived from a document or maintenance record.
type Alert struct {
	ID                  string     `json:"id" db:"id"`
	UserID              string     `json:"user_id" db:"user_id"`
	DocumentID          string     `json:"document_id,omitempty" db:"document_id"`
	VehicleID           string     `json:"vehicle_id,omitempty" db:"vehicle_id"`
	MaintenanceRecordID string     `json:"maintenance_record_id,omitempty" db:"maintenance_record_id"`
	AlertType           AlertType  `json:"alert_type" db:"alert_type"`
	Title               string     `json:"title" db:"title"`
	Description         string     `json:"description" db:"description"`
	TargetDate          time.Time  `json:"target_date" db:"expiry_date"`
	AlertDate           time.Time  `json:"alert_date" db:"alert_date"`
	IsSent              bool       `json:"is_sent" db:"is_sent"`
	IsAcknowledged      bool       `json:"is_acknowledged" db:"is_acknowledged"`
	AcknowledgedAt      *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}

// SourceID returns the id of the entity the alert was derived from.
func (a *Alert) SourceID() string {
	if a.AlertType == AlertMaintenanceDue {
		return a.MaintenanceRecordID
	}
	return a.DocumentID
}

// Key returns the idempotency key of the alert.
func (a *Alert) Key() AlertKey {
	return AlertKey{
		SourceID:  a.SourceID(),
		AlertType: a.AlertType,
		AlertDate: Day(a.AlertDate),
	}
}

// AlertKey identifies a single checkpoint. At most one alert exists per key.
type AlertKey struct {
	SourceID  string    `json:"source_id"`
	AlertType AlertType `json:"alert_type"`
	AlertDate time.Time `json:"alert_date"`
}

// AlertFilter controls which alerts are returned by list queries.
type AlertFilter struct {
	UserID         string    `json:"user_id,omitempty"`
	AlertType      AlertType `json:"alert_type,omitempty"`
	Unacknowledged bool      `json:"unacknowledged,omitempty"`
	// DueBy hides checkpoints whose alert date is after the given day.
	DueBy time.Time `json:"due_by,omitempty"`
	Limit int       `json:"limit,omitempty"`
}

// Urgency classifies an alert by how close its target date is.
type Urgency string

const (
	UrgencyAcknowledged Urgency = "acknowledged"
	UrgencyExpired      Urgency = "expired"
	UrgencyCritical     Urgency = "critical"
	UrgencyWarning      Urgency = "warning"
	UrgencyUpcoming     Urgency = "upcoming"
)

// Urgency thresholds in days before the target date.
const (
	CriticalWithinDays = 7
	WarningWithinDays  = 30
)

// AlertSummary holds dashboard counts for one user.
type AlertSummary struct {
	UserID         string `json:"user_id,omitempty"`
	Total          int    `json:"total"`
	Unacknowledged int    `json:"unacknowledged"`
	Critical       int    `json:"critical"`
}

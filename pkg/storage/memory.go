package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
)

// Memory is an in-process Storage. It enforces the same alert key
// uniqueness as the SQL backends and is safe for concurrent use.
type Memory struct {
	mu          sync.RWMutex
	vehicles    map[string]model.Vehicle
	documents   map[string]model.Document
	maintenance map[string]model.MaintenanceRecord
	alerts      map[string]*model.Alert
	alertKeys   map[model.AlertKey]string
}

var _ Storage = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		vehicles:    make(map[string]model.Vehicle),
		documents:   make(map[string]model.Document),
		maintenance: make(map[string]model.MaintenanceRecord),
		alerts:      make(map[string]*model.Alert),
		alertKeys:   make(map[model.AlertKey]string),
	}
}

func (m *Memory) ListDocumentsWithExpiry(ctx context.Context) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Document, 0, len(m.documents))
	for _, d := range m.documents {
		if d.ExpiryDate.Valid {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListMaintenanceDue(ctx context.Context) ([]model.MaintenanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.MaintenanceRecord, 0, len(m.maintenance))
	for _, r := range m.maintenance {
		if r.NextDueDate.Valid {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) FindAlert(ctx context.Context, key model.AlertKey) (*model.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key.AlertDate = model.Day(key.AlertDate)

	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.alertKeys[key]
	if !ok {
		return nil, ErrNotFound
	}
	a := *m.alerts[id]
	return &a, nil
}

func (m *Memory) InsertAlert(ctx context.Context, alert *model.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if alert.SourceID() == "" {
		return fmt.Errorf("insert alert: missing source id for %s", alert.AlertType)
	}
	alert.TargetDate = model.Day(alert.TargetDate)
	alert.AlertDate = model.Day(alert.AlertDate)

	m.mu.Lock()
	defer m.mu.Unlock()
	key := alert.Key()
	if _, ok := m.alertKeys[key]; ok {
		return ErrAlertExists
	}
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}
	a := *alert
	m.alerts[a.ID] = &a
	m.alertKeys[key] = a.ID
	return nil
}

func (m *Memory) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, fmt.Errorf("alert %q: %w", id, ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (m *Memory) ListAlerts(ctx context.Context, filter model.AlertFilter) ([]model.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Alert
	for _, a := range m.alerts {
		if matchAlert(a, filter) {
			out = append(out, *a)
		}
	}
	sortAlerts(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) AcknowledgeAlert(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return fmt.Errorf("alert %q: %w", id, ErrNotFound)
	}
	if !a.IsAcknowledged {
		at = at.UTC()
		a.IsAcknowledged = true
		a.AcknowledgedAt = &at
	}
	return nil
}

func (m *Memory) SaveVehicle(ctx context.Context, v *model.Vehicle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stampNew(&v.ID, &v.CreatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[v.ID] = *v
	return nil
}

func (m *Memory) SaveDocument(ctx context.Context, d *model.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stampNew(&d.ID, &d.CreatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[d.ID] = *d
	return nil
}

func (m *Memory) SaveMaintenanceRecord(ctx context.Context, r *model.MaintenanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stampNew(&r.ID, &r.CreatedAt)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maintenance[r.ID] = *r
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error { return nil }

func stampNew(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

func matchAlert(a *model.Alert, f model.AlertFilter) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.AlertType != "" && a.AlertType != f.AlertType {
		return false
	}
	if f.Unacknowledged && a.IsAcknowledged {
		return false
	}
	if !f.DueBy.IsZero() && a.AlertDate.After(model.Day(f.DueBy)) {
		return false
	}
	return true
}

// sortAlerts orders alerts the way the SQL backends do.
func sortAlerts(alerts []model.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if !a.TargetDate.Equal(b.TargetDate) {
			return a.TargetDate.Before(b.TargetDate)
		}
		if !a.AlertDate.Equal(b.AlertDate) {
			return a.AlertDate.Before(b.AlertDate)
		}
		return a.ID < b.ID
	})
}

package alerting

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

// Source is a kind of record that expiry alerts are derived from.
// Implementations are built with Descriptor.
type Source interface {
	// Kind returns the alert type produced for this source.
	Kind() model.AlertType

	entities(ctx context.Context, store storage.Storage) ([]entity, error)
}

// entity is a loaded source record, erased to what the generator needs.
type entity struct {
	id     string
	target func() (time.Time, error)
	build  func(target, alertDate time.Time) *model.Alert
}

// Descriptor describes how to derive alerts from records of type T.
type Descriptor[T any] struct {
	Type model.AlertType

	// List fetches every record whose target date is set.
	List func(ctx context.Context, store storage.Storage) ([]T, error)

	// ID returns the key used as the alert's source id.
	ID func(T) string

	// Target returns the record's target date. model.ErrNullDate means the
	// record has no date and is skipped.
	Target func(T) (time.Time, error)

	// Build returns the alert for one checkpoint. The generator sets nothing
	// else on it.
	Build func(rec T, target, alertDate time.Time) *model.Alert
}

func (d *Descriptor[T]) Kind() model.AlertType { return d.Type }

func (d *Descriptor[T]) entities(ctx context.Context, store storage.Storage) ([]entity, error) {
	records, err := d.List(ctx, store)
	if err != nil {
		return nil, err
	}
	out := make([]entity, 0, len(records))
	for _, rec := range records {
		rec := rec
		out = append(out, entity{
			id:     d.ID(rec),
			target: func() (time.Time, error) { return d.Target(rec) },
			build: func(target, alertDate time.Time) *model.Alert {
				return d.Build(rec, target, alertDate)
			},
		})
	}
	return out, nil
}

// Documents derives document_expiry alerts from document expiry dates.
func Documents() *Descriptor[model.Document] {
	return &Descriptor[model.Document]{
		Type: model.AlertDocumentExpiry,
		List: func(ctx context.Context, store storage.Storage) ([]model.Document, error) {
			return store.ListDocumentsWithExpiry(ctx)
		},
		ID:     func(d model.Document) string { return d.ID },
		Target: func(d model.Document) (time.Time, error) { return d.ExpiryDate.Time() },
		Build: func(d model.Document, target, alertDate time.Time) *model.Alert {
			return &model.Alert{
				UserID:      d.UserID,
				DocumentID:  d.ID,
				VehicleID:   d.VehicleID,
				AlertType:   model.AlertDocumentExpiry,
				Title:       fmt.Sprintf("Document \"%s\" expiring soon", d.Title),
				Description: fmt.Sprintf("Your document will expire on %s", target.Format(model.HumanDateLayout)),
				TargetDate:  target,
				AlertDate:   alertDate,
			}
		},
	}
}

// Maintenance derives maintenance_due alerts from maintenance next due dates.
func Maintenance() *Descriptor[model.MaintenanceRecord] {
	return &Descriptor[model.MaintenanceRecord]{
		Type: model.AlertMaintenanceDue,
		List: func(ctx context.Context, store storage.Storage) ([]model.MaintenanceRecord, error) {
			return store.ListMaintenanceDue(ctx)
		},
		ID:     func(r model.MaintenanceRecord) string { return r.ID },
		Target: func(r model.MaintenanceRecord) (time.Time, error) { return r.NextDueDate.Time() },
		Build: func(r model.MaintenanceRecord, target, alertDate time.Time) *model.Alert {
			return &model.Alert{
				UserID:              r.UserID,
				VehicleID:           r.VehicleID,
				MaintenanceRecordID: r.ID,
				AlertType:           model.AlertMaintenanceDue,
				Title:               "Maintenance due for vehicle",
				Description: fmt.Sprintf("%s maintenance is due on %s",
					r.MaintenanceType, target.Format(model.HumanDateLayout)),
				TargetDate: target,
				AlertDate:  alertDate,
			}
		},
	}
}

// Registry holds the sources a generator scans, in registration order.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry with documents and maintenance records.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(Documents())
	_ = r.Register(Maintenance())
	return r
}

// Register adds a source. Each alert type may be registered once.
func (r *Registry) Register(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sources {
		if existing.Kind() == s.Kind() {
			return fmt.Errorf("source %q already registered", s.Kind())
		}
	}
	r.sources = append(r.sources, s)
	return nil
}

// Get returns the source producing the given alert type.
func (r *Registry) Get(kind model.AlertType) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sources {
		if s.Kind() == kind {
			return s, nil
		}
	}
	return nil, fmt.Errorf("source %q not found", kind)
}

// All returns the registered sources in registration order.
func (r *Registry) All() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

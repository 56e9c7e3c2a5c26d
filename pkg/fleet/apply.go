package fleet

import (
	"context"
	"fmt"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

// Apply upserts every record of f into store, vehicles first. Records
// without an id get one assigned by the store. Apply stops at the first
// failing record; records written before it stay written.
func Apply(ctx context.Context, store storage.Storage, f *File) (Result, error) {
	var res Result

	for i, v := range f.Vehicles {
		rec := &model.Vehicle{
			ID:                 v.ID,
			UserID:             v.UserID,
			RegistrationNumber: v.RegistrationNumber,
			VehicleType:        v.VehicleType,
			Make:               v.Make,
			Model:              v.Model,
			Year:               v.Year,
			VIN:                v.VIN,
			LicensePlate:       v.LicensePlate,
			Status:             orDefault(v.Status, "active"),
		}
		if err := store.SaveVehicle(ctx, rec); err != nil {
			return res, fmt.Errorf("save vehicle %d (%s): %w", i, v.RegistrationNumber, err)
		}
		res.Vehicles++
	}

	for i, d := range f.Documents {
		expiry, err := optionalDate(d.ExpiryDate)
		if err != nil {
			return res, fmt.Errorf("document %d: %w", i, err)
		}
		rec := &model.Document{
			ID:           d.ID,
			UserID:       d.UserID,
			VehicleID:    d.VehicleID,
			Title:        d.Title,
			DocumentType: d.DocumentType,
			ExpiryDate:   expiry,
			Status:       orDefault(d.Status, "active"),
		}
		if err := store.SaveDocument(ctx, rec); err != nil {
			return res, fmt.Errorf("save document %d (%s): %w", i, d.Title, err)
		}
		res.Documents++
	}

	for i, m := range f.Maintenance {
		due, err := optionalDate(m.NextDueDate)
		if err != nil {
			return res, fmt.Errorf("maintenance %d: %w", i, err)
		}
		rec := &model.MaintenanceRecord{
			ID:              m.ID,
			UserID:          m.UserID,
			VehicleID:       m.VehicleID,
			MaintenanceType: m.MaintenanceType,
			Description:     m.Description,
			Cost:            m.Cost,
			Status:          orDefault(m.Status, "scheduled"),
			NextDueDate:     due,
		}
		if err := store.SaveMaintenanceRecord(ctx, rec); err != nil {
			return res, fmt.Errorf("save maintenance %d (%s): %w", i, m.MaintenanceType, err)
		}
		res.Maintenance++
	}

	return res, nil
}

func optionalDate(s string) (model.NullDate, error) {
	if s == "" {
		return model.NullDate{}, nil
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return model.NullDate{}, err
	}
	return model.NewNullDate(t), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

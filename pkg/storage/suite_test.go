package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/model"
	"github.com/ogulcanaydogan/fleet-expiry-guardian/pkg/storage"
)

// runStorageSuite exercises the Storage contract against one backend.
func runStorageSuite(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("ListDocumentsWithExpiry", func(t *testing.T) { testListDocuments(t, newStore(t)) })
	t.Run("ListMaintenanceDue", func(t *testing.T) { testListMaintenance(t, newStore(t)) })
	t.Run("InsertAndFindAlert", func(t *testing.T) { testInsertAndFind(t, newStore(t)) })
	t.Run("InsertAlertConflict", func(t *testing.T) { testInsertConflict(t, newStore(t)) })
	t.Run("ConcurrentInsert", func(t *testing.T) { testConcurrentInsert(t, newStore(t)) })
	t.Run("ListAlertsFilter", func(t *testing.T) { testListAlerts(t, newStore(t)) })
	t.Run("AcknowledgeAlert", func(t *testing.T) { testAcknowledge(t, newStore(t)) })
	t.Run("SaveUpserts", func(t *testing.T) { testSaveUpserts(t, newStore(t)) })
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func docAlert(t *testing.T, docID, alertDate, target string) *model.Alert {
	return &model.Alert{
		UserID:      "u1",
		DocumentID:  docID,
		AlertType:   model.AlertDocumentExpiry,
		Title:       `Document "Insurance" expiring soon`,
		Description: "Your document will expire on Jun 30, 2025",
		TargetDate:  mustDate(t, target),
		AlertDate:   mustDate(t, alertDate),
	}
}

func testListDocuments(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.SaveDocument(ctx, &model.Document{
		ID: "doc1", UserID: "u1", Title: "Insurance", DocumentType: "insurance",
		ExpiryDate: model.NewNullDate(mustDate(t, "2025-06-30")), Status: "active",
	}))
	require.NoError(t, s.SaveDocument(ctx, &model.Document{
		ID: "doc2", UserID: "u1", Title: "Photo", DocumentType: "other", Status: "active",
	}))

	docs, err := s.ListDocumentsWithExpiry(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc1", docs[0].ID)
	assert.Equal(t, "Insurance", docs[0].Title)

	expiry, err := docs[0].ExpiryDate.Time()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-30", model.FormatDate(expiry))
}

func testListMaintenance(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	cost := 89.5

	require.NoError(t, s.SaveVehicle(ctx, &model.Vehicle{
		ID: "v1", UserID: "u1", RegistrationNumber: "AB-123", VehicleType: "van", Status: "active",
	}))
	require.NoError(t, s.SaveMaintenanceRecord(ctx, &model.MaintenanceRecord{
		ID: "m1", UserID: "u1", VehicleID: "v1", MaintenanceType: "oil_change", Cost: &cost,
		Status: "scheduled", NextDueDate: model.NewNullDate(mustDate(t, "2025-03-01")),
	}))
	require.NoError(t, s.SaveMaintenanceRecord(ctx, &model.MaintenanceRecord{
		ID: "m2", UserID: "u1", VehicleID: "v1", MaintenanceType: "repair", Status: "completed",
	}))

	records, err := s.ListMaintenanceDue(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "m1", records[0].ID)
	assert.Equal(t, "v1", records[0].VehicleID)
	assert.Equal(t, "oil_change", records[0].MaintenanceType)
	require.NotNil(t, records[0].Cost)
	assert.InDelta(t, 89.5, *records[0].Cost, 0.001)
}

func testInsertAndFind(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	alert := docAlert(t, "doc1", "2025-06-23", "2025-06-30")
	require.NoError(t, s.InsertAlert(ctx, alert))
	assert.NotEmpty(t, alert.ID)
	assert.False(t, alert.CreatedAt.IsZero())

	got, err := s.FindAlert(ctx, model.AlertKey{
		SourceID:  "doc1",
		AlertType: model.AlertDocumentExpiry,
		AlertDate: mustDate(t, "2025-06-23"),
	})
	require.NoError(t, err)
	assert.Equal(t, alert.ID, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "doc1", got.DocumentID)
	assert.Empty(t, got.MaintenanceRecordID)
	assert.Equal(t, "2025-06-30", model.FormatDate(got.TargetDate))
	assert.Equal(t, "2025-06-23", model.FormatDate(got.AlertDate))
	assert.False(t, got.IsSent)
	assert.False(t, got.IsAcknowledged)
	assert.Nil(t, got.AcknowledgedAt)

	_, err = s.FindAlert(ctx, model.AlertKey{
		SourceID:  "doc1",
		AlertType: model.AlertDocumentExpiry,
		AlertDate: mustDate(t, "2025-06-16"),
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Same source id under the other type is a different checkpoint.
	_, err = s.FindAlert(ctx, model.AlertKey{
		SourceID:  "doc1",
		AlertType: model.AlertMaintenanceDue,
		AlertDate: mustDate(t, "2025-06-23"),
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byID, err := s.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, alert.Title, byID.Title)

	_, err = s.GetAlert(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testInsertConflict(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.InsertAlert(ctx, docAlert(t, "doc1", "2025-06-23", "2025-06-30")))

	dup := docAlert(t, "doc1", "2025-06-23", "2025-06-30")
	err := s.InsertAlert(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrAlertExists)
	assert.Empty(t, dup.ID)

	alerts, err := s.ListAlerts(ctx, model.AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, alerts, 1)

	err = s.InsertAlert(ctx, &model.Alert{AlertType: model.AlertDocumentExpiry, UserID: "u1"})
	assert.Error(t, err)
}

func testConcurrentInsert(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var inserted, conflicts int
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertAlert(ctx, docAlert(t, "doc1", "2025-06-01", "2025-06-30"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				inserted++
			case errors.Is(err, storage.ErrAlertExists):
				conflicts++
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	assert.Equal(t, workers-1, conflicts)
}

func testListAlerts(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	require.NoError(t, s.InsertAlert(ctx, docAlert(t, "doc1", "2025-06-01", "2025-06-30")))
	require.NoError(t, s.InsertAlert(ctx, docAlert(t, "doc1", "2025-06-23", "2025-06-30")))
	require.NoError(t, s.InsertAlert(ctx, &model.Alert{
		UserID:              "u1",
		VehicleID:           "v1",
		MaintenanceRecordID: "m1",
		AlertType:           model.AlertMaintenanceDue,
		Title:               "Maintenance due for vehicle",
		TargetDate:          mustDate(t, "2025-03-01"),
		AlertDate:           mustDate(t, "2025-02-22"),
	}))
	other := docAlert(t, "doc9", "2025-05-01", "2025-05-08")
	other.UserID = "u2"
	require.NoError(t, s.InsertAlert(ctx, other))

	all, err := s.ListAlerts(ctx, model.AlertFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Ordered by target date, then alert date.
	assert.Equal(t, "m1", all[0].MaintenanceRecordID)
	assert.Equal(t, "v1", all[0].VehicleID)
	assert.Equal(t, "2025-06-01", model.FormatDate(all[1].AlertDate))
	assert.Equal(t, "2025-06-23", model.FormatDate(all[2].AlertDate))

	maint, err := s.ListAlerts(ctx, model.AlertFilter{UserID: "u1", AlertType: model.AlertMaintenanceDue})
	require.NoError(t, err)
	assert.Len(t, maint, 1)

	due, err := s.ListAlerts(ctx, model.AlertFilter{UserID: "u1", DueBy: mustDate(t, "2025-06-10")})
	require.NoError(t, err)
	assert.Len(t, due, 2)

	limited, err := s.ListAlerts(ctx, model.AlertFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	require.NoError(t, s.AcknowledgeAlert(ctx, all[0].ID, time.Now()))
	open, err := s.ListAlerts(ctx, model.AlertFilter{UserID: "u1", Unacknowledged: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func testAcknowledge(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	alert := docAlert(t, "doc1", "2025-06-23", "2025-06-30")
	require.NoError(t, s.InsertAlert(ctx, alert))

	first := time.Date(2025, 6, 24, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.AcknowledgeAlert(ctx, alert.ID, first))
	require.NoError(t, s.AcknowledgeAlert(ctx, alert.ID, first.Add(time.Hour)))

	got, err := s.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAcknowledged)
	require.NotNil(t, got.AcknowledgedAt)
	assert.True(t, first.Equal(*got.AcknowledgedAt), "got %s", got.AcknowledgedAt)

	err = s.AcknowledgeAlert(ctx, "missing", first)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testSaveUpserts(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	doc := &model.Document{
		ID: "doc1", UserID: "u1", Title: "Insurance", DocumentType: "insurance",
		ExpiryDate: model.NewNullDate(mustDate(t, "2025-06-30")), Status: "active",
	}
	require.NoError(t, s.SaveDocument(ctx, doc))

	doc.ExpiryDate = model.NewNullDate(mustDate(t, "2026-06-30"))
	require.NoError(t, s.SaveDocument(ctx, doc))

	docs, err := s.ListDocumentsWithExpiry(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2026-06-30", docs[0].ExpiryDate.Raw)

	fresh := &model.Document{UserID: "u1", Title: "Permit", Status: "active"}
	require.NoError(t, s.SaveDocument(ctx, fresh))
	assert.NotEmpty(t, fresh.ID)

	require.NoError(t, s.Ping(ctx))
}

package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/tradingdiary/backend/internal/api/request"
	"github.com/tradingdiary/backend/internal/apperrors"
	"github.com/tradingdiary/backend/internal/testutil"
)

// TestRateChangeService_CRUD tests the rate change lifecycle.
func TestRateChangeService_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRateChangeService(t, db)

	created, err := svc.CreateRateChange(context.Background(), request.CreateRateChangeRequest{
		Date:   "2024-02-01",
		Rate:   12,
		Reason: "CB meeting",
	})
	if err != nil {
		t.Fatalf("CreateRateChange() returned unexpected error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected generated rate change ID")
	}

	changes, err := svc.GetRateChanges()
	if err != nil {
		t.Fatalf("GetRateChanges() returned unexpected error: %v", err)
	}
	if len(changes) != 1 || changes[0].Rate != 12 {
		t.Fatalf("Expected one change at rate 12, got %+v", changes)
	}

	if err := svc.DeleteRateChange(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteRateChange() returned unexpected error: %v", err)
	}
	changes, err = svc.GetRateChanges()
	if err != nil {
		t.Fatalf("GetRateChanges() after delete returned unexpected error: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("Expected empty history after delete, got %d rows", len(changes))
	}
}

// TestRateChangeService_SortedAscending tests date ordering.
//
// WHY: Interest period construction assumes the history arrives sorted by
// date ascending; the service owns that guarantee.
func TestRateChangeService_SortedAscending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRateChangeService(t, db)

	testutil.NewRateChange("2024-03-01", 14).Build(t, db)
	testutil.NewRateChange("2024-01-01", 16).Build(t, db)
	testutil.NewRateChange("2024-02-01", 15).Build(t, db)

	changes, err := svc.GetRateChanges()
	if err != nil {
		t.Fatalf("GetRateChanges() returned unexpected error: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("Expected 3 changes, got %d", len(changes))
	}
	for i := 1; i < len(changes); i++ {
		if changes[i].Date.Before(changes[i-1].Date) {
			t.Errorf("History not sorted at index %d: %v before %v", i, changes[i].Date, changes[i-1].Date)
		}
	}
}

// TestRateChangeService_CorruptRowsSkipped tests the partial-corruption path.
//
// WHY: A history with one undecodable row must keep serving the decodable
// rows; losing the whole history would silently change every floating-rate
// interest figure to the contract rate.
func TestRateChangeService_CorruptRowsSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRateChangeService(t, db)

	testutil.NewRateChange("2024-01-01", 16).Build(t, db)
	if _, err := db.Exec(
		`INSERT INTO rate_change (id, date, rate, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		testutil.MakeID(), "not-a-date", 14.0, "", "2024-01-01T00:00:00Z",
	); err != nil {
		t.Fatalf("Failed to insert corrupt row: %v", err)
	}

	changes, err := svc.GetRateChanges()
	if err != nil {
		t.Fatalf("Expected corrupt history to be tolerated, got error: %v", err)
	}
	if len(changes) != 1 || changes[0].Rate != 16 {
		t.Errorf("Expected the decodable row only, got %+v", changes)
	}
}

// TestRateChangeService_ZeroRateValid tests that a zero rate is a real value.
func TestRateChangeService_ZeroRateValid(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRateChangeService(t, db)

	if _, err := svc.CreateRateChange(context.Background(), request.CreateRateChangeRequest{
		Date: "2024-02-01",
		Rate: 0,
	}); err != nil {
		t.Fatalf("Expected zero rate accepted, got error: %v", err)
	}

	changes, err := svc.GetRateChanges()
	if err != nil {
		t.Fatalf("GetRateChanges() returned unexpected error: %v", err)
	}
	if len(changes) != 1 || changes[0].Rate != 0 {
		t.Errorf("Expected stored zero rate, got %+v", changes)
	}
}

// TestRateChangeService_DeleteUnknown tests the not-found path.
func TestRateChangeService_DeleteUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestRateChangeService(t, db)

	err := svc.DeleteRateChange(context.Background(), testutil.MakeID())
	if !errors.Is(err, apperrors.ErrRateChangeNotFound) {
		t.Errorf("Expected ErrRateChangeNotFound, got %v", err)
	}
}

package core

import (
	"context"
	"testing"

	"attendance.service/internal/core/model"
)

func TestCatalogTierOrdering(t *testing.T) {
	repo := newFakeRepo()
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Morning", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.shifts[2] = model.ShiftDefinition{ID: 2, Name: "Evening", StartTime: model.NewTimeOfDay(14, 0), EndTime: model.NewTimeOfDay(23, 0), DurationHours: 8}
	resolver := NewCatalogResolver(repo)

	// Nothing assigned anywhere: the general tier returns every active shift.
	catalog, err := resolver.Resolve(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if catalog.Tier != model.TierGeneral || len(catalog.Shifts) != 2 {
		t.Fatalf("expected GENERAL tier with 2 shifts, got %s with %d", catalog.Tier, len(catalog.Shifts))
	}

	// A department assignment beats the general pool.
	repo.department["emp-1"] = []int64{2}
	catalog, _ = resolver.Resolve(context.Background(), "emp-1", testDay)
	if catalog.Tier != model.TierDepartment || len(catalog.Shifts) != 1 {
		t.Fatalf("expected DEPARTMENT tier with 1 shift, got %s with %d", catalog.Tier, len(catalog.Shifts))
	}

	// A designation beats the department.
	repo.designated["emp-1"] = []int64{1}
	catalog, _ = resolver.Resolve(context.Background(), "emp-1", testDay)
	if catalog.Tier != model.TierDesignation || catalog.Shifts[0].ID != 1 {
		t.Fatalf("expected DESIGNATION tier with shift 1, got %s", catalog.Tier)
	}

	// A pre-scheduled shift for the exact date beats everything.
	repo.scheduled[dayKey("emp-1", testDay)] = 2
	catalog, _ = resolver.Resolve(context.Background(), "emp-1", testDay)
	if catalog.Tier != model.TierPreScheduled || catalog.Shifts[0].ID != 2 {
		t.Fatalf("expected PRE_SCHEDULED tier with shift 2, got %s", catalog.Tier)
	}
}

package core

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

// CatalogResolver produces the ordered candidate shift list for an
// employee/date by walking a priority chain of sources and stopping at
// the first one that yields anything. An unknown employee simply falls
// through every tier and comes back empty.
type CatalogResolver struct {
	repo repository.Repository
}

func NewCatalogResolver(repo repository.Repository) *CatalogResolver {
	return &CatalogResolver{repo: repo}
}

type catalogTierSource struct {
	tier model.CatalogTier
	load func(ctx context.Context) ([]model.ShiftDefinition, error)
}

// Resolve walks the tiers in priority order: an exact pre-scheduled
// shift for the date, the designation's shifts, the department's, and
// finally every active shift as a catch-all.
func (r *CatalogResolver) Resolve(ctx context.Context, employeeID string, date time.Time) (model.ShiftCatalog, error) {
	sources := []catalogTierSource{
		{model.TierPreScheduled, func(ctx context.Context) ([]model.ShiftDefinition, error) {
			shift, err := r.repo.PreScheduledShift(ctx, employeeID, date)
			if err != nil || shift == nil {
				return nil, err
			}
			return []model.ShiftDefinition{*shift}, nil
		}},
		{model.TierDesignation, func(ctx context.Context) ([]model.ShiftDefinition, error) {
			return r.repo.DesignationShifts(ctx, employeeID)
		}},
		{model.TierDepartment, func(ctx context.Context) ([]model.ShiftDefinition, error) {
			return r.repo.DepartmentShifts(ctx, employeeID)
		}},
		{model.TierGeneral, func(ctx context.Context) ([]model.ShiftDefinition, error) {
			return r.repo.ActiveShifts(ctx)
		}},
	}

	for _, src := range sources {
		shifts, err := src.load(ctx)
		if err != nil {
			return model.ShiftCatalog{Tier: model.TierNone}, err
		}
		if len(shifts) > 0 {
			return model.ShiftCatalog{Shifts: shifts, Tier: src.tier}, nil
		}
	}
	return model.ShiftCatalog{Tier: model.TierNone}, nil
}

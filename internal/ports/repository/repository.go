package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"attendance.service/internal/core/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Repository contract
type Repository interface {
	// Punches
	InsertPunch(ctx context.Context, p model.Punch) (int64, error)
	PunchesForDay(ctx context.Context, employeeID string, date time.Time) ([]model.Punch, error)

	// Shift catalog tiers, queried in priority order by the resolver.
	PreScheduledShift(ctx context.Context, employeeID string, date time.Time) (*model.ShiftDefinition, error)
	DesignationShifts(ctx context.Context, employeeID string) ([]model.ShiftDefinition, error)
	DepartmentShifts(ctx context.Context, employeeID string) ([]model.ShiftDefinition, error)
	ActiveShifts(ctx context.Context) ([]model.ShiftDefinition, error)
	GetShift(ctx context.Context, id int64) (*model.ShiftDefinition, error)

	// Daily results. The aggregate and the confused-shift record for a
	// unit are written in one transaction so a failed unit never leaves
	// a partial write behind.
	UpsertDailyResult(ctx context.Context, agg *model.DailyAttendanceAggregate, rec *model.ConfusedShiftRecord) error
	GetDailyAttendance(ctx context.Context, employeeID string, date time.Time) (*model.DailyAttendanceAggregate, error)

	// Confused-shift records
	GetConfusedShift(ctx context.Context, id uuid.UUID) (*model.ConfusedShiftRecord, error)
	GetConfusedShiftForDay(ctx context.Context, employeeID string, date time.Time) (*model.ConfusedShiftRecord, error)
	ListConfusedShifts(ctx context.Context, status model.ConfusedStatus) ([]model.ConfusedShiftRecord, error)
	UpdateConfusedShift(ctx context.Context, rec *model.ConfusedShiftRecord) error
	MarkConfusedNotified(ctx context.Context, id uuid.UUID, at time.Time) error
}

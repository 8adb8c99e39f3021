package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"attendance.service/internal/core/model"
)

// AttendanceRepository is the concrete implementation for a PostgreSQL database.
type AttendanceRepository struct {
	DB *sql.DB
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) Repository {
	return &AttendanceRepository{DB: db}
}

// InsertPunch stores one raw clock event.
func (r *AttendanceRepository) InsertPunch(ctx context.Context, p model.Punch) (int64, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", p.EmployeeID))

	var id int64
	query := `INSERT INTO punches (employee_id, punched_at, direction, source)
              VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.DB.QueryRowContext(ctx, query, p.EmployeeID, p.Timestamp, p.Direction, p.Source).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// PunchesForDay loads the punches belonging to one attendance unit. The
// window runs to noon of the next day so the OUT punch of an overnight
// span is visible; the segmenter dates segments by their IN punch.
func (r *AttendanceRepository) PunchesForDay(ctx context.Context, employeeID string, date time.Time) ([]model.Punch, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	from := date
	to := date.AddDate(0, 0, 1).Add(12 * time.Hour)

	query := `SELECT id, employee_id, punched_at, direction, source
              FROM punches
              WHERE employee_id = $1 AND punched_at >= $2 AND punched_at < $3
              ORDER BY punched_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var punches []model.Punch
	for rows.Next() {
		var p model.Punch
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.Timestamp, &p.Direction, &p.Source); err != nil {
			return nil, err
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// PreScheduledShift finds an explicit roster entry for the exact date.
func (r *AttendanceRepository) PreScheduledShift(ctx context.Context, employeeID string, date time.Time) (*model.ShiftDefinition, error) {
	query := `SELECT s.id, s.name, s.start_minute, s.end_minute, s.duration_hours, s.grace_minutes
              FROM shift_schedules sc
              JOIN shifts s ON s.id = sc.shift_id
              WHERE sc.employee_id = $1 AND sc.work_date = $2
              LIMIT 1`

	shift, err := scanShift(r.DB.QueryRowContext(ctx, query, employeeID, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// DesignationShifts lists the shifts attached to the employee's designation.
func (r *AttendanceRepository) DesignationShifts(ctx context.Context, employeeID string) ([]model.ShiftDefinition, error) {
	query := `SELECT s.id, s.name, s.start_minute, s.end_minute, s.duration_hours, s.grace_minutes
              FROM employees e
              JOIN designation_shifts ds ON ds.designation_id = e.designation_id
              JOIN shifts s ON s.id = ds.shift_id
              WHERE e.id = $1 AND s.active
              ORDER BY s.start_minute ASC`
	return r.queryShifts(ctx, query, employeeID)
}

// DepartmentShifts lists the shifts attached to the employee's department.
func (r *AttendanceRepository) DepartmentShifts(ctx context.Context, employeeID string) ([]model.ShiftDefinition, error) {
	query := `SELECT s.id, s.name, s.start_minute, s.end_minute, s.duration_hours, s.grace_minutes
              FROM employees e
              JOIN department_shifts ds ON ds.department_id = e.department_id
              JOIN shifts s ON s.id = ds.shift_id
              WHERE e.id = $1 AND s.active
              ORDER BY s.start_minute ASC`
	return r.queryShifts(ctx, query, employeeID)
}

// ActiveShifts lists every active shift definition, the last-resort tier.
func (r *AttendanceRepository) ActiveShifts(ctx context.Context) ([]model.ShiftDefinition, error) {
	query := `SELECT id, name, start_minute, end_minute, duration_hours, grace_minutes
              FROM shifts WHERE active ORDER BY start_minute ASC`
	return r.queryShifts(ctx, query)
}

// GetShift fetches a single shift definition by ID.
func (r *AttendanceRepository) GetShift(ctx context.Context, id int64) (*model.ShiftDefinition, error) {
	query := `SELECT id, name, start_minute, end_minute, duration_hours, grace_minutes
              FROM shifts WHERE id = $1`
	shift, err := scanShift(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// UpsertDailyResult writes the aggregate and, when present, the
// confused-shift record for one unit inside a single transaction.
// Both tables are keyed by (employee_id, work_date), so reprocessing a
// unit overwrites rather than duplicates.
func (r *AttendanceRepository) UpsertDailyResult(ctx context.Context, agg *model.DailyAttendanceAggregate, rec *model.ConfusedShiftRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", agg.EmployeeID))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	segments, err := json.Marshal(agg.Segments)
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}

	aggQuery := `INSERT INTO daily_attendance
              (employee_id, work_date, segments, total_shifts, total_working_hours, total_ot_hours, total_payable_shifts, status, computed_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              ON CONFLICT (employee_id, work_date) DO UPDATE SET
                  segments = EXCLUDED.segments,
                  total_shifts = EXCLUDED.total_shifts,
                  total_working_hours = EXCLUDED.total_working_hours,
                  total_ot_hours = EXCLUDED.total_ot_hours,
                  total_payable_shifts = EXCLUDED.total_payable_shifts,
                  status = EXCLUDED.status,
                  computed_at = EXCLUDED.computed_at`

	_, err = tx.ExecContext(ctx, aggQuery,
		agg.EmployeeID, agg.WorkDate, segments, agg.TotalShifts,
		agg.TotalWorkingHours, agg.TotalOTHours, agg.TotalPayable, agg.Status, agg.ComputedAt)
	if err != nil {
		return err
	}

	if rec != nil {
		if err := upsertConfused(ctx, tx, rec); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetDailyAttendance fetches the aggregate for one employee/date.
func (r *AttendanceRepository) GetDailyAttendance(ctx context.Context, employeeID string, date time.Time) (*model.DailyAttendanceAggregate, error) {
	query := `SELECT employee_id, work_date, segments, total_shifts, total_working_hours, total_ot_hours, total_payable_shifts, status, computed_at
              FROM daily_attendance WHERE employee_id = $1 AND work_date = $2`

	agg := &model.DailyAttendanceAggregate{}
	var segments []byte
	err := r.DB.QueryRowContext(ctx, query, employeeID, date).Scan(
		&agg.EmployeeID, &agg.WorkDate, &segments, &agg.TotalShifts,
		&agg.TotalWorkingHours, &agg.TotalOTHours, &agg.TotalPayable, &agg.Status, &agg.ComputedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(segments, &agg.Segments); err != nil {
		return nil, fmt.Errorf("failed to decode segments: %w", err)
	}
	return agg, nil
}

// GetConfusedShift fetches one escalation record by ID.
func (r *AttendanceRepository) GetConfusedShift(ctx context.Context, id uuid.UUID) (*model.ConfusedShiftRecord, error) {
	return r.queryConfused(ctx, confusedSelect+` WHERE id = $1`, id)
}

// GetConfusedShiftForDay fetches the unit's escalation record, if any.
func (r *AttendanceRepository) GetConfusedShiftForDay(ctx context.Context, employeeID string, date time.Time) (*model.ConfusedShiftRecord, error) {
	return r.queryConfused(ctx, confusedSelect+` WHERE employee_id = $1 AND work_date = $2`, employeeID, date)
}

// ListConfusedShifts lists records in a given status, oldest first.
func (r *AttendanceRepository) ListConfusedShifts(ctx context.Context, status model.ConfusedStatus) ([]model.ConfusedShiftRecord, error) {
	rows, err := r.DB.QueryContext(ctx, confusedSelect+` WHERE status = $1 ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []model.ConfusedShiftRecord
	for rows.Next() {
		rec, err := scanConfused(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// UpdateConfusedShift persists a status transition and its metadata.
func (r *AttendanceRepository) UpdateConfusedShift(ctx context.Context, rec *model.ConfusedShiftRecord) error {
	query := `UPDATE confused_shifts
              SET status = $1, resolved_shift_id = $2, resolved_by = $3, comments = $4, resolved_at = $5, updated_at = $6
              WHERE id = $7`
	_, err := r.DB.ExecContext(ctx, query,
		rec.Status, rec.ResolvedShiftID, rec.ResolvedBy, rec.Comments, rec.ResolvedAt, rec.UpdatedAt, rec.ID)
	return err
}

// MarkConfusedNotified records that the review desk was emailed.
func (r *AttendanceRepository) MarkConfusedNotified(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE confused_shifts SET notified_at = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, at, id)
	return err
}

const confusedSelect = `SELECT id, employee_id, work_date, in_time, out_time, candidates, status,
       resolved_shift_id, resolved_by, comments, resolved_at, notified_at, created_at, updated_at
       FROM confused_shifts`

func upsertConfused(ctx context.Context, tx *sql.Tx, rec *model.ConfusedShiftRecord) error {
	candidates, err := json.Marshal(rec.Candidates)
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}

	query := `INSERT INTO confused_shifts
              (id, employee_id, work_date, in_time, out_time, candidates, status, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              ON CONFLICT (employee_id, work_date) DO UPDATE SET
                  in_time = EXCLUDED.in_time,
                  out_time = EXCLUDED.out_time,
                  candidates = EXCLUDED.candidates,
                  updated_at = EXCLUDED.updated_at`

	_, err = tx.ExecContext(ctx, query,
		rec.ID, rec.EmployeeID, rec.WorkDate, rec.InTime, rec.OutTime,
		candidates, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*model.ShiftDefinition, error) {
	s := &model.ShiftDefinition{}
	var start, end int
	var grace sql.NullInt64
	if err := row.Scan(&s.ID, &s.Name, &start, &end, &s.DurationHours, &grace); err != nil {
		return nil, err
	}
	s.StartTime = model.TimeOfDay(start)
	s.EndTime = model.TimeOfDay(end)
	if grace.Valid {
		g := int(grace.Int64)
		s.GraceMinutes = &g
	}
	return s, nil
}

func scanConfused(row rowScanner) (*model.ConfusedShiftRecord, error) {
	rec := &model.ConfusedShiftRecord{}
	var candidates []byte
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.WorkDate, &rec.InTime, &rec.OutTime,
		&candidates, &rec.Status, &rec.ResolvedShiftID, &rec.ResolvedBy, &rec.Comments,
		&rec.ResolvedAt, &rec.NotifiedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(candidates, &rec.Candidates); err != nil {
		return nil, fmt.Errorf("failed to decode candidates: %w", err)
	}
	return rec, nil
}

func (r *AttendanceRepository) queryShifts(ctx context.Context, query string, args ...any) ([]model.ShiftDefinition, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []model.ShiftDefinition
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *s)
	}
	return shifts, rows.Err()
}

func (r *AttendanceRepository) queryConfused(ctx context.Context, query string, args ...any) (*model.ConfusedShiftRecord, error) {
	rec, err := scanConfused(r.DB.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"attendance.service/internal/core/engine"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/leaveapi"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
)

// ErrUnitRetryable marks a unit whose external reads failed; the
// aggregate was not touched and the worker should retry the whole unit.
var ErrUnitRetryable = errors.New("attendance unit failed, retry later")

// ErrInvalidPunch is returned for punches the API should reject outright.
var ErrInvalidPunch = errors.New("invalid punch")

// AutoResolveReviewer is the reviewer name recorded when a stale
// pending escalation is auto-resolved to its nearest candidate.
const AutoResolveReviewer = "auto-nearest"

// AttendanceService runs the per-(employee, date) attendance pipeline:
// punches are segmented, matched against the shift catalog, reconciled
// with approved on-duty time and folded into the daily aggregate.
type AttendanceService struct {
	repo     repository.Repository
	catalog  *CatalogResolver
	leave    leaveapi.Client
	producer messaging.QueueProducer
	settings engine.Settings
	now      func() time.Time
}

// NewAttendanceService wires up the pipeline's collaborators. The
// engine settings are resolved once here; nothing downstream reads
// configuration on its own.
func NewAttendanceService(repo repository.Repository, leave leaveapi.Client, producer messaging.QueueProducer, settings engine.Settings) *AttendanceService {
	return &AttendanceService{
		repo:     repo,
		catalog:  NewCatalogResolver(repo),
		leave:    leave,
		producer: producer,
		settings: settings.Normalized(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RecordPunch persists a raw clock event and asks the worker to
// recompute the affected unit. An early-morning OUT may close an
// overnight span, so the previous date is queued as well.
func (s *AttendanceService) RecordPunch(ctx context.Context, employeeID string, ts time.Time, direction model.PunchDirection, source string) error {
	if employeeID == "" || (direction != model.DirectionIn && direction != model.DirectionOut) {
		return ErrInvalidPunch
	}

	_, err := s.repo.InsertPunch(ctx, model.Punch{
		EmployeeID: employeeID,
		Timestamp:  ts,
		Direction:  direction,
		Source:     source,
	})
	if err != nil {
		return fmt.Errorf("failed to store punch: %w", err)
	}

	dates := []time.Time{engine.DateOf(ts)}
	if direction == model.DirectionOut && ts.Hour() < 12 {
		dates = append(dates, engine.DateOf(ts).AddDate(0, 0, -1))
	}
	for _, d := range dates {
		event := messaging.ReprocessEvent{
			EmployeeID: employeeID,
			WorkDate:   d.Format("2006-01-02"),
			Trigger:    messaging.TriggerPunch,
			OccurredAt: s.now(),
		}
		if err := s.producer.PublishReprocess(ctx, event); err != nil {
			return fmt.Errorf("failed to publish reprocess event: %w", err)
		}
	}
	return nil
}

// ProcessDay recomputes one attendance unit from scratch. The whole
// computation is deterministic from the stored punches plus the
// external reads, so re-running it is always safe; any external read
// failure aborts before anything is written.
func (s *AttendanceService) ProcessDay(ctx context.Context, employeeID string, date time.Time) (*model.DailyAttendanceAggregate, error) {
	date = engine.DateOf(date)

	punches, err := s.repo.PunchesForDay(ctx, employeeID, date)
	if err != nil {
		return nil, retryable("load punches", err)
	}

	catalog, err := s.catalog.Resolve(ctx, employeeID, date)
	if err != nil {
		return nil, retryable("resolve shift catalog", err)
	}

	ods, err := s.leave.ApprovedIntervals(ctx, employeeID, date)
	if err != nil {
		return nil, retryable("load on-duty intervals", err)
	}

	existing, err := s.repo.GetConfusedShiftForDay(ctx, employeeID, date)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, retryable("load confused shift record", err)
	}

	// A resolved escalation pins the reviewer's chosen shift for any
	// segment the matcher still cannot settle.
	var overrideShift *model.ShiftDefinition
	overrideMethod := model.MatchManual
	if existing != nil && existing.Status == model.ConfusedResolved && existing.ResolvedShiftID != nil {
		overrideShift, err = s.repo.GetShift(ctx, *existing.ResolvedShiftID)
		if err != nil {
			return nil, retryable("load resolved shift", err)
		}
		if existing.ResolvedBy != nil && *existing.ResolvedBy == AutoResolveReviewer {
			overrideMethod = model.MatchAutoNearest
		}
	}

	hint := func(in time.Time) *model.ShiftDefinition {
		return engine.NearestShift(catalog, in)
	}
	segments := segmentsForDate(engine.SegmentPunches(punches, hint, s.settings), date)

	var (
		resolved     []model.ResolvedSegment
		escalation   *engine.Escalation
		escalatedSeg *model.WorkSegment
	)
	for _, seg := range segments {
		outcome := engine.MatchSegment(date, seg, catalog, s.settings)
		if outcome.Escalation != nil {
			if overrideShift != nil {
				outcome = engine.AssignShift(date, seg, *overrideShift, overrideMethod, s.settings)
			} else if escalation == nil {
				escalation = outcome.Escalation
				segCopy := seg
				escalatedSeg = &segCopy
			}
		}
		resolved = append(resolved, engine.ReconcileSegment(date, seg, outcome, ods))
	}

	agg := engine.Aggregate(employeeID, date, resolved, s.now())

	rec := s.confusedRecordFor(existing, employeeID, date, escalatedSeg, escalation)
	if err := s.repo.UpsertDailyResult(ctx, &agg, rec); err != nil {
		return nil, retryable("persist daily result", err)
	}

	if rec != nil && rec.Status == model.ConfusedPending {
		log.Ctx(ctx).Info().
			Str("employee_id", employeeID).
			Str("work_date", date.Format("2006-01-02")).
			Int("candidates", len(rec.Candidates)).
			Msg("Segment escalated for manual review")

		event := messaging.ReviewEvent{
			ConfusedShiftID: rec.ID,
			EmployeeID:      employeeID,
			WorkDate:        date.Format("2006-01-02"),
			CandidateCount:  len(rec.Candidates),
			OccurredAt:      s.now(),
		}
		if err := s.producer.PublishReview(ctx, event); err != nil {
			// The record is stored; the review worker will still find it.
			log.Ctx(ctx).Warn().Err(err).Msg("Failed to publish review event")
		}
	}

	return &agg, nil
}

// ResolveConfusedShift applies a reviewer's shift choice to a pending
// escalation and recomputes the unit with it.
func (s *AttendanceService) ResolveConfusedShift(ctx context.Context, id uuid.UUID, shiftID int64, reviewer, comments string) (*model.DailyAttendanceAggregate, error) {
	rec, err := s.repo.GetConfusedShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetShift(ctx, shiftID); err != nil {
		return nil, fmt.Errorf("chosen shift %d: %w", shiftID, err)
	}
	return s.applyResolution(ctx, rec, shiftID, reviewer, comments)
}

// AutoResolveNearest settles a stale pending escalation on the
// candidate whose start was closest to the punch.
func (s *AttendanceService) AutoResolveNearest(ctx context.Context, id uuid.UUID) (*model.DailyAttendanceAggregate, error) {
	rec, err := s.repo.GetConfusedShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(rec.Candidates) == 0 {
		return nil, fmt.Errorf("confused shift %s has no candidates to pick from", id)
	}
	nearest := rec.Candidates[0]
	for _, c := range rec.Candidates[1:] {
		if c.DistanceMinutes < nearest.DistanceMinutes {
			nearest = c
		}
	}
	return s.applyResolution(ctx, rec, nearest.ShiftID, AutoResolveReviewer, "auto-resolved to nearest candidate")
}

// DismissConfusedShift marks a pending escalation as not worth
// resolving; the segment stays unassigned in the aggregate.
func (s *AttendanceService) DismissConfusedShift(ctx context.Context, id uuid.UUID, reviewer, comments string) error {
	rec, err := s.repo.GetConfusedShift(ctx, id)
	if err != nil {
		return err
	}
	if err := rec.Dismiss(reviewer, comments, s.now()); err != nil {
		return err
	}
	return s.repo.UpdateConfusedShift(ctx, rec)
}

// GetDailyAttendance returns the stored aggregate for one unit.
func (s *AttendanceService) GetDailyAttendance(ctx context.Context, employeeID string, date time.Time) (*model.DailyAttendanceAggregate, error) {
	return s.repo.GetDailyAttendance(ctx, employeeID, engine.DateOf(date))
}

// ListConfusedShifts lists escalation records by status.
func (s *AttendanceService) ListConfusedShifts(ctx context.Context, status model.ConfusedStatus) ([]model.ConfusedShiftRecord, error) {
	return s.repo.ListConfusedShifts(ctx, status)
}

// GetConfusedShift returns one escalation record.
func (s *AttendanceService) GetConfusedShift(ctx context.Context, id uuid.UUID) (*model.ConfusedShiftRecord, error) {
	return s.repo.GetConfusedShift(ctx, id)
}

// MarkConfusedNotified is used by the review worker to record that the
// review desk has been emailed about a record.
func (s *AttendanceService) MarkConfusedNotified(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkConfusedNotified(ctx, id, s.now())
}

func (s *AttendanceService) applyResolution(ctx context.Context, rec *model.ConfusedShiftRecord, shiftID int64, reviewer, comments string) (*model.DailyAttendanceAggregate, error) {
	if err := rec.Resolve(shiftID, reviewer, comments, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateConfusedShift(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to update confused shift record: %w", err)
	}

	// Announce the resolution for any downstream consumer of the
	// reprocess stream. The recompute below is what the caller waits on;
	// the worker re-running the same unit is a no-op.
	event := messaging.ReprocessEvent{
		EmployeeID: rec.EmployeeID,
		WorkDate:   rec.WorkDate.Format("2006-01-02"),
		Trigger:    messaging.TriggerResolution,
		OccurredAt: s.now(),
	}
	if err := s.producer.PublishReprocess(ctx, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to publish resolution reprocess event")
	}

	return s.ProcessDay(ctx, rec.EmployeeID, rec.WorkDate)
}

// confusedRecordFor decides what, if anything, gets upserted for the
// unit's escalation state. Exactly one record exists per key: repeated
// escalations refresh the pending record in place, and terminal records
// are never resurrected.
func (s *AttendanceService) confusedRecordFor(existing *model.ConfusedShiftRecord, employeeID string, date time.Time, seg *model.WorkSegment, esc *engine.Escalation) *model.ConfusedShiftRecord {
	if esc == nil || seg == nil || seg.InTime == nil {
		return nil
	}
	if existing != nil && existing.Status != model.ConfusedPending {
		return nil
	}

	now := s.now()
	rec := &model.ConfusedShiftRecord{
		ID:         uuid.New(),
		EmployeeID: employeeID,
		WorkDate:   date,
		Status:     model.ConfusedPending,
		CreatedAt:  now,
	}
	if existing != nil {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.NotifiedAt = existing.NotifiedAt
	}
	rec.InTime = *seg.InTime
	rec.OutTime = seg.OutTime
	rec.Candidates = esc.Candidates
	rec.UpdatedAt = now
	return rec
}

// segmentsForDate keeps only the segments that belong to the unit's
// date. The punch window reaches into the next morning for overnight
// OUTs, so spans started the next day (and yesterday's orphaned OUTs)
// are left for their own unit.
func segmentsForDate(segments []model.WorkSegment, date time.Time) []model.WorkSegment {
	var kept []model.WorkSegment
	for _, seg := range segments {
		switch {
		case seg.InTime != nil && engine.DateOf(*seg.InTime).Equal(date):
			kept = append(kept, seg)
		case seg.InTime == nil && seg.OutTime != nil && engine.DateOf(*seg.OutTime).Equal(date):
			kept = append(kept, seg)
		}
	}
	for i := range kept {
		kept[i].Ordinal = i + 1
	}
	return kept
}

func retryable(stage string, err error) error {
	return fmt.Errorf("%s: %v: %w", stage, err, ErrUnitRetryable)
}

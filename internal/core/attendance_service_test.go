package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"attendance.service/internal/core/engine"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
)

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

type fakeRepo struct {
	punches    []model.Punch
	nextID     int64
	shifts     map[int64]model.ShiftDefinition
	designated map[string][]int64
	department map[string][]int64
	scheduled  map[string]int64 // employeeID+date -> shiftID

	aggregates map[string]*model.DailyAttendanceAggregate
	confused   map[uuid.UUID]*model.ConfusedShiftRecord

	upsertCalls int
	failPunches bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		shifts:     map[int64]model.ShiftDefinition{},
		designated: map[string][]int64{},
		department: map[string][]int64{},
		scheduled:  map[string]int64{},
		aggregates: map[string]*model.DailyAttendanceAggregate{},
		confused:   map[uuid.UUID]*model.ConfusedShiftRecord{},
	}
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01-02")
}

func (r *fakeRepo) InsertPunch(_ context.Context, p model.Punch) (int64, error) {
	r.nextID++
	p.ID = r.nextID
	r.punches = append(r.punches, p)
	return p.ID, nil
}

func (r *fakeRepo) PunchesForDay(_ context.Context, employeeID string, date time.Time) ([]model.Punch, error) {
	if r.failPunches {
		return nil, errors.New("db unavailable")
	}
	from, to := date, date.AddDate(0, 0, 1).Add(12*time.Hour)
	var out []model.Punch
	for _, p := range r.punches {
		if p.EmployeeID == employeeID && !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) PreScheduledShift(_ context.Context, employeeID string, date time.Time) (*model.ShiftDefinition, error) {
	if id, ok := r.scheduled[dayKey(employeeID, date)]; ok {
		s := r.shifts[id]
		return &s, nil
	}
	return nil, nil
}

func (r *fakeRepo) DesignationShifts(_ context.Context, employeeID string) ([]model.ShiftDefinition, error) {
	return r.shiftsByID(r.designated[employeeID]), nil
}

func (r *fakeRepo) DepartmentShifts(_ context.Context, employeeID string) ([]model.ShiftDefinition, error) {
	return r.shiftsByID(r.department[employeeID]), nil
}

func (r *fakeRepo) ActiveShifts(_ context.Context) ([]model.ShiftDefinition, error) {
	var out []model.ShiftDefinition
	for _, s := range r.shifts {
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeRepo) shiftsByID(ids []int64) []model.ShiftDefinition {
	var out []model.ShiftDefinition
	for _, id := range ids {
		out = append(out, r.shifts[id])
	}
	return out
}

func (r *fakeRepo) GetShift(_ context.Context, id int64) (*model.ShiftDefinition, error) {
	s, ok := r.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeRepo) UpsertDailyResult(_ context.Context, agg *model.DailyAttendanceAggregate, rec *model.ConfusedShiftRecord) error {
	r.upsertCalls++
	copied := *agg
	r.aggregates[dayKey(agg.EmployeeID, agg.WorkDate)] = &copied
	if rec != nil {
		recCopy := *rec
		r.confused[rec.ID] = &recCopy
	}
	return nil
}

func (r *fakeRepo) GetDailyAttendance(_ context.Context, employeeID string, date time.Time) (*model.DailyAttendanceAggregate, error) {
	agg, ok := r.aggregates[dayKey(employeeID, date)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return agg, nil
}

func (r *fakeRepo) GetConfusedShift(_ context.Context, id uuid.UUID) (*model.ConfusedShiftRecord, error) {
	rec, ok := r.confused[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	recCopy := *rec
	return &recCopy, nil
}

func (r *fakeRepo) GetConfusedShiftForDay(_ context.Context, employeeID string, date time.Time) (*model.ConfusedShiftRecord, error) {
	for _, rec := range r.confused {
		if rec.EmployeeID == employeeID && rec.WorkDate.Equal(date) {
			recCopy := *rec
			return &recCopy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) ListConfusedShifts(_ context.Context, status model.ConfusedStatus) ([]model.ConfusedShiftRecord, error) {
	var out []model.ConfusedShiftRecord
	for _, rec := range r.confused {
		if rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateConfusedShift(_ context.Context, rec *model.ConfusedShiftRecord) error {
	recCopy := *rec
	r.confused[rec.ID] = &recCopy
	return nil
}

func (r *fakeRepo) MarkConfusedNotified(_ context.Context, id uuid.UUID, atTime time.Time) error {
	rec, ok := r.confused[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.NotifiedAt = &atTime
	return nil
}

type fakeProducer struct {
	reprocess []messaging.ReprocessEvent
	reviews   []messaging.ReviewEvent
}

func (p *fakeProducer) PublishReprocess(_ context.Context, event messaging.ReprocessEvent) error {
	p.reprocess = append(p.reprocess, event)
	return nil
}

func (p *fakeProducer) PublishReview(_ context.Context, event messaging.ReviewEvent) error {
	p.reviews = append(p.reviews, event)
	return nil
}

type fakeLeave struct {
	intervals []model.OnDutyInterval
	err       error
}

func (l *fakeLeave) ApprovedIntervals(_ context.Context, employeeID string, date time.Time) ([]model.OnDutyInterval, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.intervals, nil
}

func newTestService(repo *fakeRepo, leave *fakeLeave, producer *fakeProducer) *AttendanceService {
	svc := NewAttendanceService(repo, leave, producer, engine.Settings{})
	svc.now = func() time.Time { return time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC) }
	return svc
}

// Two overlapping morning shifts; an 08:40 arrival with no out-punch is
// genuinely ambiguous between them.
func seedAmbiguousShifts(repo *fakeRepo, employeeID string) {
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Morning", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.shifts[2] = model.ShiftDefinition{ID: 2, Name: "Early", StartTime: model.NewTimeOfDay(8, 0), EndTime: model.NewTimeOfDay(17, 0), DurationHours: 8}
	repo.designated[employeeID] = []int64{1, 2}
}

func punchIn(repo *fakeRepo, employeeID string, t time.Time) {
	repo.InsertPunch(context.Background(), model.Punch{EmployeeID: employeeID, Timestamp: t, Direction: model.DirectionIn, Source: "test"})
}

func punchOut(repo *fakeRepo, employeeID string, t time.Time) {
	repo.InsertPunch(context.Background(), model.Punch{EmployeeID: employeeID, Timestamp: t, Direction: model.DirectionOut, Source: "test"})
}

func TestRecordPunchValidation(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}
	svc := newTestService(repo, &fakeLeave{}, producer)

	err := svc.RecordPunch(context.Background(), "", at(9, 0), model.DirectionIn, "door")
	if !errors.Is(err, ErrInvalidPunch) {
		t.Fatalf("expected ErrInvalidPunch for empty employee, got %v", err)
	}
	err = svc.RecordPunch(context.Background(), "emp-1", at(9, 0), "SIDEWAYS", "door")
	if !errors.Is(err, ErrInvalidPunch) {
		t.Fatalf("expected ErrInvalidPunch for bad direction, got %v", err)
	}
	if len(repo.punches) != 0 {
		t.Fatalf("rejected punches must not be stored, have %d", len(repo.punches))
	}
}

func TestRecordPunchQueuesReprocess(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}
	svc := newTestService(repo, &fakeLeave{}, producer)

	if err := svc.RecordPunch(context.Background(), "emp-1", at(9, 2), model.DirectionIn, "door"); err != nil {
		t.Fatalf("RecordPunch: %v", err)
	}
	if len(producer.reprocess) != 1 {
		t.Fatalf("expected 1 reprocess event, got %d", len(producer.reprocess))
	}
	if producer.reprocess[0].WorkDate != "2026-03-10" {
		t.Errorf("WorkDate = %s, want 2026-03-10", producer.reprocess[0].WorkDate)
	}
	if producer.reprocess[0].Trigger != messaging.TriggerPunch {
		t.Errorf("Trigger = %s, want %s", producer.reprocess[0].Trigger, messaging.TriggerPunch)
	}
}

func TestRecordPunchEarlyMorningOutQueuesPreviousDay(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}
	svc := newTestService(repo, &fakeLeave{}, producer)

	// 05:50 OUT may close a span opened the previous evening.
	if err := svc.RecordPunch(context.Background(), "emp-1", at(5, 50), model.DirectionOut, "door"); err != nil {
		t.Fatalf("RecordPunch: %v", err)
	}
	if len(producer.reprocess) != 2 {
		t.Fatalf("expected 2 reprocess events, got %d", len(producer.reprocess))
	}
	dates := []string{producer.reprocess[0].WorkDate, producer.reprocess[1].WorkDate}
	want := []string{"2026-03-10", "2026-03-09"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("queued dates = %v, want %v", dates, want)
	}
}

func TestProcessDaySingleShift(t *testing.T) {
	repo := newFakeRepo()
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Day", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.designated["emp-1"] = []int64{1}
	punchIn(repo, "emp-1", at(9, 18))
	punchOut(repo, "emp-1", at(18, 5))

	producer := &fakeProducer{}
	svc := newTestService(repo, &fakeLeave{}, producer)

	agg, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(agg.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(agg.Segments))
	}
	seg := agg.Segments[0]
	if seg.Match.ShiftID == nil || *seg.Match.ShiftID != 1 {
		t.Fatalf("segment not matched to shift 1: %+v", seg.Match)
	}
	if seg.Match.LateInMinutes == nil || *seg.Match.LateInMinutes != 3 {
		t.Errorf("LateInMinutes = %v, want 3", seg.Match.LateInMinutes)
	}
	if agg.Status != model.DayPresent {
		t.Errorf("Status = %s, want PRESENT", agg.Status)
	}
	if len(producer.reviews) != 0 {
		t.Errorf("no review event expected, got %d", len(producer.reviews))
	}
}

func TestProcessDayIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Day", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.designated["emp-1"] = []int64{1}
	punchIn(repo, "emp-1", at(9, 0))
	punchOut(repo, "emp-1", at(18, 0))

	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})

	first, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("first ProcessDay: %v", err)
	}
	second, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("second ProcessDay: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reprocessing changed the aggregate:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if got := len(repo.aggregates); got != 1 {
		t.Errorf("expected a single stored aggregate, got %d", got)
	}
}

func TestProcessDayPreScheduledWinsOverDesignation(t *testing.T) {
	repo := newFakeRepo()
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Morning", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.shifts[2] = model.ShiftDefinition{ID: 2, Name: "Early", StartTime: model.NewTimeOfDay(8, 0), EndTime: model.NewTimeOfDay(17, 0), DurationHours: 8}
	repo.designated["emp-1"] = []int64{1, 2}
	repo.scheduled[dayKey("emp-1", testDay)] = 2
	// 08:40 would be ambiguous against the designation pair, but the
	// pre-scheduled tier short-circuits to a single candidate.
	punchIn(repo, "emp-1", at(8, 40))
	punchOut(repo, "emp-1", at(17, 0))

	producer := &fakeProducer{}
	svc := newTestService(repo, &fakeLeave{}, producer)

	agg, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	seg := agg.Segments[0]
	if seg.Match.ShiftID == nil || *seg.Match.ShiftID != 2 {
		t.Fatalf("expected pre-scheduled shift 2, got %+v", seg.Match)
	}
	if len(producer.reviews) != 0 {
		t.Errorf("pre-scheduled match must not escalate")
	}
}

func TestProcessDayEscalatesAmbiguousSegment(t *testing.T) {
	repo := newFakeRepo()
	seedAmbiguousShifts(repo, "emp-1")
	punchIn(repo, "emp-1", at(8, 40))

	producer := &fakeProducer{}
	svc := newTestService(repo, &fakeLeave{}, producer)

	agg, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	seg := agg.Segments[0]
	if seg.Match.ShiftID != nil {
		t.Fatalf("ambiguous segment must stay unmatched, got shift %d", *seg.Match.ShiftID)
	}
	if len(producer.reviews) != 1 {
		t.Fatalf("expected 1 review event, got %d", len(producer.reviews))
	}
	if producer.reviews[0].CandidateCount != 2 {
		t.Errorf("CandidateCount = %d, want 2", producer.reviews[0].CandidateCount)
	}

	pending, err := repo.ListConfusedShifts(context.Background(), model.ConfusedPending)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected 1 pending record, got %d (err %v)", len(pending), err)
	}
	if len(pending[0].Candidates) != 2 {
		t.Errorf("stored candidates = %d, want 2", len(pending[0].Candidates))
	}
}

func TestProcessDayReescalationKeepsSingleRecord(t *testing.T) {
	repo := newFakeRepo()
	seedAmbiguousShifts(repo, "emp-1")
	punchIn(repo, "emp-1", at(8, 40))

	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})

	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("first ProcessDay: %v", err)
	}
	first, err := repo.GetConfusedShiftForDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("no record after first run: %v", err)
	}

	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("second ProcessDay: %v", err)
	}
	if len(repo.confused) != 1 {
		t.Fatalf("expected one record per employee/date, got %d", len(repo.confused))
	}
	second, _ := repo.GetConfusedShiftForDay(context.Background(), "emp-1", testDay)
	if second.ID != first.ID {
		t.Errorf("re-escalation replaced the record instead of refreshing it")
	}
}

func TestResolveConfusedShift(t *testing.T) {
	repo := newFakeRepo()
	seedAmbiguousShifts(repo, "emp-1")
	punchIn(repo, "emp-1", at(8, 40))

	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})
	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	rec, err := repo.GetConfusedShiftForDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("pending record missing: %v", err)
	}

	agg, err := svc.ResolveConfusedShift(context.Background(), rec.ID, 2, "reviewer@hr", "worked the early shift")
	if err != nil {
		t.Fatalf("ResolveConfusedShift: %v", err)
	}
	seg := agg.Segments[0]
	if seg.Match.ShiftID == nil || *seg.Match.ShiftID != 2 {
		t.Fatalf("resolved segment not pinned to shift 2: %+v", seg.Match)
	}
	if seg.Match.Method != model.MatchManual {
		t.Errorf("Method = %s, want %s", seg.Match.Method, model.MatchManual)
	}

	stored, _ := repo.GetConfusedShift(context.Background(), rec.ID)
	if stored.Status != model.ConfusedResolved {
		t.Errorf("record status = %s, want RESOLVED", stored.Status)
	}

	// Terminal records reject a second transition.
	if _, err := svc.ResolveConfusedShift(context.Background(), rec.ID, 1, "reviewer@hr", "changed my mind"); !errors.Is(err, model.ErrNotPending) {
		t.Errorf("second resolve: got %v, want ErrNotPending", err)
	}
}

func TestResolveRejectsUnknownShift(t *testing.T) {
	repo := newFakeRepo()
	seedAmbiguousShifts(repo, "emp-1")
	punchIn(repo, "emp-1", at(8, 40))

	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})
	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	rec, _ := repo.GetConfusedShiftForDay(context.Background(), "emp-1", testDay)

	if _, err := svc.ResolveConfusedShift(context.Background(), rec.ID, 99, "reviewer@hr", ""); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown shift, got %v", err)
	}
	stored, _ := repo.GetConfusedShift(context.Background(), rec.ID)
	if stored.Status != model.ConfusedPending {
		t.Errorf("record must stay pending after a failed resolve, got %s", stored.Status)
	}
}

func TestAutoResolveNearest(t *testing.T) {
	repo := newFakeRepo()
	seedAmbiguousShifts(repo, "emp-1")
	// 08:40 is 20 minutes from the 09:00 start and 40 from the 08:00 one.
	punchIn(repo, "emp-1", at(8, 40))

	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})
	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	rec, _ := repo.GetConfusedShiftForDay(context.Background(), "emp-1", testDay)

	agg, err := svc.AutoResolveNearest(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("AutoResolveNearest: %v", err)
	}
	seg := agg.Segments[0]
	if seg.Match.ShiftID == nil || *seg.Match.ShiftID != 1 {
		t.Fatalf("expected nearest shift 1, got %+v", seg.Match)
	}
	if seg.Match.Method != model.MatchAutoNearest {
		t.Errorf("Method = %s, want %s", seg.Match.Method, model.MatchAutoNearest)
	}
	stored, _ := repo.GetConfusedShift(context.Background(), rec.ID)
	if stored.ResolvedBy == nil || *stored.ResolvedBy != AutoResolveReviewer {
		t.Errorf("ResolvedBy = %v, want %s", stored.ResolvedBy, AutoResolveReviewer)
	}
}

func TestDismissConfusedShift(t *testing.T) {
	repo := newFakeRepo()
	seedAmbiguousShifts(repo, "emp-1")
	punchIn(repo, "emp-1", at(8, 40))

	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})
	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	rec, _ := repo.GetConfusedShiftForDay(context.Background(), "emp-1", testDay)

	if err := svc.DismissConfusedShift(context.Background(), rec.ID, "reviewer@hr", "badge test"); err != nil {
		t.Fatalf("DismissConfusedShift: %v", err)
	}

	// Reprocessing must not resurrect the dismissed record.
	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("ProcessDay after dismiss: %v", err)
	}
	stored, _ := repo.GetConfusedShift(context.Background(), rec.ID)
	if stored.Status != model.ConfusedDismissed {
		t.Errorf("record status = %s, want DISMISSED", stored.Status)
	}
	if len(repo.confused) != 1 {
		t.Errorf("dismissal must not spawn a new record, have %d", len(repo.confused))
	}

	if err := svc.DismissConfusedShift(context.Background(), rec.ID, "reviewer@hr", "again"); !errors.Is(err, model.ErrNotPending) {
		t.Errorf("second dismiss: got %v, want ErrNotPending", err)
	}
}

func TestProcessDayUnknownEmployee(t *testing.T) {
	repo := newFakeRepo()
	producer := &fakeProducer{}
	svc := newTestService(repo, &fakeLeave{}, producer)

	agg, err := svc.ProcessDay(context.Background(), "ghost", testDay)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if agg.Status != model.DayAbsent {
		t.Errorf("Status = %s, want ABSENT", agg.Status)
	}
	if len(producer.reviews) != 0 {
		t.Errorf("empty day must not escalate")
	}
}

func TestProcessDayLeaveFailureIsRetryable(t *testing.T) {
	repo := newFakeRepo()
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Day", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.designated["emp-1"] = []int64{1}
	punchIn(repo, "emp-1", at(9, 0))

	leave := &fakeLeave{err: fmt.Errorf("circuit open")}
	svc := newTestService(repo, leave, &fakeProducer{})

	_, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if !errors.Is(err, ErrUnitRetryable) {
		t.Fatalf("expected ErrUnitRetryable, got %v", err)
	}
	if repo.upsertCalls != 0 {
		t.Errorf("failed unit must not write, got %d upserts", repo.upsertCalls)
	}
}

func TestProcessDayPunchReadFailureIsRetryable(t *testing.T) {
	repo := newFakeRepo()
	repo.failPunches = true
	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})

	_, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if !errors.Is(err, ErrUnitRetryable) {
		t.Fatalf("expected ErrUnitRetryable, got %v", err)
	}
	if repo.upsertCalls != 0 {
		t.Errorf("failed unit must not write, got %d upserts", repo.upsertCalls)
	}
}

func TestProcessDayAppliesOnDutyGapFill(t *testing.T) {
	repo := newFakeRepo()
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Day", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.designated["emp-1"] = []int64{1}
	punchIn(repo, "emp-1", at(11, 0))
	punchOut(repo, "emp-1", at(18, 0))

	start, end := model.NewTimeOfDay(9, 0), model.NewTimeOfDay(11, 0)
	leave := &fakeLeave{intervals: []model.OnDutyInterval{{
		EmployeeID: "emp-1", Date: testDay, StartTime: &start, EndTime: &end, Approved: true,
	}}}
	svc := newTestService(repo, leave, &fakeProducer{})

	agg, err := svc.ProcessDay(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	seg := agg.Segments[0]
	if seg.ODHours != 2 {
		t.Errorf("ODHours = %v, want 2", seg.ODHours)
	}
	if seg.IsLateIn {
		t.Errorf("late arrival covered by OD must be waived")
	}
	if agg.Status != model.DayPresent {
		t.Errorf("Status = %s, want PRESENT", agg.Status)
	}
}

func TestGetDailyAttendance(t *testing.T) {
	repo := newFakeRepo()
	repo.shifts[1] = model.ShiftDefinition{ID: 1, Name: "Day", StartTime: model.NewTimeOfDay(9, 0), EndTime: model.NewTimeOfDay(18, 0), DurationHours: 8}
	repo.designated["emp-1"] = []int64{1}
	punchIn(repo, "emp-1", at(9, 0))
	punchOut(repo, "emp-1", at(18, 0))

	svc := newTestService(repo, &fakeLeave{}, &fakeProducer{})

	if _, err := svc.GetDailyAttendance(context.Background(), "emp-1", testDay); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before processing, got %v", err)
	}
	if _, err := svc.ProcessDay(context.Background(), "emp-1", testDay); err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	agg, err := svc.GetDailyAttendance(context.Background(), "emp-1", testDay)
	if err != nil {
		t.Fatalf("GetDailyAttendance: %v", err)
	}
	if agg.EmployeeID != "emp-1" || !agg.WorkDate.Equal(testDay) {
		t.Errorf("wrong aggregate returned: %s %s", agg.EmployeeID, agg.WorkDate)
	}
}

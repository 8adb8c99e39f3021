package review

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// Processor consumes review events and notifies the reviewer inbox about
// confused shifts that still need a human decision.
type Processor struct {
	service  *core.AttendanceService
	notifier core.ReviewNotifier
}

func NewProcessor(service *core.AttendanceService, notifier core.ReviewNotifier) *Processor {
	return &Processor{service: service, notifier: notifier}
}

// Process sends the escalation email for a pending confused shift. Records
// that were resolved, dismissed or already notified in the meantime are
// skipped without error.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ReviewEvent
	if msg.Body == nil {
		return false, 0, errors.New("received message with empty body")
	}
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		return false, 0, err
	}

	rec, err := p.service.GetConfusedShift(ctx, event.ConfusedShiftID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Ctx(ctx).Warn().Str("confused_shift_id", event.ConfusedShiftID.String()).Msg("Confused shift no longer exists, skipping notification")
			return false, 0, nil
		}
		return true, calculateBackoff(worker.ReceiveCount(msg)), err
	}

	if rec.Status != model.ConfusedPending {
		log.Ctx(ctx).Info().Str("confused_shift_id", rec.ID.String()).Str("status", string(rec.Status)).Msg("Confused shift already settled, skipping notification")
		return false, 0, nil
	}
	if rec.NotifiedAt != nil {
		return false, 0, nil
	}

	if err := p.notifier.NotifyEscalation(ctx, rec); err != nil {
		return true, calculateBackoff(worker.ReceiveCount(msg)), err
	}

	if err := p.service.MarkConfusedNotified(ctx, rec.ID); err != nil {
		return true, calculateBackoff(worker.ReceiveCount(msg)), err
	}

	log.Ctx(ctx).Info().
		Str("confused_shift_id", rec.ID.String()).
		Str("employee_id", rec.EmployeeID).
		Msg("Reviewer notified about confused shift")

	return false, 0, nil
}

func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600
	}
	return backoff
}

package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// Processor consumes reprocess events and recomputes the daily attendance
// unit they point at.
type Processor struct {
	service *core.AttendanceService
}

func NewProcessor(service *core.AttendanceService) *Processor {
	return &Processor{service: service}
}

// Process unmarshals a reprocess event and runs the day pipeline for it.
// Only external-read failures are retried; a malformed message is dropped.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ReprocessEvent
	if msg.Body == nil {
		return false, 0, errors.New("received message with empty body")
	}
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		return false, 0, err
	}

	workDate, err := time.ParseInLocation("2006-01-02", event.WorkDate, time.UTC)
	if err != nil {
		return false, 0, err
	}

	log.Ctx(ctx).Info().
		Str("employee_id", event.EmployeeID).
		Str("work_date", event.WorkDate).
		Str("trigger", event.Trigger).
		Msg("Reprocessing attendance day")

	if _, err := p.service.ProcessDay(ctx, event.EmployeeID, workDate); err != nil {
		if errors.Is(err, core.ErrUnitRetryable) {
			return true, calculateBackoff(worker.ReceiveCount(msg)), err
		}
		return false, 0, err
	}

	return false, 0, nil
}

// calculateBackoff determines the visibility timeout for a retry, in seconds.
// It uses an exponential backoff strategy.
func calculateBackoff(retryCount int) int32 {
	backoff := int32(math.Pow(2, float64(retryCount)) * 10)
	if backoff > 3600 {
		return 3600 // Cap at 1 hour
	}
	return backoff
}

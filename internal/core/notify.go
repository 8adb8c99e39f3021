package core

import (
	"context"
	"fmt"

	"attendance.service/internal/core/model"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ReviewNotifier tells the review desk that a segment needs a human.
type ReviewNotifier interface {
	NotifyEscalation(ctx context.Context, rec *model.ConfusedShiftRecord) error
}

// SESReviewNotifier sends escalation notices through AWS SES.
type SESReviewNotifier struct {
	client *ses.Client
	sender string
	inbox  string
}

func NewSESReviewNotifier(client *ses.Client, sender, inbox string) *SESReviewNotifier {
	return &SESReviewNotifier{client: client, sender: sender, inbox: inbox}
}

func (s *SESReviewNotifier) NotifyEscalation(ctx context.Context, rec *model.ConfusedShiftRecord) error {
	tracer := otel.Tracer("ses-review-notifier")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	// Enrich span with employeeId if available in context
	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}

	body := fmt.Sprintf(
		"Employee %s punched in at %s on %s but the shift could not be determined automatically.\n\nCandidates:\n",
		rec.EmployeeID, rec.InTime.Format("15:04"), rec.WorkDate.Format("2006-01-02"))
	for _, c := range rec.Candidates {
		body += fmt.Sprintf("  - %s (%s-%s), %dm from punch-in\n", c.Name, c.StartTime, c.EndTime, c.DistanceMinutes)
	}
	body += fmt.Sprintf("\nReview it at /confused-shifts/%s\n", rec.ID)

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{s.inbox},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Shift review needed: %s on %s", rec.EmployeeID, rec.WorkDate.Format("2006-01-02"))),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

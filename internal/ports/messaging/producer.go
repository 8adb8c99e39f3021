package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes domain events through any MessageSender.
type Producer struct {
	sender            MessageSender
	reprocessQueueURL string
	reviewQueueURL    string
}

func NewProducer(sender MessageSender, reprocessQueueURL, reviewQueueURL string) *Producer {
	return &Producer{
		sender:            sender,
		reprocessQueueURL: reprocessQueueURL,
		reviewQueueURL:    reviewQueueURL,
	}
}

// NewSQSProducer creates a Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, reprocessQueueURL, reviewQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, reprocessQueueURL, reviewQueueURL)
}

func (p *Producer) PublishReprocess(ctx context.Context, event ReprocessEvent) error {
	return p.publish(ctx, p.reprocessQueueURL, event, event.EmployeeID)
}

func (p *Producer) PublishReview(ctx context.Context, event ReviewEvent) error {
	return p.publish(ctx, p.reviewQueueURL, event, event.EmployeeID)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}, employeeID string) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with employee_id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() && employeeID != "" {
		span.SetAttributes(attribute.String("app.employeeId", employeeID))
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

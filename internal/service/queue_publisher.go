// Package queue_publisher publishes domain events to RabbitMQ. Errors
// are logged and returned so callers can ignore failures without
// interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fairgrid/stand-assignment/internal/model"
	q "github.com/fairgrid/stand-assignment/internal/queue"
)

// publish opens a short-lived connection, declares the durable queue
// and publishes one persistent JSON message on the default exchange.
func publish(ctx context.Context, queueName string, payload any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// Events adapts the broker to the post-commit publisher contract the
// assignment managers consume.
type Events struct{}

// RequestAssigned publishes a RequestAssignedEvent for a freshly
// assigned request.
func (Events) RequestAssigned(ctx context.Context, req *model.AssignmentRequest) error {
	assignedAt := ""
	if req.AssignedAt != nil {
		assignedAt = req.AssignedAt.UTC().Format(time.RFC3339)
	}
	boothID := uint64(0)
	if req.AssignedBoothID != nil {
		boothID = *req.AssignedBoothID
	}
	return publish(ctx, q.RequestAssignedQueue, q.RequestAssignedEvent{
		RequestID:       req.ID,
		ExhibitorID:     req.ExhibitorID,
		EventID:         req.EventID,
		BoothID:         boothID,
		PriceCents:      req.PriceCents,
		DiscountPercent: req.DiscountPercent,
		AssignedAt:      assignedAt,
	})
}

// ConflictResolved publishes a ConflictResolvedEvent after a conflict
// resolution commits.
func (Events) ConflictResolved(ctx context.Context, c *model.Conflict, winners, losers []uint64) error {
	criterion := ""
	if c.Criterion != nil {
		criterion = *c.Criterion
	}
	winnerID := uint64(0)
	if c.WinnerExhibitorID != nil {
		winnerID = *c.WinnerExhibitorID
	}
	return publish(ctx, q.ConflictResolvedQueue, q.ConflictResolvedEvent{
		ConflictID:        c.ID,
		EventID:           c.EventID,
		BoothID:           c.BoothID,
		WinnerExhibitorID: winnerID,
		WinnerRequestIDs:  winners,
		LoserRequestIDs:   losers,
		Criterion:         criterion,
		ResolvedAt:        time.Now().UTC().Format(time.RFC3339),
	})
}

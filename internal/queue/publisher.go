package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusEvent is a provider delivery-status callback carried through the
// queue: the webhook publishes it, the dispatcher's consumer applies it.
type StatusEvent struct {
	ProviderID string `json:"provider_id"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
}

// Publisher publishes status events to a durable queue
type Publisher struct {
	conn      *Connection
	queueName string
}

// NewPublisher creates a new publisher instance
func NewPublisher(conn *Connection, queueName string) (*Publisher, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	// Durable, non-auto-delete: events survive a broker restart
	_, err = ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Publisher{conn: conn, queueName: queueName}, nil
}

// PublishStatus publishes one delivery-status event
func (p *Publisher) PublishStatus(event *StatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	err = ch.Publish(
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}

	return nil
}

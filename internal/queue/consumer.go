package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusHandler processes one delivery-status event
type StatusHandler func(event *StatusEvent) error

// Consumer consumes delivery-status events from the queue
type Consumer struct {
	conn      *Connection
	queueName string
	handler   StatusHandler
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewConsumer creates a new consumer instance
func NewConsumer(conn *Connection, queueName string, handler StatusHandler) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	// Same settings as the publisher so either side can declare first
	_, err = ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Consumer{
		conn:      conn,
		queueName: queueName,
		handler:   handler,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}, nil
}

// Start starts consuming status events
func (c *Consumer) Start() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual acknowledgement)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		defer close(c.doneChan)

		for {
			select {
			case <-c.stopChan:
				log.Println("Status consumer stopping...")
				return
			case d, ok := <-msgs:
				if !ok {
					log.Println("Delivery channel closed")
					return
				}

				if err := c.processEvent(d); err != nil {
					log.Printf("Error processing status event: %v", err)
					d.Nack(false, true)
				} else {
					d.Ack(false)
				}
			}
		}
	}()

	log.Printf("Status consumer started, listening on queue: %s", c.queueName)
	return nil
}

// Stop stops consuming gracefully
func (c *Consumer) Stop() error {
	close(c.stopChan)
	<-c.doneChan
	log.Println("Status consumer stopped")
	return nil
}

func (c *Consumer) processEvent(d amqp.Delivery) error {
	var event StatusEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal status event: %w", err)
	}

	if err := c.handler(&event); err != nil {
		return fmt.Errorf("handler failed: %w", err)
	}

	return nil
}

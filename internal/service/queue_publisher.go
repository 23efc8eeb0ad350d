// Package queue_publisher provides functions to publish security events to
// RabbitMQ.  Errors are logged and returned so callers can ignore failures
// without interrupting the main request flow: an admin's force-logout must
// succeed even when the broker is down.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/exitboard/exitboard/internal/queue"
)

const securityQueueName = "auth.security"

// SecurityPublisher publishes security events.  A nil *SecurityPublisher
// is valid and drops every event, which keeps the handlers free of broker
// checks.
type SecurityPublisher struct {
	URL string
}

// NewSecurityPublisher returns a publisher for the given AMQP URL, or nil
// when the URL is empty (events disabled).
func NewSecurityPublisher(url string) *SecurityPublisher {
	if url == "" {
		return nil
	}
	return &SecurityPublisher{URL: url}
}

// Publish sends one SecurityEvent to the auth.security queue.  The
// function never panics; any error is logged and returned so the caller
// can choose to ignore it.  Messages are marked persistent.
func (p *SecurityPublisher) Publish(ctx context.Context, event q.SecurityEvent) error {
	if p == nil {
		return nil
	}
	conn, err := amqp.Dial(p.URL)
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

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		securityQueueName, // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",                // default exchange
		securityQueueName, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}

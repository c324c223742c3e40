package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/volunteerhub/backend/internal/push"
	"github.com/volunteerhub/backend/internal/repository"
)

// StartNotificationConsumer connects to RabbitMQ, declares the durable
// notification.dispatch queue and delivers each NotificationEvent as Web
// Push messages to the target user's subscriptions.  It runs a reconnect
// loop with exponential backoff and never returns under normal
// operation; processing errors are logged and the offending message is
// rejected without requeue so the dispatcher keeps draining.
func StartNotificationConsumer(url string, subs *repository.SubscriptionRepo, sender *push.Sender) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("notification-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeLoop(conn, subs, sender); err != nil {
			log.Printf("notification-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, subs *repository.SubscriptionRepo, sender *push.Sender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("notification-consumer: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(NotificationQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(NotificationQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := dispatch(d.Body, subs, sender); err != nil {
			log.Printf("notification-consumer: dispatch failed: %v", err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// dispatch pushes one event to every subscription of the target user.
// Individual transport failures are logged and swallowed; a gone
// endpoint additionally removes its subscription row.
func dispatch(body []byte, subs *repository.SubscriptionRepo, sender *push.Sender) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"title": ev.Title,
		"body":  ev.Body,
		"url":   ev.URL,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	list, err := subs.ListByUser(ctx, ev.UserID)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	if len(list) == 0 {
		log.Printf("notification-consumer: no subscriptions for user %d", ev.UserID)
		return nil
	}

	for _, sub := range list {
		switch err := sender.Send(ctx, sub, payload); {
		case err == nil:
		case errors.Is(err, push.ErrGone):
			log.Printf("notification-consumer: endpoint gone, removing subscription %d", sub.ID)
			if derr := subs.DeleteByEndpoint(ctx, sub.Endpoint); derr != nil {
				log.Printf("notification-consumer: delete subscription failed: %v", derr)
			}
		default:
			log.Printf("notification-consumer: push to subscription %d failed: %v", sub.ID, err)
		}
	}
	return nil
}

// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into Web Push
// deliveries.
package queue

// NotificationQueueName is the durable queue carrying notification
// events from request handlers to the push consumer.
const NotificationQueueName = "notification.dispatch"

// NotificationEvent asks the dispatcher to push a message to every
// browser a user has registered.  It carries the rendered notification
// content so the consumer never has to re-derive domain state.
type NotificationEvent struct {
	UserID uint64 `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	URL    string `json:"url,omitempty"`
}

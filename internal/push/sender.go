// Package push wraps the Web Push transport.  Delivery is best-effort:
// callers log and swallow failures, except a gone endpoint which they
// must prune from storage.
package push

import (
	"context"
	"errors"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/volunteerhub/backend/internal/model"
)

// ErrGone is returned when the push service reports the subscription
// endpoint no longer exists (HTTP 404/410).  The caller should delete
// the subscription row.
var ErrGone = errors.New("subscription gone")

// Sender sends Web Push messages signed with a VAPID key pair.
type Sender struct {
	publicKey  string
	privateKey string
	subject    string
}

// NewSender returns a Sender for the given VAPID credentials.  The
// subject must be a mailto: address per RFC 8292.
func NewSender(publicKey, privateKey, subject string) *Sender {
	return &Sender{publicKey: publicKey, privateKey: privateKey, subject: subject}
}

// PublicKey returns the VAPID public key handed to browsers.
func (s *Sender) PublicKey() string { return s.publicKey }

// Send pushes payload to one subscription.  A 404 or 410 response maps to
// ErrGone; any other non-2xx status is returned as a generic error.
func (s *Sender) Send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subject,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrGone
	case resp.StatusCode >= 400:
		return errors.New("push service returned " + resp.Status)
	}
	return nil
}

// Package notify delivers push notifications to commuters' devices through
// Firebase Cloud Messaging.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// Notification is one push message.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
	// Link is opened when a web notification is clicked.
	Link string
}

// multicaster is the part of *messaging.Client the sender uses.
type multicaster interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Result summarises one multicast.
type Result struct {
	// Delivered counts tokens FCM accepted.
	Delivered int
	// Dead lists tokens FCM reported as permanently invalid. Tokens that
	// failed for any other reason are not included and should be kept.
	Dead []string
}

// FCMSender sends notifications through Firebase Cloud Messaging.
type FCMSender struct {
	client multicaster
	log    *slog.Logger
	// isDead reports whether a per-token error means the token will never
	// work again. Nil means isDeadToken.
	isDead func(error) bool
}

// isDeadToken matches the FCM error codes for unregistered, malformed and
// foreign-project tokens.
func isDeadToken(err error) bool {
	return messaging.IsUnregistered(err) ||
		messaging.IsInvalidArgument(err) ||
		messaging.IsSenderIDMismatch(err)
}

// NewFCMSender builds a sender from an initialised Firebase app.
func NewFCMSender(ctx context.Context, app *firebase.App, log *slog.Logger) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify.NewFCMSender: %w", err)
	}
	return &FCMSender{client: client, log: log, isDead: isDeadToken}, nil
}

// SendToDevices sends n to every token. The result lists the tokens FCM
// reported as dead so the caller can forget them; transient per-token
// failures are logged and left out.
func (s *FCMSender) SendToDevices(ctx context.Context, tokens []string, n Notification) (Result, error) {
	if len(tokens) == 0 {
		return Result{}, nil
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: n.Title,
				Body:  n.Body,
				Icon:  "/icon-192.png",
			},
		},
	}
	if n.Link != "" {
		msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: n.Link}
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return Result{}, fmt.Errorf("notify.FCMSender.SendToDevices: %w", err)
	}

	isDead := s.isDead
	if isDead == nil {
		isDead = isDeadToken
	}

	var res Result
	for i, r := range resp.Responses {
		if i >= len(tokens) {
			break
		}
		if r.Success {
			res.Delivered++
			continue
		}
		if isDead(r.Error) {
			res.Dead = append(res.Dead, tokens[i])
			s.log.DebugContext(ctx, "fcm token rejected", "token", redact(tokens[i]), "error", r.Error)
			continue
		}
		s.log.WarnContext(ctx, "fcm delivery failed", "token", redact(tokens[i]), "error", r.Error)
	}
	s.log.InfoContext(ctx, "fcm multicast sent",
		"success", resp.SuccessCount,
		"failure", resp.FailureCount,
		"dead", len(res.Dead),
	)
	return res, nil
}

// redact keeps enough of a token to correlate log lines.
func redact(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}

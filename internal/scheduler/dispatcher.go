// Package scheduler runs background jobs. ReminderDispatcher sends due
// journey reminders as push notifications.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/metrics"
	"github.com/schhatbar/Railway-Commuter/internal/notify"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// DefaultInterval is how often due reminders are checked.
const DefaultInterval = time.Minute

// batchSize caps the reminders handled per tick.
const batchSize = 100

// Sender pushes a notification to device tokens and reports which tokens
// are dead. Satisfied by *notify.FCMSender.
type Sender interface {
	SendToDevices(ctx context.Context, tokens []string, n notify.Notification) (notify.Result, error)
}

// Dispatch outcomes, recorded on the reminders metric.
const (
	outcomeSent      = "sent"
	outcomeNoDevices = "no_devices"
	outcomeFailed    = "failed"
)

// ReminderDispatcher delivers reminders whose remind-at time has passed.
// A due reminder is claimed, and so marked sent, before the push goes out.
// It gets one attempt whatever the outcome, and concurrent dispatchers never
// claim the same reminder.
type ReminderDispatcher struct {
	reminders repo.ReminderRepo
	devices   repo.DeviceRepo
	sender    Sender
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewReminderDispatcher constructs a dispatcher. A nil sender disables it.
// A non-positive interval falls back to DefaultInterval.
func NewReminderDispatcher(reminders repo.ReminderRepo, devices repo.DeviceRepo, sender Sender, interval time.Duration, log *slog.Logger) *ReminderDispatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &ReminderDispatcher{
		reminders: reminders,
		devices:   devices,
		sender:    sender,
		interval:  interval,
		log:       log,
		now:       time.Now,
	}
}

// Run checks for due reminders immediately and then once per interval until
// ctx is cancelled. It returns at once when no sender is configured.
func (d *ReminderDispatcher) Run(ctx context.Context) {
	if d.sender == nil {
		d.log.InfoContext(ctx, "push sender not configured; reminder dispatch disabled")
		return
	}
	d.log.InfoContext(ctx, "reminder dispatcher started", "interval", d.interval)

	d.tick(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			d.log.InfoContext(ctx, "reminder dispatcher stopped")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *ReminderDispatcher) tick(ctx context.Context) {
	n, err := d.RunOnce(ctx)
	if err != nil {
		d.log.ErrorContext(ctx, "reminder dispatch failed", "error", err)
		return
	}
	if n > 0 {
		d.log.InfoContext(ctx, "reminders dispatched", "count", n)
	}
}

// RunOnce dispatches every reminder due now and returns how many were
// handled. Per-reminder failures are logged and do not stop the batch.
func (d *ReminderDispatcher) RunOnce(ctx context.Context) (int, error) {
	now := d.now().UTC()
	due, err := d.reminders.ClaimDue(ctx, now, batchSize)
	if err != nil {
		return 0, fmt.Errorf("scheduler.ReminderDispatcher.RunOnce: %w", err)
	}

	for _, r := range due {
		outcome := d.dispatch(ctx, r)
		metrics.RemindersDispatched.WithLabelValues(outcome).Inc()
	}
	return len(due), nil
}

func (d *ReminderDispatcher) dispatch(ctx context.Context, r domain.JourneyReminder) string {
	tokens, err := d.devices.TokensForUser(ctx, r.UserID)
	if err != nil {
		d.log.ErrorContext(ctx, "load device tokens", "user_id", r.UserID, "error", err)
		return outcomeFailed
	}
	if len(tokens) == 0 {
		return outcomeNoDevices
	}

	res, err := d.sender.SendToDevices(ctx, tokens, reminderNotification(r))
	if err != nil {
		d.log.ErrorContext(ctx, "send reminder", "reminder_id", r.ID, "error", err)
		return outcomeFailed
	}
	if len(res.Dead) > 0 {
		if err := d.devices.DeleteTokens(ctx, res.Dead); err != nil {
			d.log.WarnContext(ctx, "prune device tokens", "user_id", r.UserID, "error", err)
		}
	}
	if res.Delivered == 0 {
		return outcomeFailed
	}
	return outcomeSent
}

func reminderNotification(r domain.JourneyReminder) notify.Notification {
	title := fmt.Sprintf("%s %s departs at %s", r.TrainNumber, r.TrainName, r.JourneyAt.Format("15:04 MST"))
	body := r.Route
	if r.CoachNumber != "" {
		body = fmt.Sprintf("%s. Coach %s", body, r.CoachNumber)
		if r.SeatNumber != "" {
			body = fmt.Sprintf("%s, seat %s", body, r.SeatNumber)
		}
	}
	return notify.Notification{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":         "journey_reminder",
			"reminder_id":  r.ID.String(),
			"train_number": r.TrainNumber,
			"journey_at":   r.JourneyAt.UTC().Format(time.RFC3339),
		},
		Link: "/reminders",
	}
}

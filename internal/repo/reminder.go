package repo

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// ReminderRepo defines the persistence operations for journey reminders.
// Owner-scoped methods return domain.ErrNotFound when the reminder belongs
// to someone else.
type ReminderRepo interface {
	Create(ctx context.Context, rem domain.JourneyReminder) (domain.JourneyReminder, error)

	// ListByUser returns the user's active reminders by journey time.
	ListByUser(ctx context.Context, userID string) ([]domain.JourneyReminder, error)

	SetActive(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	// ClaimDue marks up to limit active, unsent reminders whose remind_at is
	// at or before now as sent at now and returns them, oldest first. Rows
	// claimed by a concurrent caller are skipped, so each reminder is
	// returned to exactly one caller.
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.JourneyReminder, error)
}

type pgReminderRepo struct {
	db db
}

// NewReminderRepo constructs a ReminderRepo backed by the provided db connection.
func NewReminderRepo(db db) ReminderRepo {
	return &pgReminderRepo{db: db}
}

const reminderColumns = `id, user_id, train_number, train_name, route, coach_number, seat_number,
	journey_at, remind_at, is_active, sent_at, created_at`

// claimedColumns is reminderColumns qualified for the ClaimDue join.
const claimedColumns = `r.id, r.user_id, r.train_number, r.train_name, r.route, r.coach_number, r.seat_number,
	r.journey_at, r.remind_at, r.is_active, r.sent_at, r.created_at`

func (r *pgReminderRepo) Create(ctx context.Context, rem domain.JourneyReminder) (domain.JourneyReminder, error) {
	const q = `
		INSERT INTO reminders (user_id, train_number, train_name, route, coach_number, seat_number, journey_at, remind_at, is_active)
		VALUES (@user_id, @train_number, @train_name, @route, @coach_number, @seat_number, @journey_at, @remind_at, @is_active)
		RETURNING ` + reminderColumns

	args := pgx.NamedArgs{
		"user_id":      rem.UserID,
		"train_number": rem.TrainNumber,
		"train_name":   rem.TrainName,
		"route":        rem.Route,
		"coach_number": rem.CoachNumber,
		"seat_number":  rem.SeatNumber,
		"journey_at":   rem.JourneyAt,
		"remind_at":    rem.RemindAt,
		"is_active":    rem.IsActive,
	}
	created, err := scanReminder(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.JourneyReminder{}, fmt.Errorf("repo.ReminderRepo.Create: %w", classify(err))
	}
	return created, nil
}

func (r *pgReminderRepo) ListByUser(ctx context.Context, userID string) ([]domain.JourneyReminder, error) {
	const q = `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE user_id = @user_id AND is_active
		ORDER BY journey_at, id`

	rems, err := r.list(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReminderRepo.ListByUser: %w", err)
	}
	return rems, nil
}

func (r *pgReminderRepo) SetActive(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error) {
	const q = `
		UPDATE reminders
		SET is_active = @is_active
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + reminderColumns

	args := pgx.NamedArgs{"id": id, "user_id": userID, "is_active": active}
	rem, err := scanReminder(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.JourneyReminder{}, fmt.Errorf("repo.ReminderRepo.SetActive: %w", classify(err))
	}
	return rem, nil
}

func (r *pgReminderRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	const q = `DELETE FROM reminders WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ReminderRepo.Delete: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReminderRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgReminderRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]domain.JourneyReminder, error) {
	const q = `
		WITH due AS (
			SELECT id FROM reminders
			WHERE is_active AND sent_at IS NULL AND remind_at <= @now
			ORDER BY remind_at, id
			LIMIT @limit
			FOR UPDATE SKIP LOCKED
		)
		UPDATE reminders r
		SET sent_at = @now
		FROM due
		WHERE r.id = due.id
		RETURNING ` + claimedColumns

	rems, err := r.list(ctx, q, pgx.NamedArgs{"now": now, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.ReminderRepo.ClaimDue: %w", err)
	}
	// RETURNING has no defined order.
	slices.SortFunc(rems, func(a, b domain.JourneyReminder) int {
		if c := a.RemindAt.Compare(b.RemindAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return rems, nil
}

func (r *pgReminderRepo) list(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.JourneyReminder, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	rems := []domain.JourneyReminder{}
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rems = append(rems, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return rems, nil
}

func scanReminder(s scanner) (domain.JourneyReminder, error) {
	var (
		rem    domain.JourneyReminder
		id     pgtype.UUID
		sentAt pgtype.Timestamptz
	)
	err := s.Scan(&id, &rem.UserID, &rem.TrainNumber, &rem.TrainName, &rem.Route, &rem.CoachNumber, &rem.SeatNumber,
		&rem.JourneyAt, &rem.RemindAt, &rem.IsActive, &sentAt, &rem.CreatedAt)
	if err != nil {
		return domain.JourneyReminder{}, err
	}
	rem.ID = uuid.UUID(id.Bytes)
	if sentAt.Valid {
		t := sentAt.Time
		rem.SentAt = &t
	}
	return rem, nil
}

package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// GroupRepo defines the persistence operations for groups and their members.
// Members are stored one row per (group, user), so membership changes never
// rewrite the whole member list.
type GroupRepo interface {
	// Create inserts the group and its initial members in one transaction and
	// returns the persisted record with DB-generated id and created_at.
	Create(ctx context.Context, g domain.Group) (domain.Group, error)

	// GetByID returns the group with its members, or domain.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Group, error)

	// GetByCode returns the oldest group with that code. When activeOnly is
	// set, inactive groups are ignored. Returns domain.ErrNotFound if none match.
	GetByCode(ctx context.Context, code string, activeOnly bool) (domain.Group, error)

	// ListActiveForMember returns the active groups userID belongs to,
	// newest first.
	ListActiveForMember(ctx context.Context, userID string) ([]domain.Group, error)

	// AddMember inserts m unless the user is already a member. It reports
	// whether a row was inserted and returns domain.ErrNotFound if the group
	// does not exist.
	AddMember(ctx context.Context, groupID uuid.UUID, m domain.GroupMember) (bool, error)

	// RemoveMember deletes the member row. Missing rows are not an error.
	RemoveMember(ctx context.Context, groupID uuid.UUID, userID string) error

	// UpdateMemberSeat replaces the member's coach and seat. Missing rows are
	// not an error.
	UpdateMemberSeat(ctx context.Context, groupID uuid.UUID, userID, coachNumber, seatNumber string) error

	// Delete removes every message of the group and then the group itself in
	// one transaction. Returns the number of messages removed, or
	// domain.ErrNotFound if the group does not exist.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type pgGroupRepo struct {
	db db
}

// NewGroupRepo constructs a GroupRepo backed by the provided db connection.
func NewGroupRepo(db db) GroupRepo {
	return &pgGroupRepo{db: db}
}

const groupColumns = `id, name, code, created_by, train_number, route, journey_date, is_active, created_at`

const insertMemberSQL = `
	INSERT INTO group_members (group_id, user_id, user_name, coach_number, seat_number, joining_from_next_station, joined_at)
	VALUES (@group_id, @user_id, @user_name, @coach_number, @seat_number, @joining_from_next_station, @joined_at)
	ON CONFLICT (group_id, user_id) DO NOTHING`

func (r *pgGroupRepo) Create(ctx context.Context, g domain.Group) (domain.Group, error) {
	const q = `
		INSERT INTO groups (name, code, created_by, train_number, route, journey_date, is_active)
		VALUES (@name, @code, @created_by, @train_number, @route, @journey_date, @is_active)
		RETURNING ` + groupColumns

	args := pgx.NamedArgs{
		"name":         g.Name,
		"code":         g.Code,
		"created_by":   g.CreatedBy,
		"train_number": g.TrainNumber,
		"route":        g.Route,
		"journey_date": pgtype.Date{Time: g.JourneyDate, Valid: true},
		"is_active":    g.IsActive,
	}

	var created domain.Group
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		created, err = scanGroup(tx.QueryRow(ctx, q, args))
		if err != nil {
			return err
		}
		for _, m := range g.Members {
			if _, err := tx.Exec(ctx, insertMemberSQL, memberArgs(created.ID, m)); err != nil {
				return err
			}
		}
		created.Members, err = loadMembers(ctx, tx, created.ID)
		return err
	})
	if err != nil {
		return domain.Group{}, fmt.Errorf("repo.GroupRepo.Create: %w", classify(err))
	}
	return created, nil
}

func (r *pgGroupRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Group, error) {
	const q = `SELECT ` + groupColumns + ` FROM groups WHERE id = @id`

	g, err := r.getOne(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return domain.Group{}, fmt.Errorf("repo.GroupRepo.GetByID: %w", err)
	}
	return g, nil
}

func (r *pgGroupRepo) GetByCode(ctx context.Context, code string, activeOnly bool) (domain.Group, error) {
	const q = `
		SELECT ` + groupColumns + `
		FROM groups
		WHERE code = @code AND (is_active OR NOT @active_only)
		ORDER BY created_at, id
		LIMIT 1`

	g, err := r.getOne(ctx, q, pgx.NamedArgs{"code": code, "active_only": activeOnly})
	if err != nil {
		return domain.Group{}, fmt.Errorf("repo.GroupRepo.GetByCode: %w", err)
	}
	return g, nil
}

func (r *pgGroupRepo) getOne(ctx context.Context, q string, args pgx.NamedArgs) (domain.Group, error) {
	g, err := scanGroup(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Group{}, classify(err)
	}
	g.Members, err = loadMembers(ctx, r.db, g.ID)
	if err != nil {
		return domain.Group{}, classify(err)
	}
	return g, nil
}

func (r *pgGroupRepo) ListActiveForMember(ctx context.Context, userID string) ([]domain.Group, error) {
	const q = `
		SELECT ` + groupColumns + `
		FROM groups g
		WHERE g.is_active
		  AND EXISTS (SELECT 1 FROM group_members m WHERE m.group_id = g.id AND m.user_id = @user_id)
		ORDER BY g.created_at DESC, g.id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.GroupRepo.ListActiveForMember: %w", classify(err))
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.GroupRepo.ListActiveForMember: scan: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.GroupRepo.ListActiveForMember: rows: %w", classify(err))
	}

	for i := range groups {
		groups[i].Members, err = loadMembers(ctx, r.db, groups[i].ID)
		if err != nil {
			return nil, fmt.Errorf("repo.GroupRepo.ListActiveForMember: members: %w", classify(err))
		}
	}
	return groups, nil
}

func (r *pgGroupRepo) AddMember(ctx context.Context, groupID uuid.UUID, m domain.GroupMember) (bool, error) {
	tag, err := r.db.Exec(ctx, insertMemberSQL, memberArgs(groupID, m))
	if err != nil {
		return false, fmt.Errorf("repo.GroupRepo.AddMember: %w", classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgGroupRepo) RemoveMember(ctx context.Context, groupID uuid.UUID, userID string) error {
	const q = `DELETE FROM group_members WHERE group_id = @group_id AND user_id = @user_id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"group_id": groupID, "user_id": userID}); err != nil {
		return fmt.Errorf("repo.GroupRepo.RemoveMember: %w", classify(err))
	}
	return nil
}

func (r *pgGroupRepo) UpdateMemberSeat(ctx context.Context, groupID uuid.UUID, userID, coachNumber, seatNumber string) error {
	const q = `
		UPDATE group_members
		SET coach_number              = @coach_number,
		    seat_number               = @seat_number,
		    joining_from_next_station = false
		WHERE group_id = @group_id AND user_id = @user_id`

	args := pgx.NamedArgs{
		"group_id":     groupID,
		"user_id":      userID,
		"coach_number": coachNumber,
		"seat_number":  seatNumber,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.GroupRepo.UpdateMemberSeat: %w", classify(err))
	}
	return nil
}

func (r *pgGroupRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var removed int64
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		// Lock the group first. Message inserts then wait for the delete,
		// and inserts already in flight commit before the messages go.
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM groups WHERE id = @id FOR UPDATE`, pgx.NamedArgs{"id": id}).Scan(&one)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM messages WHERE group_id = @id`, pgx.NamedArgs{"id": id})
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM groups WHERE id = @id`, pgx.NamedArgs{"id": id})
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("repo.GroupRepo.Delete: %w", classify(err))
	}
	return removed, nil
}

func memberArgs(groupID uuid.UUID, m domain.GroupMember) pgx.NamedArgs {
	joinedAt := m.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	return pgx.NamedArgs{
		"group_id":                  groupID,
		"user_id":                   m.UserID,
		"user_name":                 m.UserName,
		"coach_number":              m.CoachNumber,
		"seat_number":               m.SeatNumber,
		"joining_from_next_station": m.JoiningFromNextStation,
		"joined_at":                 joinedAt,
	}
}

func loadMembers(ctx context.Context, d db, groupID uuid.UUID) ([]domain.GroupMember, error) {
	const q = `
		SELECT user_id, user_name, coach_number, seat_number, joining_from_next_station, joined_at
		FROM group_members
		WHERE group_id = @group_id
		ORDER BY joined_at, user_id`

	rows, err := d.Query(ctx, q, pgx.NamedArgs{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.GroupMember{}
	for rows.Next() {
		var m domain.GroupMember
		if err := rows.Scan(&m.UserID, &m.UserName, &m.CoachNumber, &m.SeatNumber, &m.JoiningFromNextStation, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func scanGroup(s scanner) (domain.Group, error) {
	var (
		g           domain.Group
		id          pgtype.UUID
		journeyDate pgtype.Date
	)
	err := s.Scan(&id, &g.Name, &g.Code, &g.CreatedBy, &g.TrainNumber, &g.Route, &journeyDate, &g.IsActive, &g.CreatedAt)
	if err != nil {
		return domain.Group{}, err
	}
	g.ID = uuid.UUID(id.Bytes)
	g.JourneyDate = journeyDate.Time
	return g, nil
}

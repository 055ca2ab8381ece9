package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// MessageIndexName is the index that backs ordered chat reads.
const MessageIndexName = "messages_group_sent_at_idx"

// MessageRepo is the append-only chat log.
type MessageRepo interface {
	// Create inserts a message; sent_at is assigned by the database.
	// Returns domain.ErrNotFound if the group does not exist.
	Create(ctx context.Context, m domain.ChatMessage) (domain.ChatMessage, error)

	// ListOrdered returns the group's messages by sent_at ascending. Returns
	// domain.ErrMissingIndex when the supporting index is absent.
	ListOrdered(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error)

	// ListUnordered returns the group's messages in storage order.
	ListUnordered(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error)
}

type pgMessageRepo struct {
	db db
}

// NewMessageRepo constructs a MessageRepo backed by the provided db connection.
func NewMessageRepo(db db) MessageRepo {
	return &pgMessageRepo{db: db}
}

const messageColumns = `id, group_id, user_id, user_name, text, sent_at`

func (r *pgMessageRepo) Create(ctx context.Context, m domain.ChatMessage) (domain.ChatMessage, error) {
	const q = `
		INSERT INTO messages (group_id, user_id, user_name, text)
		VALUES (@group_id, @user_id, @user_name, @text)
		RETURNING ` + messageColumns

	args := pgx.NamedArgs{
		"group_id":  m.GroupID,
		"user_id":   m.UserID,
		"user_name": m.UserName,
		"text":      m.Text,
	}
	created, err := scanMessage(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("repo.MessageRepo.Create: %w", classify(err))
	}
	return created, nil
}

func (r *pgMessageRepo) ListOrdered(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error) {
	var present bool
	if err := r.db.QueryRow(ctx, `SELECT to_regclass(@name) IS NOT NULL`, pgx.NamedArgs{"name": MessageIndexName}).Scan(&present); err != nil {
		return nil, fmt.Errorf("repo.MessageRepo.ListOrdered: %w", classify(err))
	}
	if !present {
		return nil, fmt.Errorf("repo.MessageRepo.ListOrdered: %w: %s", domain.ErrMissingIndex, MessageIndexName)
	}

	const q = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE group_id = @group_id
		ORDER BY sent_at, id`

	msgs, err := r.list(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("repo.MessageRepo.ListOrdered: %w", err)
	}
	return msgs, nil
}

func (r *pgMessageRepo) ListUnordered(ctx context.Context, groupID uuid.UUID) ([]domain.ChatMessage, error) {
	const q = `SELECT ` + messageColumns + ` FROM messages WHERE group_id = @group_id`

	msgs, err := r.list(ctx, q, groupID)
	if err != nil {
		return nil, fmt.Errorf("repo.MessageRepo.ListUnordered: %w", err)
	}
	return msgs, nil
}

func (r *pgMessageRepo) list(ctx context.Context, q string, groupID uuid.UUID) ([]domain.ChatMessage, error) {
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"group_id": groupID})
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	msgs := []domain.ChatMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return msgs, nil
}

func scanMessage(s scanner) (domain.ChatMessage, error) {
	var (
		m       domain.ChatMessage
		id      pgtype.UUID
		groupID pgtype.UUID
	)
	if err := s.Scan(&id, &groupID, &m.UserID, &m.UserName, &m.Text, &m.SentAt); err != nil {
		return domain.ChatMessage{}, err
	}
	m.ID = uuid.UUID(id.Bytes)
	m.GroupID = uuid.UUID(groupID.Bytes)
	return m, nil
}

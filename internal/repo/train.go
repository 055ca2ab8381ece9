package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
)

// TrainRepo reads the train catalog. Trains are reference data seeded by
// migration; there are no write operations.
type TrainRepo interface {
	// GetByNumber returns the train with that number, or domain.ErrNotFound.
	GetByNumber(ctx context.Context, number string) (domain.Train, error)

	// List returns every train ordered by number.
	List(ctx context.Context) ([]domain.Train, error)
}

type pgTrainRepo struct {
	db db
}

// NewTrainRepo constructs a TrainRepo backed by the provided db connection.
func NewTrainRepo(db db) TrainRepo {
	return &pgTrainRepo{db: db}
}

func (r *pgTrainRepo) GetByNumber(ctx context.Context, number string) (domain.Train, error) {
	const q = `
		SELECT train_number, train_name, route, coaches
		FROM trains
		WHERE train_number = @number`

	t, err := scanTrain(r.db.QueryRow(ctx, q, pgx.NamedArgs{"number": number}))
	if err != nil {
		return domain.Train{}, fmt.Errorf("repo.TrainRepo.GetByNumber: %w", classify(err))
	}
	return t, nil
}

func (r *pgTrainRepo) List(ctx context.Context) ([]domain.Train, error) {
	const q = `
		SELECT train_number, train_name, route, coaches
		FROM trains
		ORDER BY train_number`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.List: %w", classify(err))
	}
	defer rows.Close()

	var trains []domain.Train
	for rows.Next() {
		t, err := scanTrain(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TrainRepo.List: scan: %w", err)
		}
		trains = append(trains, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.List: rows: %w", classify(err))
	}
	return trains, nil
}

func scanTrain(s scanner) (domain.Train, error) {
	var (
		t       domain.Train
		coaches []byte
	)
	if err := s.Scan(&t.Number, &t.Name, &t.Route, &coaches); err != nil {
		return domain.Train{}, err
	}
	t.Coaches = []domain.Coach{}
	if len(coaches) > 0 {
		if err := json.Unmarshal(coaches, &t.Coaches); err != nil {
			return domain.Train{}, fmt.Errorf("decode coaches: %w", err)
		}
	}
	return t, nil
}

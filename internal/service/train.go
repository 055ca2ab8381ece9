package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// TrainService serves the read-only train catalog.
type TrainService struct {
	repo repo.TrainRepo
}

// NewTrainService constructs a TrainService backed by the provided TrainRepo.
func NewTrainService(r repo.TrainRepo) *TrainService {
	return &TrainService{repo: r}
}

// GetByNumber returns a single train. Returns domain.ErrNotFound if the
// number is unknown.
func (s *TrainService) GetByNumber(ctx context.Context, number string) (domain.Train, error) {
	t, err := s.repo.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return domain.Train{}, fmt.Errorf("service.TrainService.GetByNumber: %w", err)
	}
	return t, nil
}

// List returns the whole catalog. Always returns a non-nil slice.
func (s *TrainService) List(ctx context.Context) ([]domain.Train, error) {
	trains, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TrainService.List: %w", err)
	}
	if trains == nil {
		return []domain.Train{}, nil
	}
	return trains, nil
}

// Search fetches the full catalog and keeps trains whose number, name or
// route contains term, case-insensitively. An empty term matches every train.
// The catalog is small, so filtering happens here rather than in SQL.
func (s *TrainService) Search(ctx context.Context, term string) ([]domain.Train, error) {
	trains, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TrainService.Search: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return trains, nil
	}

	matched := []domain.Train{}
	for _, t := range trains {
		if matchesTrain(t, needle) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

func matchesTrain(t domain.Train, needle string) bool {
	for _, field := range []string{t.Number, t.Name, t.Route} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// ReminderInput is a request for a journey reminder.
type ReminderInput struct {
	TrainNumber string
	JourneyAt   time.Time
	CoachNumber string
	SeatNumber  string
}

// ReminderService manages a user's journey reminders. Dispatch is handled by
// the scheduler package.
type ReminderService struct {
	reminders repo.ReminderRepo
	trains    repo.TrainRepo
}

// NewReminderService constructs a ReminderService.
func NewReminderService(reminders repo.ReminderRepo, trains repo.TrainRepo) *ReminderService {
	return &ReminderService{reminders: reminders, trains: trains}
}

// Create stores an active reminder that fires domain.ReminderLeadTime before
// the journey. Train name and route are copied from the catalog.
func (s *ReminderService) Create(ctx context.Context, userID string, in ReminderInput) (domain.JourneyReminder, error) {
	in.TrainNumber = strings.TrimSpace(in.TrainNumber)
	if in.TrainNumber == "" {
		return domain.JourneyReminder{}, fmt.Errorf("%w: train_number is required", domain.ErrValidation)
	}
	if in.JourneyAt.IsZero() {
		return domain.JourneyReminder{}, fmt.Errorf("%w: journey_at is required", domain.ErrValidation)
	}

	train, err := s.trains.GetByNumber(ctx, in.TrainNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.JourneyReminder{}, fmt.Errorf("%w: train %s does not exist", domain.ErrValidation, in.TrainNumber)
		}
		return domain.JourneyReminder{}, fmt.Errorf("service.ReminderService.Create: %w", err)
	}

	journeyAt := in.JourneyAt.UTC()
	rem, err := s.reminders.Create(ctx, domain.JourneyReminder{
		UserID:      userID,
		TrainNumber: train.Number,
		TrainName:   train.Name,
		Route:       train.Route,
		CoachNumber: strings.TrimSpace(in.CoachNumber),
		SeatNumber:  strings.TrimSpace(in.SeatNumber),
		JourneyAt:   journeyAt,
		RemindAt:    journeyAt.Add(-domain.ReminderLeadTime),
		IsActive:    true,
	})
	if err != nil {
		return domain.JourneyReminder{}, fmt.Errorf("service.ReminderService.Create: %w", err)
	}
	return rem, nil
}

// List returns the user's active reminders by journey time.
func (s *ReminderService) List(ctx context.Context, userID string) ([]domain.JourneyReminder, error) {
	rems, err := s.reminders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ReminderService.List: %w", err)
	}
	if rems == nil {
		return []domain.JourneyReminder{}, nil
	}
	return rems, nil
}

// SetActive turns a reminder on or off.
func (s *ReminderService) SetActive(ctx context.Context, userID string, id uuid.UUID, active bool) (domain.JourneyReminder, error) {
	rem, err := s.reminders.SetActive(ctx, userID, id, active)
	if err != nil {
		return domain.JourneyReminder{}, fmt.Errorf("service.ReminderService.SetActive: %w", err)
	}
	return rem, nil
}

// Delete removes a reminder owned by userID.
func (s *ReminderService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.reminders.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("service.ReminderService.Delete: %w", err)
	}
	return nil
}

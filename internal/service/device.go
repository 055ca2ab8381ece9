package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// DeviceService registers push tokens for reminder delivery.
type DeviceService struct {
	devices repo.DeviceRepo
}

// NewDeviceService constructs a DeviceService.
func NewDeviceService(devices repo.DeviceRepo) *DeviceService {
	return &DeviceService{devices: devices}
}

// Register stores token for userID.
func (s *DeviceService) Register(ctx context.Context, userID, token, deviceInfo string) (domain.DeviceToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.DeviceToken{}, fmt.Errorf("%w: token is required", domain.ErrValidation)
	}
	d, err := s.devices.Upsert(ctx, domain.DeviceToken{Token: token, UserID: userID, DeviceInfo: deviceInfo})
	if err != nil {
		return domain.DeviceToken{}, fmt.Errorf("service.DeviceService.Register: %w", err)
	}
	return d, nil
}

// Unregister removes the user's token.
func (s *DeviceService) Unregister(ctx context.Context, userID, token string) error {
	if err := s.devices.Delete(ctx, userID, token); err != nil {
		return fmt.Errorf("service.DeviceService.Unregister: %w", err)
	}
	return nil
}

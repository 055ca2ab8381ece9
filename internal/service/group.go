package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/realtime"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// GroupInput is the request to form a new travel group. Creator becomes the
// first member; an empty coach and seat mean they board at the next station.
type GroupInput struct {
	Name        string
	TrainNumber string
	JourneyDate time.Time
	Creator     domain.GroupMember
}

// GroupService implements the group lifecycle: create, join by code, leave,
// delete, seat updates, and live group views. Every mutation signals the
// group's topic on the feed.
type GroupService struct {
	groups  repo.GroupRepo
	trains  repo.TrainRepo
	feed    realtime.Feed
	log     *slog.Logger
	newCode func() string
	now     func() time.Time
}

// NewGroupService constructs a GroupService.
func NewGroupService(groups repo.GroupRepo, trains repo.TrainRepo, feed realtime.Feed, log *slog.Logger) *GroupService {
	return &GroupService{
		groups:  groups,
		trains:  trains,
		feed:    feed,
		log:     log,
		newCode: NewGroupCode,
		now:     time.Now,
	}
}

// NewGroupCode returns a pseudo-random 6-digit code in [100000, 999999].
// Uniqueness is not checked.
func NewGroupCode() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// ValidGroupCode reports whether code is exactly six ASCII digits.
func ValidGroupCode(code string) bool {
	if len(code) != domain.GroupCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Create validates the input, copies the route from the train, generates a
// join code, and persists an active group whose only member is the creator.
func (s *GroupService) Create(ctx context.Context, in GroupInput) (domain.Group, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.TrainNumber = strings.TrimSpace(in.TrainNumber)
	if err := validateGroupInput(in); err != nil {
		return domain.Group{}, err
	}

	train, err := s.trains.GetByNumber(ctx, in.TrainNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Group{}, fmt.Errorf("%w: train %s does not exist", domain.ErrValidation, in.TrainNumber)
		}
		return domain.Group{}, fmt.Errorf("service.GroupService.Create: %w", err)
	}

	g := domain.Group{
		Name:        in.Name,
		Code:        s.newCode(),
		CreatedBy:   in.Creator.UserID,
		TrainNumber: train.Number,
		Route:       train.Route,
		JourneyDate: in.JourneyDate,
		IsActive:    true,
		Members:     []domain.GroupMember{s.newMember(in.Creator)},
	}

	created, err := s.groups.Create(ctx, g)
	if err != nil {
		return domain.Group{}, fmt.Errorf("service.GroupService.Create: %w", err)
	}
	s.log.InfoContext(ctx, "group created", "group_id", created.ID, "train_number", created.TrainNumber)
	return created, nil
}

// Join adds member to the active group with that code. Joining a group you
// already belong to returns the group unchanged. Returns domain.ErrNotFound
// if no active group has the code.
func (s *GroupService) Join(ctx context.Context, code string, member domain.GroupMember) (domain.Group, error) {
	code = strings.TrimSpace(code)
	if !ValidGroupCode(code) {
		return domain.Group{}, fmt.Errorf("%w: code must be %d digits", domain.ErrValidation, domain.GroupCodeLength)
	}
	if member.UserID == "" {
		return domain.Group{}, fmt.Errorf("%w: user is required", domain.ErrValidation)
	}

	g, err := s.groups.GetByCode(ctx, code, true)
	if err != nil {
		return domain.Group{}, fmt.Errorf("service.GroupService.Join: %w", err)
	}
	if g.HasMember(member.UserID) {
		return g, nil
	}

	inserted, err := s.groups.AddMember(ctx, g.ID, s.newMember(member))
	if err != nil {
		return domain.Group{}, fmt.Errorf("service.GroupService.Join: %w", err)
	}
	if inserted {
		s.publish(ctx, g.ID)
	}

	joined, err := s.groups.GetByID(ctx, g.ID)
	if err != nil {
		return domain.Group{}, fmt.Errorf("service.GroupService.Join: %w", err)
	}
	return joined, nil
}

// Leave removes userID from the group. Missing groups and non-members are a
// silent no-op.
func (s *GroupService) Leave(ctx context.Context, groupID uuid.UUID, userID string) error {
	if err := s.groups.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("service.GroupService.Leave: %w", err)
	}
	s.publish(ctx, groupID)
	return nil
}

// Delete removes the group and all of its messages. Only the creator may
// delete a group. Returns the number of messages removed.
func (s *GroupService) Delete(ctx context.Context, groupID uuid.UUID, requester string) (int64, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("service.GroupService.Delete: %w", err)
	}
	if g.CreatedBy != requester {
		return 0, fmt.Errorf("%w: only the group creator can delete it", domain.ErrForbidden)
	}

	removed, err := s.groups.Delete(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("service.GroupService.Delete: %w", err)
	}
	s.publish(ctx, groupID)
	if err := s.feed.Publish(ctx, realtime.MessagesTopic(groupID)); err != nil {
		s.log.WarnContext(ctx, "publish chat change", "group_id", groupID, "error", err)
	}
	s.log.InfoContext(ctx, "group deleted", "group_id", groupID, "messages_removed", removed)
	return removed, nil
}

// UpdateMemberSeat sets the member's coach and seat. Missing groups and
// non-members are a silent no-op.
func (s *GroupService) UpdateMemberSeat(ctx context.Context, groupID uuid.UUID, userID, coachNumber, seatNumber string) error {
	coachNumber = strings.TrimSpace(coachNumber)
	seatNumber = strings.TrimSpace(seatNumber)
	if coachNumber == "" || seatNumber == "" {
		return fmt.Errorf("%w: coach_number and seat_number are required", domain.ErrValidation)
	}

	if err := s.groups.UpdateMemberSeat(ctx, groupID, userID, coachNumber, seatNumber); err != nil {
		return fmt.Errorf("service.GroupService.UpdateMemberSeat: %w", err)
	}
	s.publish(ctx, groupID)
	return nil
}

// Get returns a group with its members.
func (s *GroupService) Get(ctx context.Context, groupID uuid.UUID) (domain.Group, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return domain.Group{}, fmt.Errorf("service.GroupService.Get: %w", err)
	}
	return g, nil
}

// GetByCode previews the group with that code, active or not, so a user can
// check it before joining.
func (s *GroupService) GetByCode(ctx context.Context, code string) (domain.Group, error) {
	code = strings.TrimSpace(code)
	if !ValidGroupCode(code) {
		return domain.Group{}, fmt.Errorf("%w: code must be %d digits", domain.ErrValidation, domain.GroupCodeLength)
	}
	g, err := s.groups.GetByCode(ctx, code, false)
	if err != nil {
		return domain.Group{}, fmt.Errorf("service.GroupService.GetByCode: %w", err)
	}
	return g, nil
}

// ListForUser returns the active groups userID belongs to. Always returns a
// non-nil slice.
func (s *GroupService) ListForUser(ctx context.Context, userID string) ([]domain.Group, error) {
	groups, err := s.groups.ListActiveForMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.GroupService.ListForUser: %w", err)
	}
	if groups == nil {
		return []domain.Group{}, nil
	}
	return groups, nil
}

// SubscribeToGroup delivers the group to onUpdate now and after every change.
// When the group disappears or a read fails, onError receives the error and
// the subscription ends.
func (s *GroupService) SubscribeToGroup(ctx context.Context, groupID uuid.UUID, onUpdate func(domain.Group), onError func(error)) (*Subscription, error) {
	sub, err := watch(ctx, s.feed, realtime.GroupTopic(groupID), func(ctx context.Context) bool {
		g, err := s.groups.GetByID(ctx, groupID)
		if err != nil {
			if ctx.Err() == nil {
				onError(fmt.Errorf("service.GroupService.SubscribeToGroup: %w", err))
			}
			return false
		}
		onUpdate(g)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("service.GroupService.SubscribeToGroup: %w", err)
	}
	return sub, nil
}

func (s *GroupService) newMember(m domain.GroupMember) domain.GroupMember {
	m.CoachNumber = strings.TrimSpace(m.CoachNumber)
	m.SeatNumber = strings.TrimSpace(m.SeatNumber)
	m.JoiningFromNextStation = m.CoachNumber == "" && m.SeatNumber == ""
	m.JoinedAt = s.now().UTC()
	return m
}

// publish signals watchers of the group. The write already succeeded, so a
// feed failure is logged rather than returned.
func (s *GroupService) publish(ctx context.Context, groupID uuid.UUID) {
	if err := s.feed.Publish(ctx, realtime.GroupTopic(groupID)); err != nil {
		s.log.WarnContext(ctx, "publish group change", "group_id", groupID, "error", err)
	}
}

func validateGroupInput(in GroupInput) error {
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	case in.TrainNumber == "":
		return fmt.Errorf("%w: train_number is required", domain.ErrValidation)
	case in.JourneyDate.IsZero():
		return fmt.Errorf("%w: journey_date is required", domain.ErrValidation)
	case in.Creator.UserID == "":
		return fmt.Errorf("%w: creator is required", domain.ErrValidation)
	}
	return nil
}

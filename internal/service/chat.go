package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/metrics"
	"github.com/schhatbar/Railway-Commuter/internal/realtime"
	"github.com/schhatbar/Railway-Commuter/internal/repo"
)

// ChatService implements group chat: appending messages and live,
// timestamp-ordered views of a group's log. Only group members may read or
// write a group's chat.
type ChatService struct {
	messages repo.MessageRepo
	groups   repo.GroupRepo
	feed     realtime.Feed
	log      *slog.Logger
}

// NewChatService constructs a ChatService.
func NewChatService(messages repo.MessageRepo, groups repo.GroupRepo, feed realtime.Feed, log *slog.Logger) *ChatService {
	return &ChatService{messages: messages, groups: groups, feed: feed, log: log}
}

// Send appends a message from sender to the group's chat. The text is stored
// as given; the timestamp is assigned by the store.
func (s *ChatService) Send(ctx context.Context, groupID uuid.UUID, sender domain.Identity, text string) (domain.ChatMessage, error) {
	if err := s.requireMember(ctx, groupID, sender.UserID); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("service.ChatService.Send: %w", err)
	}

	msg, err := s.messages.Create(ctx, domain.ChatMessage{
		GroupID:  groupID,
		UserID:   sender.UserID,
		UserName: sender.DisplayName,
		Text:     text,
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("service.ChatService.Send: %w", err)
	}

	if err := s.feed.Publish(ctx, realtime.MessagesTopic(groupID)); err != nil {
		s.log.WarnContext(ctx, "publish chat change", "group_id", groupID, "error", err)
	}
	return msg, nil
}

// List returns the group's messages in timestamp order.
func (s *ChatService) List(ctx context.Context, groupID uuid.UUID, viewerID string) ([]domain.ChatMessage, error) {
	if err := s.requireMember(ctx, groupID, viewerID); err != nil {
		return nil, fmt.Errorf("service.ChatService.List: %w", err)
	}

	ordered := true
	msgs, err := s.read(ctx, groupID, &ordered)
	if err != nil {
		return nil, fmt.Errorf("service.ChatService.List: %w", err)
	}
	return msgs, nil
}

// SubscribeToMessages delivers the group's full ordered message list to
// onUpdate now and after every new message.
//
// Reads start with the ordered query. If the store reports that the index
// behind it is missing, the subscription switches for the rest of its life to
// the unordered query followed by a stable sort on SentAt, logging one
// warning. Any other read error is passed to onError and ends the
// subscription; there is no retry.
func (s *ChatService) SubscribeToMessages(ctx context.Context, groupID uuid.UUID, viewerID string, onUpdate func([]domain.ChatMessage), onError func(error)) (*Subscription, error) {
	if err := s.requireMember(ctx, groupID, viewerID); err != nil {
		return nil, fmt.Errorf("service.ChatService.SubscribeToMessages: %w", err)
	}

	ordered := true
	sub, err := watch(ctx, s.feed, realtime.MessagesTopic(groupID), func(ctx context.Context) bool {
		msgs, err := s.read(ctx, groupID, &ordered)
		if err != nil {
			if ctx.Err() == nil {
				onError(fmt.Errorf("service.ChatService.SubscribeToMessages: %w", err))
			}
			return false
		}
		onUpdate(msgs)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("service.ChatService.SubscribeToMessages: %w", err)
	}
	return sub, nil
}

// read fetches the group's messages in ascending SentAt order. ordered holds
// the read strategy; it flips to false, and stays false, the first time the
// ordered query reports a missing index.
func (s *ChatService) read(ctx context.Context, groupID uuid.UUID, ordered *bool) ([]domain.ChatMessage, error) {
	if *ordered {
		msgs, err := s.messages.ListOrdered(ctx, groupID)
		if !errors.Is(err, domain.ErrMissingIndex) {
			return msgs, err
		}
		*ordered = false
		metrics.ChatFallbacks.Inc()
		s.log.WarnContext(ctx, "message index missing; sorting chat in the service",
			"group_id", groupID,
			"index", repo.MessageIndexName,
		)
	}

	msgs, err := s.messages.ListUnordered(ctx, groupID)
	if err != nil {
		return nil, err
	}
	SortMessages(msgs)
	return msgs, nil
}

// SortMessages orders msgs by SentAt ascending, then by ID, matching the
// ordered query's ORDER BY sent_at, id. Postgres compares uuids bytewise.
func SortMessages(msgs []domain.ChatMessage) {
	slices.SortStableFunc(msgs, func(a, b domain.ChatMessage) int {
		if c := a.SentAt.Compare(b.SentAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
}

func (s *ChatService) requireMember(ctx context.Context, groupID uuid.UUID, userID string) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.HasMember(userID) {
		return fmt.Errorf("%w: only group members can use the chat", domain.ErrForbidden)
	}
	return nil
}

package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schhatbar/Railway-Commuter/internal/domain"
	"github.com/schhatbar/Railway-Commuter/internal/realtime"
	"github.com/schhatbar/Railway-Commuter/internal/service"
)

var chatBase = time.Date(2026, 10, 20, 6, 0, 0, 0, time.UTC)

func chatGroup() (*mockGroupRepo, uuid.UUID) {
	id := uuid.New()
	groups := &mockGroupRepo{
		getByID: func(_ context.Context, gid uuid.UUID) (domain.Group, error) {
			if gid != id {
				return domain.Group{}, domain.ErrNotFound
			}
			return domain.Group{ID: id, Members: []domain.GroupMember{{UserID: "alice"}, {UserID: "bob"}}}, nil
		},
	}
	return groups, id
}

func msg(text string, offset time.Duration) domain.ChatMessage {
	return domain.ChatMessage{ID: uuid.New(), Text: text, SentAt: chatBase.Add(offset)}
}

func texts(msgs []domain.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestSortMessages_ByTimestamp(t *testing.T) {
	msgs := []domain.ChatMessage{
		msg("c", 2*time.Second),
		msg("a", 0),
		msg("b", time.Second),
	}

	service.SortMessages(msgs)

	assert.Equal(t, []string{"a", "b", "c"}, texts(msgs))
}

func TestSortMessages_EqualTimestampsOrderByID(t *testing.T) {
	low := msg("low", 0)
	low.ID = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	high := msg("high", 0)
	high.ID = uuid.MustParse("ff000000-0000-4000-8000-000000000001")
	mid := msg("mid", 0)
	mid.ID = uuid.MustParse("7f000000-0000-4000-8000-000000000001")

	for _, in := range [][]domain.ChatMessage{
		{high, mid, low},
		{mid, low, high},
		{low, high, mid},
	} {
		service.SortMessages(in)
		assert.Equal(t, []string{"low", "mid", "high"}, texts(in), "ties break on id like ORDER BY sent_at, id")
	}
}

func TestChatService_Send(t *testing.T) {
	groups, gid := chatGroup()
	feed := realtime.NewMemoryFeed()
	sig, err := feed.Subscribe(realtime.MessagesTopic(gid))
	require.NoError(t, err)
	defer sig.Cancel()

	var stored domain.ChatMessage
	messages := &mockMessageRepo{
		create: func(_ context.Context, m domain.ChatMessage) (domain.ChatMessage, error) {
			stored = m
			m.ID = uuid.New()
			m.SentAt = chatBase
			return m, nil
		},
	}
	svc := service.NewChatService(messages, groups, feed, discardLogger())

	got, err := svc.Send(context.Background(), gid, domain.Identity{UserID: "alice", DisplayName: "Alice"}, "  see you at coach A1  ")

	require.NoError(t, err)
	assert.Equal(t, "Alice", stored.UserName)
	assert.Equal(t, "  see you at coach A1  ", stored.Text, "text is stored as given")
	assert.Equal(t, chatBase, got.SentAt)
	recv(t, sig.C)
}

func TestChatService_NonMemberForbidden(t *testing.T) {
	groups, gid := chatGroup()
	svc := service.NewChatService(&mockMessageRepo{}, groups, realtime.NewMemoryFeed(), discardLogger())
	ctx := context.Background()

	_, err := svc.Send(ctx, gid, domain.Identity{UserID: "mallory"}, "hi")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.List(ctx, gid, "mallory")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.SubscribeToMessages(ctx, gid, "mallory", func([]domain.ChatMessage) {}, func(error) {})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.List(ctx, uuid.New(), "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatService_List_FallbackMatchesOrdered(t *testing.T) {
	groups, gid := chatGroup()
	sorted := []domain.ChatMessage{msg("first", 0), msg("second", time.Second), msg("third", 2*time.Second)}
	shuffled := []domain.ChatMessage{sorted[2], sorted[0], sorted[1]}

	ordered := service.NewChatService(&mockMessageRepo{
		listOrdered: func(context.Context, uuid.UUID) ([]domain.ChatMessage, error) {
			return append([]domain.ChatMessage(nil), sorted...), nil
		},
	}, groups, realtime.NewMemoryFeed(), discardLogger())
	fallback := service.NewChatService(&mockMessageRepo{
		listOrdered: func(context.Context, uuid.UUID) ([]domain.ChatMessage, error) {
			return nil, domain.ErrMissingIndex
		},
		listUnordered: func(context.Context, uuid.UUID) ([]domain.ChatMessage, error) {
			return append([]domain.ChatMessage(nil), shuffled...), nil
		},
	}, groups, realtime.NewMemoryFeed(), discardLogger())

	want, err := ordered.List(context.Background(), gid, "alice")
	require.NoError(t, err)
	got, err := fallback.List(context.Background(), gid, "alice")
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestChatService_Subscribe_FallbackIsPermanent(t *testing.T) {
	groups, gid := chatGroup()
	feed := realtime.NewMemoryFeed()

	var mu sync.Mutex
	log := []domain.ChatMessage{msg("b", time.Second), msg("a", 0)}
	var orderedCalls, unorderedCalls atomic.Int32
	messages := &mockMessageRepo{
		listOrdered: func(context.Context, uuid.UUID) ([]domain.ChatMessage, error) {
			orderedCalls.Add(1)
			return nil, domain.ErrMissingIndex
		},
		listUnordered: func(context.Context, uuid.UUID) ([]domain.ChatMessage, error) {
			unorderedCalls.Add(1)
			mu.Lock()
			defer mu.Unlock()
			return append([]domain.ChatMessage(nil), log...), nil
		},
	}
	svc := service.NewChatService(messages, groups, feed, discardLogger())

	updates := make(chan []domain.ChatMessage, 4)
	errs := make(chan error, 1)
	sub, err := svc.SubscribeToMessages(context.Background(), gid, "bob",
		func(m []domain.ChatMessage) { updates <- m },
		func(err error) { errs <- err },
	)
	require.NoError(t, err)
	defer sub.Cancel()

	assert.Equal(t, []string{"a", "b"}, texts(recv(t, updates)))

	mu.Lock()
	log = append(log, msg("a-late", 500*time.Millisecond))
	mu.Unlock()
	require.NoError(t, feed.Publish(context.Background(), realtime.MessagesTopic(gid)))

	assert.Equal(t, []string{"a", "a-late", "b"}, texts(recv(t, updates)))
	assert.Equal(t, int32(1), orderedCalls.Load(), "ordered query is not retried after the fallback")
	assert.Equal(t, int32(2), unorderedCalls.Load())
	assert.Empty(t, errs)
}

func TestChatService_Subscribe_OtherErrorEnds(t *testing.T) {
	groups, gid := chatGroup()
	feed := realtime.NewMemoryFeed()
	boom := errors.New("permission denied for table messages")
	var calls atomic.Int32
	messages := &mockMessageRepo{
		listOrdered: func(context.Context, uuid.UUID) ([]domain.ChatMessage, error) {
			if calls.Add(1) == 1 {
				return []domain.ChatMessage{msg("hello", 0)}, nil
			}
			return nil, boom
		},
	}
	svc := service.NewChatService(messages, groups, feed, discardLogger())

	updates := make(chan []domain.ChatMessage, 4)
	errs := make(chan error, 1)
	sub, err := svc.SubscribeToMessages(context.Background(), gid, "alice",
		func(m []domain.ChatMessage) { updates <- m },
		func(err error) { errs <- err },
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello"}, texts(recv(t, updates)))
	require.NoError(t, feed.Publish(context.Background(), realtime.MessagesTopic(gid)))

	assert.ErrorIs(t, recv(t, errs), boom)
	recv(t, sub.Done())
	assert.Equal(t, int32(2), calls.Load(), "no retry after a read error")
	assert.Empty(t, updates)
}

// Package realtime carries change signals between writers and live views.
// A signal only says "this topic changed"; subscribers re-read the store to
// get the current state, so signals may be coalesced or duplicated freely.
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Feed publishes and subscribes to change signals by topic.
type Feed interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(topic string) (*Subscription, error)
	Close() error
}

// Subscription receives change signals for one topic on C. Pending signals
// coalesce: at most one is buffered.
type Subscription struct {
	C <-chan struct{}

	once sync.Once
	stop func()
}

func newSubscription(stop func()) (*Subscription, chan struct{}) {
	ch := make(chan struct{}, 1)
	return &Subscription{C: ch, stop: stop}, ch
}

// Cancel stops delivery. It is safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
	})
}

// notify performs a non-blocking send so a slow subscriber never stalls the
// publisher.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// GroupTopic is signalled when a group or its membership changes.
func GroupTopic(groupID uuid.UUID) string {
	return "groups." + groupID.String()
}

// MessagesTopic is signalled when a message is appended to a group's chat.
func MessagesTopic(groupID uuid.UUID) string {
	return "groups." + groupID.String() + ".messages"
}

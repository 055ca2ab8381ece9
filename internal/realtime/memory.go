package realtime

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when using a feed after Close.
var ErrClosed = errors.New("realtime: feed closed")

// MemoryFeed is an in-process Feed for single-instance deployments and tests.
type MemoryFeed struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]chan struct{}
	closed bool
}

// NewMemoryFeed returns an empty in-process feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{subs: make(map[string]map[*Subscription]chan struct{})}
}

func (f *MemoryFeed) Publish(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	for _, ch := range f.subs[topic] {
		notify(ch)
	}
	return nil
}

func (f *MemoryFeed) Subscribe(topic string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}

	var sub *Subscription
	sub, ch := newSubscription(func() { f.remove(topic, sub) })
	if f.subs[topic] == nil {
		f.subs[topic] = make(map[*Subscription]chan struct{})
	}
	f.subs[topic][sub] = ch
	return sub, nil
}

func (f *MemoryFeed) remove(topic string, sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.subs[topic], sub)
	if len(f.subs[topic]) == 0 {
		delete(f.subs, topic)
	}
}

// Close drops every subscription. Subscribers stop receiving signals but
// their channels are left open.
func (f *MemoryFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.subs = make(map[string]map[*Subscription]chan struct{})
	return nil
}

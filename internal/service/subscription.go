package service

import (
	"context"

	"github.com/schhatbar/Railway-Commuter/internal/realtime"
)

// Subscription is a live view started by one of the Subscribe methods. It
// runs on its own goroutine until cancelled, until the context it was started
// with ends, or until a read fails. Callbacks are invoked serially from that
// goroutine and always receive the full current state.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the subscription. No callback runs after the goroutine
// observes the cancellation. Safe to call more than once, including from
// inside a callback, and on a nil Subscription.
func (s *Subscription) Cancel() {
	if s != nil {
		s.cancel()
	}
}

// Done is closed once the subscription goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// watch subscribes to topic, performs an initial refresh, then refreshes once
// per change signal. refresh returns false to end the subscription.
// The feed subscription is taken before the initial read so no change made
// in between is missed.
func watch(ctx context.Context, feed realtime.Feed, topic string, refresh func(context.Context) bool) (*Subscription, error) {
	sig, err := feed.Subscribe(topic)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		defer sig.Cancel()
		defer cancel()

		if !refresh(ctx) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig.C:
				if ctx.Err() != nil || !refresh(ctx) {
					return
				}
			}
		}
	}()

	return s, nil
}

package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSFeed fans change signals out through a NATS server so every API
// instance sees writes made by the others. Topics map 1:1 to subjects.
type NATSFeed struct {
	conn *nats.Conn
	log  *slog.Logger
}

// DialNATS connects to the NATS server at url.
func DialNATS(url string, log *slog.Logger) (*NATSFeed, error) {
	conn, err := nats.Connect(url,
		nats.Name("railway-commuter-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("realtime.DialNATS: %w", err)
	}
	return &NATSFeed{conn: conn, log: log}, nil
}

func (f *NATSFeed) Publish(_ context.Context, topic string) error {
	if err := f.conn.Publish(topic, nil); err != nil {
		return fmt.Errorf("realtime.NATSFeed.Publish: %w", err)
	}
	return nil
}

func (f *NATSFeed) Subscribe(topic string) (*Subscription, error) {
	var ns *nats.Subscription
	sub, ch := newSubscription(func() {
		if err := ns.Unsubscribe(); err != nil {
			f.log.Debug("nats unsubscribe", "subject", topic, "error", err)
		}
	})

	ns, err := f.conn.Subscribe(topic, func(*nats.Msg) { notify(ch) })
	if err != nil {
		return nil, fmt.Errorf("realtime.NATSFeed.Subscribe: %w", err)
	}
	return sub, nil
}

// Close drains pending messages and closes the connection.
func (f *NATSFeed) Close() error {
	return f.conn.Drain()
}

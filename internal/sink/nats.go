// Package sink provides event-log implementations beyond the primary
// database store.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"webpulse/internal/tracking"
)

// NATSLog publishes accepted events as JSON to
// <prefix>.<realm>.<project>.<type>.
type NATSLog struct {
	conn   *nats.Conn
	prefix string
}

// NewNATSLog connects to url with unlimited reconnects.
func NewNATSLog(url, prefix string, log zerolog.Logger) (*NATSLog, error) {
	conn, err := nats.Connect(url,
		nats.Name("webpulse-tracker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSLog{conn: conn, prefix: prefix}, nil
}

func (n *NATSLog) AppendEvent(_ context.Context, ev tracking.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.conn.Publish(Subject(n.prefix, ev), data)
}

// Close drains pending publishes and closes the connection.
func (n *NATSLog) Close() error {
	return n.conn.Drain()
}

// Subject builds the publish subject for ev. Each token is sanitized so
// client-supplied values cannot add subject levels or wildcards.
func Subject(prefix string, ev tracking.Event) string {
	typ := ev.Type
	if !tracking.KnownEventType(typ) {
		typ = "other"
	}
	return strings.Join([]string{prefix, subjectToken(ev.RealmID), subjectToken(ev.ProjectID), typ}, ".")
}

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

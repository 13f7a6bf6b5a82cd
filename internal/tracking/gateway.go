package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type envelope struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Gateway accepts beacon submissions from client scripts and forwards
// authorized events to the event log.
type Gateway struct {
	resolver  Resolver
	allowlist *OriginAllowlist
	events    EventLog
	log       zerolog.Logger
	now       func() time.Time
}

func NewGateway(resolver Resolver, allowlist *OriginAllowlist, events EventLog, log zerolog.Logger) *Gateway {
	return &Gateway{
		resolver:  resolver,
		allowlist: allowlist,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

func (g *Gateway) Handle(ctx context.Context, req Request) (Outcome, error) {
	return g.Ingest(ctx, req.Body, req.Origin, req.UserAgent)
}

// Ingest runs one submission through parse, resolve, authorize and log.
// Rejections are a 403 outcome with no body; invalid JSON and upstream
// failures are returned as errors for the transport to turn into a 500.
func (g *Gateway) Ingest(ctx context.Context, rawBody []byte, origin, userAgent string) (Outcome, error) {
	if !g.allowlist.IsAllowed(origin) {
		g.log.Debug().Str("origin", origin).Msg("track: origin rejected by allowlist")
		return forbidden(), nil
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(rawBody))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return Outcome{}, fmt.Errorf("%w: trailing data after JSON body", ErrMalformedInput)
	}

	token, ok := payloadToken(env.Payload)
	if !ok {
		g.log.Debug().Msg("track: payload without projectId")
		return forbidden(), nil
	}

	ua := ParseUserAgent(userAgent)
	env.Payload["userAgent"] = ua.Map()

	pc, err := g.resolver.Resolve(ctx, token, origin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			g.log.Debug().Str("token", token).Str("origin", origin).Msg("track: project not resolved")
			return forbidden(), nil
		}
		return Outcome{}, err
	}
	if pc.Realm.ID == "" || pc.Project.ID == "" {
		return forbidden(), nil
	}

	ev := Event{
		Type:       eventType(env),
		RealmID:    pc.Realm.ID,
		ProjectID:  pc.Project.ID,
		DeviceID:   stringField(env.Payload, "deviceId"),
		SessionID:  stringField(env.Payload, "sessionId"),
		URL:        stringField(env.Payload, "url"),
		Timestamp:  int64Field(env.Payload, "timestamp"),
		ReceivedAt: g.now().UTC(),
		UserAgent:  ua,
		Payload:    env.Payload,
	}
	if err := g.events.AppendEvent(ctx, ev); err != nil {
		return Outcome{}, fmt.Errorf("%w: append event: %w", ErrUpstream, err)
	}

	return Outcome{
		Status:    http.StatusOK,
		Body:      rawBody,
		Project:   pc.Token().String(),
		EventType: ev.Type,
	}, nil
}

// payloadToken derives the track token from the submitted payload. A
// projectId that already has the <realm>.<project> shape is used as is;
// otherwise the payload's realmId is prefixed.
func payloadToken(payload map[string]any) (string, bool) {
	if payload == nil {
		return "", false
	}
	projectID := stringField(payload, "projectId")
	if projectID == "" {
		return "", false
	}
	if strings.Contains(projectID, ".") {
		return projectID, true
	}
	if realmID := stringField(payload, "realmId"); realmID != "" {
		return realmID + "." + projectID, true
	}
	return projectID, true
}

func eventType(env envelope) string {
	if env.Type != "" {
		return env.Type
	}
	return stringField(env.Payload, "type")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func int64Field(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(v)
	}
	return 0
}

package tracking

import (
	"context"
	"time"
)

// Event types emitted by the client script.
const (
	EventPageLoad   = "pageLoad"
	EventPageClick  = "pageClick"
	EventPageScroll = "pageScroll"
)

// KnownEventType reports whether t is one of the types the client emits.
func KnownEventType(t string) bool {
	switch t {
	case EventPageLoad, EventPageClick, EventPageScroll:
		return true
	}
	return false
}

// Event is an accepted report, ready to be appended to the event log.
// Payload holds every submitted field plus the attached "userAgent"
// descriptor; the typed fields are lifted from it for indexing.
type Event struct {
	Type       string         `json:"type"`
	RealmID    string         `json:"realmId"`
	ProjectID  string         `json:"projectId"`
	DeviceID   string         `json:"deviceId,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	URL        string         `json:"url,omitempty"`
	Timestamp  int64          `json:"timestamp,omitempty"`
	ReceivedAt time.Time      `json:"receivedAt"`
	UserAgent  UserAgent      `json:"userAgent"`
	Payload    map[string]any `json:"payload"`
}

// EventLog is the append-only sink for accepted events.
type EventLog interface {
	AppendEvent(ctx context.Context, ev Event) error
}

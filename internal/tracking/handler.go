package tracking

import (
	"context"
	"net/http"
)

// RequestKind is the route a request was resolved to by the transport.
type RequestKind int

const (
	KindNotFound RequestKind = iota
	KindClientScript
	KindTrack
	KindRoot
	KindStats
)

func (k RequestKind) String() string {
	switch k {
	case KindClientScript:
		return "client_script"
	case KindTrack:
		return "track"
	case KindRoot:
		return "root"
	case KindStats:
		return "stats"
	default:
		return "not_found"
	}
}

// Request is the transport-neutral view of an inbound request.
type Request struct {
	Kind      RequestKind
	Origin    string
	UserAgent string
	TrackID   string
	Body      []byte
}

// Outcome is what a handler wants written back to the client. Project and
// EventType are informational and never sent.
type Outcome struct {
	Status      int
	ContentType string
	Body        []byte

	Project   string
	EventType string
}

// Handler is implemented by every routed component.
type Handler interface {
	Handle(ctx context.Context, req Request) (Outcome, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) (Outcome, error)

func (f HandlerFunc) Handle(ctx context.Context, req Request) (Outcome, error) {
	return f(ctx, req)
}

func forbidden() Outcome {
	return Outcome{Status: http.StatusForbidden}
}

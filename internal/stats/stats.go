package stats

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"webpulse/internal/tracking"
)

// Summary is the aggregate view of one project's events.
type Summary struct {
	Token       string
	PageLoads   int64
	PageClicks  int64
	PageScrolls int64
	Other       int64
	Devices     int64
	Sessions    int64
}

// Add records n events of the given type.
func (s *Summary) Add(eventType string, n int64) {
	switch eventType {
	case tracking.EventPageLoad:
		s.PageLoads += n
	case tracking.EventPageClick:
		s.PageClicks += n
	case tracking.EventPageScroll:
		s.PageScrolls += n
	default:
		s.Other += n
	}
}

// Line renders the summary as a single text line.
func (s Summary) Line() string {
	return fmt.Sprintf("%s pageLoads=%d pageClicks=%d pageScrolls=%d other=%d devices=%d sessions=%d",
		s.Token, s.PageLoads, s.PageClicks, s.PageScrolls, s.Other, s.Devices, s.Sessions)
}

// Source provides the projects and per-project aggregates.
type Source interface {
	EachProject(ctx context.Context, fn func(tracking.Project) error) error
	Summarize(ctx context.Context, realmID, projectID string) (Summary, error)
}

// Handler serves the plain-text statistics view: one line per project,
// each terminated by a newline.
type Handler struct {
	source Source
}

func NewHandler(source Source) *Handler {
	return &Handler{source: source}
}

func (h *Handler) Handle(ctx context.Context, _ tracking.Request) (tracking.Outcome, error) {
	var b strings.Builder
	err := h.source.EachProject(ctx, func(p tracking.Project) error {
		sum, err := h.source.Summarize(ctx, p.RealmID, p.ID)
		if err != nil {
			return err
		}
		b.WriteString(sum.Line())
		b.WriteByte('\n')
		return nil
	})
	if err != nil {
		return tracking.Outcome{}, fmt.Errorf("%w: stats: %w", tracking.ErrUpstream, err)
	}

	return tracking.Outcome{
		Status:      http.StatusOK,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(b.String()),
	}, nil
}

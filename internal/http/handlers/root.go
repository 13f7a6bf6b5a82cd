package handlers

import (
	"bytes"
	"context"
	"fmt"

	"github.com/valyala/fasthttp"

	"webpulse/internal/config"
	"webpulse/internal/tracking"
	ui "webpulse/web"
)

// RootHandler renders the landing page.
type RootHandler struct {
	trackerURL string
}

func NewRootHandler(cfg *config.Config) *RootHandler {
	return &RootHandler{trackerURL: cfg.TrackerURL}
}

func (h *RootHandler) Handle(_ context.Context, _ tracking.Request) (tracking.Outcome, error) {
	var buf bytes.Buffer
	if err := ui.Templates().ExecuteTemplate(&buf, "index.html", ui.IndexData{TrackerURL: h.trackerURL}); err != nil {
		return tracking.Outcome{}, fmt.Errorf("render index: %w", err)
	}
	return tracking.Outcome{
		Status:      fasthttp.StatusOK,
		ContentType: "text/html; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

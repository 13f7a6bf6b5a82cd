package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"webpulse/internal/config"
	"webpulse/internal/tracking"
)

func TestRootHandler(t *testing.T) {
	h := NewRootHandler(&config.Config{TrackerURL: "https://tracker.example.com"})

	out, err := h.Handle(context.Background(), tracking.Request{Kind: tracking.KindRoot})
	require.NoError(t, err)

	assert.Equal(t, fasthttp.StatusOK, out.Status)
	assert.Equal(t, "text/html; charset=utf-8", out.ContentType)
	assert.Contains(t, string(out.Body), `https://tracker.example.com/client.js?trackId=REALM.PROJECT`)
}

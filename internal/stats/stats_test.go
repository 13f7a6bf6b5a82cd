package stats

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpulse/internal/tracking"
)

type fakeSource struct {
	projects  []tracking.Project
	summaries map[string]Summary
	err       error
}

func (f *fakeSource) EachProject(_ context.Context, fn func(tracking.Project) error) error {
	for _, p := range f.projects {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) Summarize(_ context.Context, realmID, projectID string) (Summary, error) {
	if f.err != nil {
		return Summary{}, f.err
	}
	return f.summaries[realmID+"."+projectID], nil
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	s.Add(tracking.EventPageLoad, 3)
	s.Add(tracking.EventPageClick, 2)
	s.Add(tracking.EventPageScroll, 1)
	s.Add("custom", 4)
	s.Add(tracking.EventPageLoad, 1)

	assert.Equal(t, Summary{PageLoads: 4, PageClicks: 2, PageScrolls: 1, Other: 4}, s)
}

func TestHandler_JoinsLinesPerProject(t *testing.T) {
	src := &fakeSource{
		projects: []tracking.Project{{RealmID: "r1", ID: "p1"}, {RealmID: "r1", ID: "p2"}},
		summaries: map[string]Summary{
			"r1.p1": {Token: "r1.p1", PageLoads: 10, Devices: 4, Sessions: 5},
			"r1.p2": {Token: "r1.p2", PageClicks: 2, Devices: 1, Sessions: 1},
		},
	}

	out, err := NewHandler(src).Handle(context.Background(), tracking.Request{Kind: tracking.KindStats})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t,
		"r1.p1 pageLoads=10 pageClicks=0 pageScrolls=0 other=0 devices=4 sessions=5\n"+
			"r1.p2 pageLoads=0 pageClicks=2 pageScrolls=0 other=0 devices=1 sessions=1\n",
		string(out.Body))
}

func TestHandler_NoProjects(t *testing.T) {
	out, err := NewHandler(&fakeSource{}).Handle(context.Background(), tracking.Request{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Empty(t, out.Body)
}

func TestHandler_SourceError(t *testing.T) {
	src := &fakeSource{
		projects: []tracking.Project{{RealmID: "r1", ID: "p1"}},
		err:      errors.New("db down"),
	}

	_, err := NewHandler(src).Handle(context.Background(), tracking.Request{})
	require.ErrorIs(t, err, tracking.ErrUpstream)
}

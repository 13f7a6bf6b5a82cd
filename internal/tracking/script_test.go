package tracking

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReportURL = "https://tracker.example.com"

func TestSynthesize_Deterministic(t *testing.T) {
	flags := FeatureFlags{PageLoads: true, PageClicks: true, PageScrolls: true}

	a := Synthesize("r1", "p1", flags, testReportURL)
	b := Synthesize("r1", "p1", flags, testReportURL)

	assert.Equal(t, a, b)
}

func TestSynthesize_Epilogue(t *testing.T) {
	script := Synthesize("r1", "p1", FeatureFlags{}, testReportURL)

	assert.True(t, strings.HasPrefix(script, bootstrapBlock))
	assert.True(t, strings.HasSuffix(script, `initTracking("r1", "p1", "https://tracker.example.com");`+"\n"))
	assert.Contains(t, script, `reportBackURL + "/track"`)
	assert.Contains(t, script, "navigator.sendBeacon")
	assert.Contains(t, script, `localStorage, "deviceId"`)
	assert.Contains(t, script, `sessionStorage, "sessionId"`)
}

func TestSynthesize_NoFlagsHasNoInstrumentation(t *testing.T) {
	script := Synthesize("r1", "p1", FeatureFlags{}, testReportURL)

	for _, typ := range []string{EventPageLoad, EventPageClick, EventPageScroll} {
		assert.NotContains(t, script, `"`+typ+`"`)
	}
}

func TestSynthesize_EachFlagTogglesOnlyItsBlock(t *testing.T) {
	blocks := map[string]string{
		"pageLoads":   pageLoadBlock,
		"pageClicks":  pageClickBlock,
		"pageScrolls": pageScrollBlock,
	}
	set := func(f FeatureFlags, name string, v bool) FeatureFlags {
		switch name {
		case "pageLoads":
			f.PageLoads = v
		case "pageClicks":
			f.PageClicks = v
		case "pageScrolls":
			f.PageScrolls = v
		}
		return f
	}

	// Every combination of the other two flags.
	for name, block := range blocks {
		for mask := 0; mask < 8; mask++ {
			base := FeatureFlags{PageLoads: mask&1 != 0, PageClicks: mask&2 != 0, PageScrolls: mask&4 != 0}
			off := Synthesize("r1", "p1", set(base, name, false), testReportURL)
			on := Synthesize("r1", "p1", set(base, name, true), testReportURL)

			require.Equal(t, 1, strings.Count(on, block), name)
			assert.NotContains(t, off, block, name)
			assert.Equal(t, off, strings.Replace(on, block, "", 1), name)
		}
	}
}

func TestSynthesize_BlockOrder(t *testing.T) {
	script := Synthesize("r1", "p1", FeatureFlags{PageLoads: true, PageClicks: true, PageScrolls: true}, testReportURL)

	load := strings.Index(script, pageLoadBlock)
	click := strings.Index(script, pageClickBlock)
	scroll := strings.Index(script, pageScrollBlock)
	epilogue := strings.Index(script, "initTracking(\"r1\"")

	assert.True(t, load > 0 && load < click && click < scroll && scroll < epilogue)
}

func TestSynthesize_EventShapes(t *testing.T) {
	tests := []struct {
		block  string
		fields []string
	}{
		{pageLoadBlock, []string{`type: "pageLoad"`, "referrer: document.referrer", "title: document.title", "url: window.location.href", "timestamp: Date.now()"}},
		{pageClickBlock, []string{`type: "pageClick"`, "targetTag", "targetId", "targetHref", "targetClass", "x: e.clientX", "y: e.clientY", "passive: true"}},
		{pageScrollBlock, []string{`type: "pageScroll"`, "depth: percent", "passive: true", "}, 200)"}},
	}
	for _, tt := range tests {
		for _, f := range tt.fields {
			assert.Contains(t, tt.block, f)
		}
		for _, f := range []string{"realmId", "projectId", "deviceId", "sessionId"} {
			assert.Contains(t, tt.block, f)
		}
	}
}

func TestSynthesize_ScrollThresholds(t *testing.T) {
	assert.Contains(t, pageScrollBlock, "[25, 50, 75, 100]")

	// A threshold is remembered before it is reported so it cannot fire twice.
	push := strings.Index(pageScrollBlock, "alreadyTracked.push(percent)")
	report := strings.Index(pageScrollBlock, `reportBack({ type: "pageScroll"`)
	guard := strings.Index(pageScrollBlock, "!alreadyTracked.includes(percent)")
	assert.True(t, guard > 0 && guard < push && push < report)
}

func TestSynthesize_EscapesEmbeddedValues(t *testing.T) {
	script := Synthesize(`x"); alert(1); ("`, "</script><script>alert(2)</script>", FeatureFlags{}, "https://t.example.com/\u2028&")

	epilogue := script[strings.LastIndex(script, "initTracking("):]
	assert.Contains(t, epilogue, `"x\"); alert(1); (\""`)
	assert.NotContains(t, epilogue, "</script>")
	assert.Contains(t, epilogue, `\u003c/script\u003e`)
	assert.NotContains(t, epilogue, "\u2028")
	assert.Contains(t, epilogue, `\u2028\u0026`)

	// Exactly three string literal arguments.
	args := regexp.MustCompile(`^initTracking\(("(?:[^"\\]|\\.)*"), ("(?:[^"\\]|\\.)*"), ("(?:[^"\\]|\\.)*")\);\n$`)
	assert.Regexp(t, args, epilogue)
}

func TestJSMinifier(t *testing.T) {
	m := NewJSMinifier()
	src := Synthesize("r1", "p1", FeatureFlags{PageLoads: true}, testReportURL)

	out, err := m.Minify(src)
	require.NoError(t, err)

	assert.Less(t, len(out), len(src))
	assert.Contains(t, out, "pageLoad")
	assert.Contains(t, out, "initTracking(")
	assert.NotContains(t, out, "webpulse client v2")
}

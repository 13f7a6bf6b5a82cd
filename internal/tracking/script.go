package tracking

import (
	"encoding/json"
	"strings"
)

const bootstrapBlock = `/* webpulse client v2 */
function initTracking(realmId, projectId, reportBackURL) {
    function reportBack(data) {
        const url = reportBackURL + "/track";
        const payload = JSON.stringify(data);
        if (navigator.sendBeacon) {
            navigator.sendBeacon(url, payload);
            return;
        }
        fetch(url, { method: "POST", body: payload, keepalive: true }).catch(function () {});
    }

    function generateUUID() {
        if (self.crypto && typeof self.crypto.randomUUID === "function") {
            return self.crypto.randomUUID();
        }

        return ([1e7] + -1e3 + -4e3 + -8e3 + -1e11).replace(/[018]/g, function (c) {
            return (c ^ crypto.getRandomValues(new Uint8Array(1))[0] & 15 >> c / 4).toString(16);
        });
    }

    function storedId(storage, key) {
        let id = null;
        try {
            id = storage.getItem(key);
        } catch (e) {}
        if (!id) {
            id = generateUUID();
            try {
                storage.setItem(key, id);
            } catch (e) {}
        }
        return id;
    }

    const deviceId = storedId(localStorage, "deviceId");
    const sessionId = storedId(sessionStorage, "sessionId");
`

const pageLoadBlock = `
    reportBack({
        type: "pageLoad",
        payload: {
            type: "pageLoad",
            realmId,
            projectId,
            deviceId,
            sessionId,
            referrer: document.referrer,
            title: document.title,
            url: window.location.href,
            timestamp: Date.now(),
        },
    });
`

const pageClickBlock = `
    document.addEventListener("click", function (e) {
        const target = e.target || {};
        const payload = {
            type: "pageClick",
            realmId,
            projectId,
            deviceId,
            sessionId,
            url: window.location.href,
            targetTag: target.tagName,
            targetId: target.id,
            targetHref: target.href,
            targetClass: target.classList ? target.classList.value : "",
            x: e.clientX,
            y: e.clientY,
            timestamp: Date.now(),
        };

        reportBack({ type: "pageClick", payload });
    }, { passive: true });
`

const pageScrollBlock = `
    const trackedPercentages = [25, 50, 75, 100];
    const alreadyTracked = [];

    function throttle(func, delay) {
        let lastCall = 0;
        return function (...args) {
            const now = new Date().getTime();
            if (now - lastCall < delay) return;
            lastCall = now;
            return func(...args);
        };
    }

    document.addEventListener(
        "scroll",
        throttle(function () {
            const pageHeight = document.documentElement.scrollHeight - window.innerHeight;
            const scrollPercentage = pageHeight > 0 ? (window.scrollY / pageHeight) * 100 : 100;

            for (const percent of trackedPercentages) {
                if (scrollPercentage >= percent && !alreadyTracked.includes(percent)) {
                    alreadyTracked.push(percent);
                    const payload = {
                        type: "pageScroll",
                        realmId,
                        projectId,
                        deviceId,
                        sessionId,
                        url: window.location.href,
                        depth: percent,
                        timestamp: Date.now(),
                    };

                    reportBack({ type: "pageScroll", payload });
                }
            }
        }, 200),
        { passive: true },
    );
`

// Synthesize generates the client script for a project. It is a pure
// function of its arguments. The identifiers and URL are embedded as JSON
// string literals, never as raw source text.
func Synthesize(realmID, projectID string, flags FeatureFlags, reportURL string) string {
	return scriptBody(flags) + bootstrapCall(realmID, projectID, reportURL)
}

// scriptBody is the fixed part of the script selected by flags: the
// initTracking declaration with its instrumentation blocks.
func scriptBody(flags FeatureFlags) string {
	var b strings.Builder
	b.Grow(len(bootstrapBlock) + len(pageLoadBlock) + len(pageClickBlock) + len(pageScrollBlock) + 2)

	b.WriteString(bootstrapBlock)
	if flags.PageLoads {
		b.WriteString(pageLoadBlock)
	}
	if flags.PageClicks {
		b.WriteString(pageClickBlock)
	}
	if flags.PageScrolls {
		b.WriteString(pageScrollBlock)
	}
	b.WriteString("}\n")
	return b.String()
}

// bootstrapCall is the per-project invocation. It carries every
// project-specific value and must reach the client exactly as written.
func bootstrapCall(realmID, projectID, reportURL string) string {
	return "initTracking(" + jsString(realmID) + ", " + jsString(projectID) + ", " + jsString(reportURL) + ");\n"
}

// jsString encodes s as a double-quoted literal safe to place in script
// source. encoding/json escapes quotes, backslashes, control characters,
// <, >, & and U+2028/U+2029.
func jsString(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		// Marshal of a string cannot fail; keep the output well-formed anyway.
		return `""`
	}
	return string(out)
}

package tracking

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// Delivery serves the per-project client script.
type Delivery struct {
	resolver  Resolver
	allowlist *OriginAllowlist
	reportURL string
	minifier  Minifier
	log       zerolog.Logger

	// minified caches scriptBody output per FeatureFlags.
	minified sync.Map
}

// NewDelivery builds the script delivery handler. A nil minifier serves
// the synthesized text unchanged.
func NewDelivery(reportURL string, resolver Resolver, allowlist *OriginAllowlist, minifier Minifier, log zerolog.Logger) *Delivery {
	return &Delivery{
		resolver:  resolver,
		allowlist: allowlist,
		reportURL: reportURL,
		minifier:  minifier,
		log:       log,
	}
}

func (d *Delivery) Handle(ctx context.Context, req Request) (Outcome, error) {
	return d.Deliver(ctx, req.TrackID, req.Origin)
}

// Deliver resolves trackToken and returns the synthesized script. Unknown
// projects and rejected origins both produce an empty 403.
func (d *Delivery) Deliver(ctx context.Context, trackToken, origin string) (Outcome, error) {
	if !d.allowlist.IsAllowed(origin) {
		d.log.Debug().Str("origin", origin).Msg("client.js: origin rejected by allowlist")
		return forbidden(), nil
	}

	pc, err := d.resolver.Resolve(ctx, trackToken, origin)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			d.log.Debug().Str("token", trackToken).Str("origin", origin).Msg("client.js: project not resolved")
			return forbidden(), nil
		}
		return Outcome{}, err
	}

	script := d.body(pc.Project.Flags) + bootstrapCall(pc.Realm.ID, pc.Project.ID, d.reportURL)
	return Outcome{
		Status:      http.StatusOK,
		ContentType: scriptMediaType,
		Body:        []byte(script),
		Project:     pc.Token().String(),
	}, nil
}

// body returns the fixed script part for flags, minified when a minifier
// is configured. Only the fixed part is minified so the escaped literals in
// the bootstrap call are served exactly as encoded.
func (d *Delivery) body(flags FeatureFlags) string {
	if d.minifier == nil {
		return scriptBody(flags)
	}
	if cached, ok := d.minified.Load(flags); ok {
		return cached.(string)
	}

	plain := scriptBody(flags)
	minified, err := d.minifier.Minify(plain)
	if err != nil {
		d.log.Warn().Err(err).Msg("client.js: minify failed, serving unminified script")
		return plain
	}
	minified += "\n"
	d.minified.Store(flags, minified)
	return minified
}

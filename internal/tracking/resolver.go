package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ConfigStore looks up realm and project configuration. Implementations
// return ErrNotFound when either record is missing.
type ConfigStore interface {
	LookupProject(ctx context.Context, realmID, projectID string) (ProjectConfig, error)
}

// Resolver turns an untrusted token and request origin into a project
// configuration.
type Resolver interface {
	Resolve(ctx context.Context, token, origin string) (ProjectConfig, error)
}

// ProjectConfigResolver resolves tokens against a ConfigStore. It holds no
// mutable state and is safe for concurrent use.
type ProjectConfigResolver struct {
	store ConfigStore
}

func NewResolver(store ConfigStore) *ProjectConfigResolver {
	return &ProjectConfigResolver{store: store}
}

// Resolve returns ErrNotFound for malformed tokens, unknown projects and
// origins outside the project's allowed set. An empty origin skips the
// per-project origin check.
func (r *ProjectConfigResolver) Resolve(ctx context.Context, token, origin string) (ProjectConfig, error) {
	tt, err := ParseTrackToken(token)
	if err != nil {
		return ProjectConfig{}, err
	}

	pc, err := r.store.LookupProject(ctx, tt.RealmID, tt.ProjectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ProjectConfig{}, err
		}
		return ProjectConfig{}, fmt.Errorf("%w: lookup %s: %w", ErrUpstream, tt, err)
	}

	if origin != "" && len(pc.Project.AllowedOrigins) > 0 && !containsOrigin(pc.Project.AllowedOrigins, origin) {
		return ProjectConfig{}, fmt.Errorf("%w: %w", ErrNotFound, ErrOriginNotPermitted)
	}

	return pc, nil
}

func containsOrigin(allowed []string, origin string) bool {
	origin = normalizeOrigin(origin)
	for _, a := range allowed {
		if normalizeOrigin(a) == origin {
			return true
		}
	}
	return false
}

// normalizeOrigin lower-cases scheme and host and drops a trailing slash.
func normalizeOrigin(o string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
}

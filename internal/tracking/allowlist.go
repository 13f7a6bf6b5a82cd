package tracking

// OriginAllowlist is the coarse, process-wide Origin gate applied before
// any project lookup. It is only enforced in production mode.
type OriginAllowlist struct {
	enforce bool
	origins map[string]struct{}
}

func NewOriginAllowlist(enforce bool, origins []string) *OriginAllowlist {
	set := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if n := normalizeOrigin(o); n != "" {
			set[n] = struct{}{}
		}
	}
	return &OriginAllowlist{enforce: enforce, origins: set}
}

// IsAllowed reports whether origin may reach the tracking endpoints. An
// empty origin (no header) is rejected under enforcement.
func (a *OriginAllowlist) IsAllowed(origin string) bool {
	if !a.enforce {
		return true
	}
	n := normalizeOrigin(origin)
	if n == "" {
		return false
	}
	_, ok := a.origins[n]
	return ok
}

// Enforced reports whether the allowlist is active.
func (a *OriginAllowlist) Enforced() bool {
	return a.enforce
}

package tracking

import (
	"fmt"
	"strings"
)

// TrackToken is the composite <realmId>.<projectId> identifier handed to
// clients.
type TrackToken struct {
	RealmID   string
	ProjectID string
}

// ParseTrackToken splits s into its realm and project parts. Anything
// other than exactly two non-empty parts is ErrNotFound.
func ParseTrackToken(s string) (TrackToken, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TrackToken{}, fmt.Errorf("%w: invalid track token", ErrNotFound)
	}
	return TrackToken{RealmID: parts[0], ProjectID: parts[1]}, nil
}

func (t TrackToken) String() string {
	return t.RealmID + "." + t.ProjectID
}

package sink

import (
	"context"

	"github.com/rs/zerolog"

	"webpulse/internal/tracking"
)

// Fanout appends to a primary log and mirrors to secondary logs. Only the
// primary's error is returned; mirror failures are logged.
type Fanout struct {
	primary tracking.EventLog
	mirrors []tracking.EventLog
	log     zerolog.Logger
}

func NewFanout(primary tracking.EventLog, log zerolog.Logger, mirrors ...tracking.EventLog) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, log: log}
}

func (f *Fanout) AppendEvent(ctx context.Context, ev tracking.Event) error {
	if err := f.primary.AppendEvent(ctx, ev); err != nil {
		return err
	}
	for _, m := range f.mirrors {
		if err := m.AppendEvent(ctx, ev); err != nil {
			f.log.Warn().Err(err).
				Str("realm", ev.RealmID).
				Str("project", ev.ProjectID).
				Msg("event mirror append failed")
		}
	}
	return nil
}

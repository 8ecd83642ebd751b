// Package reaper owns the two cleanup duties that keep sandbox containers
// from outliving their sessions: a one-shot orphan sweep at boot and a
// periodic TTL scan that closes idle sessions, grounded on the
// predecessor's cleanup module.
package reaper

import (
	"context"
	"time"

	"github.com/opensandbox/codebroker/internal/engine"
	"github.com/opensandbox/codebroker/internal/obslog"
	"github.com/opensandbox/codebroker/internal/session"
)

// containerEngine is the subset of *engine.Client the reaper needs to list
// and remove orphaned containers left behind by a prior, unclean process
// exit.
type containerEngine interface {
	ListByLabel(ctx context.Context, key, value string) ([]engine.Handle, error)
	Remove(ctx context.Context, h engine.Handle) error
}

// sessionCloser is the subset of *session.Manager the TTL loop needs. It is
// declared here rather than imported from the session package directly so
// the reaper depends on a narrow contract instead of the whole manager.
type sessionCloser interface {
	LastAccessed() map[string]time.Time
	Close(ctx context.Context, sessionID string) (*session.Close, *session.Error)
}

// SweepOrphans force-removes every container labeled as a sandbox, for use
// once at process start before any session is created. A prior crash can
// leave containers running with no in-memory registry entry to track them;
// this is the only way to recover them.
func SweepOrphans(ctx context.Context, eng containerEngine) (int, error) {
	handles, err := eng.ListByLabel(ctx, engine.AppLabel, engine.AppLabelValue)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, h := range handles {
		if err := eng.Remove(ctx, h); err != nil {
			obslog.WithComponent("reaper").Warn().Err(err).Str("container", string(h)).
				Msg("orphan_remove_failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		obslog.WithComponent("reaper").Warn().Int("count", removed).Msg("orphans_removed")
	}
	return removed, nil
}

// TTL periodically closes sessions that have been idle past ttl. Run in its
// own goroutine; it returns when ctx is canceled.
type TTL struct {
	manager  sessionCloser
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewTTL builds a TTL reaper that checks every interval and expires
// sessions untouched for longer than ttl.
func NewTTL(manager sessionCloser, ttl, interval time.Duration) *TTL {
	return &TTL{manager: manager, ttl: ttl, interval: interval, now: time.Now}
}

var _ sessionCloser = (*session.Manager)(nil)

// Run blocks, sweeping idle sessions every interval until ctx is canceled.
func (t *TTL) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	log := obslog.WithComponent("reaper")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := t.expiredSessions()
			for _, id := range expired {
				if _, err := t.manager.Close(ctx, id); err != nil {
					// A busy session is retried on the next tick rather
					// than forced closed mid-execute.
					log.Debug().Str("session_id", id).Err(err).Msg("ttl_close_deferred")
					continue
				}
				log.Info().Str("session_id", id).Msg("ttl_session_closed")
			}
		}
	}
}

// expiredSessions returns the ids of sessions whose last access predates
// now-ttl. Using a monotonic-safe now() (time.Time.Sub, never wall-clock
// subtraction) keeps this correct across system clock adjustments.
func (t *TTL) expiredSessions() []string {
	cutoff := t.now()
	var expired []string
	for id, lastAccess := range t.manager.LastAccessed() {
		if cutoff.Sub(lastAccess) >= t.ttl {
			expired = append(expired, id)
		}
	}
	return expired
}

package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/opensandbox/codebroker/internal/engine"
	"github.com/opensandbox/codebroker/internal/session"
)

type fakeEngine struct {
	handles     []engine.Handle
	removed     []engine.Handle
	removeError map[engine.Handle]error
}

func (f *fakeEngine) ListByLabel(ctx context.Context, key, value string) ([]engine.Handle, error) {
	return f.handles, nil
}

func (f *fakeEngine) Remove(ctx context.Context, h engine.Handle) error {
	if err := f.removeError[h]; err != nil {
		return err
	}
	f.removed = append(f.removed, h)
	return nil
}

func TestSweepOrphans_RemovesAll(t *testing.T) {
	eng := &fakeEngine{handles: []engine.Handle{"a", "b", "c"}}
	n, err := SweepOrphans(context.Background(), eng)
	if err != nil {
		t.Fatalf("SweepOrphans() error: %v", err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	if len(eng.removed) != 3 {
		t.Errorf("engine.removed = %v, want 3 entries", eng.removed)
	}
}

func TestSweepOrphans_NoneFound(t *testing.T) {
	eng := &fakeEngine{}
	n, err := SweepOrphans(context.Background(), eng)
	if err != nil {
		t.Fatalf("SweepOrphans() error: %v", err)
	}
	if n != 0 {
		t.Errorf("removed = %d, want 0", n)
	}
}

func TestSweepOrphans_PartialFailureContinues(t *testing.T) {
	eng := &fakeEngine{
		handles:     []engine.Handle{"a", "b"},
		removeError: map[engine.Handle]error{"a": errBoom},
	}
	n, err := SweepOrphans(context.Background(), eng)
	if err != nil {
		t.Fatalf("SweepOrphans() error: %v", err)
	}
	if n != 1 {
		t.Errorf("removed = %d, want 1 (one failure tolerated)", n)
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

type fakeCloser struct {
	lastAccess map[string]time.Time
	closed     []string
	busy       map[string]bool
}

func (f *fakeCloser) LastAccessed() map[string]time.Time { return f.lastAccess }

func (f *fakeCloser) Close(ctx context.Context, sessionID string) (*session.Close, *session.Error) {
	if f.busy[sessionID] {
		return nil, &session.Error{Kind: session.KindSessionBusy, Message: "busy"}
	}
	f.closed = append(f.closed, sessionID)
	return &session.Close{Status: "closed"}, nil
}

func TestTTL_ExpiresOnlyIdleSessions(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	closer := &fakeCloser{
		lastAccess: map[string]time.Time{
			"idle":  fixedNow.Add(-45 * time.Minute),
			"fresh": fixedNow.Add(-5 * time.Minute),
		},
		busy: map[string]bool{},
	}

	ttl := NewTTL(closer, 30*time.Minute, time.Minute)
	ttl.now = func() time.Time { return fixedNow }

	expired := ttl.expiredSessions()
	if len(expired) != 1 || expired[0] != "idle" {
		t.Errorf("expiredSessions() = %v, want [idle]", expired)
	}
}

func TestTTL_BusySessionLeftForNextTick(t *testing.T) {
	fixedNow := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	closer := &fakeCloser{
		lastAccess: map[string]time.Time{"busy-session": fixedNow.Add(-time.Hour)},
		busy:       map[string]bool{"busy-session": true},
	}

	ttl := NewTTL(closer, 30*time.Minute, 2*time.Millisecond)
	ttl.now = func() time.Time { return fixedNow }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ttl.Run(ctx)
		close(done)
	}()

	// Allow a few ticks to fire, then stop the loop.
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if len(closer.closed) != 0 {
		t.Errorf("expected busy session to remain open, closed = %v", closer.closed)
	}
}

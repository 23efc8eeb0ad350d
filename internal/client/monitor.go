package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCheckInterval matches the browser app's polling cadence.
const DefaultCheckInterval = 15 * time.Second

// checkTimeout bounds one liveness round trip.  A check that cannot
// finish in this window is treated as inconclusive, not as a logout.
const checkTimeout = 5 * time.Second

// Monitor keeps the client's "signed in" state consistent with
// server-side revocation.  It re-validates the held session on a fixed
// interval and on every Poke (the analog of the browser's visibility and
// navigation events), and collapses overlapping triggers into a single
// in-flight check: three near-simultaneous triggers cost one network
// call, and all three observe its result.
//
// Only a confirmed ErrSessionInvalid verdict forces a logout.  Transport
// failures and timeouts leave the session alone; the next tick retries.
type Monitor struct {
	client   *Client
	interval time.Duration
	onLogout func(reason string)

	group singleflight.Group

	mu       sync.Mutex
	loggedIn bool

	pokes chan struct{}
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithInterval overrides the polling interval.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.interval = d }
}

// WithLogoutHandler sets the callback invoked exactly once per forced
// logout, after local state has been purged.  The reason string is a flag
// for the UI ("session-expired"), never a server error message.
func WithLogoutHandler(fn func(reason string)) MonitorOption {
	return func(m *Monitor) { m.onLogout = fn }
}

// NewMonitor builds a Monitor for the client.  The monitor starts in the
// state implied by the token store.
func NewMonitor(c *Client, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		client:   c,
		interval: DefaultCheckInterval,
		onLogout: func(string) {},
		pokes:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	_, _, m.loggedIn = c.Store().Load()
	return m
}

// SetLoggedIn transitions the monitor after a successful sign-in or an
// explicit sign-out.
func (m *Monitor) SetLoggedIn(v bool) {
	m.mu.Lock()
	m.loggedIn = v
	m.mu.Unlock()
}

// LoggedIn reports the current state.
func (m *Monitor) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loggedIn
}

// Poke requests an opportunistic check, the way the browser re-validates
// when a tab becomes visible or a route changes.  It never blocks; if a
// check is already pending the trigger is absorbed.
func (m *Monitor) Poke() {
	select {
	case m.pokes <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled.  It is safe to call Check and Poke
// concurrently with Run.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		case <-m.pokes:
			m.Check(ctx)
		}
	}
}

// Check runs one liveness check, sharing any check already in flight.
// The returned error mirrors Client.SessionCheck: nil for active,
// ErrSessionInvalid for a confirmed revocation, anything else
// inconclusive.
func (m *Monitor) Check(ctx context.Context) error {
	if !m.LoggedIn() {
		return ErrNotSignedIn
	}

	// All concurrent callers funnel into one request.  The key is
	// constant: there is only ever one session to validate.
	_, err, _ := m.group.Do("session-check", func() (any, error) {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		return nil, m.client.SessionCheck(cctx)
	})

	if errors.Is(err, ErrSessionInvalid) {
		m.forceLogout()
		return err
	}
	return err
}

// Observe feeds the outcome of a protected request back into the
// monitor.  Protected calls already pass through the full server-side
// session check, so their verdict is as authoritative as a dedicated
// poll; a confirmed ErrSessionInvalid forces the logout, anything else
// is ignored.
func (m *Monitor) Observe(err error) {
	if errors.Is(err, ErrSessionInvalid) {
		m.forceLogout()
	}
}

// forceLogout purges local state and fires the callback once.  A check
// that settles after the user already signed out is a no-op, which keeps
// a late result from bouncing the UI back to the sign-in page twice.
func (m *Monitor) forceLogout() {
	m.mu.Lock()
	wasLoggedIn := m.loggedIn
	m.loggedIn = false
	m.mu.Unlock()

	if !wasLoggedIn {
		return
	}
	m.client.Store().Clear()
	m.onLogout("session-expired")
}

// Package connectivity observes network reachability and emits debounced
// online/offline transitions.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Prober answers a single reachability question. Implementations should be
// cheap and bounded; the monitor calls them on every poll tick.
type Prober interface {
	Probe(ctx context.Context) bool
}

// HTTPProber probes reachability with a HEAD request against a base URL,
// typically the sync server itself. Any HTTP response counts as reachable;
// only transport errors mean offline.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

// NewHTTPProber creates a prober with a short per-probe timeout.
func NewHTTPProber(url string) *HTTPProber {
	return &HTTPProber{
		URL:    url,
		Client: &http.Client{Timeout: 3 * time.Second},
	}
}

// Probe reports whether the target URL currently answers at all.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Config tunes the monitor's polling behavior.
type Config struct {
	// Interval between probes. Defaults to 5s.
	Interval time.Duration

	// Threshold is how many consecutive probes must disagree with the
	// current state before it flips. This debounces flapping links.
	// Defaults to 2.
	Threshold int
}

// Monitor polls a Prober and tracks the device's online state. Callbacks
// registered with OnChange fire at most once per genuine transition: while
// the state stays online, repeated online probes emit nothing.
type Monitor struct {
	prober    Prober
	interval  time.Duration
	threshold int
	log       *slog.Logger

	mu        sync.Mutex
	online    bool
	streak    int
	callbacks []func(online bool)

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a monitor. The initial state is offline until the
// first probes say otherwise, so a fresh start behaves like a reconnect.
func NewMonitor(p Prober, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 2
	}
	return &Monitor{
		prober:    p,
		interval:  cfg.Interval,
		threshold: cfg.Threshold,
		log:       slog.Default(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Online returns the current debounced state (synchronous snapshot).
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnChange registers a callback invoked on every genuine state transition.
// Callbacks run on the monitor's polling goroutine and should hand off
// long work (like triggering a sync cycle) to their own goroutine.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Start launches the polling loop. Stop terminates it.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		// Seed the state promptly instead of waiting a full interval.
		m.Check(ctx)
		for {
			select {
			case <-ticker.C:
				m.Check(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the polling loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

// Check performs one probe and applies the debounce rule. It is exposed so
// tests (and manual refresh paths) can drive the monitor without a ticker.
func (m *Monitor) Check(ctx context.Context) {
	observed := m.prober.Probe(ctx)

	m.mu.Lock()
	if observed == m.online {
		m.streak = 0
		m.mu.Unlock()
		return
	}

	m.streak++
	if m.streak < m.threshold {
		m.mu.Unlock()
		return
	}

	m.online = observed
	m.streak = 0
	fns := make([]func(bool), len(m.callbacks))
	copy(fns, m.callbacks)
	m.mu.Unlock()

	if observed {
		m.log.Info("connectivity restored")
	} else {
		m.log.Info("connectivity lost")
	}
	for _, fn := range fns {
		fn(observed)
	}
}

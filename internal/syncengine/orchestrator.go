package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voyago/tripsync/internal/credentials"
	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/metrics"
	"github.com/voyago/tripsync/internal/status"
	"github.com/voyago/tripsync/internal/storage"
	"github.com/voyago/tripsync/internal/storage/retry"
)

// ErrNetworkUnavailable suppresses a cycle start while offline. The cycle
// resumes on the next online transition; this is an expected condition,
// not a failure surfaced to the status bus.
var ErrNetworkUnavailable = errors.New("network unavailable")

// Connectivity is the synchronous reachability snapshot the orchestrator
// consults before starting a cycle.
type Connectivity interface {
	Online() bool
}

// Orchestrator drives sync cycles across all entity types in dependency
// order. At most one cycle is active at a time: triggers that arrive while
// Syncing are dropped, not queued. Construct it once at the composition
// root and share the instance; it owns no background goroutines itself.
type Orchestrator struct {
	store    storage.Store
	runner   *retry.Runner
	creds    credentials.Provider
	conn     Connectivity
	bus      *status.Bus
	m        *metrics.SyncMetrics
	log      *slog.Logger
	policies []Policy

	mu      sync.Mutex
	syncing bool
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(
	st storage.Store,
	runner *retry.Runner,
	gw gateway.Gateway,
	creds credentials.Provider,
	conn Connectivity,
	bus *status.Bus,
	m *metrics.SyncMetrics,
) *Orchestrator {
	log := slog.Default()
	return &Orchestrator{
		store:    st,
		runner:   runner,
		creds:    creds,
		conn:     conn,
		bus:      bus,
		m:        m,
		log:      log,
		policies: buildPolicies(st, runner, gw, m, log),
	}
}

// TriggerSync runs one full push-then-pull cycle. It is invoked on
// offline→online transitions, by the manual "sync now" surface, and once
// at session start.
//
// Preconditions: a usable credential (otherwise ErrNotAuthenticated wraps
// out and no work happens) and current connectivity (otherwise
// ErrNetworkUnavailable). A trigger while a cycle is active returns nil
// without publishing anything.
func (o *Orchestrator) TriggerSync(ctx context.Context) error {
	if _, err := o.creds.Token(ctx); err != nil {
		return fmt.Errorf("sync refused: %w", err)
	}
	if !o.conn.Online() {
		return ErrNetworkUnavailable
	}

	o.mu.Lock()
	if o.syncing {
		o.mu.Unlock()
		o.m.CyclesDropped.Inc()
		o.log.Debug("sync already in progress, trigger dropped")
		return nil
	}
	o.syncing = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.syncing = false
		o.mu.Unlock()
		o.m.Syncing.Set(0)
	}()

	o.m.CyclesStarted.Inc()
	o.m.Syncing.Set(1)
	o.bus.Publish(status.Event{Kind: status.KindStarted})
	o.log.Info("sync cycle started", "entity_types", len(o.policies))
	start := time.Now()

	total := len(o.policies)
	for i, p := range o.policies {
		if err := p.Push(ctx); err != nil {
			return o.fail(fmt.Errorf("push %s: %w", p.Entity(), err))
		}
		if err := p.Pull(ctx); err != nil {
			return o.fail(fmt.Errorf("pull %s: %w", p.Entity(), err))
		}
		o.bus.Publish(status.Event{
			Kind:    status.KindProgress,
			Current: i + 1,
			Total:   total,
			Entity:  string(p.Entity()),
		})
	}

	now := time.Now().Unix()
	err := o.runner.Execute(ctx, func(ctx context.Context) error {
		return o.store.SetLastSync(ctx, now)
	})
	if err != nil {
		return o.fail(fmt.Errorf("record last sync: %w", err))
	}

	o.m.CyclesCompleted.Inc()
	o.m.LastSync.Set(float64(now))
	o.bus.Publish(status.Event{Kind: status.KindCompleted})
	o.log.Info("sync cycle completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// fail publishes the cycle failure and passes the error through. Entity
// types already processed keep their progress; only the remainder of this
// cycle is abandoned.
func (o *Orchestrator) fail(err error) error {
	o.m.CyclesFailed.Inc()
	o.log.Error("sync cycle failed", "error", err)
	o.bus.Publish(status.Event{
		Kind:      status.KindFailed,
		Message:   err.Error(),
		Retryable: true,
	})
	return err
}

// EngineStatus is the control-surface snapshot exposed to the UI layer.
type EngineStatus struct {
	IsOnline  bool  `json:"is_online"`
	IsSyncing bool  `json:"is_syncing"`
	LastSync  int64 `json:"last_sync"`
}

// Status reports the current engine state. The last-sync read degrades to
// zero when storage is unavailable.
func (o *Orchestrator) Status(ctx context.Context) EngineStatus {
	o.mu.Lock()
	syncing := o.syncing
	o.mu.Unlock()

	var last int64
	err := o.runner.Execute(ctx, func(ctx context.Context) error {
		ts, err := o.store.LastSync(ctx)
		if err != nil {
			return err
		}
		last = ts
		return nil
	})
	if err != nil {
		last = 0
	}

	return EngineStatus{
		IsOnline:  o.conn.Online(),
		IsSyncing: syncing,
		LastSync:  last,
	}
}

package syncengine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/voyago/tripsync/internal/credentials"
	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/metrics"
	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/status"
	"github.com/voyago/tripsync/internal/storage/retry"
	"github.com/voyago/tripsync/internal/storage/sqlite"
)

// fakeConn is a settable connectivity snapshot.
type fakeConn struct {
	mu     sync.Mutex
	online bool
}

func (c *fakeConn) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *fakeConn) set(online bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.online = online
}

// fixture wires an orchestrator against a real SQLite store and the fake
// gateway.
type fixture struct {
	store  *sqlite.SQLiteStore
	runner *retry.Runner
	gw     *fakeGateway
	creds  *credentials.BearerSource
	conn   *fakeConn
	bus    *status.Bus
	m      *metrics.SyncMetrics
	engine *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tripsync-engine-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "engine.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:  store,
		runner: retry.New(store.Ready(), retry.Config{Attempts: 1, Delay: time.Millisecond}),
		gw:     newFakeGateway(),
		creds:  credentials.NewBearerSource("test-token"),
		conn:   &fakeConn{online: true},
		bus:    status.NewBus(),
		m:      metrics.New(prometheus.NewRegistry()),
	}
	f.engine = NewOrchestrator(f.store, f.runner, f.gw, f.creds, f.conn, f.bus, f.m)
	return f
}

func (f *fixture) addTrip(t *testing.T, name string) *models.Trip {
	t.Helper()
	trip := &models.Trip{Name: name, Currency: "EUR"}
	if err := f.store.CreateTrip(context.Background(), trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return trip
}

func TestTriggerSync(t *testing.T) {
	ctx := context.Background()

	t.Run("pushes pending records in dependency order", func(t *testing.T) {
		f := newFixture(t)
		trip := f.addTrip(t, "Lisbon")
		member := &models.Participant{TripID: trip.LocalID, Name: "Alice", Role: models.RoleOrganizer}
		if err := f.store.CreateParticipant(ctx, member); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("TriggerSync failed: %v", err)
		}

		tripSID, err := f.store.ServerID(ctx, models.EntityTrip, trip.LocalID)
		if err != nil || tripSID == "" {
			t.Fatalf("Expected trip server id, got %q, %v", tripSID, err)
		}
		memberSID, err := f.store.ServerID(ctx, models.EntityParticipant, member.LocalID)
		if err != nil || memberSID == "" {
			t.Fatalf("Expected participant server id, got %q, %v", memberSID, err)
		}

		// The participant must have been parented by the trip's server id,
		// which requires trips to push first within the same cycle.
		remote := f.gw.participants[tripSID]
		if len(remote) != 1 || remote[0].Name != "Alice" {
			t.Errorf("Unexpected remote participants: %+v", remote)
		}
	})

	t.Run("pulls remote records into the mirror", func(t *testing.T) {
		f := newFixture(t)
		f.gw.trips = []gateway.Trip{{ID: "srv-t1", Name: "Rome", Currency: "EUR"}}
		f.gw.participants["srv-t1"] = []gateway.Participant{
			{ID: "srv-p1", TripID: "srv-t1", Name: "Bob", Role: models.RoleMember},
		}

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("TriggerSync failed: %v", err)
		}

		trips, err := f.store.ListTrips(ctx)
		if err != nil {
			t.Fatalf("ListTrips failed: %v", err)
		}
		if len(trips) != 1 {
			t.Fatalf("Expected 1 mirrored trip, got %d", len(trips))
		}
		if !trips[0].Synced() || trips[0].ServerID != "srv-t1" {
			t.Errorf("Pulled trip not marked synced: %+v", trips[0].SyncMeta)
		}

		members, err := f.store.ListParticipantsByTrip(ctx, trips[0].LocalID)
		if err != nil {
			t.Fatalf("ListParticipantsByTrip failed: %v", err)
		}
		if len(members) != 1 || members[0].Name != "Bob" {
			t.Fatalf("Unexpected mirrored participants: %+v", members)
		}
		// The foreign key must be the local trip id, not the server id.
		if members[0].TripID != trips[0].LocalID {
			t.Errorf("Participant TripID = %s, want local id %s", members[0].TripID, trips[0].LocalID)
		}
	})

	t.Run("cycles are idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.addTrip(t, "Berlin")

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("First TriggerSync failed: %v", err)
		}
		callsAfterFirst := f.gw.calls()

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("Second TriggerSync failed: %v", err)
		}

		if f.gw.calls() != callsAfterFirst {
			t.Errorf("Second cycle made %d extra create calls", f.gw.calls()-callsAfterFirst)
		}
		trips, err := f.store.ListTrips(ctx)
		if err != nil {
			t.Fatalf("ListTrips failed: %v", err)
		}
		if len(trips) != 1 {
			t.Errorf("Expected 1 trip after two cycles, got %d", len(trips))
		}
	})

	t.Run("per-record rejection does not abort the cycle", func(t *testing.T) {
		f := newFixture(t)
		f.gw.rejectTrip = func(tr gateway.Trip) bool { return tr.Name == "Rejected" }
		rejected := f.addTrip(t, "Rejected")
		accepted := f.addTrip(t, "Accepted")

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("TriggerSync failed: %v", err)
		}

		sid, err := f.store.ServerID(ctx, models.EntityTrip, accepted.LocalID)
		if err != nil || sid == "" {
			t.Errorf("Expected accepted trip to be synced, got %q, %v", sid, err)
		}
		sid, err = f.store.ServerID(ctx, models.EntityTrip, rejected.LocalID)
		if err != nil || sid != "" {
			t.Errorf("Expected rejected trip to stay pending, got %q, %v", sid, err)
		}
		if got := testutil.ToFloat64(f.m.PushFailures.WithLabelValues("trip")); got != 1 {
			t.Errorf("PushFailures = %v, want 1", got)
		}
		if got := testutil.ToFloat64(f.m.CyclesCompleted); got != 1 {
			t.Errorf("CyclesCompleted = %v, want 1", got)
		}
	})

	t.Run("children wait for their parent's server id", func(t *testing.T) {
		f := newFixture(t)
		f.gw.rejectTrip = func(gateway.Trip) bool { return true }
		trip := f.addTrip(t, "Gated")
		member := &models.Participant{TripID: trip.LocalID, Name: "Carol"}
		if err := f.store.CreateParticipant(ctx, member); err != nil {
			t.Fatalf("CreateParticipant failed: %v", err)
		}

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("TriggerSync failed: %v", err)
		}
		if len(f.gw.participants) != 0 {
			t.Error("Participant must not be pushed before its trip has a server id")
		}

		// Server recovers; the next cycle pushes parent then child.
		f.gw.rejectTrip = nil
		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("Second TriggerSync failed: %v", err)
		}
		sid, err := f.store.ServerID(ctx, models.EntityParticipant, member.LocalID)
		if err != nil || sid == "" {
			t.Errorf("Expected participant synced on second cycle, got %q, %v", sid, err)
		}
	})

	t.Run("refuses without a credential", func(t *testing.T) {
		f := newFixture(t)
		f.creds.Set("")
		f.addTrip(t, "Unauthenticated")

		err := f.engine.TriggerSync(ctx)
		if !errors.Is(err, credentials.ErrNotAuthenticated) {
			t.Fatalf("Expected ErrNotAuthenticated, got %v", err)
		}
		if f.gw.calls() != 0 {
			t.Error("No gateway calls expected without a credential")
		}
	})

	t.Run("refuses while offline", func(t *testing.T) {
		f := newFixture(t)
		f.conn.set(false)

		if err := f.engine.TriggerSync(ctx); !errors.Is(err, ErrNetworkUnavailable) {
			t.Fatalf("Expected ErrNetworkUnavailable, got %v", err)
		}
	})

	t.Run("concurrent trigger is dropped", func(t *testing.T) {
		f := newFixture(t)
		f.gw.blockList = make(chan struct{})
		f.gw.listStarted = make(chan struct{})

		done := make(chan error, 1)
		go func() { done <- f.engine.TriggerSync(ctx) }()
		<-f.gw.listStarted

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Errorf("Dropped trigger should return nil, got %v", err)
		}
		if got := testutil.ToFloat64(f.m.CyclesDropped); got != 1 {
			t.Errorf("CyclesDropped = %v, want 1", got)
		}

		close(f.gw.blockList)
		if err := <-done; err != nil {
			t.Fatalf("Blocked cycle failed: %v", err)
		}
	})

	t.Run("publishes lifecycle events and records last sync", func(t *testing.T) {
		f := newFixture(t)
		var mu sync.Mutex
		var events []status.Event
		f.bus.Subscribe(func(e status.Event) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		})

		if err := f.engine.TriggerSync(ctx); err != nil {
			t.Fatalf("TriggerSync failed: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if len(events) != 2+len(models.SyncOrder) {
			t.Fatalf("Expected %d events, got %d: %+v", 2+len(models.SyncOrder), len(events), events)
		}
		if events[0].Kind != status.KindStarted {
			t.Errorf("First event = %s, want started", events[0].Kind)
		}
		if last := events[len(events)-1]; last.Kind != status.KindCompleted {
			t.Errorf("Last event = %s, want completed", last.Kind)
		}
		progress := events[1 : len(events)-1]
		for i, e := range progress {
			if e.Kind != status.KindProgress || e.Current != i+1 || e.Total != len(models.SyncOrder) {
				t.Errorf("Progress event %d = %+v", i, e)
			}
		}

		st := f.engine.Status(ctx)
		if st.LastSync == 0 {
			t.Error("Expected LastSync to be recorded")
		}
		if !st.IsOnline || st.IsSyncing {
			t.Errorf("Unexpected status: %+v", st)
		}
	})
}

// Command syncd runs the offline-first sync engine as a local daemon. It
// mirrors the remote trip-planning server into a SQLite database and
// exposes a small HTTP control surface: /status, /sync, and /metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/voyago/tripsync/internal/config"
	"github.com/voyago/tripsync/internal/connectivity"
	"github.com/voyago/tripsync/internal/credentials"
	"github.com/voyago/tripsync/internal/gateway/rest"
	"github.com/voyago/tripsync/internal/metrics"
	"github.com/voyago/tripsync/internal/middleware"
	"github.com/voyago/tripsync/internal/status"
	"github.com/voyago/tripsync/internal/storage/retry"
	"github.com/voyago/tripsync/internal/storage/sqlite"
	"github.com/voyago/tripsync/internal/syncengine"
	"github.com/voyago/tripsync/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	runner := retry.New(store.Ready(), retry.Config{})
	creds := credentials.NewBearerSource(cfg.AuthToken)
	gw := rest.New(cfg.ServerURL, creds)
	bus := status.NewBus()
	m := metrics.New(prometheus.DefaultRegisterer)

	monitor := connectivity.NewMonitor(connectivity.NewHTTPProber(cfg.ServerURL), connectivity.Config{
		Interval:  cfg.ProbeInterval,
		Threshold: cfg.ProbeThreshold,
	})

	engine := syncengine.NewOrchestrator(store, runner, gw, creds, monitor, bus, m)

	// Reconnects trigger a cycle; the callback runs on the monitor's
	// polling goroutine, so the cycle moves to its own.
	monitor.OnChange(func(online bool) {
		if online {
			bus.Publish(status.Event{Kind: status.KindOnline})
			go triggerSync(ctx, engine)
		} else {
			bus.Publish(status.Event{Kind: status.KindOffline})
		}
	})
	monitor.Start(ctx)
	defer monitor.Stop()

	// Session-start sync; a cold offline start just waits for the monitor.
	go triggerSync(ctx, engine)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(engine.Status(r.Context()))
	})
	mux.HandleFunc("POST /sync", func(w http.ResponseWriter, r *http.Request) {
		go triggerSync(ctx, engine)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("PUT /token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		creds.Set(body.Token)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := h2c.NewHandler(middleware.Logging(mux), &http2.Server{})
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down")
		srv.Shutdown(context.Background())
	}()

	slog.Info("Control server starting", "address", cfg.ListenAddr, "server", cfg.ServerURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// triggerSync runs one cycle and logs expected refusals at debug level.
func triggerSync(ctx context.Context, engine *syncengine.Orchestrator) {
	err := engine.TriggerSync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, syncengine.ErrNetworkUnavailable):
		slog.Debug("Sync skipped, offline")
	case errors.Is(err, credentials.ErrNotAuthenticated):
		slog.Debug("Sync skipped, not authenticated")
	default:
		slog.Warn("Sync failed", "error", err)
	}
}

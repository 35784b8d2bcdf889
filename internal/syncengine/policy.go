// Package syncengine drives push/pull reconciliation between the local
// store and the remote gateway.
package syncengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/metrics"
	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
	"github.com/voyago/tripsync/internal/storage/retry"
)

// Policy is one entity type's behavior within a sync cycle. The
// orchestrator runs Push then Pull for each policy in dependency order.
type Policy interface {
	Entity() models.EntityType
	Push(ctx context.Context) error
	Pull(ctx context.Context) error
}

// policy implements Policy once, generically, over a local model L and its
// wire form R. The per-entity differences (queries, field mappers,
// gateway calls) are injected as closures by buildPolicies, instead of
// hand-writing seven near-identical sync functions.
type policy[L any, R any] struct {
	entity       models.EntityType
	parentEntity models.EntityType // zero for root entities (trips)
	store        storage.Store
	runner       *retry.Runner
	m            *metrics.SyncMetrics
	log          *slog.Logger

	// Push side.
	pending     func(ctx context.Context) ([]L, error)
	localID     func(L) string
	parentLocal func(L) string
	toRemote    func(ctx context.Context, row L, parentServerID string) (R, error)
	create      func(ctx context.Context, r R) gateway.CreateResult

	// Pull side.
	parents    func(ctx context.Context) ([]string, error)
	list       func(ctx context.Context, parentServerID string) ([]R, gateway.Status)
	remoteID   func(R) string
	fromRemote func(ctx context.Context, r R, parentServerID string) (L, error)
	insert     func(ctx context.Context, row *L) error
}

func (p *policy[L, R]) Entity() models.EntityType { return p.entity }

// Push sends every eligible pending row to the server. Records whose
// parent has no server id yet are skipped and stay pending for a future
// cycle. Per-record rejections are absorbed: the row stays unsynced and
// the loop continues with its siblings. Only storage faults abort.
func (p *policy[L, R]) Push(ctx context.Context) error {
	rows, err := runValue(ctx, p.runner, p.pending)
	if err != nil {
		return fmt.Errorf("list pending %s rows: %w", p.entity, err)
	}

	for _, row := range rows {
		parentServerID := ""
		if p.parentEntity != "" {
			sid, err := p.store.ServerID(ctx, p.parentEntity, p.parentLocal(row))
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					p.log.Warn("pending record references missing parent, skipping",
						"entity", string(p.entity), "local_id", p.localID(row))
					continue
				}
				return fmt.Errorf("resolve %s parent: %w", p.entity, err)
			}
			if sid == "" {
				// Parent not pushed yet; the child stays pending.
				continue
			}
			parentServerID = sid
		}

		remote, err := p.toRemote(ctx, row, parentServerID)
		if err != nil {
			p.log.Warn("cannot map record for push, skipping",
				"entity", string(p.entity), "local_id", p.localID(row), "error", err)
			p.m.PushFailures.WithLabelValues(string(p.entity)).Inc()
			continue
		}

		res := p.create(ctx, remote)
		if !res.OK {
			p.log.Warn("push rejected, record stays pending",
				"entity", string(p.entity), "local_id", p.localID(row), "error", res.Err)
			p.m.PushFailures.WithLabelValues(string(p.entity)).Inc()
			continue
		}

		localID := p.localID(row)
		err = p.runner.Execute(ctx, func(ctx context.Context) error {
			return p.store.MarkSynced(ctx, p.entity, localID, res.ServerID)
		})
		if err != nil {
			return fmt.Errorf("mark %s %s synced: %w", p.entity, localID, err)
		}
		p.m.RecordsPushed.WithLabelValues(string(p.entity)).Inc()
		p.log.Debug("record pushed",
			"entity", string(p.entity), "local_id", localID, "server_id", res.ServerID)
	}
	return nil
}

// Pull lists the remote collection under every known parent and inserts
// rows for server ids not seen locally. Existing rows are left untouched:
// dedupe is first-write-wins, the local copy stays authoritative until
// pushed. A failed list aborts the cycle; it is a phase-level fault.
func (p *policy[L, R]) Pull(ctx context.Context) error {
	parentIDs, err := runValue(ctx, p.runner, p.parents)
	if err != nil {
		return fmt.Errorf("enumerate %s parents: %w", p.entity, err)
	}

	for _, parentServerID := range parentIDs {
		records, st := p.list(ctx, parentServerID)
		if !st.OK {
			return fmt.Errorf("list remote %s records: %s", p.entity, st.Err)
		}

		for _, r := range records {
			rid := p.remoteID(r)
			if rid == "" {
				p.log.Warn("remote record without id, skipping", "entity", string(p.entity))
				continue
			}

			_, err := p.store.LocalIDByServerID(ctx, p.entity, rid)
			if err == nil {
				continue // already mirrored
			}
			if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("dedupe %s by server id: %w", p.entity, err)
			}

			row, err := p.fromRemote(ctx, r, parentServerID)
			if err != nil {
				p.log.Warn("cannot map remote record, skipping",
					"entity", string(p.entity), "server_id", rid, "error", err)
				continue
			}
			err = p.runner.Execute(ctx, func(ctx context.Context) error {
				return p.insert(ctx, &row)
			})
			if err != nil {
				return fmt.Errorf("insert pulled %s %s: %w", p.entity, rid, err)
			}
			p.m.RecordsPulled.WithLabelValues(string(p.entity)).Inc()
			p.log.Debug("record pulled", "entity", string(p.entity), "server_id", rid)
		}
	}
	return nil
}

// runValue adapts a value-returning store call to the retry runner.
func runValue[T any](ctx context.Context, r *retry.Runner, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

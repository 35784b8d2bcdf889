package syncengine

import (
	"context"
	"log/slog"

	"github.com/voyago/tripsync/internal/gateway"
	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
	"github.com/voyago/tripsync/internal/storage/retry"
)

// Syncable constrains a pointer to any mirrored entity.
type Syncable[L any] interface {
	*L
	Meta() *models.SyncMeta
}

// Creator implements the write-through creation protocol shared by every
// "create X" operation:
//
//  1. Write the entity locally first, unsynced, with a fresh local id.
//  2. If online, make exactly one synchronous gateway attempt and mark
//     the row synced in place when it succeeds.
//  3. Return the local record either way; callers never wait on the
//     network beyond that single attempt. A skipped or failed attempt
//     leaves the row pending for the next sync cycle's push phase.
//
// The per-entity differences (insert, parent lookup, field mapping) are
// closures provided by the New*Creator constructors; the protocol itself
// exists once.
type Creator[L any, PL Syncable[L], R any] struct {
	entity       models.EntityType
	parentEntity models.EntityType
	store        storage.Store
	runner       *retry.Runner
	online       func() bool
	log          *slog.Logger

	parentLocal func(L) string
	toRemote    func(ctx context.Context, row L, parentServerID string) (R, error)
	create      func(ctx context.Context, r R) gateway.CreateResult
	insert      func(ctx context.Context, row PL) error
}

// Create runs the protocol for one record. The only error it returns is a
// local persistence failure (storage.UnavailableError after retries);
// remote failures are absorbed and leave the record pending.
func (c *Creator[L, PL, R]) Create(ctx context.Context, rec PL) error {
	meta := rec.Meta()
	meta.ServerID = ""
	meta.IsSynced = false

	err := c.runner.Execute(ctx, func(ctx context.Context) error {
		return c.insert(ctx, rec)
	})
	if err != nil {
		return err
	}

	if !c.online() {
		return nil
	}

	parentServerID := ""
	if c.parentEntity != "" {
		sid, err := c.store.ServerID(ctx, c.parentEntity, c.parentLocal(*rec))
		if err != nil || sid == "" {
			// Parent unsynced: the push phase will handle this record
			// once the parent has a server id.
			return nil
		}
		parentServerID = sid
	}

	remote, err := c.toRemote(ctx, *rec, parentServerID)
	if err != nil {
		return nil
	}

	res := c.create(ctx, remote)
	if !res.OK {
		c.log.Debug("opportunistic push failed, record queued",
			"entity", string(c.entity), "local_id", meta.LocalID, "error", res.Err)
		return nil
	}

	err = c.runner.Execute(ctx, func(ctx context.Context) error {
		return c.store.MarkSynced(ctx, c.entity, meta.LocalID, res.ServerID)
	})
	if err != nil {
		// The server accepted the record but the local flag write
		// failed; the row stays pending and the next push phase will
		// be deduped server-side or produce a duplicate the pull
		// phase reconciles by server id.
		c.log.Warn("failed to mark record synced after push",
			"entity", string(c.entity), "local_id", meta.LocalID, "error", err)
		return nil
	}

	meta.ServerID = res.ServerID
	meta.IsSynced = true
	return nil
}

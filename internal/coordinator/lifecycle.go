package coordinator

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/restock/internal/log"
	"github.com/zjrosen/restock/internal/restock/domain"
	"github.com/zjrosen/restock/internal/tracing"
)

// Load runs the startup sequence and settles on the session the device
// should be working on:
//
//  1. Read the device cache. A corrupted entry is discarded, never fatal.
//  2. Fetch the user's unfinished sessions from the store.
//  3. Reconcile. The store wins for any session it knows; a cached draft
//     the store has never seen is kept, with its create replayed on the
//     next mutation. When the store is unreachable the cached state is
//     used as-is.
//  4. Purge. A cached session that turns out to be sent is dropped.
//
// Load never fails the caller into an unusable state: its error reports
// that the device is operating offline, with the coordinator still
// holding the best state it could assemble.
func (c *Coordinator) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.tracer.Start(ctx, tracing.SpanStartup)
	defer span.End()

	userID := c.auth.UserID()
	if userID == "" {
		return domain.ErrEmptyUserID
	}
	span.SetAttributes(attribute.String(tracing.AttrUserID, userID))

	cached := c.loadCache()

	remote, remoteErr := c.repo.FindUnfinishedByUserID(ctx, userID)
	if remoteErr != nil {
		// Offline start. Whatever the cache held is the working state.
		c.current = cached
		if cached != nil {
			c.pendingCreate = cached.HasLocalID()
		}
		log.Warn(log.CatCoord, "store unreachable on load, running from cache", "error", remoteErr)
		return wrapRemote("load sessions", remoteErr)
	}

	c.reconcile(ctx, cached, remote)
	return nil
}

// loadCache reads the cached session, discarding corrupted or foreign
// entries. Also restores the retry flag the last run left behind.
func (c *Coordinator) loadCache() *domain.RestockSession {
	cached, env, err := c.cache.Load()
	if err != nil {
		var corrupted *domain.CacheCorruptedError
		if errors.As(err, &corrupted) {
			log.Warn(log.CatCache, "discarding corrupted session cache", "error", err)
			if cerr := c.cache.Clear(); cerr != nil {
				log.ErrorErr(log.CatCache, "failed to clear corrupted cache", cerr)
			}
			return nil
		}
		log.ErrorErr(log.CatCache, "cache read failed", err)
		return nil
	}
	if cached == nil {
		return nil
	}
	if cached.UserID() != c.auth.UserID() {
		log.Warn(log.CatCache, "cached session belongs to another user, discarding", "id", cached.ID())
		if cerr := c.cache.Clear(); cerr != nil {
			log.ErrorErr(log.CatCache, "failed to clear foreign cache entry", cerr)
		}
		return nil
	}
	c.retryPending = env.RetryPending
	return cached
}

// reconcile merges the cached session with the store's view. Callers
// hold the lock.
func (c *Coordinator) reconcile(ctx context.Context, cached *domain.RestockSession, remote []*domain.RestockSession) {
	_, span := c.tracer.Start(ctx, tracing.SpanReconcile)
	defer span.End()

	switch {
	case cached == nil:
		// Nothing local. Resume the most recently touched unfinished
		// session, if any.
		c.current = mostRecent(remote)
		if c.current != nil {
			log.Info(log.CatCoord, "resuming remote session", "id", c.current.ID(), "status", c.current.Status())
			c.saveCache()
		}

	case cached.IsTerminal():
		// Sent sessions never survive in the cache.
		if err := c.cache.Clear(); err != nil {
			log.ErrorErr(log.CatCache, "failed to purge sent session from cache", err)
		}
		c.retryPending = false
		c.current = mostRecent(remote)
		if c.current != nil {
			c.saveCache()
		}

	case cached.HasLocalID():
		// The store never acknowledged this draft. Keep it; the create
		// is replayed on the next mutation.
		c.current = cached
		c.pendingCreate = true
		log.Info(log.CatCoord, "retaining unsynced local draft", "id", cached.ID())

	case c.retryPending:
		// The cache is ahead of the store. Adopting the remote version
		// would silently drop the owed write; keep the local state and
		// let Flush reconverge.
		c.current = cached
		log.Info(log.CatCoord, "retaining local state with pending writes", "id", cached.ID())

	default:
		if match := findByID(remote, cached.ID()); match != nil {
			// The store's version of the session wins over the cache.
			c.current = match
			c.saveCache()
		} else {
			// Known id, but no longer unfinished: sent or deleted
			// remotely. Either way the cache entry is stale.
			log.Info(log.CatCoord, "cached session no longer unfinished, dropping", "id", cached.ID())
			if err := c.cache.Clear(); err != nil {
				log.ErrorErr(log.CatCache, "failed to drop stale cache entry", err)
			}
			c.retryPending = false
			c.current = mostRecent(remote)
			if c.current != nil {
				c.saveCache()
			}
		}
	}

	if c.current != nil {
		span.SetAttributes(
			attribute.String(tracing.AttrSessionID, c.current.ID()),
			attribute.String(tracing.AttrStatus, c.current.Status().String()),
			attribute.Int(tracing.AttrItemCount, c.current.ItemCount()),
		)
	}
}

// mostRecent picks the most recently touched session, or nil.
func mostRecent(sessions []*domain.RestockSession) *domain.RestockSession {
	var best *domain.RestockSession
	for _, session := range sessions {
		if best == nil || session.UpdatedAt().After(best.UpdatedAt()) {
			best = session
		}
	}
	return best
}

func findByID(sessions []*domain.RestockSession, id string) *domain.RestockSession {
	for _, session := range sessions {
		if session.ID() == id {
			return session
		}
	}
	return nil
}

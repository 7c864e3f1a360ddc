// Package coordinator owns client-side session state. It reconciles the
// device cache with the remote store, applies domain rules to the current
// session, and keeps both sides converged: every mutation is written to
// the cache first (optimistic) and then pushed to the store, and a failed
// push is remembered so it can be retried later.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/restock/internal/auth"
	"github.com/zjrosen/restock/internal/cache"
	"github.com/zjrosen/restock/internal/cachemanager"
	"github.com/zjrosen/restock/internal/log"
	"github.com/zjrosen/restock/internal/pubsub"
	"github.com/zjrosen/restock/internal/restock/domain"
	"github.com/zjrosen/restock/internal/tracing"
)

// ErrNoActiveSession is returned by mutating commands when no current
// session exists. Callers should run Start first.
var ErrNoActiveSession = errors.New("no active restock session")

// defaultHistoryTTL bounds how long the cached session list is served
// before the store is consulted again.
const defaultHistoryTTL = 2 * time.Minute

// Coordinator serializes session commands for a single user. One mutation
// is in flight at a time; concurrent callers queue on the internal mutex
// rather than interleave cache and store writes.
type Coordinator struct {
	repo    domain.SessionRepository
	cache   *cache.SessionCache
	auth    auth.Provider
	tracer  trace.Tracer
	broker  *pubsub.Broker[domain.SessionSnapshot]
	history *cachemanager.ReadThroughCache[string, []*domain.RestockSession, string]

	historyTTL time.Duration

	mu           sync.Mutex
	current      *domain.RestockSession
	retryPending bool

	// pendingCreate marks a current session the store has never seen.
	// The create is replayed before the next remote mutation.
	pendingCreate bool
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTracer sets the tracer used to wrap commands in spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = tracer }
}

// WithBroker sets the broker session lifecycle events are published to.
func WithBroker(broker *pubsub.Broker[domain.SessionSnapshot]) Option {
	return func(c *Coordinator) { c.broker = broker }
}

// WithHistoryTTL overrides how long the session list is cached.
func WithHistoryTTL(ttl time.Duration) Option {
	return func(c *Coordinator) { c.historyTTL = ttl }
}

// New creates a coordinator over the given store, device cache, and
// identity provider. Call Load before issuing commands.
func New(repo domain.SessionRepository, sessionCache *cache.SessionCache, provider auth.Provider, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:       repo,
		cache:      sessionCache,
		auth:       provider,
		tracer:     noop.NewTracerProvider().Tracer("noop"),
		historyTTL: defaultHistoryTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	listCache := cachemanager.NewInMemoryCacheManager[string, []*domain.RestockSession](
		"session-list", cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	c.history = cachemanager.NewReadThroughCache(listCache, repo.FindByUserID, false)

	return c
}

// Current returns the session the device is working on, or nil. The
// returned entity is immutable; callers cannot corrupt coordinator state
// through it.
func (c *Coordinator) Current() *domain.RestockSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// RetryPending reports whether a remote write is still owed for the
// current session.
func (c *Coordinator) RetryPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryPending
}

// Start begins a new draft session, or resumes the existing non-terminal
// one if the device already has it. The session is cached immediately and
// created in the store; if the store is unreachable the draft stays local
// under a temporary id and the create is replayed on the next mutation.
func (c *Coordinator) Start(ctx context.Context, name string) CommandResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "start")
	defer span.End()

	userID := c.auth.UserID()
	if userID == "" {
		return c.fail(span, nil, domain.ErrEmptyUserID)
	}

	if c.current != nil && !c.current.IsTerminal() {
		log.Info(log.CatCoord, "resuming session", "id", c.current.ID(), "status", c.current.Status())
		span.SetAttributes(attribute.String(tracing.AttrSessionID, c.current.ID()))
		return succeeded(c.current)
	}

	session, err := domain.CreateSession(domain.CreateSessionParams{UserID: userID, Name: name})
	if err != nil {
		return c.fail(span, nil, err)
	}
	span.SetAttributes(
		attribute.String(tracing.AttrSessionID, session.ID()),
		attribute.String(tracing.AttrUserID, userID),
	)

	c.current = session
	c.pendingCreate = true
	c.saveCache()

	if err := c.ensureRemote(ctx); err != nil {
		return c.failRemote(span, err)
	}

	c.settle(ctx)
	c.publish(pubsub.CreatedEvent)
	log.Info(log.CatCoord, "started session", "id", c.current.ID(), "name", c.current.Name())
	return succeeded(c.current)
}

// AddItem adds or replaces a line in the current draft session. The item
// is kept locally even when the remote write fails.
func (c *Coordinator) AddItem(ctx context.Context, input domain.ItemInput) CommandResult {
	return c.mutate(ctx, "add_item", func(session *domain.RestockSession) (*domain.RestockSession, remoteOp, error) {
		next, item, err := domain.AddItemToSession(session, input)
		if err != nil {
			return nil, nil, err
		}
		return next, func(ctx context.Context, sessionID string) error {
			return c.repo.AddItem(ctx, sessionID, item)
		}, nil
	})
}

// RemoveItem removes the line for the given product from the current
// draft session. Removing an absent product succeeds without effect.
func (c *Coordinator) RemoveItem(ctx context.Context, productID string) CommandResult {
	return c.mutate(ctx, "remove_item", func(session *domain.RestockSession) (*domain.RestockSession, remoteOp, error) {
		next, err := domain.RemoveItemFromSession(session, productID)
		if err != nil {
			return nil, nil, err
		}
		return next, func(ctx context.Context, sessionID string) error {
			return c.repo.RemoveItem(ctx, sessionID, productID)
		}, nil
	})
}

// UpdateItem applies a partial update to an existing line. Allowed until
// the session is sent.
func (c *Coordinator) UpdateItem(ctx context.Context, productID string, update domain.ItemUpdate) CommandResult {
	return c.mutate(ctx, "update_item", func(session *domain.RestockSession) (*domain.RestockSession, remoteOp, error) {
		next, err := domain.UpdateItemInSession(session, productID, update)
		if err != nil {
			return nil, nil, err
		}
		return next, func(ctx context.Context, sessionID string) error {
			return c.repo.UpdateItem(ctx, sessionID, productID, update)
		}, nil
	})
}

// Rename changes the current session's label.
func (c *Coordinator) Rename(ctx context.Context, name string) CommandResult {
	return c.mutate(ctx, "rename", func(session *domain.RestockSession) (*domain.RestockSession, remoteOp, error) {
		next := session.WithName(name)
		return next, func(ctx context.Context, sessionID string) error {
			return c.repo.UpdateName(ctx, sessionID, name)
		}, nil
	})
}

// MarkReady freezes item membership by moving the current draft to
// email_generated. An empty session cannot be marked ready.
func (c *Coordinator) MarkReady(ctx context.Context) CommandResult {
	return c.mutate(ctx, "mark_ready", func(session *domain.RestockSession) (*domain.RestockSession, remoteOp, error) {
		next, err := domain.MarkSessionReadyForEmails(session)
		if err != nil {
			return nil, nil, err
		}
		return next, func(ctx context.Context, sessionID string) error {
			return c.repo.UpdateStatus(ctx, sessionID, domain.StatusEmailGenerated)
		}, nil
	})
}

// MarkCompleted moves the current email_generated session to sent and
// retires it from the device: the cache entry is purged and the session
// leaves the current slot whether or not the store acknowledged the
// transition. The startup sequence purges sent sessions anyway, so
// holding on to one locally buys nothing.
func (c *Coordinator) MarkCompleted(ctx context.Context) CommandResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "mark_completed")
	defer span.End()

	if c.current == nil {
		return c.fail(span, nil, ErrNoActiveSession)
	}
	span.SetAttributes(attribute.String(tracing.AttrSessionID, c.current.ID()))

	sent, err := domain.MarkSessionCompleted(c.current)
	if err != nil {
		return c.fail(span, c.current, err)
	}

	remoteErr := c.ensureRemote(ctx)
	if remoteErr == nil {
		// ensureRemote may have merged a durable id over the local one.
		sent = sent.WithID(c.current.ID())
		if err := c.repo.MarkAsSent(ctx, sent.ID()); err != nil {
			remoteErr = wrapRemote("mark as sent", err)
		}
	}

	if err := c.cache.Clear(); err != nil {
		log.ErrorErr(log.CatCache, "failed to purge sent session from cache", err, "id", sent.ID())
	}
	c.current = nil
	c.retryPending = false
	c.pendingCreate = false
	c.recordCompletion(ctx, sent, remoteErr == nil)
	c.publishSnapshot(pubsub.CompletedEvent, sent.Snapshot())
	log.Info(log.CatCoord, "completed session", "id", sent.ID())

	if remoteErr != nil {
		span.RecordError(remoteErr)
		span.SetStatus(codes.Error, remoteErr.Error())
		return failed(sent, remoteErr, false)
	}
	span.SetAttributes(attribute.Bool(tracing.AttrSuccess, true))
	return succeeded(sent)
}

// Flush replays the owed remote state after earlier failures: the create
// if the store never saw the session, then the full item set, name, and
// status. A no-op success when nothing is pending.
func (c *Coordinator) Flush(ctx context.Context) CommandResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "flush")
	defer span.End()

	if !c.retryPending {
		return succeeded(c.current)
	}
	if c.current == nil {
		c.retryPending = false
		return succeeded(nil)
	}
	span.SetAttributes(attribute.String(tracing.AttrSessionID, c.current.ID()))

	if err := c.ensureRemote(ctx); err != nil {
		return c.failRemote(span, err)
	}
	for _, item := range c.current.Items() {
		if err := c.repo.AddItem(ctx, c.current.ID(), item); err != nil {
			return c.failRemote(span, wrapRemote("add item", err))
		}
	}
	if err := c.repo.UpdateName(ctx, c.current.ID(), c.current.Name()); err != nil {
		return c.failRemote(span, wrapRemote("update name", err))
	}
	if c.current.Status() != domain.StatusDraft {
		if err := c.repo.UpdateStatus(ctx, c.current.ID(), c.current.Status()); err != nil {
			return c.failRemote(span, wrapRemote("update status", err))
		}
	}

	c.settle(ctx)
	log.Info(log.CatCoord, "flushed pending state", "id", c.current.ID(), "items", c.current.ItemCount())
	return succeeded(c.current)
}

// Refresh re-reads the current session from the store and adopts the
// remote version. Local state with writes still owed is left alone so a
// refresh cannot silently discard unsynced work.
func (c *Coordinator) Refresh(ctx context.Context) CommandResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, "refresh")
	defer span.End()

	if c.current == nil {
		return succeeded(nil)
	}
	if c.retryPending || c.pendingCreate {
		log.Debug(log.CatCoord, "skipping refresh, local writes pending", "id", c.current.ID())
		return succeeded(c.current)
	}
	span.SetAttributes(attribute.String(tracing.AttrSessionID, c.current.ID()))

	remote, err := c.repo.FindByID(ctx, c.current.ID())
	if err != nil {
		var nf *domain.SessionNotFoundError
		if errors.As(err, &nf) {
			// Deleted remotely. The store wins.
			if cerr := c.cache.Clear(); cerr != nil {
				log.ErrorErr(log.CatCache, "failed to clear cache after remote delete", cerr)
			}
			c.current = nil
			return succeeded(nil)
		}
		return c.fail(span, c.current, wrapRemote("find session", err))
	}

	c.current = remote
	if remote.IsTerminal() {
		if err := c.cache.Clear(); err != nil {
			log.ErrorErr(log.CatCache, "failed to purge sent session from cache", err)
		}
		c.current = nil
		return succeeded(nil)
	}
	c.saveCache()
	return succeeded(c.current)
}

// Sessions returns all of the user's sessions, newest first, served from
// a short-lived read-through cache over the store.
func (c *Coordinator) Sessions(ctx context.Context) ([]*domain.RestockSession, error) {
	userID := c.auth.UserID()
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}
	sessions, err := c.history.Get(ctx, userID, userID, c.historyTTL)
	if err != nil {
		return nil, wrapRemote("list sessions", err)
	}
	return sessions, nil
}

// remoteOp is the store write a successful local mutation owes. The
// session id is supplied at call time, after any pending create has
// merged the durable store id over the temporary local one.
type remoteOp func(ctx context.Context, sessionID string) error

// mutate is the shared command path: apply the domain rule, write the
// cache optimistically, then push to the store. Domain failures leave
// state untouched; remote failures keep the optimistic state and set the
// retry flag.
func (c *Coordinator) mutate(ctx context.Context, name string, apply func(*domain.RestockSession) (*domain.RestockSession, remoteOp, error)) CommandResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := c.startSpan(ctx, name)
	defer span.End()

	if c.current == nil {
		return c.fail(span, nil, ErrNoActiveSession)
	}
	span.SetAttributes(attribute.String(tracing.AttrSessionID, c.current.ID()))

	next, push, err := apply(c.current)
	if err != nil {
		return c.fail(span, c.current, err)
	}

	c.current = next
	c.saveCache()

	if err := c.ensureRemote(ctx); err != nil {
		return c.failRemote(span, err)
	}
	if err := push(ctx, c.current.ID()); err != nil {
		return c.failRemote(span, wrapRemote(name, err))
	}

	c.settle(ctx)
	c.publish(pubsub.UpdatedEvent)
	span.SetAttributes(attribute.Bool(tracing.AttrSuccess, true))
	return succeeded(c.current)
}

// ensureRemote replays the session create when the store has not
// acknowledged this session yet, merging the durable id back over the
// temporary local one.
func (c *Coordinator) ensureRemote(ctx context.Context) error {
	if !c.pendingCreate {
		return nil
	}
	id, err := c.repo.Create(ctx, c.current)
	if err != nil {
		return wrapRemote("create session", err)
	}
	log.Info(log.CatCoord, "store assigned session id", "localId", c.current.ID(), "id", id)
	c.current = c.current.WithID(id)
	c.pendingCreate = false
	c.saveCache()
	return nil
}

// settle records that cache and store agree again.
func (c *Coordinator) settle(ctx context.Context) {
	if c.retryPending {
		c.retryPending = false
		c.saveCache()
	}
	c.invalidateHistory(ctx, c.auth.UserID())
}

// recordCompletion moves the sent session into the cached session list so
// history reflects completion without a store round trip. With a cold
// cache the list is seeded only when the store never acknowledged the
// session, so an unsynced completion does not vanish from history; when
// the store has it, the next read fetches the authoritative list.
func (c *Coordinator) recordCompletion(ctx context.Context, sent *domain.RestockSession, durable bool) {
	userID := sent.UserID()
	if userID == "" {
		return
	}

	seeded := false
	c.history.Update(ctx, userID, c.historyTTL, func(sessions []*domain.RestockSession, ok bool) ([]*domain.RestockSession, bool) {
		if !ok && durable {
			return nil, false
		}
		seeded = true
		out := make([]*domain.RestockSession, 0, len(sessions)+1)
		replaced := false
		for _, s := range sessions {
			if s.ID() == sent.ID() {
				out = append(out, sent)
				replaced = true
				continue
			}
			out = append(out, s)
		}
		if !replaced {
			out = append([]*domain.RestockSession{sent}, out...)
		}
		return out, true
	})
	if !seeded {
		c.invalidateHistory(ctx, userID)
	}
}

func (c *Coordinator) invalidateHistory(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	if err := c.history.Invalidate(ctx, userID); err != nil {
		log.ErrorErr(log.CatCache, "failed to invalidate session list cache", err)
	}
}

// saveCache writes the current session to the device cache. Cache write
// failures are logged, never surfaced; the store remains authoritative.
func (c *Coordinator) saveCache() {
	if c.current == nil {
		return
	}
	if err := c.cache.Save(c.current, c.retryPending); err != nil {
		log.ErrorErr(log.CatCache, "failed to save session snapshot", err, "id", c.current.ID())
	}
}

func (c *Coordinator) publish(eventType pubsub.EventType) {
	if c.current != nil {
		c.publishSnapshot(eventType, c.current.Snapshot())
	}
}

func (c *Coordinator) publishSnapshot(eventType pubsub.EventType, snap domain.SessionSnapshot) {
	if c.broker != nil {
		c.broker.Publish(eventType, snap)
	}
}

func (c *Coordinator) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, tracing.SpanPrefixCommand+name)
	span.SetAttributes(attribute.String(tracing.AttrCommand, name))
	return ctx, span
}

// fail reports a domain-level failure. Local state was not changed.
func (c *Coordinator) fail(span trace.Span, session *domain.RestockSession, err error) CommandResult {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	log.Warn(log.CatCoord, "command rejected", "error", err)
	return failed(session, err, c.retryPending)
}

// failRemote reports a store failure after the optimistic local write.
// The local state stands and a retry is owed.
func (c *Coordinator) failRemote(span trace.Span, err error) CommandResult {
	c.retryPending = true
	c.saveCache()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool(tracing.AttrRetry, true))
	log.Warn(log.CatCoord, "remote write failed, retry pending", "error", err)
	return failed(c.current, err, true)
}

// wrapRemote classifies a store error. Domain-typed errors pass through;
// anything else is a transport failure.
func wrapRemote(op string, err error) error {
	var (
		snf *domain.SessionNotFoundError
		inf *domain.ItemNotFoundError
	)
	if errors.As(err, &snf) || errors.As(err, &inf) {
		return err
	}
	return &domain.RemoteUnavailableError{Op: op, Err: err}
}

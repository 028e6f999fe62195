// Package syncer keeps a local game replica convergent with the shared
// record store.
//
// The whole discipline is last-write-wins keyed by the snapshot timestamp:
// strictly newer remote snapshots overwrite local state, everything else
// is discarded, and concurrent writers racing within the same timestamp
// granularity may lose updates. That weak-consistency trade-off is
// deliberate and documented, not something this package tries to repair.
package syncer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/store"
)

// Config bounds the retry and polling behaviour.
type Config struct {
	// PublishAttempts is the bounded attempt count for remote writes.
	PublishAttempts int
	// SubscribeAttempts is the bounded attempt count for opening the
	// change-notification stream.
	SubscribeAttempts int
	// RetryDelay is the base backoff delay, doubled per attempt.
	RetryDelay time.Duration
	// PollInterval is the reconciliation fallback period.
	PollInterval time.Duration
}

// DefaultConfig returns the default retry/poll policy.
func DefaultConfig() Config {
	return Config{
		PublishAttempts:   3,
		SubscribeAttempts: 5,
		RetryDelay:        500 * time.Millisecond,
		PollInterval:      5 * time.Second,
	}
}

// Syncer reconciles one session against the remote store. A nil store
// puts the syncer in degraded local-only mode: publishes hit the cache
// and the realtime paths are no-ops, leaving the state machine unaffected.
type Syncer struct {
	session *game.Session
	store   store.RecordStore
	cache   store.Cache
	cfg     Config
	clock   quartz.Clock
	logger  *log.Logger
	events  chan Event
}

// New creates a syncer for the session. remote may be nil for degraded
// mode; cache must not be.
func New(session *game.Session, remote store.RecordStore, cache store.Cache, cfg Config, logger *log.Logger, clock quartz.Clock) *Syncer {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Syncer{
		session: session,
		store:   remote,
		cache:   cache,
		cfg:     cfg,
		clock:   clock,
		logger:  logger.WithPrefix("sync").With("code", session.Code()),
		events:  make(chan Event, 32),
	}
}

// Events returns the synchronizer's notification stream.
func (s *Syncer) Events() <-chan Event { return s.events }

func cacheKey(code string) string { return "game:" + code }

// Publish pushes the session's current snapshot outward. The cache is
// always written first, so even a total remote failure leaves the latest
// state recoverable locally.
func (s *Syncer) Publish(ctx context.Context) PublishResult {
	snap := s.session.Snapshot()

	if raw, err := json.Marshal(snap); err == nil {
		s.cache.Set(cacheKey(snap.GameCode), string(raw))
	} else {
		s.logger.Error("failed to encode snapshot for cache", "error", err)
	}

	if s.store == nil {
		return LocalOnly
	}

	var lastErr error
	for attempt := 0; attempt < s.cfg.PublishAttempts; attempt++ {
		if attempt > 0 {
			if !s.sleep(ctx, s.backoff(attempt-1)) {
				break
			}
		}
		if lastErr = s.store.Put(ctx, snap); lastErr == nil {
			s.emit(Event{Type: EventPublished})
			return Published
		}
		s.logger.Warn("publish failed", "attempt", attempt+1, "error", lastErr)
	}

	s.logger.Warn("publish retries exhausted, saved locally only", "error", lastErr)
	s.emit(Event{Type: EventSavedLocally, Err: lastErr})
	return SavedLocally
}

// Reconcile is the on-demand fetch-and-compare path used as a fallback
// for lost notifications. A failed fetch skips the merge and never
// touches local state.
func (s *Syncer) Reconcile(ctx context.Context) error {
	_, err := s.reconcile(ctx)
	return err
}

func (s *Syncer) reconcile(ctx context.Context) (redirected bool, err error) {
	if s.store == nil {
		return false, nil
	}

	snap, ok, err := s.store.Get(ctx, s.session.Code())
	if err != nil {
		s.logger.Warn("reconcile fetch failed", "error", err)
		return false, err
	}
	if !ok {
		return false, nil
	}
	return s.handleSnapshot(snap), nil
}

// RestoreLocal loads the cached backup for this game, if any, and applies
// it under the usual last-write-wins rule. Used at startup and in
// degraded mode.
func (s *Syncer) RestoreLocal() bool {
	raw, ok := s.cache.Get(cacheKey(s.session.Code()))
	if !ok {
		return false
	}

	var snap game.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("discarding corrupt cache entry", "error", err)
		s.cache.Remove(cacheKey(s.session.Code()))
		return false
	}

	adopted, err := s.session.Apply(&snap)
	if err != nil {
		s.logger.Warn("cached snapshot rejected", "error", err)
		return false
	}
	return adopted
}

// Run drives the subscription lifecycle until the context is cancelled or
// the game is superseded. On stream failure it resubscribes with bounded
// backoff; after exhausting attempts it reports the connection lost and
// degrades to poll-only reconciliation. Each successful (re)subscribe is
// followed by one reconciliation to close any notification gap.
func (s *Syncer) Run(ctx context.Context) error {
	if s.store == nil {
		s.logger.Debug("no remote store configured, sync disabled")
		return nil
	}

	ticker := s.clock.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	var sub store.Subscription
	defer func() {
		if sub != nil {
			sub.Close()
		}
	}()

	subscribed := false
	for {
		if sub == nil && !subscribed {
			var err error
			sub, err = s.subscribeWithRetry(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Error("subscription retries exhausted, manual reconnect required", "error", err)
				s.emit(Event{Type: EventConnectionLost, Err: err})
				subscribed = true // stop retrying; polling continues below
			} else {
				subscribed = true
				if redirected, _ := s.reconcile(ctx); redirected {
					return nil
				}
			}
		}

		var updates <-chan *game.Snapshot
		if sub != nil {
			updates = sub.Updates()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case snap, ok := <-updates:
			if !ok {
				err := sub.Err()
				s.logger.Warn("subscription ended", "error", err)
				sub = nil
				subscribed = false
				continue
			}
			if s.handleSnapshot(snap) {
				sub.Close()
				return nil
			}

		case <-ticker.C:
			if redirected, _ := s.reconcile(ctx); redirected {
				if sub != nil {
					sub.Close()
				}
				return nil
			}
		}
	}
}

// handleSnapshot applies the merge rule to one incoming snapshot and
// reports whether it announced a redirect. A redirect short-circuits the
// merge entirely: the rest of the snapshot's fields must not leak into
// the superseded game's session.
func (s *Syncer) handleSnapshot(snap *game.Snapshot) (redirected bool) {
	if snap.Redirect != "" && snap.Redirect != s.session.Code() {
		s.logger.Info("game superseded", "newCode", snap.Redirect)
		s.emit(Event{Type: EventRedirect, Code: snap.Redirect})
		return true
	}

	adopted, err := s.session.Apply(snap)
	if err != nil {
		s.logger.Warn("rejected remote snapshot", "error", err)
		return false
	}
	if adopted {
		// Keep the backup current with what we just adopted.
		if raw, err := json.Marshal(snap); err == nil {
			s.cache.Set(cacheKey(s.session.Code()), string(raw))
		}
		s.emit(Event{Type: EventAdopted})
	}
	return false
}

func (s *Syncer) subscribeWithRetry(ctx context.Context) (store.Subscription, error) {
	var lastErr error
	for attempt := 0; attempt < s.cfg.SubscribeAttempts; attempt++ {
		if attempt > 0 {
			if !s.sleep(ctx, s.backoff(attempt-1)) {
				return nil, ctx.Err()
			}
		}
		sub, err := s.store.Subscribe(ctx, s.session.Code())
		if err == nil {
			s.logger.Info("subscribed", "attempt", attempt+1)
			return sub, nil
		}
		lastErr = err
		s.logger.Warn("subscribe failed", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (s *Syncer) backoff(attempt int) time.Duration {
	return s.cfg.RetryDelay << attempt
}

// sleep waits for d on the injected clock, returning false if the context
// was cancelled first.
func (s *Syncer) sleep(ctx context.Context, d time.Duration) bool {
	timer := s.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// emit delivers an event without ever blocking game progress; a consumer
// that stopped draining just misses notifications.
func (s *Syncer) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("dropping event for slow consumer", "type", ev.Type)
	}
}

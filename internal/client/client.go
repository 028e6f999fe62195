package client

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/codewords/internal/board"
	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/session"
	"github.com/lox/codewords/internal/store"
	"github.com/lox/codewords/internal/syncer"
)

// Client ties one player's identity to a game session and keeps that
// session reconciled with the sync server. A nil remote store drops the
// client into local-only mode: every operation still works, results are
// just not shared.
type Client struct {
	identity *session.Identity
	remote   store.RecordStore
	cache    store.Cache
	syncCfg  syncer.Config
	words    []string
	clock    quartz.Clock
	logger   *log.Logger

	session *game.Session
	syncer  *syncer.Syncer
	events  chan syncer.Event
}

// Options configures a client. Zero values fall back to sensible
// defaults: the bundled word list, the real clock, the default retry
// policy.
type Options struct {
	Remote store.RecordStore
	Cache  store.Cache
	Sync   syncer.Config
	Words  []string
	Clock  quartz.Clock
	Logger *log.Logger
}

// New builds a client from options. The cache is required: identity and
// offline backups both live there.
func New(opts Options) *Client {
	if opts.Cache == nil {
		opts.Cache = store.NewMemoryCache()
	}
	if len(opts.Words) == 0 {
		opts.Words = board.DefaultWords()
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Sync == (syncer.Config{}) {
		opts.Sync = syncer.DefaultConfig()
	}
	return &Client{
		identity: session.NewIdentity(opts.Cache),
		remote:   opts.Remote,
		cache:    opts.Cache,
		syncCfg:  opts.Sync,
		words:    opts.Words,
		clock:    opts.Clock,
		logger:   opts.Logger.WithPrefix("client"),
		events:   make(chan syncer.Event, 32),
	}
}

// Identity exposes the stored player identity.
func (c *Client) Identity() *session.Identity { return c.identity }

// Session returns the active game session, nil before Host or Join.
func (c *Client) Session() *game.Session { return c.session }

// Events is the merged stream of sync events from the active game.
// Redirect handoffs in Run keep the channel stable across games.
func (c *Client) Events() <-chan syncer.Event { return c.events }

// Host starts a brand-new game under a freshly minted code and announces
// it to the sync server.
func (c *Client) Host(ctx context.Context, role game.Role) (string, error) {
	code := board.NewCode()
	if err := c.enter(code, role); err != nil {
		return "", err
	}
	c.session.JoinPlayer(c.identity.PlayerID(), c.identity.Name(), c.session.Role())
	c.syncer.Publish(ctx)
	return code, nil
}

// Join enters an existing game by code. The session starts from the
// deterministic board, then adopts whatever newer state the cache and
// the server hold.
func (c *Client) Join(ctx context.Context, code string, role game.Role) error {
	code = board.NormalizeCode(code)
	if err := board.ValidateCode(code); err != nil {
		return err
	}
	if err := c.enter(code, role); err != nil {
		return err
	}

	// Adopt existing history before announcing ourselves: joining bumps
	// the state's timestamp, and a bump taken before the merge would make
	// the empty local state outrank the real game under last-write-wins.
	c.syncer.RestoreLocal()
	if err := c.syncer.Reconcile(ctx); err != nil {
		c.logger.Warn("joined without server state", "code", code, "error", err)
	}
	c.session.JoinPlayer(c.identity.PlayerID(), c.identity.Name(), c.session.Role())
	c.syncer.Publish(ctx)
	return nil
}

// enter builds the session and its syncer for a code. The stored role
// for the code wins over the requested one so rejoining players keep
// their seat.
func (c *Client) enter(code string, role game.Role) error {
	if stored := c.identity.Role(code); stored != game.Spectator {
		role = stored
	}

	b, err := board.Generate(code, c.words)
	if err != nil {
		return fmt.Errorf("generating board for %s: %w", code, err)
	}

	c.session = game.NewSession(code, b, role, c.logger, c.clock)
	c.identity.SetRole(code, role)
	c.syncer = syncer.New(c.session, c.remote, c.cache, c.syncCfg, c.logger, c.clock)
	return nil
}

// SetRole changes the player's role in the active game and remembers it
// for rejoins.
func (c *Client) SetRole(ctx context.Context, role game.Role) error {
	if c.session == nil {
		return fmt.Errorf("no active game")
	}
	c.session.SetRole(role)
	c.session.JoinPlayer(c.identity.PlayerID(), c.identity.Name(), role)
	c.identity.SetRole(c.session.Code(), role)
	c.syncer.Publish(ctx)
	return nil
}

// NewGame supersedes the active game: the old record gets a redirect to
// a fresh code so every subscribed client follows, then this client
// hosts the new game itself.
func (c *Client) NewGame(ctx context.Context) (string, error) {
	if c.session == nil {
		return "", fmt.Errorf("no active game")
	}
	next := board.NewCode()
	c.session.MarkSuperseded(next)
	c.syncer.Publish(ctx)

	role := c.identity.Role(c.session.Code())
	if err := c.enter(next, role); err != nil {
		return "", err
	}
	c.session.JoinPlayer(c.identity.PlayerID(), c.identity.Name(), c.session.Role())
	c.syncer.Publish(ctx)
	return next, nil
}

// Run pumps the active game's sync loop, forwarding its events onto the
// client's own stream. When a redirect lands it re-enters the new game
// and keeps going, so callers see one continuous event stream across
// handoffs. Returns when the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	if c.session == nil {
		return fmt.Errorf("no active game")
	}

	for {
		sy := c.syncer
		done := make(chan error, 1)
		go func() { done <- sy.Run(ctx) }()

		redirect := ""
	pump:
		for {
			select {
			case ev := <-sy.Events():
				if ev.Type == syncer.EventRedirect {
					redirect = ev.Code
				}
				c.forward(ev)
			case err := <-done:
				if err != nil {
					return err
				}
				break pump
			}
		}

		// Drain whatever the finished syncer still holds.
		for {
			select {
			case ev := <-sy.Events():
				if ev.Type == syncer.EventRedirect {
					redirect = ev.Code
				}
				c.forward(ev)
				continue
			default:
			}
			break
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if redirect == "" {
			// Run ended without a handoff; nothing left to drive.
			return nil
		}

		c.logger.Info("following redirect", "from", c.session.Code(), "to", redirect)
		if err := c.Join(ctx, redirect, c.identity.Role(redirect)); err != nil {
			return fmt.Errorf("following redirect to %s: %w", redirect, err)
		}
	}
}

func (c *Client) forward(ev syncer.Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Debug("dropping event, consumer behind", "type", ev.Type)
	}
}

// GiveClue submits a spymaster clue and shares the result.
func (c *Client) GiveClue(ctx context.Context, word string, count int) error {
	if c.session == nil {
		return fmt.Errorf("no active game")
	}
	if err := c.session.GiveClue(word, count); err != nil {
		return err
	}
	c.syncer.Publish(ctx)
	return nil
}

// RevealCard reveals a card as an operative and shares the result.
func (c *Client) RevealCard(ctx context.Context, index int) error {
	if c.session == nil {
		return fmt.Errorf("no active game")
	}
	if err := c.session.RevealCard(index); err != nil {
		return err
	}
	c.syncer.Publish(ctx)
	return nil
}

// EndTurn passes the turn voluntarily and shares the result.
func (c *Client) EndTurn(ctx context.Context) error {
	if c.session == nil {
		return fmt.Errorf("no active game")
	}
	if err := c.session.EndTurn(); err != nil {
		return err
	}
	c.syncer.Publish(ctx)
	return nil
}

// ToggleClueMark flips a clue-log strikethrough and shares the result.
func (c *Client) ToggleClueMark(ctx context.Context, index int) error {
	if c.session == nil {
		return fmt.Errorf("no active game")
	}
	if err := c.session.ToggleClueMark(index); err != nil {
		return err
	}
	c.syncer.Publish(ctx)
	return nil
}

package client

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/codewords/internal/board"
	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/store"
	"github.com/lox/codewords/internal/syncer"
)

func testClient(remote store.RecordStore) *Client {
	return New(Options{
		Remote: remote,
		Cache:  store.NewMemoryCache(),
		Sync: syncer.Config{
			PublishAttempts:   2,
			SubscribeAttempts: 2,
			RetryDelay:        time.Millisecond,
			PollInterval:      time.Hour,
		},
		Logger: log.New(io.Discard),
	})
}

func TestHostPublishesNewGame(t *testing.T) {
	remote := store.NewMemoryStore()
	c := testClient(remote)

	code, err := c.Host(context.Background(), game.RedSpymaster)
	require.NoError(t, err)
	require.NoError(t, board.ValidateCode(code))
	require.NotNil(t, c.Session())
	assert.Equal(t, code, c.Session().Code())

	snap, ok, err := remote.Get(context.Background(), code)
	require.NoError(t, err)
	require.True(t, ok, "hosting should announce the game")
	assert.Equal(t, code, snap.GameCode)
}

func TestJoinSeesSameBoardAndState(t *testing.T) {
	remote := store.NewMemoryStore()
	ctx := context.Background()

	host := testClient(remote)
	code, err := host.Host(ctx, game.RedSpymaster)
	require.NoError(t, err)

	turn := host.Session().State().CurrentTurn
	if turn == board.Red {
		require.NoError(t, host.GiveClue(ctx, "OCEAN", 2))
	} else {
		host.Session().SetRole(game.BlueSpymaster)
		require.NoError(t, host.GiveClue(ctx, "OCEAN", 2))
	}

	guest := testClient(remote)
	require.NoError(t, guest.Join(ctx, code, game.Spectator))

	assert.Equal(t, host.Session().Board().Words, guest.Session().Board().Words,
		"same code must derive the same board")
	require.NotNil(t, guest.Session().State().Clue)
	assert.Equal(t, "OCEAN", guest.Session().State().Clue.Word)
}

func TestJoinNormalizesAndValidatesCode(t *testing.T) {
	c := testClient(store.NewMemoryStore())
	ctx := context.Background()

	require.Error(t, c.Join(ctx, "short", game.Spectator))
	require.Error(t, c.Join(ctx, "ABCDE0", game.Spectator)) // 0 not in alphabet

	require.NoError(t, c.Join(ctx, "  abcdef ", game.Spectator))
	assert.Equal(t, "ABCDEF", c.Session().Code())
}

func TestJoinWorksWithoutServer(t *testing.T) {
	c := testClient(nil)
	require.NoError(t, c.Join(context.Background(), "ABCDEF", game.RedOperative))
	require.NotNil(t, c.Session())
	assert.Equal(t, game.RedOperative, c.Session().Role())
}

func TestRejoinKeepsStoredRole(t *testing.T) {
	remote := store.NewMemoryStore()
	cache := store.NewMemoryCache()
	ctx := context.Background()

	c := New(Options{Remote: remote, Cache: cache, Logger: log.New(io.Discard)})
	require.NoError(t, c.Join(ctx, "ABCDEF", game.BlueSpymaster))

	// A fresh client over the same cache is the same person rejoining.
	again := New(Options{Remote: remote, Cache: cache, Logger: log.New(io.Discard)})
	require.NoError(t, again.Join(ctx, "ABCDEF", game.Spectator))
	assert.Equal(t, game.BlueSpymaster, again.Session().Role())
}

func TestOperationsPublish(t *testing.T) {
	remote := store.NewMemoryStore()
	ctx := context.Background()

	c := testClient(remote)
	code, err := c.Host(ctx, game.RedSpymaster)
	require.NoError(t, err)

	if c.Session().State().CurrentTurn != board.Red {
		c.Session().SetRole(game.BlueSpymaster)
	}
	require.NoError(t, c.GiveClue(ctx, "RIVER", 1))

	snap, ok, err := remote.Get(ctx, code)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, snap.CurrentClue)
	assert.Equal(t, "RIVER", *snap.CurrentClue)
}

func TestNewGameRedirectsFollowers(t *testing.T) {
	remote := store.NewMemoryStore()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	host := testClient(remote)
	code, err := host.Host(ctx, game.RedSpymaster)
	require.NoError(t, err)

	follower := testClient(remote)
	require.NoError(t, follower.Join(ctx, code, game.Spectator))

	runDone := make(chan error, 1)
	go func() { runDone <- follower.Run(ctx) }()

	// The follower's join published at wall-clock now; step past that
	// millisecond so the redirect write is strictly newer.
	time.Sleep(5 * time.Millisecond)

	// Even if the redirect lands before the follower's subscription is
	// up, the post-subscribe reconciliation catches it.
	next, err := host.NewGame(ctx)
	require.NoError(t, err)
	require.NotEqual(t, code, next)

	var sawRedirect bool
	deadline := time.After(3 * time.Second)
	for !sawRedirect {
		select {
		case ev := <-follower.Events():
			if ev.Type == syncer.EventRedirect {
				sawRedirect = true
			}
		case <-deadline:
			t.Fatal("follower never saw the redirect")
		}
	}

	require.Eventually(t, func() bool {
		return follower.Session().Code() == host.Session().Code()
	}, time.Second, 10*time.Millisecond, "follower should land in the new game")

	cancel()
	select {
	case <-runDone:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

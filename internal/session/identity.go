// Package session manages the per-browser player identity: a stable
// player ID, an editable display name and the role chosen for each game.
// All of it lives in the local cache, independent of any game's state.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/store"
)

const (
	playerIDKey   = "player:id"
	playerNameKey = "player:name"
	rolePrefix    = "role:"

	// DefaultName is used until the player picks a display name.
	DefaultName = "Player"

	// MaxNameLength caps display names on write, counted in runes.
	MaxNameLength = 20
)

// Identity is the persistent local player. It is process-wide: every game
// this client joins presents the same player ID.
type Identity struct {
	cache store.Cache
}

// NewIdentity wraps a cache with identity accessors.
func NewIdentity(cache store.Cache) *Identity {
	return &Identity{cache: cache}
}

// PlayerID returns the stable player token, minting and caching one on
// first use. The token is time-prefixed with a random suffix, so it sorts
// roughly by creation time and never collides in practice.
func (i *Identity) PlayerID() string {
	if id, ok := i.cache.Get(playerIDKey); ok && id != "" {
		return id
	}
	id := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	i.cache.Set(playerIDKey, id)
	return id
}

// Name returns the cached display name, or DefaultName.
func (i *Identity) Name() string {
	if name, ok := i.cache.Get(playerNameKey); ok && name != "" {
		return name
	}
	return DefaultName
}

// SetName stores a display name, trimmed and length-capped. An empty name
// resets to the default rather than storing nothing.
func (i *Identity) SetName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		i.cache.Remove(playerNameKey)
		return
	}
	if runes := []rune(name); len(runes) > MaxNameLength {
		name = string(runes[:MaxNameLength])
	}
	i.cache.Set(playerNameKey, name)
}

// Role returns the role chosen for a game code, defaulting to spectator.
func (i *Identity) Role(code string) game.Role {
	raw, ok := i.cache.Get(rolePrefix + code)
	if !ok {
		return game.Spectator
	}
	role, err := game.ParseRole(raw)
	if err != nil {
		return game.Spectator
	}
	return role
}

// SetRole persists the role chosen for a game code.
func (i *Identity) SetRole(code string, role game.Role) {
	i.cache.Set(rolePrefix+code, role.String())
}

package session

import (
	"strings"
	"testing"

	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/store"
)

func TestPlayerIDStable(t *testing.T) {
	id := NewIdentity(store.NewMemoryCache())

	first := id.PlayerID()
	if first == "" {
		t.Fatal("empty player ID")
	}
	if second := id.PlayerID(); second != first {
		t.Errorf("player ID changed between calls: %q != %q", first, second)
	}
}

func TestPlayerIDUniquePerCache(t *testing.T) {
	a := NewIdentity(store.NewMemoryCache()).PlayerID()
	b := NewIdentity(store.NewMemoryCache()).PlayerID()
	if a == b {
		t.Errorf("two fresh identities minted the same ID %q", a)
	}
}

func TestNameDefaults(t *testing.T) {
	id := NewIdentity(store.NewMemoryCache())
	if got := id.Name(); got != DefaultName {
		t.Errorf("Name() = %q, want %q", got, DefaultName)
	}
}

func TestSetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Alice", want: "Alice"},
		{name: "trimmed", in: "  Bob  ", want: "Bob"},
		{name: "capped", in: strings.Repeat("x", 30), want: strings.Repeat("x", 20)},
		{name: "capped by runes not bytes", in: strings.Repeat("é", 30), want: strings.Repeat("é", 20)},
		{name: "empty resets", in: "", want: DefaultName},
		{name: "whitespace resets", in: "   ", want: DefaultName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := NewIdentity(store.NewMemoryCache())
			id.SetName(tt.in)
			if got := id.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRolePerGame(t *testing.T) {
	id := NewIdentity(store.NewMemoryCache())

	if got := id.Role("ABCDEF"); got != game.Spectator {
		t.Errorf("unchosen role = %v, want spectator", got)
	}

	id.SetRole("ABCDEF", game.RedSpymaster)
	id.SetRole("GHJKMN", game.BlueOperative)

	if got := id.Role("ABCDEF"); got != game.RedSpymaster {
		t.Errorf("role for ABCDEF = %v, want red-spymaster", got)
	}
	if got := id.Role("GHJKMN"); got != game.BlueOperative {
		t.Errorf("role for GHJKMN = %v, want blue-operative", got)
	}
}

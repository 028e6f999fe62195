package game

import (
	"fmt"

	"github.com/lox/codewords/internal/board"
)

// Role is the part a player takes in one game. Roles are chosen per game
// code; the same player may be a spymaster in one game and a spectator in
// the next.
type Role int

const (
	Spectator Role = iota
	RedSpymaster
	RedOperative
	BlueSpymaster
	BlueOperative
)

// Team returns the role's team. Spectators have none.
func (r Role) Team() (board.Team, bool) {
	switch r {
	case RedSpymaster, RedOperative:
		return board.Red, true
	case BlueSpymaster, BlueOperative:
		return board.Blue, true
	default:
		return board.Red, false
	}
}

// IsSpymaster reports whether the role gives clues and sees the full layout.
func (r Role) IsSpymaster() bool {
	return r == RedSpymaster || r == BlueSpymaster
}

// IsOperative reports whether the role reveals cards.
func (r Role) IsOperative() bool {
	return r == RedOperative || r == BlueOperative
}

func (r Role) String() string {
	switch r {
	case RedSpymaster:
		return "red-spymaster"
	case RedOperative:
		return "red-operative"
	case BlueSpymaster:
		return "blue-spymaster"
	case BlueOperative:
		return "blue-operative"
	case Spectator:
		return "spectator"
	default:
		return "?"
	}
}

// ParseRole converts a stored role string back to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "red-spymaster":
		return RedSpymaster, nil
	case "red-operative":
		return RedOperative, nil
	case "blue-spymaster":
		return BlueSpymaster, nil
	case "blue-operative":
		return BlueOperative, nil
	case "spectator", "":
		return Spectator, nil
	default:
		return Spectator, fmt.Errorf("unknown role %q", s)
	}
}

// Package board derives the static per-game board from a game code.
//
// The board is a pure function of the code: it is computed fresh on every
// client and never persisted or synced, which is what lets a client that
// only knows the code reconstruct the full layout offline.
package board

import (
	"errors"

	"github.com/lox/codewords/internal/prng"
)

// Size is the number of cards on a board.
const Size = 25

// Role counts per board: 9 for the starting team, 8 for the other,
// 7 neutral and a single assassin.
const (
	startingTeamCards = 9
	otherTeamCards    = 8
	neutralCards      = 7
)

// ErrInsufficientWords is returned when the source word list cannot fill
// a board.
var ErrInsufficientWords = errors.New("word list must contain at least 25 entries")

// Team identifies one of the two playing teams.
type Team int

const (
	Red Team = iota
	Blue
)

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == Red {
		return Blue
	}
	return Red
}

func (t Team) String() string {
	if t == Red {
		return "red"
	}
	return "blue"
}

// CardRole is the hidden affiliation of a single card.
type CardRole int

const (
	RoleNeutral CardRole = iota
	RoleRed
	RoleBlue
	RoleAssassin
)

func (r CardRole) String() string {
	switch r {
	case RoleRed:
		return "red"
	case RoleBlue:
		return "blue"
	case RoleNeutral:
		return "neutral"
	case RoleAssassin:
		return "assassin"
	default:
		return "?"
	}
}

// TeamRole returns the CardRole for a team's cards.
func TeamRole(t Team) CardRole {
	if t == Red {
		return RoleRed
	}
	return RoleBlue
}

// Team returns the owning team of a card role and whether it has one.
func (r CardRole) Team() (Team, bool) {
	switch r {
	case RoleRed:
		return Red, true
	case RoleBlue:
		return Blue, true
	default:
		return Red, false
	}
}

// Board is the static layout for one game.
type Board struct {
	Words    [Size]string
	Roles    [Size]CardRole
	Starting Team
}

// HashCode folds a game code to a 32-bit seed using the classic
// polynomial string hash (h = h*31 + ch, wrapped to int32), negating
// negative values. The wraparound and the negation fold are part of the
// board compatibility contract; note the one two's-complement edge where
// the fold is a no-op (negating math.MinInt32 yields itself), which is
// harmless because seeding reinterprets the value as the same uint32
// either way.
func HashCode(code string) int32 {
	var h int32
	for _, ch := range code {
		h = h*31 + int32(ch)
	}
	if h < 0 {
		h = -h
	}
	return h
}

// Generate builds the board for a game code from the given word list.
// Both shuffles draw from a single PRNG stream, so the word order, the
// starting team and the role layout are all fixed by the code alone.
func Generate(code string, words []string) (*Board, error) {
	if len(words) < Size {
		return nil, ErrInsufficientWords
	}

	rng := prng.New(HashCode(code))

	b := &Board{}
	shuffled := prng.Shuffle(rng, words)
	copy(b.Words[:], shuffled[:Size])

	if rng.Next() > 0.5 {
		b.Starting = Red
	} else {
		b.Starting = Blue
	}

	roles := make([]CardRole, 0, Size)
	for i := 0; i < startingTeamCards; i++ {
		roles = append(roles, TeamRole(b.Starting))
	}
	for i := 0; i < otherTeamCards; i++ {
		roles = append(roles, TeamRole(b.Starting.Other()))
	}
	for i := 0; i < neutralCards; i++ {
		roles = append(roles, RoleNeutral)
	}
	roles = append(roles, RoleAssassin)

	copy(b.Roles[:], prng.Shuffle(rng, roles))

	return b, nil
}

// CardsFor returns how many cards on the board belong to a team.
func (b *Board) CardsFor(t Team) int {
	n := 0
	role := TeamRole(t)
	for _, r := range b.Roles {
		if r == role {
			n++
		}
	}
	return n
}

package game

import "github.com/lox/codewords/internal/board"

// GuessesUnlimited is the sentinel for a zero-count clue, which grants
// unlimited guesses for the rest of the turn.
const GuessesUnlimited = -1

// Clue is the word/count pair currently in play.
type Clue struct {
	Word  string
	Count int
}

// ClueEntry is one line of the append-only clue log. StillApplies is the
// only mutable field: operatives untick clues they consider spent.
type ClueEntry struct {
	Team         board.Team
	Word         string
	Count        int
	StillApplies bool
}

// PlayerInfo is what a game knows about a joined player.
type PlayerInfo struct {
	Role Role
	Name string
}

// State is the mutable, shared part of one game. The board is derived
// from the code and deliberately absent: it is never trusted from a
// remote payload.
type State struct {
	Code             string
	Revealed         [board.Size]bool
	CurrentTurn      board.Team
	RedRemaining     int
	BlueRemaining    int
	GameOver         bool
	Winner           *board.Team
	Clue             *Clue
	GuessesRemaining int
	ClueHistory      []ClueEntry
	Players          map[string]PlayerInfo
	LastAction       int64 // unix milliseconds; the last-write-wins key
	Redirect         string
}

// NewState returns the initial state for a freshly generated board.
func NewState(code string, b *board.Board) *State {
	st := &State{
		Code:        code,
		CurrentTurn: b.Starting,
		Players:     make(map[string]PlayerInfo),
	}
	st.RedRemaining = b.CardsFor(board.Red)
	st.BlueRemaining = b.CardsFor(board.Blue)
	return st
}

// Remaining returns the unrevealed card count for a team.
func (st *State) Remaining(t board.Team) int {
	if t == board.Red {
		return st.RedRemaining
	}
	return st.BlueRemaining
}

func (st *State) decRemaining(t board.Team) {
	if t == board.Red {
		st.RedRemaining--
	} else {
		st.BlueRemaining--
	}
}

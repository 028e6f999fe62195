package game

import (
	"fmt"

	"github.com/lox/codewords/internal/board"
)

// Snapshot is the syncable projection of a game's state: everything in
// State and nothing derived. This is what the record store persists and
// what change notifications carry. The board never appears here.
type Snapshot struct {
	GameCode         string                  `json:"game_code"`
	Revealed         [board.Size]bool        `json:"revealed"`
	CurrentTurn      string                  `json:"current_turn"`
	RedRemaining     int                     `json:"red_remaining"`
	BlueRemaining    int                     `json:"blue_remaining"`
	GameOver         bool                    `json:"game_over"`
	Winner           *string                 `json:"winner"`
	CurrentClue      *string                 `json:"current_clue"`
	CurrentClueCount int                     `json:"current_clue_number"`
	GuessesRemaining int                     `json:"guesses_remaining"`
	ClueHistory      []ClueEntrySnapshot     `json:"clue_history"`
	Players          map[string]PlayerRecord `json:"players"`
	LastAction       int64                   `json:"last_action"`
	Redirect         string                  `json:"new_game_redirect,omitempty"`
}

// ClueEntrySnapshot is the wire form of one clue log line.
type ClueEntrySnapshot struct {
	Team         string `json:"team"`
	Word         string `json:"word"`
	Count        int    `json:"number"`
	StillApplies bool   `json:"still_applies"`
}

// PlayerRecord is the wire form of one joined player.
type PlayerRecord struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// ParseTeam converts a wire team string back to a Team.
func ParseTeam(s string) (board.Team, error) {
	switch s {
	case "red":
		return board.Red, nil
	case "blue":
		return board.Blue, nil
	default:
		return board.Red, fmt.Errorf("unknown team %q", s)
	}
}

// Snapshot projects the current state onto the wire shape. The result
// shares nothing with the session's state, so it stays stable while the
// session keeps mutating.
func (s *Session) Snapshot() *Snapshot {
	st := s.state

	snap := &Snapshot{
		GameCode:         st.Code,
		Revealed:         st.Revealed,
		CurrentTurn:      st.CurrentTurn.String(),
		RedRemaining:     st.RedRemaining,
		BlueRemaining:    st.BlueRemaining,
		GameOver:         st.GameOver,
		GuessesRemaining: st.GuessesRemaining,
		LastAction:       st.LastAction,
		Redirect:         st.Redirect,
		Players:          make(map[string]PlayerRecord, len(st.Players)),
	}
	if st.Winner != nil {
		w := st.Winner.String()
		snap.Winner = &w
	}
	if st.Clue != nil {
		word := st.Clue.Word
		snap.CurrentClue = &word
		snap.CurrentClueCount = st.Clue.Count
	}
	for _, e := range st.ClueHistory {
		snap.ClueHistory = append(snap.ClueHistory, ClueEntrySnapshot{
			Team:         e.Team.String(),
			Word:         e.Word,
			Count:        e.Count,
			StillApplies: e.StillApplies,
		})
	}
	for id, p := range st.Players {
		snap.Players[id] = PlayerRecord{Role: p.Role.String(), Name: p.Name}
	}
	return snap
}

// Apply merges a remote snapshot into the session using last-write-wins:
// the snapshot is adopted wholesale when its timestamp is strictly greater
// than the local one, and discarded otherwise. Discarding equal timestamps
// is what makes redelivered and stale notifications harmless.
func (s *Session) Apply(snap *Snapshot) (bool, error) {
	if snap.LastAction <= s.state.LastAction {
		return false, nil
	}

	turn, err := ParseTeam(snap.CurrentTurn)
	if err != nil {
		return false, fmt.Errorf("rejecting snapshot: %w", err)
	}

	st := &State{
		Code:             snap.GameCode,
		Revealed:         snap.Revealed,
		CurrentTurn:      turn,
		RedRemaining:     snap.RedRemaining,
		BlueRemaining:    snap.BlueRemaining,
		GameOver:         snap.GameOver,
		GuessesRemaining: snap.GuessesRemaining,
		LastAction:       snap.LastAction,
		Redirect:         snap.Redirect,
		Players:          make(map[string]PlayerInfo, len(snap.Players)),
	}
	if snap.Winner != nil {
		w, err := ParseTeam(*snap.Winner)
		if err != nil {
			return false, fmt.Errorf("rejecting snapshot: %w", err)
		}
		st.Winner = &w
	}
	if snap.CurrentClue != nil {
		st.Clue = &Clue{Word: *snap.CurrentClue, Count: snap.CurrentClueCount}
	}
	for _, e := range snap.ClueHistory {
		team, err := ParseTeam(e.Team)
		if err != nil {
			return false, fmt.Errorf("rejecting snapshot: %w", err)
		}
		st.ClueHistory = append(st.ClueHistory, ClueEntry{
			Team:         team,
			Word:         e.Word,
			Count:        e.Count,
			StillApplies: e.StillApplies,
		})
	}
	for id, p := range snap.Players {
		role, err := ParseRole(p.Role)
		if err != nil {
			return false, fmt.Errorf("rejecting snapshot: %w", err)
		}
		st.Players[id] = PlayerInfo{Role: role, Name: p.Name}
	}

	s.state = st
	s.logger.Debug("adopted remote snapshot", "lastAction", snap.LastAction)
	return true, nil
}

// MarkSuperseded records that this game has been replaced by a new code.
// Publishing the resulting snapshot tells every subscribed client to hand
// off to the new game.
func (s *Session) MarkSuperseded(newCode string) {
	s.state.Redirect = newCode
	s.bumpTimestamp()
}

// Package game holds the authoritative in-memory state of one game and
// the transition rules that mutate it.
//
// A Session is single-writer: all local mutation happens on one goroutine.
// Concurrency exists across processes, not within one, and is reconciled
// by the synchronizer's last-write-wins merge, so there is no locking here.
package game

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/codewords/internal/board"
)

// Session owns the state of one game on one client: the derived board,
// the local player's role and the shared mutable state. All four game
// operations validate first and only mutate on success.
type Session struct {
	code   string
	board  *board.Board
	role   Role
	state  *State
	clock  quartz.Clock
	logger *log.Logger
}

// NewSession creates a session with a fresh initial state for the board.
func NewSession(code string, b *board.Board, role Role, logger *log.Logger, clock quartz.Clock) *Session {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Session{
		code:   code,
		board:  b,
		role:   role,
		state:  NewState(code, b),
		clock:  clock,
		logger: logger.WithPrefix("game").With("code", code),
	}
}

// Code returns the game code the session was created for.
func (s *Session) Code() string { return s.code }

// Board returns the derived static board.
func (s *Session) Board() *board.Board { return s.board }

// Role returns the local player's role.
func (s *Session) Role() Role { return s.role }

// SetRole changes the local player's role. Roles are a local concern; the
// shared state is untouched until the player joins or acts.
func (s *Session) SetRole(r Role) { s.role = r }

// State exposes the current state for observers. Callers must treat it as
// read-only; mutation goes through the operations below.
func (s *Session) State() *State { return s.state }

// JoinPlayer records a player's presence and role in the shared state.
func (s *Session) JoinPlayer(playerID, name string, role Role) {
	s.state.Players[playerID] = PlayerInfo{Role: role, Name: name}
	s.bumpTimestamp()
}

// GiveClue submits a clue for the current team. The count follows the
// tabletop convention: the team gets count+1 guesses, and a count of zero
// means unlimited guesses for the turn.
func (s *Session) GiveClue(word string, count int) error {
	st := s.state

	if st.GameOver {
		return reject(ReasonGameOver)
	}
	team, ok := s.role.Team()
	if !ok {
		return reject(ReasonSpectator)
	}
	if !s.role.IsSpymaster() {
		return reject(ReasonNotSpymaster)
	}
	if team != st.CurrentTurn {
		return reject(ReasonNotYourTurn)
	}
	if st.Clue != nil {
		return reject(ReasonClueActive)
	}

	word = strings.ToUpper(strings.TrimSpace(word))
	if len(strings.Fields(word)) != 1 {
		return reject(ReasonBadClue)
	}
	if count < 0 {
		return reject(ReasonBadClue)
	}

	st.Clue = &Clue{Word: word, Count: count}
	if count == 0 {
		st.GuessesRemaining = GuessesUnlimited
	} else {
		st.GuessesRemaining = count + 1
	}
	st.ClueHistory = append(st.ClueHistory, ClueEntry{
		Team:         team,
		Word:         word,
		Count:        count,
		StillApplies: true,
	})
	s.bumpTimestamp()

	s.logger.Info("clue given", "team", team, "word", word, "count", count)
	return nil
}

// RevealCard flips a card for the current team's operative and resolves
// the turn. Resolution order matters: the assassin dominates everything,
// then a team running out of cards wins outright (even when the revealing
// team just cleared the opponent's last card for them), then a wrong-team
// or neutral card ends the turn, and only then does guess bookkeeping run.
func (s *Session) RevealCard(index int) error {
	st := s.state

	if st.GameOver {
		return reject(ReasonGameOver)
	}
	team, ok := s.role.Team()
	if !ok {
		return reject(ReasonSpectator)
	}
	if !s.role.IsOperative() {
		return reject(ReasonNotOperative)
	}
	if team != st.CurrentTurn {
		return reject(ReasonNotYourTurn)
	}
	if st.Clue == nil {
		return reject(ReasonNoClue)
	}
	if index < 0 || index >= board.Size {
		return reject(ReasonBadIndex)
	}
	if st.Revealed[index] {
		return reject(ReasonAlreadyRevealed)
	}

	st.Revealed[index] = true
	role := s.board.Roles[index]

	switch {
	case role == board.RoleAssassin:
		winner := team.Other()
		st.GameOver = true
		st.Winner = &winner
		s.logger.Info("assassin revealed", "index", index, "winner", winner)

	case role == board.RoleNeutral:
		s.logger.Info("neutral revealed", "index", index)
		s.endTurn()

	default:
		cardTeam, _ := role.Team()
		st.decRemaining(cardTeam)

		switch {
		case st.Remaining(cardTeam) == 0:
			st.GameOver = true
			st.Winner = &cardTeam
			s.logger.Info("last card revealed", "index", index, "winner", cardTeam)

		case cardTeam != team:
			s.logger.Info("wrong-team card revealed", "index", index, "card", cardTeam)
			s.endTurn()

		default:
			if st.GuessesRemaining != GuessesUnlimited {
				st.GuessesRemaining--
				if st.GuessesRemaining == 0 {
					s.endTurn()
				}
			}
			s.logger.Info("card revealed", "index", index, "card", cardTeam,
				"guessesRemaining", st.GuessesRemaining)
		}
	}

	s.bumpTimestamp()
	return nil
}

// EndTurn passes play to the other team, clearing the active clue. Only
// the team whose turn it is may give it up.
func (s *Session) EndTurn() error {
	if s.state.GameOver {
		return reject(ReasonGameOver)
	}
	team, ok := s.role.Team()
	if !ok {
		return reject(ReasonSpectator)
	}
	if team != s.state.CurrentTurn {
		return reject(ReasonNotYourTurn)
	}

	s.endTurn()
	s.bumpTimestamp()
	return nil
}

// ToggleClueMark flips the still-applies flag on a clue log entry. Any
// role with visibility may do this at any point in the game.
func (s *Session) ToggleClueMark(index int) error {
	if index < 0 || index >= len(s.state.ClueHistory) {
		return reject(ReasonBadIndex)
	}
	s.state.ClueHistory[index].StillApplies = !s.state.ClueHistory[index].StillApplies
	s.bumpTimestamp()
	return nil
}

func (s *Session) endTurn() {
	st := s.state
	st.Clue = nil
	st.GuessesRemaining = 0
	st.CurrentTurn = st.CurrentTurn.Other()
}

// bumpTimestamp advances LastAction to now, or by one millisecond past
// the previous value when the clock has not ticked since the last
// accepted update. LastAction must never decrease or the update would
// lose the last-write-wins comparison against our own earlier state.
func (s *Session) bumpTimestamp() {
	ts := s.clock.Now().UnixMilli()
	if ts <= s.state.LastAction {
		ts = s.state.LastAction + 1
	}
	s.state.LastAction = ts
}

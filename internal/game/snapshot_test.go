package game

import (
	"encoding/json"
	"testing"

	"github.com/lox/codewords/internal/board"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := testSession(t, RedSpymaster)
	if err := s.GiveClue("APPLE", 2); err != nil {
		t.Fatal(err)
	}
	s.JoinPlayer("p1", "Alice", RedSpymaster)
	s.SetRole(RedOperative)
	if err := s.RevealCard(0); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}

	fresh := testSession(t, BlueOperative)
	adopted, err := fresh.Apply(&snap)
	if err != nil {
		t.Fatal(err)
	}
	if !adopted {
		t.Fatal("newer snapshot should be adopted")
	}

	st := fresh.State()
	if !st.Revealed[0] {
		t.Error("revealed mask lost in transit")
	}
	if st.RedRemaining != 8 {
		t.Errorf("RedRemaining = %d, want 8", st.RedRemaining)
	}
	if st.Clue == nil || st.Clue.Word != "APPLE" || st.Clue.Count != 2 {
		t.Errorf("clue = %+v, want APPLE/2", st.Clue)
	}
	if st.GuessesRemaining != 2 {
		t.Errorf("GuessesRemaining = %d, want 2", st.GuessesRemaining)
	}
	if len(st.ClueHistory) != 1 || st.ClueHistory[0].Team != board.Red {
		t.Errorf("clue history = %+v", st.ClueHistory)
	}
	p, ok := st.Players["p1"]
	if !ok || p.Name != "Alice" || p.Role != RedSpymaster {
		t.Errorf("player p1 = %+v", p)
	}
}

func TestApplyStaleAndDuplicate(t *testing.T) {
	s := testSession(t, RedSpymaster)
	if err := s.GiveClue("APPLE", 2); err != nil {
		t.Fatal(err)
	}

	// A snapshot with the same timestamp is a redelivery, not news.
	adopted, err := s.Apply(s.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if adopted {
		t.Error("duplicate snapshot should not be adopted")
	}

	stale := s.Snapshot()
	stale.LastAction -= 100
	stale.GuessesRemaining = 0
	stale.CurrentClue = nil
	adopted, err = s.Apply(stale)
	if err != nil {
		t.Fatal(err)
	}
	if adopted {
		t.Error("stale snapshot should not be adopted")
	}
	if s.State().GuessesRemaining != 3 {
		t.Errorf("GuessesRemaining = %d, want 3", s.State().GuessesRemaining)
	}
}

func TestApplyRejectsMalformedTeam(t *testing.T) {
	s := testSession(t, RedOperative)
	snap := s.Snapshot()
	snap.LastAction++
	snap.CurrentTurn = "green"
	adopted, err := s.Apply(snap)
	if err == nil {
		t.Fatal("malformed team should be rejected")
	}
	if adopted {
		t.Error("malformed snapshot should not be adopted")
	}
}

func TestWinnerOnWire(t *testing.T) {
	s := testSession(t, RedOperative)
	giveClue(t, s, "FRUIT", 1)
	if err := s.RevealCard(24); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if !snap.GameOver {
		t.Error("snapshot should carry game over")
	}
	if snap.Winner == nil || *snap.Winner != "blue" {
		t.Errorf("winner = %v, want blue", snap.Winner)
	}
}

func TestMarkSuperseded(t *testing.T) {
	s := testSession(t, RedOperative)
	before := s.State().LastAction
	s.MarkSuperseded("NEWGAM")
	if s.State().Redirect != "NEWGAM" {
		t.Errorf("redirect = %q, want NEWGAM", s.State().Redirect)
	}
	if s.State().LastAction <= before {
		t.Error("marking superseded should bump the timestamp")
	}
}

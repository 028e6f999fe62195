package game

// RejectReason discriminates why a transition was refused. Every rejected
// action carries one so the caller can show a specific message instead of
// a generic failure.
type RejectReason int

const (
	ReasonGameOver RejectReason = iota
	ReasonNotYourTurn
	ReasonNotSpymaster
	ReasonNotOperative
	ReasonSpectator
	ReasonNoClue
	ReasonClueActive
	ReasonAlreadyRevealed
	ReasonBadClue
	ReasonBadIndex
)

// Message returns the user-facing explanation for a rejection.
func (r RejectReason) Message() string {
	switch r {
	case ReasonGameOver:
		return "the game is already over"
	case ReasonNotYourTurn:
		return "it is not your team's turn"
	case ReasonNotSpymaster:
		return "only the current team's spymaster can give a clue"
	case ReasonNotOperative:
		return "only the current team's operative can reveal a card"
	case ReasonSpectator:
		return "spectators cannot act"
	case ReasonNoClue:
		return "wait for your spymaster to give a clue"
	case ReasonClueActive:
		return "a clue is already in play"
	case ReasonAlreadyRevealed:
		return "that card has already been revealed"
	case ReasonBadClue:
		return "a clue must be a single non-empty word"
	case ReasonBadIndex:
		return "no such card"
	default:
		return "action not allowed"
	}
}

// RuleError is the rejection produced by an invalid transition. State is
// never mutated when one is returned.
type RuleError struct {
	Reason RejectReason
}

func (e *RuleError) Error() string {
	return e.Reason.Message()
}

func reject(reason RejectReason) error {
	return &RuleError{Reason: reason}
}

// ReasonOf extracts the rejection reason from an error, if it has one.
func ReasonOf(err error) (RejectReason, bool) {
	if re, ok := err.(*RuleError); ok {
		return re.Reason, true
	}
	return 0, false
}

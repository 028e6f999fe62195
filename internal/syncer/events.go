package syncer

// EventType discriminates synchronizer events.
type EventType string

const (
	// EventAdopted fires when a strictly-newer remote snapshot replaced
	// local state; observers should redisplay.
	EventAdopted EventType = "adopted"

	// EventPublished fires after a successful remote publish.
	EventPublished EventType = "published"

	// EventSavedLocally fires when publish retries were exhausted and the
	// state was kept in the local cache only. Non-fatal: the local replica
	// stays authoritative until the next successful publish.
	EventSavedLocally EventType = "saved_locally"

	// EventConnectionLost fires when subscription retries were exhausted.
	// Fatal for the realtime channel; manual reconnection is required,
	// though periodic reconciliation keeps running.
	EventConnectionLost EventType = "connection_lost"

	// EventRedirect fires when a snapshot announced that the game was
	// superseded. Code carries the new game code; the subscription has
	// already been torn down and none of the snapshot's other fields were
	// applied.
	EventRedirect EventType = "redirect"
)

// Event is a synchronizer notification consumed by the UI layer.
type Event struct {
	Type EventType
	Code string // new game code for EventRedirect
	Err  error  // cause for EventSavedLocally / EventConnectionLost
}

// PublishResult is the typed outcome of a publish attempt.
type PublishResult int

const (
	// Published means the remote store accepted the write.
	Published PublishResult = iota
	// SavedLocally means every remote attempt failed; only the cache holds
	// the latest state.
	SavedLocally
	// LocalOnly means no remote store is configured.
	LocalOnly
)

func (r PublishResult) String() string {
	switch r {
	case Published:
		return "published"
	case SavedLocally:
		return "saved locally"
	case LocalOnly:
		return "local only"
	default:
		return "?"
	}
}

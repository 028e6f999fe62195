// Package store defines the two external collaborators of the sync layer:
// a shared keyed record store with change notifications, and a local
// key-value cache used for backup persistence and identity storage.
package store

import (
	"context"
	"encoding/json"

	"github.com/lox/codewords/internal/game"
)

// RecordStore is the shared remote store, one record per game code. It is
// the only shared mutable resource in the system; there is no locking and
// no merge beyond the last-write-wins rule applied by consumers.
type RecordStore interface {
	// Get fetches the record for a code. The second return is false when
	// no record exists yet.
	Get(ctx context.Context, code string) (*game.Snapshot, bool, error)

	// Put upserts the record for the snapshot's game code.
	Put(ctx context.Context, snap *game.Snapshot) error

	// Subscribe opens a change-notification stream filtered to one code.
	Subscribe(ctx context.Context, code string) (Subscription, error)
}

// Subscription is a cancellable change-notification stream. Updates is
// closed when the stream ends; Err reports why, or nil after Close.
type Subscription interface {
	Updates() <-chan *game.Snapshot
	Err() error
	Close()
}

// Cache is the local key-value cache. Writes are single-process and never
// fail the calling operation, so the interface carries no errors; the
// sqlite implementation logs failures instead of propagating them.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// CloneSnapshot deep-copies a snapshot through its wire encoding, so
// stored records never alias a session's live state.
func CloneSnapshot(snap *game.Snapshot) *game.Snapshot {
	raw, err := json.Marshal(snap)
	if err != nil {
		panic("snapshot not marshalable: " + err.Error())
	}
	var out game.Snapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		panic("snapshot not unmarshalable: " + err.Error())
	}
	return &out
}

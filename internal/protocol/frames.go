// Package protocol defines the JSON frame protocol spoken between the
// websocket record store client and the sync server. This is this repo's
// own protocol, not an emulation of any hosted provider's wire format.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// FrameType identifies the type of frame.
type FrameType string

const (
	// Client -> Server
	TypeGet         FrameType = "get"
	TypePut         FrameType = "put"
	TypeSubscribe   FrameType = "subscribe"
	TypeUnsubscribe FrameType = "unsubscribe"

	// Server -> Client
	TypeRecord FrameType = "record" // reply to get
	TypeAck    FrameType = "ack"    // reply to put/subscribe/unsubscribe
	TypeUpdate FrameType = "update" // change notification
	TypeError  FrameType = "error"
)

// Frame is a single protocol message. Seq correlates a request with its
// reply; updates carry no Seq since they are unsolicited.
type Frame struct {
	Type      FrameType       `json:"type"`
	Seq       int64           `json:"seq,omitempty"`
	Code      string          `json:"code,omitempty"`
	Found     bool            `json:"found,omitempty"`
	Record    json.RawMessage `json:"record,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewFrame creates a frame with the record payload marshaled in place.
func NewFrame(t FrameType, seq int64, code string, record any) (*Frame, error) {
	f := &Frame{
		Type:      t,
		Seq:       seq,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal record: %w", err)
		}
		f.Record = raw
		f.Found = true
	}
	return f, nil
}

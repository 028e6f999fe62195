package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/protocol"
)

// WSStore is a RecordStore backed by a sync server over a websocket.
// Requests are correlated with replies by sequence number; change
// notifications arrive unsolicited and are fanned out to the per-code
// subscription.
type WSStore struct {
	serverURL string
	timeout   time.Duration
	logger    *log.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	seq       int64
	pending   map[int64]chan *protocol.Frame
	subs      map[string]*wsSubscription
	readErr   error

	done      chan struct{}
	closeOnce sync.Once
}

// NewWSStore creates a store client for the given server URL. The timeout
// bounds each individual request; retry policy lives in the synchronizer.
func NewWSStore(serverURL string, timeout time.Duration, logger *log.Logger) *WSStore {
	return &WSStore{
		serverURL: serverURL,
		timeout:   timeout,
		logger:    logger.WithPrefix("wsstore"),
		pending:   make(map[int64]chan *protocol.Frame),
		subs:      make(map[string]*wsSubscription),
		done:      make(chan struct{}),
	}
}

// Connect establishes the websocket connection and starts the read pump.
func (s *WSStore) Connect(ctx context.Context) error {
	u, err := url.Parse(s.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/sync"
	}

	s.logger.Info("connecting to sync server", "url", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	go s.readPump()
	return nil
}

// Close shuts the connection down and fails anything still in flight.
func (s *WSStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		conn := s.conn
		s.connected = false
		s.mu.Unlock()

		if conn != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		}
	})
	return nil
}

// IsConnected reports whether the read pump is still alive.
func (s *WSStore) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Get implements RecordStore.
func (s *WSStore) Get(ctx context.Context, code string) (*game.Snapshot, bool, error) {
	reply, err := s.request(ctx, protocol.TypeGet, code, nil)
	if err != nil {
		return nil, false, err
	}
	if !reply.Found {
		return nil, false, nil
	}

	var snap game.Snapshot
	if err := json.Unmarshal(reply.Record, &snap); err != nil {
		return nil, false, fmt.Errorf("malformed record for %s: %w", code, err)
	}
	return &snap, true, nil
}

// Put implements RecordStore.
func (s *WSStore) Put(ctx context.Context, snap *game.Snapshot) error {
	_, err := s.request(ctx, protocol.TypePut, snap.GameCode, snap)
	return err
}

// Subscribe implements RecordStore. Only one subscription per code may be
// open at a time; the synchronizer tears the old one down before opening
// a new one.
func (s *WSStore) Subscribe(ctx context.Context, code string) (Subscription, error) {
	s.mu.Lock()
	if _, exists := s.subs[code]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("already subscribed to %s", code)
	}
	s.mu.Unlock()

	if _, err := s.request(ctx, protocol.TypeSubscribe, code, nil); err != nil {
		return nil, err
	}

	sub := &wsSubscription{
		store:   s,
		code:    code,
		updates: make(chan *game.Snapshot, 16),
	}

	s.mu.Lock()
	s.subs[code] = sub
	s.mu.Unlock()

	return sub, nil
}

// request sends a frame and waits for its correlated reply.
func (s *WSStore) request(ctx context.Context, t protocol.FrameType, code string, record any) (*protocol.Frame, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	if !s.connected {
		err := s.readErr
		s.mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("not connected: %w", err)
		}
		return nil, fmt.Errorf("not connected")
	}
	s.seq++
	seq := s.seq
	frame, err := protocol.NewFrame(t, seq, code, record)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	reply := make(chan *protocol.Frame, 1)
	s.pending[seq] = reply
	writeErr := s.conn.WriteJSON(frame)
	s.mu.Unlock()

	if writeErr != nil {
		s.dropPending(seq)
		return nil, fmt.Errorf("write failed: %w", writeErr)
	}

	select {
	case f := <-reply:
		if f == nil {
			// The reply channel was closed by a connection failure.
			return nil, fmt.Errorf("connection lost")
		}
		if f.Type == protocol.TypeError {
			return nil, fmt.Errorf("server rejected %s: %s", t, f.Error)
		}
		return f, nil
	case <-ctx.Done():
		s.dropPending(seq)
		return nil, ctx.Err()
	case <-s.done:
		s.dropPending(seq)
		return nil, fmt.Errorf("connection closed")
	}
}

func (s *WSStore) dropPending(seq int64) {
	s.mu.Lock()
	delete(s.pending, seq)
	s.mu.Unlock()
}

// readPump dispatches incoming frames until the connection dies. Replies
// are routed to their waiting request; updates go to the code's
// subscription. A read failure ends every open subscription so the
// synchronizer can start its resubscribe backoff.
func (s *WSStore) readPump() {
	for {
		var frame protocol.Frame
		err := s.conn.ReadJSON(&frame)
		if err != nil {
			select {
			case <-s.done:
				// Deliberate close, not a failure.
				err = nil
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					s.logger.Error("websocket error", "error", err)
				}
			}
			s.fail(err)
			return
		}

		switch {
		case frame.Seq != 0:
			s.mu.Lock()
			reply, ok := s.pending[frame.Seq]
			delete(s.pending, frame.Seq)
			s.mu.Unlock()
			if ok {
				reply <- &frame
			}

		case frame.Type == protocol.TypeUpdate:
			s.dispatchUpdate(&frame)

		default:
			s.logger.Warn("unexpected frame", "type", frame.Type)
		}
	}
}

func (s *WSStore) dispatchUpdate(frame *protocol.Frame) {
	var snap game.Snapshot
	if err := json.Unmarshal(frame.Record, &snap); err != nil {
		s.logger.Warn("malformed update", "code", frame.Code, "error", err)
		return
	}

	s.mu.Lock()
	sub, ok := s.subs[frame.Code]
	s.mu.Unlock()
	if !ok {
		return
	}

	// Non-blocking: a stalled consumer catches up via reconciliation.
	select {
	case sub.updates <- &snap:
	default:
		s.logger.Warn("dropping update for slow subscriber", "code", frame.Code)
	}
}

// fail tears down all subscriptions and in-flight requests after the read
// pump exits.
func (s *WSStore) fail(err error) {
	s.mu.Lock()
	s.connected = false
	s.readErr = err
	subs := s.subs
	s.subs = make(map[string]*wsSubscription)
	pending := s.pending
	s.pending = make(map[int64]chan *protocol.Frame)
	s.mu.Unlock()

	for _, reply := range pending {
		close(reply)
	}
	for _, sub := range subs {
		sub.end(err)
	}
}

type wsSubscription struct {
	store     *WSStore
	code      string
	updates   chan *game.Snapshot
	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

func (s *wsSubscription) Updates() <-chan *game.Snapshot { return s.updates }

func (s *wsSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close unsubscribes and ends the stream with a nil error.
func (s *wsSubscription) Close() {
	s.store.mu.Lock()
	if s.store.subs[s.code] == s {
		delete(s.store.subs, s.code)
	}
	s.store.mu.Unlock()

	// Best-effort: the server also drops subscriptions when the
	// connection goes away.
	ctx, cancel := context.WithTimeout(context.Background(), s.store.timeout)
	defer cancel()
	_, _ = s.store.request(ctx, protocol.TypeUnsubscribe, s.code, nil)

	s.end(nil)
}

func (s *wsSubscription) end(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.updates)
	})
}

// Package syncserver is the reference sync backend: a keyed record store
// with per-code change notifications over websockets. Clients speak the
// frame protocol from internal/protocol.
//
// Records are guarded by the same strictly-greater timestamp rule the
// clients apply, so the store itself can never regress a game no matter
// how writes race.
package syncserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/lox/codewords/internal/game"
	"github.com/lox/codewords/internal/protocol"
)

// Server hosts game records and fans out updates to subscribers.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu      sync.RWMutex
	records map[string]*game.Snapshot
	conns   map[*conn]struct{}
	subs    map[string]map[*conn]struct{}
}

// NewServer creates a server that will listen on addr.
func NewServer(addr string, logger *log.Logger) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// The sync protocol carries no credentials and game codes are
			// unguessable capability tokens, so any origin may connect.
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger.WithPrefix("syncserver"),
		records: make(map[string]*game.Snapshot),
		conns:   make(map[*conn]struct{}),
		subs:    make(map[string]map[*conn]struct{}),
	}
}

// Handler returns the HTTP handler, exposed separately so tests can mount
// it on an httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", s.handleSync)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	s.logger.Info("starting sync server", "addr", s.addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.closeAll()
		return srv.Shutdown(context.Background())
	})
	return g.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newConn(ws, s, s.logger)

	s.mu.Lock()
	s.conns[c] = struct{}{}
	total := len(s.conns)
	s.mu.Unlock()
	s.logger.Info("client connected", "total", total)

	go c.writePump()
	c.readPump() // blocks until the connection dies

	s.dropConn(c)
}

func (s *Server) dropConn(c *conn) {
	s.mu.Lock()
	delete(s.conns, c)
	for code := range c.codes {
		delete(s.subs[code], c)
		if len(s.subs[code]) == 0 {
			delete(s.subs, code)
		}
	}
	total := len(s.conns)
	s.mu.Unlock()

	c.close()
	s.logger.Info("client disconnected", "total", total)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// getRecord returns the stored snapshot for a code, if any.
func (s *Server) getRecord(code string) (*game.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.records[code]
	return snap, ok
}

// putRecord stores a snapshot unless an equal-or-newer one is already
// held, and notifies the code's subscribers on acceptance. Returns
// whether the write was accepted; a rejected write is not an error, just
// a lost last-write-wins race.
func (s *Server) putRecord(snap *game.Snapshot, from *conn) bool {
	s.mu.Lock()
	if prev, ok := s.records[snap.GameCode]; ok && snap.LastAction <= prev.LastAction {
		s.mu.Unlock()
		return false
	}
	s.records[snap.GameCode] = snap

	targets := make([]*conn, 0, len(s.subs[snap.GameCode]))
	for c := range s.subs[snap.GameCode] {
		if c != from {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()

	if len(targets) == 0 {
		return true
	}

	update, err := protocol.NewFrame(protocol.TypeUpdate, 0, snap.GameCode, snap)
	if err != nil {
		s.logger.Error("failed to encode update", "code", snap.GameCode, "error", err)
		return true
	}
	for _, c := range targets {
		c.send(update)
	}
	s.logger.Debug("update fanned out", "code", snap.GameCode, "subscribers", len(targets))
	return true
}

func (s *Server) subscribe(code string, c *conn) {
	s.mu.Lock()
	if s.subs[code] == nil {
		s.subs[code] = make(map[*conn]struct{})
	}
	s.subs[code][c] = struct{}{}
	c.codes[code] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) unsubscribe(code string, c *conn) {
	s.mu.Lock()
	delete(s.subs[code], c)
	if len(s.subs[code]) == 0 {
		delete(s.subs, code)
	}
	delete(c.codes, code)
	s.mu.Unlock()
}

// parseRecord decodes and sanity-checks an incoming record payload.
func parseRecord(raw json.RawMessage, code string) (*game.Snapshot, error) {
	var snap game.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	if snap.GameCode == "" {
		snap.GameCode = code
	}
	return &snap, nil
}

package syncserver

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/codewords/internal/protocol"
)

// conn is one client connection. Writes go through a buffered channel
// drained by a single write pump, since websocket connections allow only
// one concurrent writer.
type conn struct {
	ws        *websocket.Conn
	server    *Server
	logger    *log.Logger
	out       chan *protocol.Frame
	codes     map[string]struct{} // codes this conn is subscribed to
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(ws *websocket.Conn, server *Server, logger *log.Logger) *conn {
	return &conn{
		ws:     ws,
		server: server,
		logger: logger,
		out:    make(chan *protocol.Frame, 64),
		codes:  make(map[string]struct{}),
		done:   make(chan struct{}),
	}
}

// send queues a frame without blocking the caller; a connection that
// cannot drain its queue is dropped rather than allowed to stall fanout.
func (c *conn) send(f *protocol.Frame) {
	select {
	case c.out <- f:
	case <-c.done:
	default:
		c.logger.Warn("dropping unresponsive connection")
		c.close()
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *conn) writePump() {
	for {
		select {
		case f := <-c.out:
			if err := c.ws.WriteJSON(f); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) readPump() {
	for {
		var frame protocol.Frame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("read failed", "error", err)
			}
			return
		}
		c.handleFrame(&frame)
	}
}

func (c *conn) handleFrame(f *protocol.Frame) {
	switch f.Type {
	case protocol.TypeGet:
		snap, ok := c.server.getRecord(f.Code)
		var reply *protocol.Frame
		var err error
		if ok {
			reply, err = protocol.NewFrame(protocol.TypeRecord, f.Seq, f.Code, snap)
		} else {
			reply, err = protocol.NewFrame(protocol.TypeRecord, f.Seq, f.Code, nil)
		}
		if err != nil {
			c.sendError(f, err.Error())
			return
		}
		c.send(reply)

	case protocol.TypePut:
		snap, err := parseRecord(f.Record, f.Code)
		if err != nil {
			c.sendError(f, fmt.Sprintf("malformed record: %v", err))
			return
		}
		c.server.putRecord(snap, c)
		c.sendAck(f)

	case protocol.TypeSubscribe:
		c.server.subscribe(f.Code, c)
		c.sendAck(f)

	case protocol.TypeUnsubscribe:
		c.server.unsubscribe(f.Code, c)
		c.sendAck(f)

	default:
		c.sendError(f, fmt.Sprintf("unknown frame type %q", f.Type))
	}
}

func (c *conn) sendAck(req *protocol.Frame) {
	ack, err := protocol.NewFrame(protocol.TypeAck, req.Seq, req.Code, nil)
	if err != nil {
		return
	}
	c.send(ack)
}

func (c *conn) sendError(req *protocol.Frame, msg string) {
	f, err := protocol.NewFrame(protocol.TypeError, req.Seq, req.Code, nil)
	if err != nil {
		return
	}
	f.Error = msg
	c.send(f)
}

// File: network/websocket/websocket.go
// Package websocket glues WebSocket transport onto the fiber runtime.
// The heavy lifting is done by gorilla/websocket; this layer owns
// connection identity, the single-writer discipline and message
// dispatch.

package websocket

import (
	"net"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pmconrad/fc/api"
	"github.com/pmconrad/fc/fiber"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
	Timestamp().Str("component", "websocket").Logger()

// MessageHandler receives inbound text messages.
type MessageHandler func(msg string)

// Connection is one WebSocket peer. Send may be called from several
// fibers; writes are serialized by a fiber-aware mutex.
type Connection struct {
	id      string
	conn    *gws.Conn
	writeMu fiber.Mutex
	handler atomic.Pointer[MessageHandler]
	closed  *fiber.Promise[struct{}]
}

func newConnection(conn *gws.Conn) *Connection {
	return &Connection{
		id:     uuid.NewString(),
		conn:   conn,
		closed: fiber.NewPromise[struct{}](),
	}
}

// ID returns the connection's unique id.
func (c *Connection) ID() string { return c.id }

// OnMessage installs the inbound message handler.
func (c *Connection) OnMessage(h MessageHandler) {
	c.handler.Store(&h)
}

// Send writes a text message to the peer.
func (c *Connection) Send(msg string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(gws.TextMessage, []byte(msg)); err != nil {
		return api.IOf(err, "websocket send")
	}
	return nil
}

// Close tears the connection down; a pending receive loop observes it
// as closed.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// Closed returns a future completed when the read loop ends.
func (c *Connection) Closed() *fiber.Future[struct{}] {
	return c.closed.Future()
}

// readLoop pumps inbound messages into the handler until the peer or
// the local side closes the connection.
func (c *Connection) readLoop() {
	defer c.closed.Set(struct{}{})
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			logger.Debug().Str("conn", c.id).Err(err).Msg("websocket read loop ended")
			return
		}
		if kind != gws.TextMessage && kind != gws.BinaryMessage {
			continue
		}
		if h := c.handler.Load(); h != nil {
			(*h)(string(data))
		}
	}
}

// ConnectionHandler is invoked for every accepted connection before its
// read loop starts.
type ConnectionHandler func(*Connection)

// Server accepts WebSocket connections over HTTP.
type Server struct {
	upgrader gws.Upgrader
	handler  ConnectionHandler
	server   *http.Server
	addr     atomic.Value // string
}

// NewServer creates a server; install the connection handler before
// Listen.
func NewServer(h ConnectionHandler) *Server {
	return &Server{handler: h}
}

// Listen binds addr (host:port, port 0 for ephemeral) and serves in the
// background. It returns once the listener is bound.
func (s *Server) Listen(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWS)
	s.server = &http.Server{Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return api.IOf(err, "websocket server listen %s", addr)
	}
	s.addr.Store(ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("websocket server stopped")
		}
	}()
	return nil
}

// Addr returns the bound address after Listen.
func (s *Server) Addr() string {
	if a, ok := s.addr.Load().(string); ok {
		return a
	}
	return ""
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := newConnection(conn)
	logger.Info().Str("conn", c.id).Str("peer", conn.RemoteAddr().String()).
		Msg("websocket connection accepted")
	if s.handler != nil {
		s.handler(c)
	}
	go c.readLoop()
}

// Close stops accepting and closes the listener.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

// Connect dials a WebSocket server and starts the connection's read
// loop. url is of the form ws://host:port/.
func Connect(url string) (*Connection, error) {
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, api.IOf(err, "websocket connect %s", url)
	}
	c := newConnection(conn)
	go c.readLoop()
	return c, nil
}

// Package inspector serves a live text dump of one or more HIR graphs over
// a websocket, for the `sentra hir inspect` subcommand: a graph rebuilt or
// re-optimized while a viewer is attached streams its new dump to every
// connected session rather than requiring a fresh request per snapshot.
// Modeled on internal/lsp.Server's read-loop-over-a-session shape, with
// net/http + gorilla/websocket standing in for the LSP's stdio framing.
package inspector

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Snapshot is one dump of a named graph, pushed to every attached session.
type Snapshot struct {
	Graph string // the compiled function's name, e.g. "main" or "fib"
	Dump  string // hir.Printer output for that graph's current state
}

// Session is one connected viewer.
type Session struct {
	ID   string
	conn *websocket.Conn
	send chan Snapshot
}

// Server holds the set of attached viewer sessions and broadcasts every
// Publish call to all of them. There is no persistence: a viewer that
// attaches after a Publish missed it, same as tailing a log.
type Server struct {
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewServer constructs an inspector server. addr is not bound here;
// callers call ListenAndServe with it once ready.
func NewServer() *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The inspector is a local developer tool, not a public
			// endpoint; accept any origin rather than replicating a CORS
			// allowlist nobody configures for a loopback debug server.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*Session),
	}
}

// ListenAndServe registers the websocket handler on addr and blocks.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/hir/stream", s.handleStream)
	log.Printf("inspector: listening on %s (GET /hir/stream to attach)", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("inspector: upgrade failed: %v", err)
		return
	}

	sess := &Session{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan Snapshot, 16),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	go s.writeLoop(sess)
	s.readLoop(sess)
}

// readLoop only exists to notice the peer disconnecting (the inspector
// protocol is push-only; viewers never send meaningful frames) and clean
// the session up when it does.
func (s *Server) readLoop(sess *Session) {
	defer s.detach(sess)
	for {
		if _, _, err := sess.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(sess *Session) {
	for snap := range sess.send {
		msg := fmt.Sprintf("--- %s ---\n%s", snap.Graph, snap.Dump)
		if err := sess.conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
	}
}

func (s *Server) detach(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		delete(s.sessions, sess.ID)
		close(sess.send)
		sess.conn.Close()
	}
}

// Publish pushes snap to every currently attached session. Full send
// buffers are dropped rather than blocked on — a slow viewer should not
// stall the compile loop feeding this server.
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		select {
		case sess.send <- snap:
		default:
		}
	}
}

// SessionCount reports how many viewers are currently attached.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

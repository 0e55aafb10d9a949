package observer

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/groundnpc/ecs"
	"github.com/milk9111/groundnpc/npc"
)

const (
	clientBuffer = 8
	writeWait    = 5 * time.Second
	readWait     = 60 * time.Second
)

type client struct {
	id   uint64
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// Server streams one JSON frame per published tick to websocket observers.
// Slow observers miss frames rather than stall the simulation.
type Server struct {
	log      *log.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	dropped  atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]*client
	latest  []byte
	pending []EventView
}

func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]*client),
	}
}

// HandleEvent queues a world event for the next published frame.
func (s *Server) HandleEvent(evt ecs.Event) {
	s.mu.Lock()
	s.pending = append(s.pending, EventView{Tick: evt.Tick, Type: evt.Type, Data: evt.Data})
	s.mu.Unlock()
}

// PublishTick snapshots w, attaches the queued events and broadcasts it.
func (s *Server) PublishTick(w *ecs.World, agents *npc.Collection) error {
	f := Snapshot(w, agents)
	s.mu.Lock()
	f.Events, s.pending = s.pending, nil
	s.mu.Unlock()
	return s.Publish(f)
}

func (s *Server) Publish(f Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = b
	for _, c := range s.clients {
		select {
		case c.send <- b:
		default:
			s.dropped.Add(1)
		}
	}
	return nil
}

// Clients is the number of connected observers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped counts frames skipped for slow observers.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

// Close disconnects every observer.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		c.close()
		_ = c.conn.Close()
		delete(s.clients, id)
	}
}

// Handler serves GET /observe. Only loopback peers are accepted.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}

		c := &client{
			id:   s.nextID.Add(1),
			conn: conn,
			send: make(chan []byte, clientBuffer),
			done: make(chan struct{}),
		}
		s.mu.Lock()
		if s.latest != nil {
			c.send <- s.latest
		}
		s.clients[c.id] = c
		s.mu.Unlock()
		s.log.Printf("observer: client=%d connected from %s", c.id, r.RemoteAddr)

		go s.writeLoop(c)
		s.readLoop(c)

		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		c.close()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
		s.log.Printf("observer: client=%d disconnected", c.id)
	}
}

// readLoop discards client messages; it returns when the peer goes away.
func (s *Server) readLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		default:
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(readWait))
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				_ = c.conn.Close()
				return
			}
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

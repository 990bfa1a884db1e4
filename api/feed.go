package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/novaforge-labs/gravity-ledger/token"
)

// Feed broadcasts ledger audit events to websocket subscribers. It
// implements token.EventSink, so it is created before the ledger and wired
// in as (part of) its sink.
type Feed struct {
	log      *logrus.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]bool
	events    chan token.Event
}

// NewFeed creates a feed and starts its broadcast loop.
func NewFeed(log *logrus.Logger) *Feed {
	if log == nil {
		log = logrus.StandardLogger()
	}
	f := &Feed{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan token.Event, 256),
	}
	go f.broadcastLoop()
	return f
}

// ServeHTTP upgrades the connection and registers it for broadcasts. The
// connection stays registered until the peer goes away.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	f.clientsMu.Lock()
	f.clients[conn] = true
	f.clientsMu.Unlock()
	f.log.WithField("remote", conn.RemoteAddr().String()).Info("event feed subscriber connected")

	// Drain the reader so control frames are processed; drop the client on
	// any read error.
	go func() {
		defer f.dropClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *Feed) dropClient(conn *websocket.Conn) {
	f.clientsMu.Lock()
	delete(f.clients, conn)
	f.clientsMu.Unlock()
	conn.Close()
}

// Record implements token.EventSink. It is called with the ledger lock held,
// so it only enqueues; the broadcast loop does the network writes. When the
// queue is full the event is dropped from the feed (it is still in the
// ledger's own log and any durable sink).
func (f *Feed) Record(event token.Event) {
	select {
	case f.events <- event:
	default:
		f.log.WithField("type", string(event.Type)).Warn("event feed queue full, dropping")
	}
}

// broadcastLoop serializes all websocket writes on one goroutine.
func (f *Feed) broadcastLoop() {
	for event := range f.events {
		f.clientsMu.RLock()
		conns := make([]*websocket.Conn, 0, len(f.clients))
		for conn := range f.clients {
			conns = append(conns, conn)
		}
		f.clientsMu.RUnlock()

		for _, conn := range conns {
			if err := conn.WriteJSON(event); err != nil {
				f.log.WithError(err).Debug("dropping event feed subscriber")
				f.dropClient(conn)
			}
		}
	}
}

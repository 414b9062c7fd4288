// Package relay carries the broadcast transport between processes: a
// websocket hub that echoes every envelope to all connections of a channel,
// and a client that implements transport.Transport on top of it.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/transport"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type channel struct {
	bus     *transport.Bus
	clients int
}

// Hub routes envelopes between the connections of each named channel.
type Hub struct {
	pingInterval time.Duration
	logger       *logrus.Entry

	mu       sync.Mutex
	channels map[string]*channel
	closed   bool
}

// NewHub creates a hub that pings idle connections every pingInterval.
func NewHub(pingInterval time.Duration) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		pingInterval: pingInterval,
		logger:       log.With(logrus.Fields{"component": "relay"}),
		channels:     make(map[string]*channel),
	}
}

// Handler returns the HTTP routes of the hub.
func (h *Hub) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/channels", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(h.Channels())
	})

	r.Get("/channels/{channel}", h.serveChannel)

	return r
}

// ChannelInfo describes one open channel.
type ChannelInfo struct {
	Name    string `json:"name"`
	Clients int    `json:"clients"`
}

// Channels lists open channels by name.
func (h *Hub) Channels() []ChannelInfo {
	h.mu.Lock()
	defer h.mu.Unlock()

	infos := make([]ChannelInfo, 0, len(h.channels))
	for name, ch := range h.channels {
		infos = append(infos, ChannelInfo{Name: name, Clients: ch.clients})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Close drops every channel. Open connections are closed as their buses stop.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for name, ch := range h.channels {
		_ = ch.bus.Close()
		delete(h.channels, name)
	}
	return nil
}

func (h *Hub) join(name string) (*transport.Bus, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, transport.ErrClosed
	}

	ch, ok := h.channels[name]
	if !ok {
		ch = &channel{bus: transport.NewBus()}
		h.channels[name] = ch
	}
	ch.clients++
	return ch.bus, nil
}

func (h *Hub) leave(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.channels[name]
	if !ok {
		return
	}
	ch.clients--
	if ch.clients <= 0 {
		_ = ch.bus.Close()
		delete(h.channels, name)
	}
}

func (h *Hub) serveChannel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "channel")

	bus, err := h.join(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer h.leave(name)

	c := &peer{
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: h.logger.WithFields(logrus.Fields{"channel": name, "remote": r.RemoteAddr}),
	}

	// listen before the handshake completes so nothing posted after Dial returns is missed
	sub, err := bus.Listen(c.deliver)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("upgrade: %s", err)
		return
	}
	c.ws = ws

	c.logger.Debug("connected")
	go c.writePump(h.pingInterval)
	c.readPump(bus, h.pingInterval)

	sub.Close()
	close(c.done)
	c.logger.Debug("disconnected")
}

// Serve runs the hub on addr until ctx is done.
func Serve(ctx context.Context, addr string, h *Hub) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("relay: %w", err)
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = h.Close()
	return server.Shutdown(shutdown)
}

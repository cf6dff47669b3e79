// Package websocket streams derived-analytics updates to UI clients.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/derivs-back/internal/messaging"
	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// Hub fans NATS analytics updates out to WebSocket clients
type Hub struct {
	nats     *messaging.NATSClient
	logger   *logrus.Entry
	cfg      *config.WebSocketConfig
	upgrader websocket.Upgrader

	clients   map[*client]struct{}
	clientsMu sync.RWMutex

	broadcast chan *models.StreamMessage
	done      chan struct{}
	wg        sync.WaitGroup
	running   bool
}

// client is one connected WebSocket consumer
type client struct {
	conn    *websocket.Conn
	send    chan *models.StreamMessage
	symbols map[string]struct{}
	mu      sync.RWMutex
}

// NewHub creates a new stream hub
func NewHub(nats *messaging.NATSClient, cfg *config.WebSocketConfig, logger *logrus.Logger) *Hub {
	return &Hub{
		nats:   nats,
		logger: logger.WithField("component", "ws-hub"),
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*client]struct{}),
		broadcast: make(chan *models.StreamMessage, 256),
		done:      make(chan struct{}),
	}
}

// Start subscribes to analytics updates and runs the broadcast loop
func (h *Hub) Start(ctx context.Context) error {
	if h.running {
		return nil
	}
	h.running = true

	if err := h.nats.SubscribeSignals(func(state *models.SignalState) {
		h.enqueue(&models.StreamMessage{
			Type:      models.StreamTypeSignal,
			Symbol:    state.Symbol,
			Timestamp: time.Now(),
			Payload:   state,
		})
	}); err != nil {
		return err
	}

	if err := h.nats.SubscribeMaxPain(func(symbol string, insights *models.MaxPainInsights) {
		h.enqueue(&models.StreamMessage{
			Type:      models.StreamTypeMaxPain,
			Symbol:    symbol,
			Timestamp: time.Now(),
			Payload:   insights,
		})
	}); err != nil {
		return err
	}

	if err := h.nats.SubscribeOISnapshots(func(symbol string, records []models.OIChangeRecord, totals models.OITotals) {
		h.enqueue(&models.StreamMessage{
			Type:      models.StreamTypeOI,
			Symbol:    symbol,
			Timestamp: time.Now(),
			Payload: map[string]interface{}{
				"records": records,
				"totals":  totals,
			},
		})
	}); err != nil {
		return err
	}

	h.wg.Add(1)
	go h.broadcastLoop(ctx)

	return nil
}

// Stop stops the hub and disconnects all clients
func (h *Hub) Stop() {
	if !h.running {
		return
	}
	close(h.done)

	// Close connections first so blocked read loops unwind before the wait
	h.clientsMu.Lock()
	for c := range h.clients {
		c.conn.Close()
	}
	h.clients = make(map[*client]struct{})
	h.clientsMu.Unlock()

	h.wg.Wait()
	h.running = false
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleConnection upgrades an HTTP request into a streaming client
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	h.clientsMu.RLock()
	full := len(h.clients) >= h.cfg.MaxClients
	h.clientsMu.RUnlock()
	if full {
		http.Error(w, "too many clients", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	c := &client{
		conn:    conn,
		send:    make(chan *models.StreamMessage, 64),
		symbols: make(map[string]struct{}),
	}

	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()

	h.wg.Add(2)
	go h.readLoop(c)
	go h.writeLoop(c)
}

// enqueue pushes a message onto the broadcast queue, dropping on overflow
func (h *Hub) enqueue(msg *models.StreamMessage) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("Broadcast queue full, dropping update")
	}
}

// broadcastLoop fans queued messages out to subscribed clients
func (h *Hub) broadcastLoop(ctx context.Context) {
	defer h.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case msg := <-h.broadcast:
			h.clientsMu.RLock()
			for c := range h.clients {
				if !c.wants(msg.Symbol) {
					continue
				}
				select {
				case c.send <- msg:
				default:
					// Slow client: drop the update rather than block the hub
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// readLoop consumes subscribe/unsubscribe commands from a client
func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer h.removeClient(c)

	for {
		var cmd models.ClientCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}

		c.mu.Lock()
		switch cmd.Action {
		case "subscribe":
			for _, s := range cmd.Symbols {
				c.symbols[s] = struct{}{}
			}
		case "unsubscribe":
			for _, s := range cmd.Symbols {
				delete(c.symbols, s)
			}
		}
		c.mu.Unlock()
	}
}

// writeLoop pushes queued messages and pings to a client
func (h *Hub) writeLoop(c *client) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				h.removeClient(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.removeClient(c)
				return
			}
		}
	}
}

// wants reports whether the client subscribed to a symbol. Clients with
// no explicit subscriptions receive everything.
func (c *client) wants(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.symbols) == 0 {
		return true
	}
	_, ok := c.symbols[symbol]
	return ok
}

func (h *Hub) removeClient(c *client) {
	h.clientsMu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.conn.Close()
	}
	h.clientsMu.Unlock()
}

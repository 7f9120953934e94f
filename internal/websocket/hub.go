// Package websocket fans presentation state out to the TV screens.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sales-leaderboard/internal/metrics"
)

// ErrBacklog reports that the broadcast buffer is full.
var ErrBacklog = errors.New("websocket: broadcast backlog full")

// InboundHandler receives messages sent by screens.
type InboundHandler func(clientID string, msg Inbound)

// Hub tracks connected screens and broadcasts to all of them. The latest alert and leaderboard
// messages are replayed to screens that connect later.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	latest  map[MessageType][]byte
	inbound InboundHandler
	origins *OriginChecker
	logger  zerolog.Logger
	now     func() time.Time
}

type outbound struct {
	kind    MessageType
	payload []byte
}

// NewHub creates a hub accepting the given browser origins. An empty list allows all.
func NewHub(allowedOrigins []string, logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		latest:     make(map[MessageType][]byte),
		origins:    NewOriginChecker(allowedOrigins),
		logger:     logger.With().Str("component", "ws_hub").Logger(),
		now:        time.Now,
	}
}

// OnInbound installs the handler for screen messages.
func (h *Hub) OnInbound(fn InboundHandler) {
	h.mu.Lock()
	h.inbound = fn
	h.mu.Unlock()
}

// Run processes registrations and broadcasts until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			metrics.ConnectedScreens.Set(0)
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			replay := make([][]byte, 0, len(h.latest))
			for _, kind := range []MessageType{MessageTypeLeaderboard, MessageTypeAlert} {
				if msg, ok := h.latest[kind]; ok {
					replay = append(replay, msg)
				}
			}
			total := len(h.clients)
			h.mu.Unlock()

			for _, msg := range replay {
				select {
				case client.send <- msg:
				default:
				}
			}
			metrics.ConnectedScreens.Set(float64(total))
			h.logger.Info().Str("client", client.id).Int("total", total).Msg("screen connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.ConnectedScreens.Set(float64(total))
			h.logger.Info().Str("client", client.id).Int("total", total).Msg("screen disconnected")

		case msg := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var slow []*Client
			for _, client := range clients {
				select {
				case client.send <- msg.payload:
				default:
					slow = append(slow, client)
				}
			}

			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				metrics.ConnectedScreens.Set(float64(total))
				h.logger.Warn().Int("removed", len(slow)).Int("total", total).Msg("dropped slow screens")
			}
		}
	}
}

// Broadcast encodes data in an envelope and queues it for every screen. It never blocks.
func (h *Hub) Broadcast(kind MessageType, data any) error {
	payload, err := json.Marshal(Envelope{Type: kind, Timestamp: h.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", kind, err)
	}

	if kind == MessageTypeAlert || kind == MessageTypeLeaderboard {
		h.mu.Lock()
		h.latest[kind] = payload
		h.mu.Unlock()
	}

	select {
	case h.broadcast <- outbound{kind: kind, payload: payload}:
		return nil
	default:
		h.logger.Warn().Str("type", string(kind)).Msg("broadcast backlog full, message dropped")
		return ErrBacklog
	}
}

// ClientCount returns how many screens are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ReadyCount returns how many screens reported unlocked audio.
func (h *Hub) ReadyCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for client := range h.clients {
		if client.ready.Load() {
			n++
		}
	}
	return n
}

func (h *Hub) dispatch(client *Client, msg Inbound) {
	if msg.Type == MessageTypeReady {
		client.ready.Store(true)
		h.logger.Debug().Str("client", client.id).Msg("screen audio unlocked")
	}
	h.mu.RLock()
	fn := h.inbound
	h.mu.RUnlock()
	if fn != nil {
		fn(client.id, msg)
	}
}

package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"go-resell-backoffice/internal/event"
)

type broadcast struct {
	origin  string
	message []byte
}

// Hub relays bus events to connected operator sessions so listings can be
// re-fetched after another session mutates them. All client bookkeeping
// happens on the Run goroutine.
type Hub struct {
	bus event.Bus

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(bus event.Bus) *Hub {
	return &Hub{
		bus:        bus,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx ends or the bus drops the subscription.
func (h *Hub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe("websocket")
	defer unsubscribe()
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			slog.Debug("websocket client joined", "clients", len(h.clients))
		case c := <-h.unregister:
			h.drop(c)
		case e, ok := <-events:
			if !ok {
				return
			}
			message, err := json.Marshal(e)
			if err != nil {
				slog.Error("encode event for websocket", "type", e.Type, "error", err)
				continue
			}
			h.fanOut(broadcast{origin: e.Origin, message: message})
		}
	}
}

func (h *Hub) fanOut(b broadcast) {
	for c := range h.clients {
		if !c.follows(b.origin) {
			continue
		}
		select {
		case c.send <- b.message:
		default:
			slog.Warn("websocket client too slow, disconnecting")
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) shutdown() {
	close(h.done)
	for c := range h.clients {
		h.drop(c)
	}
}

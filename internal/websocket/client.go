package websocket

import (
	"log/slog"
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced by the CORS layer in front of the router.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Client is one websocket connection. Clients only listen; anything they
// send is read and discarded to keep the pong handler running.
type Client struct {
	hub     *Hub
	conn    *gorilla.Conn
	send    chan []byte
	origins map[string]struct{}
}

// follows reports whether events about origin go to this client. A client
// that named no origins follows all of them.
func (c *Client) follows(origin string) bool {
	if len(c.origins) == 0 || origin == "" {
		return true
	}
	_, ok := c.origins[origin]
	return ok
}

// ServeWS upgrades the request and registers the connection with the hub.
// Repeated ?origin= parameters restrict the stream to those tables.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	var origins map[string]struct{}
	if names := r.URL.Query()["origin"]; len(names) > 0 {
		origins = make(map[string]struct{}, len(names))
		for _, name := range names {
			origins[name] = struct{}{}
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 64), origins: origins}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if gorilla.IsUnexpectedCloseError(err, gorilla.CloseGoingAway, gorilla.CloseNormalClosure) {
				slog.Debug("websocket closed", "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(gorilla.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(gorilla.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gorilla.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

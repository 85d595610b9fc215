package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"card-flip/config"
	"card-flip/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins; the game carries no credentials.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SessionStarter defines what the Hub needs from the session manager.
type SessionStarter interface {
	Start(send chan []byte) *game.Session
}

// Hub tracks one client per live session. Its maps are only touched by Run.
type Hub struct {
	Clients    map[string]*Client // by session id
	Register   chan *Client
	Unregister chan *Client
	Sessions   SessionStarter
	Config     *config.Config

	done chan struct{}
}

// NewHub creates a new Hub.
func NewHub(cfg *config.Config, sessions SessionStarter) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Sessions:   sessions,
		Config:     cfg,
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It should be run as a goroutine. When ctx is
// cancelled every open connection is closed and Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping hub", "tag", "ws", "clients", len(h.Clients))
			for id, c := range h.Clients {
				c.Conn.Close()
				h.drop(id, c)
			}
			return
		case c := <-h.Register:
			h.Clients[c.Session.ID] = c
			slog.Info("client connected", "tag", "ws", "session", c.Session.ID, "clients", len(h.Clients))
		case c := <-h.Unregister:
			if cur, ok := h.Clients[c.Session.ID]; ok && cur == c {
				h.drop(c.Session.ID, c)
				slog.Info("client disconnected", "tag", "ws", "session", c.Session.ID, "clients", len(h.Clients))
			}
		}
	}
}

// drop forgets a client, ends its session and closes its send channel.
func (h *Hub) drop(id string, c *Client) {
	delete(h.Clients, id)
	c.Session.Post(game.Action{Type: game.ActionClose})
	close(c.Send)
}

// register hands c to Run. It fails once the hub has stopped.
func (h *Hub) register(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// unregister hands c back to Run; after shutdown Run already dropped it.
func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// ServeWS upgrades the request, starts a game session for the connection
// and pumps messages between the two.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tag", "ws", "err", err)
		return
	}

	c := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	c.Session = h.Sessions.Start(c.Send)
	if !h.register(c) {
		c.Session.Post(game.Action{Type: game.ActionClose})
		conn.Close()
		return
	}

	go c.WritePump()
	go c.ReadPump()
}

package ws

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"card-flip/game"
	"card-flip/wsutil"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client is a middleman between the websocket connection and its session.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Session *game.Session
}

// ReadPump decodes client messages into session actions. It runs in its
// own goroutine per connection and ends the session when the peer leaves.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "tag", "ws", "session", c.Session.ID, "err", err)
			}
			return
		}

		action, errMsg := parseAction(message)
		if errMsg != "" {
			c.sendError(errMsg)
			continue
		}
		if !c.Session.Post(action) {
			return
		}
	}
}

// WritePump writes session messages to the connection, one JSON document
// per frame, and keeps it alive with pings. It closes the connection when
// the send channel is closed or the session ends on its own.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("websocket write failed", "tag", "ws", "session", c.Session.ID, "err", err)
				return
			}

		case <-c.Session.Done:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"))
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// parseAction turns one client message into a session action. A non-empty
// second result is the error to report back instead.
func parseAction(data []byte) (game.Action, string) {
	var envelope InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return game.Action{}, "Invalid message format."
	}

	switch envelope.Type {
	case "click", "hover":
		var msg PointerMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil || msg.X == nil || msg.Y == nil {
			return game.Action{}, "Invalid " + envelope.Type + " message."
		}
		typ := game.ActionClick
		if envelope.Type == "hover" {
			typ = game.ActionHover
		}
		return game.Action{Type: typ, X: *msg.X, Y: *msg.Y}, ""
	case "flip":
		var msg FlipMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil || msg.Index == nil {
			return game.Action{}, "Invalid flip message."
		}
		return game.Action{Type: game.ActionFlip, Index: *msg.Index}, ""
	case "save_score":
		var msg SaveScoreMsg
		if err := json.Unmarshal(envelope.Raw, &msg); err != nil {
			return game.Action{}, "Invalid save_score message."
		}
		return game.Action{Type: game.ActionSaveScore, Name: msg.Name}, ""
	case "reset":
		return game.Action{Type: game.ActionReset}, ""
	case "play_again":
		return game.Action{Type: game.ActionPlayAgain}, ""
	case "show_leaderboard":
		return game.Action{Type: game.ActionShowLeaderboard}, ""
	case "refresh_leaderboard":
		return game.Action{Type: game.ActionRefreshLeaderboard}, ""
	case "close_leaderboard":
		return game.Action{Type: game.ActionCloseLeaderboard}, ""
	default:
		return game.Action{}, "Unknown message type: " + envelope.Type
	}
}

func (c *Client) sendError(message string) {
	wsutil.SendJSON(c.Send, game.ErrorMsg{Type: "error", Message: message})
}

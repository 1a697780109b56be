package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PrayerWall/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBuffer is per-client. A viewer that cannot drain this many events
	// is disconnected rather than allowed to stall everyone else.
	sendBuffer = 64
)

// Client is one live viewer connection. A reconnecting browser is a brand
// new Client with a fresh snapshot; no state carries over.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump consumes frames from the browser. The only meaningful inbound
// event is "new-comment"; everything else is logged and dropped.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Client %s read error: %v", c.id, err)
			}
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("Client %s sent malformed frame: %v", c.id, err)
			continue
		}

		switch event.Event {
		case EventNewComment:
			c.handleNewComment(event.Data)
		default:
			log.Printf("Client %s sent unknown event %q", c.id, event.Event)
		}
	}
}

// handleNewComment persists the comment and, only on success, hands it to
// the hub for fan-out. A failed write never reaches any viewer.
func (c *Client) handleNewComment(raw json.RawMessage) {
	var in models.CommentCreate
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("Client %s sent malformed comment: %v", c.id, err)
		return
	}

	comment, err := c.hub.store.CreateComment(context.Background(), in)
	if err != nil {
		log.Printf("Failed to store comment from client %s: %v", c.id, err)
		return
	}

	c.hub.Broadcast(NewComment(comment))
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings. All writes go through here, one goroutine per conn.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue marshals the event onto the client's send channel. Returns false
// when the client is too slow to keep its buffer from overflowing.
func (c *Client) enqueue(event Event) bool {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event.Event, err)
		return true
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

package realtime

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/store"
)

// Hub owns the set of live viewer connections and fans every confirmed
// mutation out to all of them, the triggering client included. The single
// run loop is what gives every viewer the same event order: registration,
// unregistration and broadcasts are all serialized through it.
type Hub struct {
	store store.Store

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	// clientCount shadows len(clients) for the health endpoint, which reads
	// from outside the run loop.
	clientCount atomic.Int64

	upgrader websocket.Upgrader
}

func NewHub(st store.Store) *Hub {
	return &Hub{
		store:      st,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients come from arbitrary origins; the socket carries
			// no credentials and every inbound event is re-validated.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run is the hub event loop. Start it exactly once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			// The snapshot is fetched and enqueued inside the run loop, before
			// the client joins the broadcast set. Any mutation broadcast while
			// the snapshot loads waits in h.broadcast and is delivered after
			// registration, so the client misses nothing and the initial
			// history is always its first frame.
			snapshot, err := h.store.ListComments(context.Background(), models.LiveFeedLimit)
			if err != nil {
				log.Printf("Failed to load comment snapshot: %v", err)
				snapshot = []models.Comment{}
			}
			client.enqueue(InitialComments(snapshot))

			h.clients[client] = true
			h.clientCount.Store(int64(len(h.clients)))
			log.Printf("Client connected: %s (%d live)", client.id, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.clientCount.Store(int64(len(h.clients)))
				log.Printf("Client disconnected: %s (%d live)", client.id, len(h.clients))
			}

		case event := <-h.broadcast:
			for client := range h.clients {
				if !client.enqueue(event) {
					delete(h.clients, client)
					close(client.send)
					h.clientCount.Store(int64(len(h.clients)))
					log.Printf("Client %s too slow, dropping connection", client.id)
				}
			}
		}
	}
}

// Broadcast queues an event for delivery to every connected client. Call it
// only after the triggering store mutation has succeeded.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int64 {
	return h.clientCount.Load()
}

// HandleConnection upgrades the request and hands the new viewer to the run
// loop, which sends the comment snapshot before admitting it to broadcasts.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

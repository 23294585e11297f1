package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"minichess/internal/models"
)

// Feed event types
const (
	FeedRecordCreated = "record_created"
	FeedRecordUpdated = "record_updated"
	FeedRecordDeleted = "record_deleted"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST routes
	},
}

// Publisher relays feed messages to other server instances.
type Publisher interface {
	Publish(userID string, message []byte)
}

// FeedHandler streams record changes of one user to that user's open sockets.
type FeedHandler struct {
	hub       *Hub
	publisher Publisher
}

func NewFeedHandler() *FeedHandler {
	hub := NewHub()
	go hub.Run()
	return &FeedHandler{hub: hub}
}

// Hub maintains active connections and broadcasts messages
type Hub struct {
	// Map of userId -> map of clientId -> connection
	users map[string]map[string]*Client
	mu    sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	id     string
	send   chan []byte
}

type BroadcastMessage struct {
	UserID  string
	Message []byte
}

type FeedMessage struct {
	Type     string             `json:"type"`
	RecordID string             `json:"recordId"`
	Record   *models.GameRecord `json:"record,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		users:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.users[client.userID] == nil {
				h.users[client.userID] = make(map[string]*Client)
			}
			h.users[client.userID][client.id] = client
			h.mu.Unlock()
			log.Printf("Feed client registered: user=%s client=%s", client.userID, client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("Feed client unregistered: user=%s client=%s", client.userID, client.id)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for _, client := range h.users[msg.UserID] {
				select {
				case client.send <- msg.Message:
				default:
					// Slow reader, drop it
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.users[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client.id]; !ok {
		return
	}
	delete(clients, client.id)
	close(client.send)
	if len(clients) == 0 {
		delete(h.users, client.userID)
	}
}

// ClientCount returns the number of open sockets for userID.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) BroadcastToUser(userID string, message []byte) {
	h.broadcast <- &BroadcastMessage{UserID: userID, Message: message}
}

// BroadcastRecord notifies the record owner's sockets of a change.
func (f *FeedHandler) BroadcastRecord(eventType string, rec *models.GameRecord) {
	msg := FeedMessage{Type: eventType, RecordID: rec.ID.Hex()}
	if eventType != FeedRecordDeleted {
		msg.Record = rec
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Feed: failed to marshal %s: %v", eventType, err)
		return
	}
	f.hub.BroadcastToUser(rec.UserID, data)
	if f.publisher != nil {
		go f.publisher.Publish(rec.UserID, data)
	}
}

// SetPublisher makes every broadcast also reach the other instances.
func (f *FeedHandler) SetPublisher(p Publisher) {
	f.publisher = p
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Inbound frames are ignored, reading only services control messages
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// HandleFeed upgrades GET /ws/records/{userId}.
func (f *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if userID == "" {
		http.Error(w, "Missing userId", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:    f.hub,
		conn:   conn,
		userID: userID,
		id:     uuid.NewString(),
		send:   make(chan []byte, 256),
	}
	f.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// Hub exposes the underlying hub.
func (f *FeedHandler) Hub() *Hub {
	return f.hub
}

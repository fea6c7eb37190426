package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// CloseReplaced is sent to a connection that is being displaced by a
// newer connection for the same user.
const CloseReplaced = 4000

const writeWait = 10 * time.Second

// Client is one live websocket connection bound to a user. All writes
// go through Send/Close under the write mutex: gorilla connections
// allow only one concurrent writer.
type Client struct {
	UserID uuid.UUID

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient wraps an upgraded connection.
func NewClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, conn: conn}
}

// Send writes one outbound frame.
func (c *Client) Send(msg OutMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
	return c.conn.WriteJSON(msg)
}

// Close sends a close frame with the given code and closes the connection.
func (c *Client) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline := time.Now().Add(writeWait)
	c.conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
		websocket.FormatCloseMessage(code, reason), deadline)
	c.conn.Close() //nolint:errcheck
}

// Hub maintains the 1:1 user to connection mapping.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		log:     log,
	}
}

// Register binds the client to its user. If the user already has a live
// connection, the old one is closed with CloseReplaced before the new
// one takes its place.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	old := h.clients[client.UserID]
	h.clients[client.UserID] = client
	h.mu.Unlock()

	if old != nil {
		h.log.Info().Str("user_id", client.UserID.String()).Msg("displacing previous connection")
		old.Close(CloseReplaced, "replaced by a newer connection")
	}
}

// Unregister removes the mapping, but only if it still points at this
// client. A connection displaced by Register must not unmap its successor.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if h.clients[client.UserID] == client {
		delete(h.clients, client.UserID)
	}
	h.mu.Unlock()
}

// Get returns the user's live client, if any.
func (h *Hub) Get(userID uuid.UUID) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	return c, ok
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

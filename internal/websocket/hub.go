package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/reelsmith/api/internal/model"
)

// Client represents one WebSocket subscriber to a render job.
type Client struct {
	RenderID string
	Conn     *websocket.Conn
	Send     chan []byte
}

// Hub fans render-job updates out to websocket subscribers, grouped by
// render id. It satisfies the pipeline's Notifier interface.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu sync.RWMutex
}

type broadcastMessage struct {
	renderID string
	message  []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.RenderID] == nil {
				h.clients[client.RenderID] = make(map[*Client]bool)
			}
			h.clients[client.RenderID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.RenderID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.RenderID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.renderID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// RenderProgress pushes a progress update to the job's subscribers.
func (h *Hub) RenderProgress(renderID string, progress int, status model.JobStatus) {
	h.send(renderID, model.WSProgressMessage{
		Type:     model.WSMessageTypeProgress,
		RenderID: renderID,
		Status:   status,
		Progress: progress,
	})
}

// RenderComplete announces a finished render.
func (h *Hub) RenderComplete(renderID, outputURL string) {
	h.send(renderID, model.WSCompleteMessage{
		Type:      model.WSMessageTypeComplete,
		RenderID:  renderID,
		OutputURL: outputURL,
	})
}

// RenderFailed announces a failed render.
func (h *Hub) RenderFailed(renderID, message string) {
	h.send(renderID, model.WSErrorMessage{
		Type:     model.WSMessageTypeError,
		RenderID: renderID,
		Error: model.WSError{
			Code:    "RENDER_FAILED",
			Message: message,
		},
	})
}

func (h *Hub) send(renderID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal websocket message: %v", err)
		return
	}
	h.broadcast <- &broadcastMessage{renderID: renderID, message: data}
}

// HandleConnection serves one subscriber connection until it closes.
func (h *Hub) HandleConnection(c *websocket.Conn, renderID string) {
	client := &Client{
		RenderID: renderID,
		Conn:     c,
		Send:     make(chan []byte, 256),
	}

	h.register <- client
	defer func() { h.unregister <- client }()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			client.Send <- pong
		}
	}
}

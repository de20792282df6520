package ws

import (
	"encoding/json"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgQuotaCounted     MessageType = "quota_counted"
	MsgQuotaExhausted   MessageType = "quota_exhausted"
	MsgQuotaReset       MessageType = "quota_reset"
	MsgSessionCompleted MessageType = "session_completed"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages monitor connections: admins watching a survey's quota and
// completion events during live collection.
type Hub struct {
	// Survey -> connections
	watchers map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents one monitor WebSocket connection
type Connection struct {
	SurveyID string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message to broadcast to a survey's watchers
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		watchers:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.watchers[conn.SurveyID] == nil {
				h.watchers[conn.SurveyID] = make(map[*Connection]bool)
			}
			h.watchers[conn.SurveyID][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.watchers[conn.SurveyID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.watchers, conn.SurveyID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for conn := range h.watchers[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Slow consumer: drop the message rather than block the hub
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection to the hub
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection from the hub
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToSurvey implements service.Broadcaster
func (h *Hub) BroadcastToSurvey(surveyID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message: &Message{
			Type:    MessageType(event),
			Payload: data,
		},
	}
}

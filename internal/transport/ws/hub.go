package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType defines the type of WebSocket message; values are the
// service.Msg* event names
type MessageType string

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans exam events out to the admins monitoring each exam
type Hub struct {
	// exam -> monitor connections
	monitors map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once
}

// Connection represents a monitor's WebSocket connection
type Connection struct {
	ExamID  string
	AdminID string
	Send    chan []byte
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	ExamID  string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		monitors:   make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.monitors[conn.ExamID] == nil {
				h.monitors[conn.ExamID] = make(map[*Connection]struct{})
			}
			h.monitors[conn.ExamID][conn] = struct{}{}
			h.mu.Unlock()
			slog.Info("monitor connected", "exam_id", conn.ExamID, "admin_id", conn.AdminID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.monitors[conn.ExamID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.monitors, conn.ExamID)
					}
					slog.Info("monitor disconnected", "exam_id", conn.ExamID, "admin_id", conn.AdminID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				slog.Error("failed to encode ws message", "type", msg.Message.Type, "error", err)
				continue
			}
			h.mu.RLock()
			for conn := range h.monitors[msg.ExamID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for examID, conns := range h.monitors {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.monitors, examID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Close disconnects every monitor and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Monitors returns how many admins are watching an exam
func (h *Hub) Monitors(examID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.monitors[examID])
}

// BroadcastToExam sends a message to an exam's monitors (implements service.Broadcaster)
func (h *Hub) BroadcastToExam(examID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode ws payload", "type", msgType, "error", err)
		return
	}

	msg := &BroadcastMessage{
		ExamID: examID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	default:
		slog.Warn("ws broadcast queue full, dropping message", "exam_id", examID, "type", msgType)
	}
}

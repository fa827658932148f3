package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fasthttp/websocket"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/engine"
)

const broadcastBuffer = 256

// Client conexión que recibe mensajes del hub. *websocket.Conn la cumple.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Message mensaje del servidor que no viene del motor (snapshot, error)
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type subscription struct {
	sessionID string
	client    Client
}

type envelope struct {
	sessionID string
	data      []byte
}

// Hub reparte los eventos de cada sesión a los navegadores suscritos
type Hub struct {
	sessions   map[string]map[Client]bool
	broadcast  chan envelope
	register   chan subscription
	unregister chan subscription
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		sessions:   make(map[string]map[Client]bool),
		broadcast:  make(chan envelope, broadcastBuffer),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run atiende registros y broadcasts hasta que se cancela ctx
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			h.mutex.Lock()
			clients, ok := h.sessions[sub.sessionID]
			if !ok {
				clients = make(map[Client]bool)
				h.sessions[sub.sessionID] = clients
			}
			clients[sub.client] = true
			total := len(clients)
			h.mutex.Unlock()
			h.logger.Info("🔌 Cliente WebSocket conectado",
				zap.String("session_id", sub.sessionID),
				zap.Int("clients", total),
			)

		case sub := <-h.unregister:
			h.mutex.Lock()
			h.remove(sub.sessionID, sub.client)
			h.mutex.Unlock()
			h.logger.Info("🔌 Cliente WebSocket desconectado", zap.String("session_id", sub.sessionID))

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.sessions[msg.sessionID] {
				if err := client.WriteMessage(websocket.TextMessage, msg.data); err != nil {
					h.logger.Warn("⚠️ Error enviando mensaje WebSocket",
						zap.String("session_id", msg.sessionID),
						zap.Error(err),
					)
					h.remove(msg.sessionID, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register suscribe un cliente a una sesión
func (h *Hub) Register(sessionID string, client Client) {
	select {
	case h.register <- subscription{sessionID: sessionID, client: client}:
	case <-h.done:
		client.Close()
	}
}

// Unregister da de baja un cliente y cierra su conexión
func (h *Hub) Unregister(sessionID string, client Client) {
	select {
	case h.unregister <- subscription{sessionID: sessionID, client: client}:
	case <-h.done:
	}
}

// Broadcast envía un evento del motor a todos los clientes de la sesión
func (h *Hub) Broadcast(sessionID string, event engine.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("❌ Error serializando evento", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	h.send(sessionID, data)
}

// BroadcastMessage envía un mensaje propio del servidor a la sesión
func (h *Hub) BroadcastMessage(sessionID, msgType string, data interface{}) {
	msgData, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("❌ Error serializando mensaje", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.send(sessionID, msgData)
}

// ClientCount clientes conectados a una sesión
func (h *Hub) ClientCount(sessionID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions[sessionID])
}

func (h *Hub) send(sessionID string, data []byte) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- envelope{sessionID: sessionID, data: data}:
	default:
		h.logger.Warn("⚠️ Cola de broadcast llena, mensaje descartado", zap.String("session_id", sessionID))
	}
}

// remove se llama con el mutex tomado
func (h *Hub) remove(sessionID string, client Client) {
	clients, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		client.Close()
	}
	if len(clients) == 0 {
		delete(h.sessions, sessionID)
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for sessionID, clients := range h.sessions {
		for client := range clients {
			client.Close()
		}
		delete(h.sessions, sessionID)
	}
	h.logger.Info("🛑 Hub WebSocket detenido")
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/services"
	websocketHub "github.com/backsoul/millonario/pkg/websocket"
)

// GameControlHandler conecta navegadores a una sesión por WebSocket: recibe
// intenciones y el hub les reparte los eventos del motor.
type GameControlHandler struct {
	sessionService *services.SessionService
	hub            *websocketHub.Hub
	logger         *zap.Logger
}

func NewGameControlHandler(sessionService *services.SessionService, hub *websocketHub.Hub, logger *zap.Logger) *GameControlHandler {
	return &GameControlHandler{
		sessionService: sessionService,
		hub:            hub,
		logger:         logger,
	}
}

var upgrader = websocket.FastHTTPUpgrader{
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true // Permitir conexiones desde cualquier origen en desarrollo
	},
}

// HandleWebSocket maneja GET /ws?session={id}
func (gc *GameControlHandler) HandleWebSocket(ctx *fasthttp.RequestCtx) {
	sessionID := string(ctx.QueryArgs().Peek("session"))
	if sessionID == "" {
		respondWithError(ctx, fasthttp.StatusBadRequest, "Parámetro 'session' es requerido")
		return
	}

	view, err := gc.sessionService.GetSession(ctx, sessionID)
	if err != nil {
		respondWithError(ctx, statusFor(err), "Sesión no encontrada")
		return
	}

	err = upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		// el snapshot se escribe antes de registrar: después solo escribe el hub
		snapshot, _ := json.Marshal(websocketHub.Message{Type: "snapshot", Data: view})
		if err := ws.WriteMessage(websocket.TextMessage, snapshot); err != nil {
			ws.Close()
			return
		}

		gc.hub.Register(sessionID, ws)
		defer gc.hub.Unregister(sessionID, ws)

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				gc.logger.Debug("Conexión WebSocket cerrada", zap.String("session_id", sessionID), zap.Error(err))
				return
			}
			gc.handleIntent(sessionID, data)
		}
	})

	if err != nil {
		gc.logger.Error("❌ Error upgrading to WebSocket", zap.Error(err))
		ctx.Error("Error upgrading to WebSocket", fasthttp.StatusInternalServerError)
	}
}

// handleIntent aplica una intención recibida por el socket. Los errores que
// el motor no comunica como evento se envían como mensaje "error".
func (gc *GameControlHandler) handleIntent(sessionID string, data []byte) {
	var intent models.Intent
	if err := json.Unmarshal(data, &intent); err != nil {
		gc.hub.BroadcastMessage(sessionID, "error", "JSON inválido")
		return
	}

	result, err := gc.sessionService.Dispatch(context.Background(), sessionID, intent)
	if err == nil {
		return
	}
	if result != nil && len(result.Events) > 0 {
		return
	}
	if !errors.Is(err, services.ErrUnknownAction) {
		gc.logger.Warn("⚠️ Intención rechazada",
			zap.String("session_id", sessionID),
			zap.String("action", intent.Action),
			zap.Error(err),
		)
	}
	gc.hub.BroadcastMessage(sessionID, "error", err.Error())
}

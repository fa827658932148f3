package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/services"
)

// actionFinish termina la sesión; no es un comando del motor
const actionFinish = "finish"

// SessionHandler maneja las peticiones HTTP para sesiones
type SessionHandler struct {
	sessionService *services.SessionService
	resultService  *services.ResultService
	logger         *zap.Logger
}

// NewSessionHandler crea una nueva instancia del handler de sesiones
func NewSessionHandler(sessionService *services.SessionService, resultService *services.ResultService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		resultService:  resultService,
		logger:         logger,
	}
}

// CreateSession maneja POST /api/sessions
func (h *SessionHandler) CreateSession(ctx *fasthttp.RequestCtx) {
	var request models.SessionCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &request); err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
		return
	}

	result, err := h.sessionService.CreateSession(ctx, request.PlayerName, request.SetID)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error creando sesión: %v", err))
		return
	}

	respondWithSuccess(ctx, result, "Sesión creada exitosamente")
}

// GetSession maneja GET /api/sessions/{id}
func (h *SessionHandler) GetSession(ctx *fasthttp.RequestCtx) {
	sessionID, _ := ctx.UserValue("id").(string)

	view, err := h.sessionService.GetSession(ctx, sessionID)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Sesión no encontrada: %s", sessionID))
		return
	}

	respondWithSuccess(ctx, view, "Sesión obtenida exitosamente")
}

// GetActiveSessions maneja GET /api/sessions/active
func (h *SessionHandler) GetActiveSessions(ctx *fasthttp.RequestCtx) {
	sessions, err := h.sessionService.ActiveSessions(ctx)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error obteniendo sesiones activas: %v", err))
		return
	}

	respondWithSuccess(ctx, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	}, "Sesiones activas obtenidas exitosamente")
}

// HandleAction maneja POST /api/sessions/{id}/{action}
func (h *SessionHandler) HandleAction(ctx *fasthttp.RequestCtx) {
	sessionID, _ := ctx.UserValue("id").(string)
	action, _ := ctx.UserValue("action").(string)

	if action == actionFinish {
		h.finishSession(ctx, sessionID)
		return
	}

	var intent models.Intent
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &intent); err != nil {
			respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
			return
		}
	}
	intent.Action = action

	result, err := h.sessionService.Dispatch(ctx, sessionID, intent)
	if err != nil {
		respondWithJSON(ctx, statusFor(err), models.APIResponse{
			Success: false,
			Error:   err.Error(),
			Data:    result,
		})
		return
	}

	message := "Acción aplicada"
	if !result.Applied {
		message = "Acción ignorada en el estado actual"
	}
	respondWithSuccess(ctx, result, message)
}

func (h *SessionHandler) finishSession(ctx *fasthttp.RequestCtx, sessionID string) {
	view, err := h.sessionService.FinishSession(ctx, sessionID)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error terminando sesión: %v", err))
		return
	}

	respondWithSuccess(ctx, view, "Sesión terminada exitosamente")
}

// GetPlayerHistory maneja GET /api/sessions/player/{playerName}/history
func (h *SessionHandler) GetPlayerHistory(ctx *fasthttp.RequestCtx) {
	playerName, _ := ctx.UserValue("playerName").(string)

	history, err := h.resultService.PlayerHistory(ctx, playerName)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error obteniendo historial: %v", err))
		return
	}

	respondWithSuccess(ctx, map[string]interface{}{
		"playerName": playerName,
		"games":      history,
		"count":      len(history),
	}, "Historial obtenido exitosamente")
}

// GetLeaderboard maneja GET /api/leaderboard?limit=
func (h *SessionHandler) GetLeaderboard(ctx *fasthttp.RequestCtx) {
	limit := 0
	if raw := string(ctx.QueryArgs().Peek("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(ctx, fasthttp.StatusBadRequest, "Parámetro 'limit' inválido")
			return
		}
		limit = n
	}

	leaderboard, err := h.resultService.Leaderboard(ctx, limit)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error obteniendo tabla de posiciones: %v", err))
		return
	}

	respondWithSuccess(ctx, leaderboard, "Tabla de posiciones obtenida exitosamente")
}

package handlers

import (
	"encoding/json"
	"errors"

	"github.com/valyala/fasthttp"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/services"
)

// respondWithJSON envía una respuesta JSON
func respondWithJSON(ctx *fasthttp.RequestCtx, statusCode int, response interface{}) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.SetStatusCode(statusCode)

	jsonData, err := json.Marshal(response)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"success": false, "error": "Error al serializar respuesta"}`)
		return
	}

	ctx.SetBody(jsonData)
}

// respondWithError envía una respuesta de error
func respondWithError(ctx *fasthttp.RequestCtx, statusCode int, message string) {
	respondWithJSON(ctx, statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// respondWithSuccess envía una respuesta exitosa
func respondWithSuccess(ctx *fasthttp.RequestCtx, data interface{}, message string) {
	respondWithJSON(ctx, fasthttp.StatusOK, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// statusFor traduce errores de dominio a códigos HTTP
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrSetNotFound):
		return fasthttp.StatusNotFound
	case errors.Is(err, engine.ErrNotEnoughQuestions):
		return fasthttp.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidJSON),
		errors.Is(err, services.ErrUnknownAction),
		errors.Is(err, services.ErrPlayerNameRequired),
		errors.Is(err, services.ErrIndexRequired),
		errors.Is(err, engine.ErrNoSelection),
		errors.Is(err, engine.ErrNoQuestionsLoaded):
		return fasthttp.StatusBadRequest
	default:
		return fasthttp.StatusInternalServerError
	}
}

package handlers

import (
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/services"
)

// QuestionHandler maneja las peticiones HTTP para sets de preguntas
type QuestionHandler struct {
	questionService *services.QuestionService
	questionsFile   string
	logger          *zap.Logger
}

// NewQuestionHandler crea una nueva instancia del handler
func NewQuestionHandler(questionService *services.QuestionService, questionsFile string, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		questionsFile:   questionsFile,
		logger:          logger,
	}
}

// HealthCheck maneja GET /api/health
func (h *QuestionHandler) HealthCheck(ctx *fasthttp.RequestCtx) {
	if err := h.questionService.HealthCheck(ctx); err != nil {
		h.logger.Error("❌ Health check falló", zap.Error(err))
		respondWithError(ctx, fasthttp.StatusServiceUnavailable, "Servicio no disponible")
		return
	}

	respondWithSuccess(ctx, map[string]string{"status": "ok", "redis": "connected"}, "Servicio funcionando correctamente")
}

// GetLadder maneja GET /api/ladder
func (h *QuestionHandler) GetLadder(ctx *fasthttp.RequestCtx) {
	respondWithSuccess(ctx, engine.Ladder(), "Escalera de premios")
}

// ListQuestionSets maneja GET /api/questions
func (h *QuestionHandler) ListQuestionSets(ctx *fasthttp.RequestCtx) {
	sets, err := h.questionService.ListQuestionSets(ctx)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error obteniendo sets: %v", err))
		return
	}

	respondWithSuccess(ctx, models.QuestionResponse{Sets: sets, Count: len(sets)}, "Sets obtenidos exitosamente")
}

// UploadQuestionSet maneja POST /api/questions?name=
func (h *QuestionHandler) UploadQuestionSet(ctx *fasthttp.RequestCtx) {
	name := string(ctx.QueryArgs().Peek("name"))

	set, err := h.questionService.ImportQuestionSet(ctx, name, ctx.PostBody())
	if err != nil {
		respondWithError(ctx, statusFor(err), uploadErrorMessage(err))
		return
	}

	respondWithSuccess(ctx, models.QuestionResponse{Set: set, Count: len(set.Questions)},
		fmt.Sprintf("✅ Set cargado desde archivo: %s", set.Name))
}

// GetQuestionSet maneja GET /api/questions/{id}
func (h *QuestionHandler) GetQuestionSet(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	set, err := h.questionService.GetQuestionSet(ctx, id)
	if err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Set no encontrado: %s", id))
		return
	}

	preview := set.Preview()
	if def, err := h.questionService.DefaultSet(ctx); err == nil {
		preview.Default = def.ID == set.ID
	}
	respondWithSuccess(ctx, preview, "Set obtenido exitosamente")
}

// DeleteQuestionSet maneja DELETE /api/questions/{id}
func (h *QuestionHandler) DeleteQuestionSet(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	if err := h.questionService.DeleteQuestionSet(ctx, id); err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error eliminando set: %v", err))
		return
	}

	respondWithSuccess(ctx, map[string]string{"id": id}, "Set eliminado exitosamente")
}

// SetDefaultQuestionSet maneja POST /api/questions/{id}/default
func (h *QuestionHandler) SetDefaultQuestionSet(ctx *fasthttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)

	if err := h.questionService.SetDefaultSet(ctx, id); err != nil {
		respondWithError(ctx, statusFor(err), fmt.Sprintf("Error cambiando set por defecto: %v", err))
		return
	}

	h.logger.Info("⭐ Set por defecto actualizado", zap.String("set_id", id))
	respondWithSuccess(ctx, map[string]string{"id": id}, "Set por defecto actualizado")
}

// ReloadQuestions maneja POST /api/questions/reload
func (h *QuestionHandler) ReloadQuestions(ctx *fasthttp.RequestCtx) {
	set, err := h.questionService.ReloadQuestions(ctx, h.questionsFile)
	if err != nil {
		h.logger.Warn("⚠️ Error recargando preguntas", zap.String("path", h.questionsFile), zap.Error(err))
		respondWithError(ctx, statusFor(err), uploadErrorMessage(err))
		return
	}

	respondWithSuccess(ctx, models.QuestionResponse{Set: set, Count: len(set.Questions)}, "Preguntas recargadas exitosamente")
}

func uploadErrorMessage(err error) string {
	switch statusFor(err) {
	case fasthttp.StatusUnprocessableEntity:
		return "El set necesita mínimo 15 preguntas."
	case fasthttp.StatusBadRequest:
		return "Error al leer JSON."
	default:
		return fmt.Sprintf("Error cargando preguntas: %v", err)
	}
}

package handlers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/models"
)

// Router enruta las peticiones a los handlers
type Router struct {
	questions *QuestionHandler
	sessions  *SessionHandler
	control   *GameControlHandler
	staticDir string
	logger    *zap.Logger
}

func NewRouter(questions *QuestionHandler, sessions *SessionHandler, control *GameControlHandler, staticDir string, logger *zap.Logger) *Router {
	return &Router{
		questions: questions,
		sessions:  sessions,
		control:   control,
		staticDir: staticDir,
		logger:    logger,
	}
}

// Handle es el fasthttp.RequestHandler del servidor
func (r *Router) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	r.logger.Debug("📡 Petición", zap.String("method", method), zap.String("path", path))

	ctx.Response.Header.Set("Server", "Millonario-FastHTTP/1.0")
	ctx.Response.Header.Set("Cache-Control", "no-cache")

	// Headers CORS para desarrollo
	ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if method == fasthttp.MethodOptions {
		ctx.SetStatusCode(fasthttp.StatusOK)
		return
	}

	switch {
	case path == "/":
		r.serveFile(ctx, "index.html")
	case path == "/favicon.ico":
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetBodyString("🎮")

	case path == "/api/health":
		r.questions.HealthCheck(ctx)
	case path == "/api/ladder" && method == fasthttp.MethodGet:
		r.questions.GetLadder(ctx)

	case path == "/api/questions" && method == fasthttp.MethodGet:
		r.questions.ListQuestionSets(ctx)
	case path == "/api/questions" && method == fasthttp.MethodPost:
		r.questions.UploadQuestionSet(ctx)
	case path == "/api/questions/reload" && method == fasthttp.MethodPost:
		r.questions.ReloadQuestions(ctx)

	case path == "/api/sessions" && method == fasthttp.MethodPost:
		r.sessions.CreateSession(ctx)
	case path == "/api/sessions/active" && method == fasthttp.MethodGet:
		r.sessions.GetActiveSessions(ctx)
	case path == "/api/leaderboard" && method == fasthttp.MethodGet:
		r.sessions.GetLeaderboard(ctx)

	case path == "/ws":
		r.control.HandleWebSocket(ctx)

	case strings.HasPrefix(path, "/api/questions/"):
		r.questionSetRoutes(ctx, path, method)
	case strings.HasPrefix(path, "/api/sessions/") && method == fasthttp.MethodGet:
		r.sessionGetRoutes(ctx, path)
	case strings.HasPrefix(path, "/api/sessions/") && method == fasthttp.MethodPost:
		r.sessionPostRoutes(ctx, path)

	default:
		serve404(ctx)
	}
}

func (r *Router) questionSetRoutes(ctx *fasthttp.RequestCtx, path, method string) {
	parts := strings.Split(path, "/")
	if len(parts) < 4 || parts[3] == "" {
		serve404(ctx)
		return
	}
	ctx.SetUserValue("id", parts[3])

	switch {
	// /api/questions/{id}
	case len(parts) == 4 && method == fasthttp.MethodGet:
		r.questions.GetQuestionSet(ctx)
	case len(parts) == 4 && method == fasthttp.MethodDelete:
		r.questions.DeleteQuestionSet(ctx)
	// /api/questions/{id}/default
	case len(parts) == 5 && parts[4] == "default" && method == fasthttp.MethodPost:
		r.questions.SetDefaultQuestionSet(ctx)
	default:
		serve404(ctx)
	}
}

func (r *Router) sessionGetRoutes(ctx *fasthttp.RequestCtx, path string) {
	parts := strings.Split(path, "/")

	// /api/sessions/player/{playerName}/history
	if len(parts) == 6 && parts[3] == "player" && parts[5] == "history" {
		ctx.SetUserValue("playerName", parts[4])
		r.sessions.GetPlayerHistory(ctx)
		return
	}

	// /api/sessions/{id}
	if len(parts) == 4 && parts[3] != "" {
		ctx.SetUserValue("id", parts[3])
		r.sessions.GetSession(ctx)
		return
	}

	serve404(ctx)
}

var sessionActions = map[string]bool{
	models.ActionSelect:   true,
	models.ActionReveal:   true,
	models.ActionAdvance:  true,
	models.ActionLifeline: true,
	models.ActionRestart:  true,
	models.ActionLoad:     true,
	actionFinish:          true,
}

func (r *Router) sessionPostRoutes(ctx *fasthttp.RequestCtx, path string) {
	parts := strings.Split(path, "/")

	// /api/sessions/{id}/{action}
	if len(parts) == 5 && parts[3] != "" && sessionActions[parts[4]] {
		ctx.SetUserValue("id", parts[3])
		ctx.SetUserValue("action", parts[4])
		r.sessions.HandleAction(ctx)
		return
	}

	serve404(ctx)
}

func (r *Router) serveFile(ctx *fasthttp.RequestCtx, filename string) {
	filePath := filepath.Join(r.staticDir, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		ctx.SetContentType("text/html; charset=utf-8")
		ctx.SetBodyString(`<!DOCTYPE html>
<html>
<head><title>Archivo no encontrado</title></head>
<body style="font-family: Arial, sans-serif; background: #0f0f0f; color: white; text-align: center; padding: 50px;">
	<h1 style="color: #f44336;">⚠️ Archivo no encontrado</h1>
	<p>El archivo <strong>` + filename + `</strong> no existe en el servidor.</p>
</body>
</html>`)
		return
	}

	if filepath.Ext(filename) == ".html" {
		ctx.SetContentType("text/html; charset=utf-8")
	}
	fasthttp.ServeFile(ctx, filePath)
}

func serve404(ctx *fasthttp.RequestCtx) {
	if strings.HasPrefix(string(ctx.Path()), "/api/") {
		respondWithError(ctx, fasthttp.StatusNotFound, "Ruta no encontrada")
		return
	}

	ctx.SetStatusCode(fasthttp.StatusNotFound)
	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBodyString(`<!DOCTYPE html>
<html>
<head><title>404 - Página no encontrada</title></head>
<body style="font-family: Arial, sans-serif; background: #0f0f0f; color: white; text-align: center; padding: 50px;">
	<h1 style="color: #ffd700;">🎮 404 - Página no encontrada</h1>
	<p>La página que buscas no existe en este servidor.</p>
	<a href="/" style="color: #ffd700;">🏠 Ir al Juego</a>
	<h3>🔧 Endpoints API disponibles:</h3>
	<pre style="text-align: left; display: inline-block;">
GET  /api/health
GET  /api/ladder
GET  /api/questions
POST /api/questions?name={nombre}
GET  /api/questions/{id}
DELETE /api/questions/{id}
POST /api/questions/{id}/default
POST /api/questions/reload
POST /api/sessions
GET  /api/sessions/active
GET  /api/sessions/{id}
POST /api/sessions/{id}/{select|reveal|advance|lifeline|restart|load|finish}
GET  /api/sessions/player/{playerName}/history
GET  /api/leaderboard
GET  /ws?session={id}
	</pre>
</body>
</html>`)
}

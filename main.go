package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/config"
	"github.com/backsoul/millonario/pkg/handlers"
	"github.com/backsoul/millonario/pkg/logger"
	"github.com/backsoul/millonario/pkg/redis"
	"github.com/backsoul/millonario/pkg/services"
	"github.com/backsoul/millonario/pkg/storage"
	"github.com/backsoul/millonario/pkg/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Error cargando configuración: %v", err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("❌ Error creando logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg.Info("🚀 Iniciando servidor ¿Quién Quiere Ser Millonario?", zap.String("env", cfg.Env))

	// Redis: sets de preguntas y snapshots
	lg.Info("🔌 Conectando a Redis...", zap.String("addr", cfg.Redis.Addr))
	redisClient, err := redis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		lg.Fatal("❌ Error conectando a Redis", zap.Error(err))
	}
	defer redisClient.Close()
	lg.Info("✅ Conexión exitosa a Redis")

	// SQLite: resultados
	db, err := storage.InitSQLite(cfg.SQLite.Path)
	if err != nil {
		lg.Fatal("❌ Error inicializando SQLite", zap.Error(err))
	}
	defer db.Close()

	hub := websocket.NewHub(lg)
	go hub.Run(ctx)

	questionService := services.NewQuestionService(redisClient, lg)
	resultService := services.NewResultService(storage.NewResultRepository(db), lg)
	sessionService := services.NewSessionService(questionService, redisClient, resultService, hub, lg,
		services.WithSessionTTL(cfg.Game.SessionTTL),
		services.WithPacing(cfg.Game.RevealDelay, cfg.Game.TransitionDelay),
	)

	go sessionService.RunEviction(ctx, services.DefaultEvictionInterval)

	loadInitialQuestions(ctx, questionService, cfg.Game.QuestionsFile, lg)

	router := handlers.NewRouter(
		handlers.NewQuestionHandler(questionService, cfg.Game.QuestionsFile, lg),
		handlers.NewSessionHandler(sessionService, resultService, lg),
		handlers.NewGameControlHandler(sessionService, hub, lg),
		cfg.HTTP.StaticDir,
		lg,
	)

	server := &fasthttp.Server{
		Handler: router.Handle,
		Name:    "Millonario Server",
	}

	go func() {
		lg.Info("🎮 Servidor iniciado",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("health", "/api/health"),
			zap.String("ws", "/ws?session={id}"),
		)
		if err := server.ListenAndServe(cfg.HTTP.Addr); err != nil {
			lg.Error("❌ Error en el servidor", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info("🔄 Deteniendo servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("❌ Error deteniendo el servidor", zap.Error(err))
	}

	// margen para que el hub cierre las conexiones
	time.Sleep(100 * time.Millisecond)
	lg.Info("👋 Servidor detenido")
}

func loadInitialQuestions(ctx context.Context, questionService *services.QuestionService, path string, lg *zap.Logger) {
	lg.Info("📚 Cargando preguntas iniciales...")

	set, err := questionService.EnsureDefaultSet(ctx, path)
	if err != nil {
		lg.Warn("⚠️ Error cargando preguntas iniciales", zap.String("path", path), zap.Error(err))
		lg.Info("💡 El servidor continuará funcionando. Puedes cargar preguntas usando POST /api/questions o POST /api/questions/reload")
		return
	}
	lg.Info("✅ Set por defecto listo", zap.String("set_id", set.ID), zap.Int("questions", len(set.Questions)))
}

package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/redis"
)

const (
	// DefaultSessionTTL vida de un snapshot sin actividad
	DefaultSessionTTL = 24 * time.Hour
	// DefaultEvictionInterval cada cuánto RunEviction revisa las partidas en memoria
	DefaultEvictionInterval = 10 * time.Minute
)

var (
	ErrSessionNotFound    = errors.New("sesión no encontrada")
	ErrUnknownAction      = errors.New("acción desconocida")
	ErrPlayerNameRequired = errors.New("el nombre del jugador es obligatorio")
	ErrIndexRequired      = errors.New("falta el índice de la opción")
)

// SessionView sesión más lo que la presentación necesita para pintarla
type SessionView struct {
	Session  models.GameSession   `json:"session"`
	Phase    engine.Phase         `json:"phase"`
	Question *engine.QuestionView `json:"question,omitempty"`
}

// CommandResult resultado de aplicar una intención a una sesión
type CommandResult struct {
	SessionView
	Events  []engine.Event `json:"events"`
	Applied bool           `json:"applied"`
}

type liveGame struct {
	session  *models.GameSession
	engine   *engine.Engine
	recorder *engine.Recorder
}

// SessionService aloja un motor por sesión y serializa sus comandos
type SessionService struct {
	mu    sync.Mutex
	games map[string]*liveGame

	questions *QuestionService
	store     SessionStore
	results   *ResultService
	hub       Broadcaster
	logger    *zap.Logger

	ttl             time.Duration
	revealDelay     time.Duration
	transitionDelay time.Duration
	newChooser      func() engine.Chooser
	now             func() time.Time
}

// SessionOption configura el SessionService
type SessionOption func(*SessionService)

// WithSessionTTL vida de los snapshots en Redis
func WithSessionTTL(ttl time.Duration) SessionOption {
	return func(s *SessionService) {
		s.ttl = ttl
	}
}

// WithPacing pausas sugeridas que reciben los motores
func WithPacing(reveal, transition time.Duration) SessionOption {
	return func(s *SessionService) {
		s.revealDelay = reveal
		s.transitionDelay = transition
	}
}

// WithChooserFactory fuente aleatoria del 50/50 para cada motor nuevo
func WithChooserFactory(f func() engine.Chooser) SessionOption {
	return func(s *SessionService) {
		s.newChooser = f
	}
}

// WithClock reloj usado para LastActivity y para expirar partidas
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) {
		s.now = now
	}
}

// NewSessionService crea una nueva instancia del servicio de sesiones.
// results y hub pueden ser nil.
func NewSessionService(questions *QuestionService, store SessionStore, results *ResultService, hub Broadcaster, logger *zap.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		games:           make(map[string]*liveGame),
		questions:       questions,
		store:           store,
		results:         results,
		hub:             hub,
		logger:          logger,
		ttl:             DefaultSessionTTL,
		revealDelay:     engine.DefaultRevealDelay,
		transitionDelay: engine.DefaultTransitionDelay,
		newChooser: func() engine.Chooser {
			return engine.NewChooser(rand.Uint64())
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession crea una partida nueva. Sin setID usa el set por defecto.
func (s *SessionService) CreateSession(ctx context.Context, playerName, setID string) (*CommandResult, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, ErrPlayerNameRequired
	}

	set, err := s.lookupSet(ctx, setID)
	if err != nil {
		return nil, err
	}

	game := s.newGame()
	if err := game.engine.LoadQuestions(set.Questions); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	game.session = &models.GameSession{
		ID:           uuid.New().String(),
		PlayerName:   playerName,
		SetID:        set.ID,
		State:        game.engine.State(),
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := s.store.SaveSession(ctx, game.session, s.ttl); err != nil {
		return nil, fmt.Errorf("error guardando sesión: %w", err)
	}

	s.mu.Lock()
	s.games[game.session.ID] = game
	s.mu.Unlock()

	s.logger.Info("✅ Nueva sesión creada",
		zap.String("session_id", game.session.ID),
		zap.String("player", playerName),
		zap.String("set_id", set.ID),
	)

	events := game.recorder.Drain()
	s.broadcast(game.session.ID, events)
	return &CommandResult{SessionView: viewOf(game), Events: events, Applied: true}, nil
}

// Dispatch aplica una intención al motor de la sesión. Los eventos se
// devuelven y además se reparten por el hub. Los comandos ignorados por el
// motor vuelven con Applied=false y sin error.
func (s *SessionService) Dispatch(ctx context.Context, sessionID string, intent models.Intent) (*CommandResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.gameFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	applied, cmdErr := s.apply(ctx, game, intent)
	events := game.recorder.Drain()

	if errors.Is(cmdErr, ErrUnknownAction) {
		return nil, cmdErr
	}

	session := game.session
	session.State = game.engine.State()
	session.LastActivity = s.now().UTC()
	if applied && (intent.Action == models.ActionRestart || intent.Action == models.ActionLoad) {
		session.ResultRecorded = false
	}
	s.recordResult(ctx, session)

	if err := s.store.SaveSession(ctx, session, s.ttl); err != nil {
		s.logger.Warn("⚠️ Error guardando snapshot", zap.String("session_id", sessionID), zap.Error(err))
	}

	s.broadcast(sessionID, events)

	s.logger.Debug("🎮 Intención aplicada",
		zap.String("session_id", sessionID),
		zap.String("action", intent.Action),
		zap.Bool("applied", applied),
		zap.Int("events", len(events)),
	)

	return &CommandResult{SessionView: viewOf(game), Events: events, Applied: applied}, cmdErr
}

// GetSession vista actual de una sesión; la restaura desde Redis si hace falta
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.gameFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := viewOf(game)
	return &view, nil
}

// FinishSession termina una sesión: sale de memoria y de Redis
func (s *SessionService) FinishSession(ctx context.Context, sessionID string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.gameFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	s.recordResult(ctx, game.session)
	delete(s.games, sessionID)
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return nil, err
	}

	s.logger.Info("👋 Sesión terminada",
		zap.String("session_id", sessionID),
		zap.String("status", game.session.Status()),
	)
	view := viewOf(game)
	return &view, nil
}

// ActiveSessions sesiones con partida en curso
func (s *SessionService) ActiveSessions(ctx context.Context) ([]models.GameSession, error) {
	ids, err := s.store.ListSessionIDs(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictIdleLocked()

	sessions := make([]models.GameSession, 0, len(ids))
	for _, id := range ids {
		var session models.GameSession
		if game, ok := s.games[id]; ok {
			session = *game.session
		} else {
			stored, err := s.store.GetSession(ctx, id)
			if err != nil {
				s.logger.Warn("⚠️ Error obteniendo sesión activa", zap.String("session_id", id), zap.Error(err))
				continue
			}
			session = *stored
		}
		if session.Status() == "playing" {
			sessions = append(sessions, session)
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActivity.After(sessions[j].LastActivity)
	})
	return sessions, nil
}

// EvictIdle saca de memoria las partidas sin actividad por más de la TTL;
// su snapshot en Redis ya expiró. Devuelve cuántas salieron.
func (s *SessionService) EvictIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictIdleLocked()
}

// RunEviction llama a EvictIdle cada interval hasta que se cancela ctx
func (s *SessionService) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// evictIdleLocked se llama con s.mu tomado
func (s *SessionService) evictIdleLocked() int {
	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for id, game := range s.games {
		if game.session.LastActivity.Before(cutoff) {
			delete(s.games, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Info("🧹 Partidas inactivas liberadas", zap.Int("evicted", evicted), zap.Int("remaining", len(s.games)))
	}
	return evicted
}

func (s *SessionService) apply(ctx context.Context, game *liveGame, intent models.Intent) (bool, error) {
	eng := game.engine
	switch intent.Action {
	case models.ActionSelect:
		if intent.Index == nil {
			return false, ErrIndexRequired
		}
		return eng.SelectAnswer(*intent.Index), nil
	case models.ActionReveal:
		return eng.Reveal()
	case models.ActionAdvance:
		return eng.Advance(), nil
	case models.ActionLifeline:
		return eng.UseLifeline(), nil
	case models.ActionRestart:
		if err := eng.Restart(); err != nil {
			return false, err
		}
		return true, nil
	case models.ActionLoad:
		set, err := s.lookupSet(ctx, intent.SetID)
		if err != nil {
			return false, err
		}
		if err := eng.LoadQuestions(set.Questions); err != nil {
			return false, err
		}
		game.session.SetID = set.ID
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, intent.Action)
	}
}

// gameFor busca la partida en memoria o la reconstruye desde su snapshot.
// Se llama con s.mu tomado.
func (s *SessionService) gameFor(ctx context.Context, sessionID string) (*liveGame, error) {
	if game, ok := s.games[sessionID]; ok {
		return game, nil
	}

	snapshot, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}

	set, err := s.questions.GetQuestionSet(ctx, snapshot.SetID)
	if err != nil {
		return nil, fmt.Errorf("no se pudo restaurar la sesión %s: %w", sessionID, err)
	}

	game := s.newGame()
	if err := game.engine.Restore(set.Questions, snapshot.State); err != nil {
		return nil, fmt.Errorf("no se pudo restaurar la sesión %s: %w", sessionID, err)
	}
	game.session = snapshot
	s.games[sessionID] = game

	s.logger.Info("♻️ Sesión restaurada desde Redis", zap.String("session_id", sessionID))
	return game, nil
}

func (s *SessionService) newGame() *liveGame {
	rec := &engine.Recorder{}
	eng := engine.New(
		engine.WithNotifier(rec),
		engine.WithChooser(s.newChooser()),
		engine.WithPacing(s.revealDelay, s.transitionDelay),
	)
	return &liveGame{engine: eng, recorder: rec}
}

func (s *SessionService) lookupSet(ctx context.Context, setID string) (*models.QuestionSet, error) {
	if strings.TrimSpace(setID) == "" {
		return s.questions.DefaultSet(ctx)
	}
	return s.questions.GetQuestionSet(ctx, setID)
}

// recordResult guarda el resultado una sola vez por partida terminada
func (s *SessionService) recordResult(ctx context.Context, session *models.GameSession) {
	if s.results == nil || !session.State.GameOver || session.ResultRecorded {
		return
	}
	if _, err := s.results.Record(ctx, session); err != nil {
		s.logger.Error("❌ Error registrando resultado", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	session.ResultRecorded = true
}

func (s *SessionService) broadcast(sessionID string, events []engine.Event) {
	if s.hub == nil {
		return
	}
	for _, ev := range events {
		s.hub.Broadcast(sessionID, ev)
	}
}

func viewOf(game *liveGame) SessionView {
	view := SessionView{
		Session: *game.session,
		Phase:   game.engine.Phase(),
	}
	if q, ok := game.engine.CurrentView(); ok {
		view.Question = &q
	}
	return view
}

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/redis"
	"github.com/backsoul/millonario/pkg/storage"
)

// recordingHub guarda lo que se reparte por sesión
type recordingHub struct {
	mu     sync.Mutex
	events map[string][]engine.Event
}

func (h *recordingHub) Broadcast(sessionID string, event engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		h.events = make(map[string][]engine.Event)
	}
	h.events[sessionID] = append(h.events[sessionID], event)
}

func (h *recordingHub) count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events[sessionID])
}

func optionIndex(i int) *int {
	return &i
}

type fixture struct {
	ctx       context.Context
	mr        *miniredis.Miniredis
	store     *redis.RedisClient
	results   *ResultService
	questions *QuestionService
	sessions  *SessionService
	hub       *recordingHub
}

// questionsJSON n preguntas con IDs 1..n; la correcta de la posición k es k%4
func questionsJSON(t *testing.T, n int) []byte {
	t.Helper()
	data := models.QuestionsData{}
	for i := 0; i < n; i++ {
		data.Questions = append(data.Questions, models.Question{
			ID:           i + 1,
			Question:     fmt.Sprintf("Pregunta %d", i+1),
			Options:      []string{"uno", "dos", "tres", "cuatro"},
			CorrectIndex: i % 4,
		})
	}
	out, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := redis.NewRedisClient(ctx, mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	db, err := storage.InitSQLite(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("InitSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	f := &fixture{
		ctx:       ctx,
		mr:        mr,
		store:     store,
		results:   NewResultService(storage.NewResultRepository(db), logger),
		questions: NewQuestionService(store, logger),
		hub:       &recordingHub{},
	}
	f.sessions = f.newSessionService()
	return f
}

func (f *fixture) newSessionService() *SessionService {
	return NewSessionService(f.questions, f.store, f.results, f.hub, zap.NewNop(),
		WithChooserFactory(func() engine.Chooser { return engine.NewChooser(7) }),
	)
}

func (f *fixture) importSet(t *testing.T, name string, n int) *models.QuestionSet {
	t.Helper()
	set, err := f.questions.ImportQuestionSet(f.ctx, name, questionsJSON(t, n))
	if err != nil {
		t.Fatalf("ImportQuestionSet: %v", err)
	}
	return set
}

func (f *fixture) dispatch(t *testing.T, sessionID string, intent models.Intent) *CommandResult {
	t.Helper()
	res, err := f.sessions.Dispatch(f.ctx, sessionID, intent)
	if err != nil {
		t.Fatalf("Dispatch(%+v): %v", intent, err)
	}
	return res
}

// playCorrect responde bien la pregunta actual y avanza
func (f *fixture) playCorrect(t *testing.T, sessionID string) {
	t.Helper()
	view, err := f.sessions.GetSession(f.ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	idx := view.Session.State.CurrentIndex
	f.dispatch(t, sessionID, models.Intent{Action: models.ActionSelect, Index: optionIndex(idx % 4)})
	f.dispatch(t, sessionID, models.Intent{Action: models.ActionReveal})
	f.dispatch(t, sessionID, models.Intent{Action: models.ActionAdvance})
}

// loseCurrent responde mal la pregunta actual
func (f *fixture) loseCurrent(t *testing.T, sessionID string) *CommandResult {
	t.Helper()
	view, err := f.sessions.GetSession(f.ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	idx := view.Session.State.CurrentIndex
	f.dispatch(t, sessionID, models.Intent{Action: models.ActionSelect, Index: optionIndex((idx + 1) % 4)})
	return f.dispatch(t, sessionID, models.Intent{Action: models.ActionReveal})
}

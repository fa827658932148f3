package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/models"
	"github.com/backsoul/millonario/pkg/redis"
	"github.com/backsoul/millonario/pkg/services"
	"github.com/backsoul/millonario/pkg/storage"
	websocketHub "github.com/backsoul/millonario/pkg/websocket"
)

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router        *Router
	sessions      *services.SessionService
	questionsFile string
	staticDir     string
}

func questionsJSON(n int) []byte {
	data := models.QuestionsData{}
	for i := 0; i < n; i++ {
		data.Questions = append(data.Questions, models.Question{
			ID:           i + 1,
			Question:     fmt.Sprintf("Pregunta %d", i+1),
			Options:      []string{"uno", "dos", "tres", "cuatro"},
			CorrectIndex: i % 4,
		})
	}
	out, _ := json.Marshal(data)
	return out
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	store, err := redis.NewRedisClient(ctx, mr.Addr(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	db, err := storage.InitSQLite(filepath.Join(dir, "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	questionsFile := filepath.Join(dir, "answers.json")
	if err := os.WriteFile(questionsFile, questionsJSON(15), 0o644); err != nil {
		t.Fatal(err)
	}

	hub := websocketHub.NewHub(logger)
	hubCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	go hub.Run(hubCtx)

	questionService := services.NewQuestionService(store, logger)
	resultService := services.NewResultService(storage.NewResultRepository(db), logger)
	sessionService := services.NewSessionService(questionService, store, resultService, hub, logger,
		services.WithChooserFactory(func() engine.Chooser { return engine.NewChooser(3) }),
	)

	router := NewRouter(
		NewQuestionHandler(questionService, questionsFile, logger),
		NewSessionHandler(sessionService, resultService, logger),
		NewGameControlHandler(sessionService, hub, logger),
		dir,
		logger,
	)
	return &testServer{router: router, sessions: sessionService, questionsFile: questionsFile, staticDir: dir}
}

func (s *testServer) do(t *testing.T, method, uri string, body []byte) (int, apiResponse) {
	t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != nil {
		req.SetBody(body)
	}

	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&req, nil, nil)
	s.router.Handle(ctx)

	var resp apiResponse
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("%s %s: invalid JSON body %q: %v", method, uri, ctx.Response.Body(), err)
	}
	return ctx.Response.StatusCode(), resp
}

func (s *testServer) createSession(t *testing.T, player string) services.CommandResult {
	t.Helper()
	if code, resp := s.do(t, "POST", "/api/questions/reload", nil); code != 200 {
		t.Fatalf("reload: %d %s", code, resp.Error)
	}
	code, resp := s.do(t, "POST", "/api/sessions", []byte(`{"playerName":"`+player+`"}`))
	if code != 200 {
		t.Fatalf("create session: %d %s", code, resp.Error)
	}
	var result services.CommandResult
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		t.Fatal(err)
	}
	return result
}

func TestHealthAndLadder(t *testing.T) {
	s := newTestServer(t)

	if code, resp := s.do(t, "GET", "/api/health", nil); code != 200 || !resp.Success {
		t.Errorf("health: %d %+v", code, resp)
	}

	code, resp := s.do(t, "GET", "/api/ladder", nil)
	if code != 200 {
		t.Fatalf("ladder: %d", code)
	}
	var rungs []engine.Rung
	if err := json.Unmarshal(resp.Data, &rungs); err != nil {
		t.Fatal(err)
	}
	if len(rungs) != 15 || rungs[14].Prize != 10000000 || rungs[5].Stage != engine.StageMiddle {
		t.Errorf("unexpected ladder %+v", rungs)
	}
}

func TestQuestionRoutes(t *testing.T) {
	s := newTestServer(t)

	if code, resp := s.do(t, "POST", "/api/questions?name=roto", []byte(`{"questions": [`)); code != 400 || resp.Error != "Error al leer JSON." {
		t.Errorf("malformed upload: %d %+v", code, resp)
	}
	if code, resp := s.do(t, "POST", "/api/questions?name=corto", questionsJSON(10)); code != 422 || resp.Error != "El set necesita mínimo 15 preguntas." {
		t.Errorf("short upload: %d %+v", code, resp)
	}

	code, resp := s.do(t, "POST", "/api/questions?name=bueno", questionsJSON(16))
	if code != 200 {
		t.Fatalf("upload: %d %s", code, resp.Error)
	}
	var uploaded models.QuestionResponse
	json.Unmarshal(resp.Data, &uploaded)
	if uploaded.Set == nil || uploaded.Count != 16 || uploaded.Set.Name != "bueno" {
		t.Fatalf("unexpected upload response %+v", uploaded)
	}

	code, resp = s.do(t, "GET", "/api/questions", nil)
	var list models.QuestionResponse
	json.Unmarshal(resp.Data, &list)
	if code != 200 || len(list.Sets) != 1 || !list.Sets[0].Default {
		t.Errorf("unexpected list %d %+v", code, list)
	}

	if code, _ := s.do(t, "GET", "/api/questions/"+uploaded.Set.ID, nil); code != 200 {
		t.Errorf("get set: %d", code)
	}
	if code, _ := s.do(t, "GET", "/api/questions/nope", nil); code != 404 {
		t.Errorf("missing set: expected 404, got %d", code)
	}
}

func TestQuestionSetPreviewHidesAnswers(t *testing.T) {
	s := newTestServer(t)
	_, resp := s.do(t, "POST", "/api/questions?name=bueno", questionsJSON(15))
	var uploaded models.QuestionResponse
	json.Unmarshal(resp.Data, &uploaded)

	code, resp := s.do(t, "GET", "/api/questions/"+uploaded.Set.ID, nil)
	if code != 200 {
		t.Fatalf("get set: %d", code)
	}
	if bytes.Contains(resp.Data, []byte("correctIndex")) {
		t.Fatalf("set preview leaks answers: %s", resp.Data)
	}
	var preview models.QuestionSetPreview
	json.Unmarshal(resp.Data, &preview)
	if preview.ID != uploaded.Set.ID || preview.Count != 15 || len(preview.Questions) != 15 || !preview.Default {
		t.Errorf("unexpected preview %+v", preview)
	}
	if len(preview.Questions[0].Options) != 4 || preview.Questions[0].Question != "Pregunta 1" {
		t.Errorf("unexpected first question %+v", preview.Questions[0])
	}
}

func TestDefaultAndDeleteQuestionSet(t *testing.T) {
	s := newTestServer(t)
	_, resp := s.do(t, "POST", "/api/questions?name=primero", questionsJSON(15))
	var first models.QuestionResponse
	json.Unmarshal(resp.Data, &first)
	_, resp = s.do(t, "POST", "/api/questions?name=segundo", questionsJSON(16))
	var second models.QuestionResponse
	json.Unmarshal(resp.Data, &second)

	if code, _ := s.do(t, "POST", "/api/questions/nope/default", nil); code != 404 {
		t.Errorf("default of unknown set: expected 404, got %d", code)
	}
	if code, resp := s.do(t, "POST", "/api/questions/"+second.Set.ID+"/default", nil); code != 200 {
		t.Fatalf("set default: %d %s", code, resp.Error)
	}

	code, resp := s.do(t, "POST", "/api/sessions", []byte(`{"playerName":"Ana"}`))
	var created services.CommandResult
	json.Unmarshal(resp.Data, &created)
	if code != 200 || created.Session.SetID != second.Set.ID {
		t.Fatalf("session should use the new default set: %d %+v", code, created.Session)
	}

	if code, resp := s.do(t, "DELETE", "/api/questions/"+second.Set.ID, nil); code != 200 {
		t.Fatalf("delete: %d %s", code, resp.Error)
	}
	if code, _ := s.do(t, "DELETE", "/api/questions/"+second.Set.ID, nil); code != 404 {
		t.Errorf("second delete: expected 404, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/api/questions/"+second.Set.ID, nil); code != 404 {
		t.Errorf("deleted set: expected 404, got %d", code)
	}
	if code, _ := s.do(t, "POST", "/api/sessions", []byte(`{"playerName":"Luis"}`)); code != 404 {
		t.Errorf("deleting the default set should leave no default: got %d", code)
	}

	code, resp = s.do(t, "GET", "/api/questions", nil)
	var list models.QuestionResponse
	json.Unmarshal(resp.Data, &list)
	if code != 200 || len(list.Sets) != 1 || list.Sets[0].ID != first.Set.ID {
		t.Errorf("unexpected list after delete %+v", list)
	}
}

func TestSelectRequiresIndex(t *testing.T) {
	s := newTestServer(t)
	created := s.createSession(t, "Ana")
	base := "/api/sessions/" + created.Session.ID

	for _, body := range [][]byte{nil, []byte(`{}`), []byte(`{"index":null}`)} {
		code, resp := s.do(t, "POST", base+"/select", body)
		if code != 400 {
			t.Errorf("select with body %q: expected 400, got %d", body, code)
		}
		var result services.CommandResult
		json.Unmarshal(resp.Data, &result)
		if result.Applied {
			t.Errorf("select with body %q should not apply", body)
		}
	}

	code, resp := s.do(t, "GET", base, nil)
	var view services.SessionView
	json.Unmarshal(resp.Data, &view)
	if code != 200 || view.Session.State.SelectedAnswerIndex != nil || view.Phase != engine.PhaseAwaitingSelection {
		t.Errorf("select without index changed the state: %+v", view.Session.State)
	}
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)
	created := s.createSession(t, "Ana")
	id := created.Session.ID
	base := "/api/sessions/" + id

	if created.Question == nil || created.Question.Number != 1 {
		t.Fatalf("unexpected created session %+v", created)
	}

	code, resp := s.do(t, "POST", base+"/reveal", nil)
	if code != 400 {
		t.Errorf("reveal without selection: expected 400, got %d", code)
	}
	var rejected services.CommandResult
	json.Unmarshal(resp.Data, &rejected)
	if len(rejected.Events) != 1 || rejected.Events[0].Message != "Selecciona una respuesta primero." {
		t.Errorf("expected notice event, got %+v", rejected.Events)
	}

	if code, resp := s.do(t, "POST", base+"/advance", nil); code != 200 || resp.Message != "Acción ignorada en el estado actual" {
		t.Errorf("ignored advance: %d %+v", code, resp)
	}

	if code, _ := s.do(t, "POST", base+"/select", []byte(`{"index":0}`)); code != 200 {
		t.Fatalf("select: %d", code)
	}
	code, resp = s.do(t, "POST", base+"/reveal", nil)
	var revealed services.CommandResult
	json.Unmarshal(resp.Data, &revealed)
	if code != 200 || !revealed.Applied || revealed.Phase != engine.PhaseRevealedContinuing {
		t.Fatalf("reveal: %d %+v", code, revealed)
	}

	if code, _ := s.do(t, "POST", base+"/advance", nil); code != 200 {
		t.Fatalf("advance: %d", code)
	}
	code, resp = s.do(t, "GET", base, nil)
	var view services.SessionView
	json.Unmarshal(resp.Data, &view)
	if code != 200 || view.Session.State.CurrentIndex != 1 {
		t.Fatalf("get session: %d %+v", code, view.Session.State)
	}

	// pregunta 2: la correcta es 1
	s.do(t, "POST", base+"/select", []byte(`{"index":3}`))
	code, resp = s.do(t, "POST", base+"/reveal", nil)
	var lost services.CommandResult
	json.Unmarshal(resp.Data, &lost)
	if code != 200 || !lost.Session.State.GameOver || lost.Session.State.FinalPrize != 1000 {
		t.Fatalf("expected loss with 1000: %+v", lost.Session.State)
	}

	code, resp = s.do(t, "GET", "/api/leaderboard", nil)
	var board models.LeaderboardResponse
	json.Unmarshal(resp.Data, &board)
	if code != 200 || len(board.Leaderboard) != 1 || board.Leaderboard[0].PlayerName != "Ana" {
		t.Errorf("unexpected leaderboard %d %+v", code, board)
	}

	if code, _ := s.do(t, "GET", "/api/sessions/player/Ana/history", nil); code != 200 {
		t.Errorf("history: %d", code)
	}

	if code, _ := s.do(t, "POST", base+"/finish", nil); code != 200 {
		t.Errorf("finish: %d", code)
	}
	if code, _ := s.do(t, "GET", base, nil); code != 404 {
		t.Errorf("finished session: expected 404, got %d", code)
	}
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(t, "POST", "/api/sessions", []byte(`{"playerName":"Ana"}`)); code != 404 {
		t.Errorf("no default set: expected 404, got %d", code)
	}
	s.createSession(t, "Ana")

	if code, _ := s.do(t, "POST", "/api/sessions", []byte(`{`)); code != 400 {
		t.Errorf("invalid JSON: expected 400, got %d", code)
	}
	if code, _ := s.do(t, "POST", "/api/sessions", []byte(`{"playerName":""}`)); code != 400 {
		t.Errorf("empty name: expected 400, got %d", code)
	}
	if code, _ := s.do(t, "POST", "/api/sessions/nope/reveal", nil); code != 404 {
		t.Errorf("unknown session: expected 404, got %d", code)
	}
	if code, _ := s.do(t, "POST", "/api/sessions/nope/bailar", nil); code != 404 {
		t.Errorf("unknown action route: expected 404, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/api/leaderboard?limit=abc", nil); code != 400 {
		t.Errorf("invalid limit: expected 400, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/api/nada", nil); code != 404 {
		t.Errorf("unknown api route: expected 404, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/ws", nil); code != 400 {
		t.Errorf("ws without session: expected 400, got %d", code)
	}
	if code, _ := s.do(t, "GET", "/ws?session=nope", nil); code != 404 {
		t.Errorf("ws unknown session: expected 404, got %d", code)
	}
}

func TestActiveSessions(t *testing.T) {
	s := newTestServer(t)
	s.createSession(t, "Ana")
	s.createSession(t, "Luis")

	code, resp := s.do(t, "GET", "/api/sessions/active", nil)
	var body struct {
		Count int `json:"count"`
	}
	json.Unmarshal(resp.Data, &body)
	if code != 200 || body.Count != 2 {
		t.Errorf("expected 2 active sessions, got %d %+v", code, body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", services.ErrSessionNotFound), 404},
		{services.ErrSetNotFound, 404},
		{fmt.Errorf("x: %w", engine.ErrNotEnoughQuestions), 422},
		{services.ErrInvalidJSON, 400},
		{services.ErrUnknownAction, 400},
		{engine.ErrNoSelection, 400},
		{engine.ErrNoQuestionsLoaded, 400},
		{fmt.Errorf("redis caído"), 500},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

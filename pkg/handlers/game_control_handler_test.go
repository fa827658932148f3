package handlers

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/backsoul/millonario/pkg/engine"
	"github.com/backsoul/millonario/pkg/services"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// dialSession sirve el router en memoria y abre un WebSocket a la sesión
func (s *testServer) dialSession(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	server := &fasthttp.Server{Handler: s.router.Handle}
	go server.Serve(ln)
	t.Cleanup(func() { ln.Close() })

	dialer := websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) {
			return ln.Dial()
		},
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.Dial("ws://millonario/ws?session="+sessionID, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var frame wsFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("invalid frame %q: %v", data, err)
	}
	return frame
}

func sendText(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
}

func TestWebSocketIntentsReachSocket(t *testing.T) {
	s := newTestServer(t)
	created := s.createSession(t, "Ana")
	conn := s.dialSession(t, created.Session.ID)

	snapshot := readFrame(t, conn)
	if snapshot.Type != "snapshot" {
		t.Fatalf("expected snapshot first, got %q", snapshot.Type)
	}
	var view services.SessionView
	if err := json.Unmarshal(snapshot.Data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Session.ID != created.Session.ID || view.Question == nil || view.Question.Number != 1 {
		t.Fatalf("unexpected snapshot %+v", view)
	}

	// pregunta 1: la correcta es 0
	sendText(t, conn, `{"action":"select","index":0}`)
	selected := readFrame(t, conn)
	if selected.Type != string(engine.EventAnswerSelected) {
		t.Fatalf("expected answer-selected, got %q", selected.Type)
	}
	var selection engine.SelectionPayload
	json.Unmarshal(selected.Data, &selection)
	if selection.Index != 0 || selection.Letter != "A" {
		t.Errorf("unexpected selection %+v", selection)
	}

	sendText(t, conn, `{"action":"reveal"}`)
	revealed := readFrame(t, conn)
	if revealed.Type != string(engine.EventReveal) {
		t.Fatalf("expected reveal, got %q", revealed.Type)
	}
	var reveal engine.RevealPayload
	json.Unmarshal(revealed.Data, &reveal)
	if !reveal.IsCorrect || reveal.CorrectIndex != 0 || reveal.SelectedAnswerIndex != 0 {
		t.Errorf("unexpected reveal %+v", reveal)
	}
	if next := readFrame(t, conn); next.Type != string(engine.EventCanAdvance) {
		t.Errorf("expected can-advance after correct reveal, got %q", next.Type)
	}
}

func TestWebSocketRejectedIntents(t *testing.T) {
	s := newTestServer(t)
	created := s.createSession(t, "Ana")
	conn := s.dialSession(t, created.Session.ID)
	readFrame(t, conn) // snapshot

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"invalid json", `{"action":`, "JSON inválido"},
		{"unknown action", `{"action":"bailar"}`, ""},
		{"select without index", `{"action":"select"}`, ""},
	}
	for _, tt := range tests {
		sendText(t, conn, tt.payload)
		frame := readFrame(t, conn)
		if frame.Type != "error" {
			t.Fatalf("%s: expected error frame, got %q", tt.name, frame.Type)
		}
		if tt.want != "" {
			var msg string
			json.Unmarshal(frame.Data, &msg)
			if msg != tt.want {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.want, msg)
			}
		}
	}

	view, err := s.sessions.GetSession(context.Background(), created.Session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Session.State.SelectedAnswerIndex != nil {
		t.Errorf("rejected intents must not select an option: %+v", view.Session.State)
	}

	// un reveal sin selección llega como notice del motor
	sendText(t, conn, `{"action":"reveal"}`)
	if frame := readFrame(t, conn); frame.Type != string(engine.EventNotice) || frame.Message != "Selecciona una respuesta primero." {
		t.Errorf("expected notice, got %+v", frame)
	}
}

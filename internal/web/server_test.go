package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/m17-go/m17/internal/logger"
	"github.com/m17-go/m17/internal/metrics"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

type fakeStatusProvider struct {
	statuses []ConnectionStatus
}

func (f *fakeStatusProvider) ConnectionStatuses() []ConnectionStatus {
	return f.statuses
}

func TestServer_HandleStatus(t *testing.T) {
	m := metrics.NewCollector()
	m.FrameSent(26)
	m.FrameReceived(54)

	srv := NewServer(Config{Host: "127.0.0.1", Port: 0}, m, testLogger())
	srv.WithStatusProvider(&fakeStatusProvider{statuses: []ConnectionStatus{
		{Name: "m17-m17", Host: "reflector.example", Module: "A", State: "connected"},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.handleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Connections    []ConnectionStatus `json:"connections"`
		FramesSent     uint64             `json:"frames_sent"`
		FramesReceived uint64             `json:"frames_received"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Connections) != 1 || body.Connections[0].Name != "m17-m17" {
		t.Fatalf("unexpected connections: %+v", body.Connections)
	}
	if body.FramesSent != 1 || body.FramesReceived != 1 {
		t.Fatalf("unexpected frame counters: %+v", body)
	}
}

func TestServer_HandleSessionsEmptyWithoutRepo(t *testing.T) {
	srv := NewServer(Config{Host: "127.0.0.1", Port: 0}, metrics.NewCollector(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	srv.handleSessions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sessions []interface{}
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected empty session list, got %d", len(sessions))
	}
}

func TestHub_BroadcastDeliversToClient(t *testing.T) {
	hub := NewHub(testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	time.Sleep(50 * time.Millisecond)
	hub.Broadcast(Event{Type: "stream.start", Data: map[string]interface{}{"src": "W2FBI"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Type != "stream.start" {
		t.Fatalf("expected stream.start, got %q", ev.Type)
	}
}

package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahostbr/kuroryuu/internal/models"
)

func TestStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		var cfg models.SpawnConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			t.Errorf("decode spawn config: %v", err)
		}
		if cfg.Prompt != "do the thing" {
			t.Errorf("prompt = %q", cfg.Prompt)
		}
		json.NewEncoder(w).Encode(startResponse{OK: true, SessionID: "sess-42"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	id, err := c.Start(context.Background(), models.SpawnConfig{Backend: models.BackendSDK, Prompt: "do the thing"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if id != "sess-42" {
		t.Errorf("id = %q", id)
	}
}

func TestStartRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(startResponse{OK: false, Error: "no capacity"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.Start(context.Background(), models.SpawnConfig{}); err == nil {
		t.Fatal("expected error when the backend rejects the start")
	}
}

func TestStopEscapesSessionID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		json.NewEncoder(w).Encode(stopResponse{OK: true})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	ok, err := c.Stop(context.Background(), "id/with/slashes")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !ok {
		t.Error("expected ok")
	}
	if gotPath != "/sessions/id%2Fwith%2Fslashes/stop" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(listResponse{Sessions: []models.Session{
			{ID: "a", Status: models.StatusRunning},
			{ID: "b", Status: models.StatusCompleted},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	sessions, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "a" || sessions[1].ID != "b" {
		t.Errorf("unexpected sessions: %v", sessions)
	}
}

func TestLogs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/sess-1/logs" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(logsResponse{Logs: "line 1\nline 2"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	logs, err := c.Logs(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if logs != "line 1\nline 2" {
		t.Errorf("logs = %q", logs)
	}
}

func TestNonOKStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	if _, err := c.Logs(context.Background(), "missing"); err == nil {
		t.Fatal("expected error on 404")
	}
}

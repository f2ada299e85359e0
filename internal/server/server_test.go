package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Cyclone1070/beachai/internal/config"
	"github.com/Cyclone1070/beachai/internal/memory"
	"github.com/Cyclone1070/beachai/internal/orchestrator"
	"github.com/Cyclone1070/beachai/internal/provider"
	"github.com/Cyclone1070/beachai/internal/ratelimit"
	"github.com/Cyclone1070/beachai/internal/testing/mock"
	"github.com/Cyclone1070/beachai/internal/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	askFunc func(ctx context.Context, sessionID, query string) (*orchestrator.Answer, error)
}

func (f *fakeAsker) Ask(ctx context.Context, sessionID, query string) (*orchestrator.Answer, error) {
	return f.askFunc(ctx, sessionID, query)
}

func newTestServer(t *testing.T, ask func(ctx context.Context, sessionID, query string) (*orchestrator.Answer, error)) (*Server, *memory.Store) {
	t.Helper()
	cfg := config.DefaultConfig().Server
	cfg.Environment = "test"
	cfg.Debug = false
	store := memory.NewStore(20, time.Hour)
	decls := []tool.Declaration{{Name: tool.NameTidePredictions, Description: "Tide predictions"}}
	return New(cfg, &fakeAsker{askFunc: ask}, store, decls), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.Equal(t, false, body["debug"])
	assert.NotContains(t, body, "rate_limits")
}

func TestHealth_ReportsRateBudgets(t *testing.T) {
	clk := mock.NewClock(time.Date(2025, 7, 4, 9, 0, 0, 0, time.UTC))
	l := ratelimit.New(ratelimit.FailFast, 0, ratelimit.WithClock(clk))
	l.Configure("noaa", 3, 1)
	l.Configure("places", 2, 0.2)
	require.NoError(t, l.Acquire(context.Background(), "noaa"))

	srv := New(config.DefaultConfig().Server, &fakeAsker{}, memory.NewStore(20, time.Hour), nil, WithRateBudgets(l))
	rec := do(t, srv, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"noaa": 2.0, "places": 2.0}, decode(t, rec)["rate_limits"])
}

func TestAsk_Success(t *testing.T) {
	var gotSession, gotQuery string
	srv, _ := newTestServer(t, func(_ context.Context, sessionID, query string) (*orchestrator.Answer, error) {
		gotSession, gotQuery = sessionID, query
		return &orchestrator.Answer{
			SessionID:  "sess-1",
			Text:       "High tide at 09:06, 1.2 m.",
			State:      orchestrator.StateDone,
			RoundTrips: 1,
			ToolCalls:  1,
		}, nil
	})

	rec := do(t, srv, http.MethodPost, "/api/v1/ask", `{"session_id":"sess-1","query":"Tide at Santa Monica?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sess-1", gotSession)
	assert.Equal(t, "Tide at Santa Monica?", gotQuery)
	body := decode(t, rec)
	assert.Equal(t, "sess-1", body["session_id"])
	assert.Equal(t, "High tide at 09:06, 1.2 m.", body["answer"])
	assert.Equal(t, "done", body["state"])
	assert.EqualValues(t, 1, body["round_trips"])
	assert.NotContains(t, body, "error")
}

func TestAsk_LoopExhaustedStillAnswers(t *testing.T) {
	srv, _ := newTestServer(t, func(context.Context, string, string) (*orchestrator.Answer, error) {
		return &orchestrator.Answer{
			SessionID:  "sess-1",
			Text:       "Sorry, I was unable to complete your request.",
			State:      orchestrator.StateAborted,
			RoundTrips: 5,
		}, &orchestrator.LoopExhaustedError{RoundTrips: 5}
	})

	rec := do(t, srv, http.MethodPost, "/api/v1/ask", `{"query":"Everything about every beach"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "aborted", body["state"])
	assert.Contains(t, body["answer"], "unable to complete")
	assert.Contains(t, body["error"], "5 round trips")
}

func TestAsk_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Empty Query", orchestrator.ErrEmptyQuery, http.StatusBadRequest},
		{"Model Unavailable", &orchestrator.ModelUnavailableError{Provider: "ollama", Attempts: 3, Cause: provider.ErrServiceUnavailable}, http.StatusServiceUnavailable},
		{"Request Timeout", &orchestrator.RequestTimeoutError{Timeout: time.Minute, State: orchestrator.StateExecutingTools}, http.StatusGatewayTimeout},
		{"Unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, func(context.Context, string, string) (*orchestrator.Answer, error) {
				return nil, tt.err
			})

			rec := do(t, srv, http.MethodPost, "/api/v1/ask", `{"query":"Tides?"}`)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.err.Error(), decode(t, rec)["error"])
		})
	}
}

func TestAsk_BadBody(t *testing.T) {
	called := false
	srv, _ := newTestServer(t, func(context.Context, string, string) (*orchestrator.Answer, error) {
		called = true
		return nil, nil
	})

	for _, body := range []string{`not json`, `{"query": 42}`, `{"query":"hi","extra":true}`} {
		rec := do(t, srv, http.MethodPost, "/api/v1/ask", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.False(t, called)
}

func TestAsk_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/ask", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTools(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := do(t, srv, http.MethodGet, "/api/v1/tools", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body toolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tools, 1)
	assert.Equal(t, tool.NameTidePredictions, body.Tools[0].Name)
}

func TestSessions(t *testing.T) {
	srv, store := newTestServer(t, nil)
	_, err := store.AppendAll("sess-1",
		memory.Turn{Role: memory.RoleUser, Content: "Tide at Santa Monica?"},
		memory.Turn{Role: memory.RoleAssistant, Content: "High tide at 09:06."},
	)
	require.NoError(t, err)

	t.Run("Get", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/v1/sessions/sess-1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body sessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "sess-1", body.Session.ID)
		assert.Equal(t, 2, body.Session.Turns)
		require.Len(t, body.Turns, 2)
		assert.Equal(t, "High tide at 09:06.", body.Turns[1].Content)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := do(t, srv, http.MethodDelete, "/api/v1/sessions/sess-1", "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		info, err := store.Lookup("sess-1")
		require.NoError(t, err)
		assert.Equal(t, 0, info.Turns)
	})

	t.Run("Unknown", func(t *testing.T) {
		rec := do(t, srv, http.MethodDelete, "/api/v1/sessions/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = do(t, srv, http.MethodGet, "/api/v1/sessions/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.CORSOrigins = []string{"https://beach.example"}
	srv := New(cfg, &fakeAsker{}, memory.NewStore(20, time.Hour), nil)

	t.Run("Preflight Allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/ask", nil)
		req.Header.Set("Origin", "https://beach.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://beach.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("Other Origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Wildcard", func(t *testing.T) {
		wildcard, _ := newTestServer(t, nil)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		wildcard.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	srv := New(cfg, &fakeAsker{}, memory.NewStore(20, time.Hour), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

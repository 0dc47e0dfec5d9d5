package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dayflow/dayflow/internal/llm"
	"github.com/dayflow/dayflow/internal/planner"
	"github.com/dayflow/dayflow/internal/ratelimit"
	"github.com/dayflow/dayflow/internal/ratelimit/store"
	"github.com/dayflow/dayflow/internal/server/handlers"
)

type staticDriver struct{ content string }

func (d *staticDriver) Complete(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: d.content, FinishReason: "stop"}, nil
}

func (d *staticDriver) Name() string { return "static" }

func TestNotFoundEnvelope(t *testing.T) {
	s := New("127.0.0.1", 8080, Timeouts{})

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	s := New("127.0.0.1", 8080, Timeouts{})

	req := httptest.NewRequest(http.MethodDelete, "/api/chat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChatRouteWired(t *testing.T) {
	timeline := `{"explanation":"x","items":[
		{"what":"Deep work","when":"9:00 am","why":"Focus","icon":"work"},
		{"what":"Lunch","when":"noon","why":"Refuel","icon":"food"},
		{"what":"Walk","when":"3:00 pm","why":"Reset","icon":"exercise"}
	]}`
	limiter := ratelimit.New(store.NewMemory())
	handlers.SetPlanner(planner.New(&staticDriver{content: timeline}, limiter, planner.Config{}, nil))
	t.Cleanup(func() { handlers.SetPlanner(nil) })

	s := New("127.0.0.1", 8080, Timeouts{})

	body := `{"messages":[{"role":"user","content":"Plan my day"}],"sessionId":"route-test"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Referer", "https://dayflow.app/")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "route-test", rec.Header().Get("X-Session-Id"))

	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.Message, "3 activities")
}

func TestRequestIDHeader(t *testing.T) {
	s := New("127.0.0.1", 8080, Timeouts{})

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/shaderscene"
	"github.com/gogpu/shaderscene/internal/server"
	"github.com/gogpu/shaderscene/internal/testutils"
)

type reply struct {
	State shaderscene.State `json:"state"`
	Error string            `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader) (int, reply) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, body))
	var r reply
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	}
	return rec.Code, r
}

func TestPromptAndState(t *testing.T) {
	gen := &testutils.StaticGenerator{Body: testutils.PayloadJSON(t, 1)}
	h := server.NewHandler(testutils.StartApp(t, gen), nil)

	code, r := do(t, h, http.MethodPost, "/api/prompt", strings.NewReader(`{"prompt": "triangle"}`))
	require.Equal(t, http.StatusOK, code, r.Error)
	assert.True(t, r.State.Running)
	assert.Equal(t, 1, gen.Calls())

	code, r = do(t, h, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(1), r.State.Generation)

	code, r = do(t, h, http.MethodDelete, "/api/session", nil)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, r.State.Running)
	assert.Zero(t, r.State.LiveResources)
}

func TestPromptBadRequest(t *testing.T) {
	h := server.NewHandler(testutils.StartApp(t, &testutils.StaticGenerator{}), nil)
	for _, body := range []string{"", "{", `{"prompt": ""}`} {
		code, _ := do(t, h, http.MethodPost, "/api/prompt", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, code, body)
	}
}

func TestPromptFetchFailure(t *testing.T) {
	gen := &testutils.StaticGenerator{Err: fmt.Errorf("%w: unreachable", shaderscene.ErrFetchFailed)}
	h := server.NewHandler(testutils.StartApp(t, gen), nil)

	code, r := do(t, h, http.MethodPost, "/api/prompt", strings.NewReader(`{"prompt": "x"}`))
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, r.Error, "fetch failed")
	assert.Equal(t, r.Error, r.State.Error)
}

func TestSceneRejected(t *testing.T) {
	h := server.NewHandler(testutils.StartApp(t, &testutils.StaticGenerator{}), nil)

	p := testutils.Payload(1)
	p["vertex_data"] = map[string]any{
		"positions": []any{0.0, 0.0, 1.0, 0.0, 0.0, 1.0},
		"indices":   []any{0, 1, 5},
	}
	body, err := json.Marshal(p)
	require.NoError(t, err)

	code, r := do(t, h, http.MethodPost, "/api/scene", bytes.NewReader(body))
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, r.Error, "index out of range")
	assert.False(t, r.State.Running)
}

func TestHealthzAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "shaderscene_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()
	h := server.NewHandler(testutils.StartApp(t, &testutils.StaticGenerator{}), reg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shaderscene_test_total 1")
}

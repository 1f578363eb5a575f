package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/middleware"
	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	calls []string
}

func (h *recordingHandler) Post(w http.ResponseWriter, r *http.Request) {
	h.calls = append(h.calls, "setup")
}

func (h *recordingHandler) GetWS(w http.ResponseWriter, r *http.Request) {
	h.calls = append(h.calls, "progress")
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls = append(h.calls, "webhook")
}

func TestRouter(t *testing.T) {
	cases := []struct {
		method   string
		path     string
		expCode  int
		expCalls []string
	}{
		{http.MethodPost, SubmitFormRoute, http.StatusOK, []string{"setup"}},
		{http.MethodGet, ProgressRoute, http.StatusOK, []string{"progress"}},
		{http.MethodPost, WebhookRoute, http.StatusOK, []string{"webhook"}},
		{http.MethodGet, SubmitFormRoute, http.StatusMethodNotAllowed, nil},
		{http.MethodGet, "/unknown", http.StatusNotFound, nil},
	}
	for _, c := range cases {
		t.Run(c.method+" "+c.path, func(t *testing.T) {
			handler := &recordingHandler{}
			router := newRouter(logging.NewNoopCtxLogger(t), handler, handler, handler)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(c.method, c.path, strings.NewReader("{}")))

			assert.Equal(t, c.expCode, w.Code)
			assert.Equal(t, c.expCalls, handler.calls)
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	handler := &recordingHandler{}
	router := newRouter(logging.NewNoopCtxLogger(t), handler, handler, handler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, HealthzRoute, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

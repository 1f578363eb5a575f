// Package middleware holds the HTTP middleware shared by every route.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	key "github.com/jfrog/frogbot-installer/server/context"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/urfave/negroni"
)

const RequestIDHeader = "X-Request-Id"

// RequestID tags every request context with a fresh id.
type RequestID struct{}

func (m *RequestID) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), key.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type Logger struct {
	Logger logging.Logger
}

func (m *Logger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := negroni.NewResponseWriter(w)
		next.ServeHTTP(rw, r)
		m.Logger.InfoContext(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.RequestURI()), map[string]interface{}{
			"status":   rw.Status(),
			"duration": time.Since(start).String(),
		})
	})
}

// CORS lets the installation wizard call the API from any origin.
type CORS struct{}

func (m *CORS) ServeHTTP(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	next(w, r)
}

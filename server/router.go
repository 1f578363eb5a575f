package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/middleware"
)

const (
	HealthzRoute    = "/healthz"
	SubmitFormRoute = "/submitForm"
	ProgressRoute   = "/ws"
	WebhookRoute    = "/api/webhook"
)

type setupHandler interface {
	Post(w http.ResponseWriter, r *http.Request)
}

type progressHandler interface {
	GetWS(w http.ResponseWriter, r *http.Request)
}

func newRouter(
	logger logging.Logger,
	setupController setupHandler,
	progressController progressHandler,
	webhookHandler http.Handler,
) *mux.Router {
	requestID := &middleware.RequestID{}
	requestLogger := &middleware.Logger{
		Logger: logger,
	}

	router := mux.NewRouter()
	router.Use(requestID.Middleware, requestLogger.Middleware)
	router.HandleFunc(HealthzRoute, Healthz).Methods(http.MethodGet)
	router.HandleFunc(SubmitFormRoute, setupController.Post).Methods(http.MethodPost)
	router.HandleFunc(ProgressRoute, progressController.GetWS).Methods(http.MethodGet)
	router.Handle(WebhookRoute, webhookHandler).Methods(http.MethodPost)
	return router
}

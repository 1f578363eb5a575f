package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jfrog/frogbot-installer/server/controllers"
	"github.com/jfrog/frogbot-installer/server/controllers/events"
	"github.com/jfrog/frogbot-installer/server/controllers/websocket"
	internalHttp "github.com/jfrog/frogbot-installer/server/http"
	"github.com/jfrog/frogbot-installer/server/logging"
	"github.com/jfrog/frogbot-installer/server/metrics"
	"github.com/jfrog/frogbot-installer/server/middleware"
	"github.com/jfrog/frogbot-installer/server/platform"
	"github.com/jfrog/frogbot-installer/server/progress"
	"github.com/jfrog/frogbot-installer/server/secrets"
	"github.com/jfrog/frogbot-installer/server/sync"
	internalGH "github.com/jfrog/frogbot-installer/server/vcs/provider/github"
	"github.com/jfrog/frogbot-installer/server/workflows"
	"github.com/palantir/go-githubapp/githubapp"
	"github.com/pkg/errors"
	"github.com/uber-go/tally/v4"
	"github.com/urfave/negroni"
)

const userAgent = "frogbot-installer"

type Server struct {
	Logger          logging.Logger
	Port            int
	SSLCertFile     string
	SSLKeyFile      string
	Negroni         *negroni.Negroni
	Scheduler       *sync.AsyncScheduler
	StatsScope      tally.Scope
	StatsCloser     io.Closer
	ShutdownTimeout time.Duration
}

// NewServer wires every component from the user config and the GitHub App
// config.
func NewServer(userConfig UserConfig, appConfig githubapp.Config) (*Server, error) {
	logger, err := logging.NewLoggerFromLevel(userConfig.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}

	scope, closer, err := metrics.NewScope(metrics.Config{
		StatsdAddress: userConfig.StatsdAddress,
		Namespace:     userConfig.StatsNamespace,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building stats scope")
	}

	clientCreator, err := githubapp.NewDefaultCachingClientCreator(
		appConfig,
		githubapp.WithClientUserAgent(userAgent),
		githubapp.WithClientTimeout(userConfig.GithubRequestTimeout),
		githubapp.WithClientMiddleware(
			internalGH.ClientMetrics(scope.SubScope("github")),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "creating github client creator")
	}

	workflowProvider, err := workflows.NewProvider(userConfig.PullRequestBody)
	if err != nil {
		return nil, errors.Wrap(err, "loading workflow templates")
	}

	registry := progress.NewRegistry(logger, scope)
	scheduler := sync.NewAsyncScheduler(logger)
	installations := &installationScope{
		clientCreator: clientCreator,
		workflows:     workflowProvider,
		credentials:   platform.NewClient(userConfig.PlatformRequestTimeout, logger),
		sealer:        &secrets.Sealer{},
		progress:      registry,
		logger:        logger,
		scope:         scope,
	}

	setupController := controllers.NewSetupController(installations.coordinator, logger, scope)
	progressController := &controllers.ProgressController{
		Handler: websocket.NewInstrumentedMultiplexor(
			websocket.NewMultiplexor(logger, registry, userConfig.WsHandshakeTimeout),
			scope,
		),
		Logger: logger,
	}

	webhookScope := scope.SubScope("github.event")
	webhookHandler := githubapp.NewDefaultEventDispatcher(
		appConfig,
		&events.InstallationRepositoriesHandler{
			NewBatchInstaller: func(installationID int64) events.BatchInstaller {
				return installations.batchInstaller(installationID)
			},
			Progress:  registry,
			Scheduler: scheduler,
			Logger:    logger,
			Scope:     webhookScope,
		},
		&events.PullRequestHandler{
			NewPostInstaller: func(installationID int64) events.PostInstaller {
				return installations.postInstaller(installationID)
			},
			Scheduler: scheduler,
			Logger:    logger,
			Scope:     webhookScope,
		},
	)

	router := newRouter(logger, setupController, progressController, webhookHandler)

	n := negroni.New(&negroni.Recovery{
		Logger:     log.New(os.Stdout, "", log.LstdFlags),
		PrintStack: false,
		StackAll:   false,
		StackSize:  1024 * 8,
	}, &middleware.CORS{})
	n.UseHandler(router)

	return &Server{
		Logger:          logger,
		Port:            userConfig.Port,
		SSLCertFile:     userConfig.SSLSecrets.CertFile,
		SSLKeyFile:      userConfig.SSLSecrets.KeyFile,
		Negroni:         n,
		Scheduler:       scheduler,
		StatsScope:      scope,
		StatsCloser:     closer,
		ShutdownTimeout: userConfig.ShutdownTimeout,
	}, nil
}

func (s *Server) Start() error {
	defer s.Logger.Close()

	// Ensure server gracefully drains connections when stopped.
	stop := make(chan os.Signal, 1)
	// Stop on SIGINTs and SIGTERMs.
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	s.Logger.Info(fmt.Sprintf("Frogbot installer started - listening on port %v", s.Port))

	proxy := &internalHttp.ServerProxy{
		SSLCertFile: s.SSLCertFile,
		SSLKeyFile:  s.SSLKeyFile,
		Server:      &http.Server{Addr: fmt.Sprintf(":%d", s.Port), Handler: s.Negroni},
		Logger:      s.Logger,
	}
	go func() {
		if err := proxy.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.Logger.Error(err.Error())
		}
	}()

	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := proxy.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "while shutting down")
	}
	if err := s.Scheduler.Shutdown(ctx); err != nil {
		s.Logger.Warn(fmt.Sprintf("installations still running at shutdown: %s", err))
	}

	// flush stats before shutdown
	if err := s.StatsCloser.Close(); err != nil {
		s.Logger.Error(err.Error())
	}
	return nil
}

// Healthz returns the health check response. It always returns a 200 currently.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	data, err := json.MarshalIndent(&struct {
		Status string `json:"status"`
	}{
		Status: "ok",
	}, "", "  ")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Error creating status json response: %s", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) // nolint: errcheck
}

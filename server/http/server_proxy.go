// Package http wraps the standard http server with optional TLS.
package http

import (
	"net/http"

	"github.com/jfrog/frogbot-installer/server/logging"
)

type ServerProxy struct {
	*http.Server
	SSLCertFile string
	SSLKeyFile  string
	Logger      logging.Logger
}

// ListenAndServe serves TLS when both a certificate and key are configured.
func (p *ServerProxy) ListenAndServe() error {
	if p.SSLCertFile != "" && p.SSLKeyFile != "" {
		return p.ListenAndServeTLS(p.SSLCertFile, p.SSLKeyFile)
	}

	return p.Server.ListenAndServe()
}

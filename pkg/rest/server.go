/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rest

import (
	reqContext "context"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/pkg/errors"
)

var accessLogger = logging.NewLogger("fabapi/access")

// accessLog writes combined log format lines to the access logger
type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	accessLogger.Info(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Server serves the API with an access log and panic recovery
type Server struct {
	server *http.Server
}

// NewServer wraps handler for the listener described by cfg
func NewServer(cfg config.ServerConfig, handler http.Handler) *Server {
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(logger), handlers.PrintRecoveryStack(true))
	return &Server{
		server: &http.Server{
			Addr:         cfg.Address,
			Handler:      handlers.CombinedLoggingHandler(accessLog{}, recovery(handler)),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Serve accepts connections on l until Shutdown is called
func (s *Server) Serve(l net.Listener) error {
	logger.Infof("serving API on %s", l.Addr())
	if err := s.server.Serve(l); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "API server failed")
	}
	return nil
}

// ListenAndServe listens on the configured address and serves until Shutdown
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s failed", s.server.Addr)
	}
	return s.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done
func (s *Server) Shutdown(ctx reqContext.Context) error {
	return s.server.Shutdown(ctx)
}

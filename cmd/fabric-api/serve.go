/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	reqContext "context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kawaya-ledger/fabric-api/pkg/rest"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the invoke and query API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return serve(cmd)
		},
	}
}

func serve(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(reqContext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newService(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var opts []rest.Option
	if s.cfg.Metrics.Enabled {
		opts = append(opts, rest.WithMetricsHandler(s.cfg.Metrics.Path, s.metrics.Handler()))
	}
	server := rest.NewServer(s.cfg.Server, rest.NewHTTPHandler(s.client, opts...))

	done := make(chan error, 1)
	go func() {
		done <- server.ListenAndServe()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logger.Infof("shutting down, waiting up to %s for in-flight requests", s.cfg.Server.ShutdownTimeout)
	}

	shutdownCtx, cancel := reqContext.WithTimeout(reqContext.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-done
}

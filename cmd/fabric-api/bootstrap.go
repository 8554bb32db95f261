/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	reqContext "context"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/kawaya-ledger/fabric-api/pkg/client/channel"
	"github.com/kawaya-ledger/fabric-api/pkg/core/config"
	"github.com/kawaya-ledger/fabric-api/pkg/core/logging/zaplog"
	"github.com/kawaya-ledger/fabric-api/pkg/core/metrics"
	"github.com/kawaya-ledger/fabric-api/pkg/fab/network"
	"github.com/kawaya-ledger/fabric-api/pkg/journal"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var logger = logging.NewLogger("fabapi/main")

// service holds everything opened for one run of a command
type service struct {
	cfg     *config.Config
	logs    *zaplog.Provider
	network *network.Network
	journal journal.Multi
	metrics *metrics.ClientMetrics
	client  *channel.Client
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, err
	}
	return config.Load(config.FromFile(path))
}

// newService loads the configuration and opens the network, the journal
// and the channel client
func newService(ctx reqContext.Context, cmd *cobra.Command) (*service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logs, err := zaplog.Initialize(cfg.Logging)
	if err != nil {
		return nil, err
	}
	s := &service{cfg: cfg, logs: logs, metrics: metrics.NewDiscardMetrics()}

	if cfg.Metrics.Enabled {
		s.metrics = metrics.NewClientMetrics(cfg.Metrics.Namespace)
	}

	s.journal, err = journal.New(ctx, cfg.Journal)
	if err != nil {
		s.close()
		return nil, err
	}

	s.network, err = network.New(cfg.Fabric)
	if err != nil {
		s.close()
		return nil, err
	}

	s.client, err = channel.New(cfg.Fabric, channel.Providers{
		Credentials: s.network,
		Proposals:   s.network,
		Orderer:     s.network,
		Events:      s.network,
	}, channel.WithMetrics(s.metrics), channel.WithJournal(s.journal))
	if err != nil {
		s.close()
		return nil, errors.WithMessage(err, "failed to create channel client")
	}
	return s, nil
}

func (s *service) close() {
	if s.network != nil {
		s.network.Close()
	}
	if err := s.journal.Close(); err != nil {
		logger.Warnf("closing journal failed: %s", err)
	}
	if err := s.logs.Sync(); err != nil {
		logger.Debugf("flushing logs failed: %s", err)
	}
}

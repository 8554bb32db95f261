/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"os"

	"github.com/spf13/cobra"
)

const (
	configFlag       = "config"
	defaultConfigEnv = "FABRIC_API_CONFIG"
	defaultConfig    = "config.yaml"
)

func newMainCmd() *cobra.Command {
	mainCmd := &cobra.Command{
		Use:   "fabric-api",
		Short: "Invoke and query chaincode on a Fabric channel",
	}

	path := os.Getenv(defaultConfigEnv)
	if path == "" {
		path = defaultConfig
	}
	mainCmd.PersistentFlags().StringP(configFlag, "c", path, "path of the configuration file")

	mainCmd.AddCommand(serveCmd())
	mainCmd.AddCommand(invokeCmd())
	mainCmd.AddCommand(queryCmd())
	mainCmd.AddCommand(configCmd())
	return mainCmd
}

func main() {
	// On failure Cobra prints the usage message and error string, so we only
	// need to exit with a non-0 status
	if newMainCmd().Execute() != nil {
		os.Exit(1)
	}
}

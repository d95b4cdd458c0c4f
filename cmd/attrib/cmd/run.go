// Copyright 2025 Antfly, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/antflydb/attrib"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the attrib dispatch server",
	Long:  `Start the attribution dispatch server routing requests to the configured framework sidecars.`,
	RunE:  runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("listen-addr", "127.0.0.1:4310", "API listen address")
	runCmd.Flags().Int("max-in-flight", attrib.DefaultMaxInFlight, "max concurrently served attribution requests")
	runCmd.Flags().String("metadata-ttl", "5m", "how long sidecar model metadata stays cached")
	mustBindPFlag("listen_addr", runCmd.Flags().Lookup("listen-addr"))
	mustBindPFlag("max_in_flight", runCmd.Flags().Lookup("max-in-flight"))
	mustBindPFlag("metadata_ttl", runCmd.Flags().Lookup("metadata-ttl"))
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	defer func() {
		_ = logger.Sync()
	}()

	cfg := attrib.Config{
		ListenAddr:    viper.GetString("listen_addr"),
		TensorFlowURL: viper.GetString("tensorflow_url"),
		PyTorchURL:    viper.GetString("pytorch_url"),
		MaxInFlight:   viper.GetInt("max_in_flight"),
		MetadataTTL:   viper.GetString("metadata_ttl"),
	}

	attrib.Run(ctx, logger, cfg, nil)
	return nil
}

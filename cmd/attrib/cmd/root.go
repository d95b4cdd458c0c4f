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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var rootCmd = &cobra.Command{
	Use:   "attrib",
	Short: "Cross-framework attribution dispatch",
	Long: `attrib dispatches explainable-AI attribution requests to
framework-native backends (TensorFlow/iNNvestigate-style analyzers,
PyTorch/Zennit composites) through one API, translating method and
parameter names between the two conventions.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("tensorflow-url", "", "base URL of the TensorFlow attribution sidecar")
	pf.String("pytorch-url", "", "base URL of the PyTorch attribution sidecar")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	mustBindPFlag("tensorflow_url", pf.Lookup("tensorflow-url"))
	mustBindPFlag("pytorch_url", pf.Lookup("pytorch-url"))
	mustBindPFlag("log.level", pf.Lookup("log-level"))
}

func initConfig() {
	viper.SetEnvPrefix("ATTRIB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home + "/.attrib")
	}
	viper.AddConfigPath(".")
	// Missing config file is fine; flags and env cover everything
	_ = viper.ReadInConfig()
}

// mustBindPFlag panics when a flag cannot be bound to its viper key,
// which only happens on a programming error.
func mustBindPFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

// newLogger creates the process logger from the configured level.
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(viper.GetString("log.level")); err != nil {
		level = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

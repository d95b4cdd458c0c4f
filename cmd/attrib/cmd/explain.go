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
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/antflydb/attrib"
	"github.com/antflydb/attrib/lib/tensor"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var explainParams []string

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Compute one attribution map from the CLI",
	Long: `Compute an attribution map for a single input against a sidecar-hosted
model and print it as JSON.

The input file holds a tensor as {"data": [...], "shape": [...]}.

Examples:
  # Gradient attribution, auto-detected framework
  attrib explain --model vgg16 --method gradient --input x.json

  # LRP epsilon against an explicit framework, explaining class 7
  attrib explain --model resnet18 --framework pytorch \
    --method lrp.epsilon --target-class 7 --input x.json

  # Backend-specific parameters pass through untranslated names too
  attrib explain --model vgg16 --method smoothgrad \
    --param augment_by_n=50 --param noise_scale=0.2 --input x.json`,
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().String("model", "", "sidecar model reference (required)")
	explainCmd.Flags().String("method", "", "attribution method name (required)")
	explainCmd.Flags().String("framework", "", "explicit framework (tensorflow, pytorch)")
	explainCmd.Flags().String("input", "", "path to the input tensor JSON file (required)")
	explainCmd.Flags().Int("target-class", -1, "output class to explain (-1 = backend default)")
	explainCmd.Flags().StringArrayVar(&explainParams, "param", nil, "additional backend parameter as key=value (repeatable)")
	_ = explainCmd.MarkFlagRequired("model")
	_ = explainCmd.MarkFlagRequired("method")
	_ = explainCmd.MarkFlagRequired("input")
}

func runExplain(cmd *cobra.Command, args []string) error {
	modelRef, _ := cmd.Flags().GetString("model")
	method, _ := cmd.Flags().GetString("method")
	framework, _ := cmd.Flags().GetString("framework")
	inputPath, _ := cmd.Flags().GetString("input")
	targetClass, _ := cmd.Flags().GetInt("target-class")

	logger := newLogger()
	defer func() {
		_ = logger.Sync()
	}()

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	input := tensor.Tensor{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return fmt.Errorf("decoding input tensor: %w", err)
	}
	if err := input.Validate(); err != nil {
		return fmt.Errorf("invalid input tensor: %w", err)
	}

	node, err := attrib.NewNode(attrib.Config{
		TensorFlowURL: viper.GetString("tensorflow_url"),
		PyTorchURL:    viper.GetString("pytorch_url"),
	}, logger)
	if err != nil {
		return err
	}
	defer node.Close()

	params, err := parseParams(explainParams)
	if err != nil {
		return err
	}

	opts := attrib.Options{Framework: framework, Params: params}
	if targetClass >= 0 {
		opts.TargetClass = &targetClass
	}

	ctx := context.Background()
	out, err := node.ExplainRef(ctx, modelRef, input, method, opts)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

// parseParams turns repeated key=value flags into backend parameters,
// guessing numeric and boolean types and leaving the rest as strings.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q: expected key=value", pair)
		}
		switch {
		case value == "true" || value == "false":
			params[key] = value == "true"
		default:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				params[key] = n
			} else if f, err := strconv.ParseFloat(value, 64); err == nil {
				params[key] = f
			} else {
				params[key] = value
			}
		}
	}
	return params, nil
}

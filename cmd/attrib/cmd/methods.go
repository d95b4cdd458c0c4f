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
	"text/tabwriter"

	"github.com/antflydb/attrib"
	"github.com/spf13/cobra"
)

var methodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List the attribution method catalog",
	Long: `List the attribution methods the dispatcher can translate between
frameworks, with the spelling each backend expects.

Methods marked divergent map onto a numerically different rule on the
other framework; see the method description.`,
	RunE: runMethods,
}

func init() {
	rootCmd.AddCommand(methodsCmd)

	methodsCmd.Flags().Bool("divergent", false, "Only show methods with cross-framework divergence")
}

func runMethods(cmd *cobra.Command, args []string) error {
	divergentOnly, _ := cmd.Flags().GetBool("divergent")

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CANONICAL\tTENSORFLOW\tPYTORCH\tNOTES")
	for _, m := range attrib.Methods() {
		if divergentOnly && !m.Divergent {
			continue
		}
		notes := ""
		if m.Divergent {
			notes = "divergent"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Canonical, m.TensorFlow, m.PyTorch, notes)
	}
	return w.Flush()
}

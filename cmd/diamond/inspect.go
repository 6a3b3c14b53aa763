/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dirpx.dev/diamond/internal/manifest"
	"dirpx.dev/diamond/internal/runner"
)

func newInspectCmd() *cobra.Command {
	var (
		store     storeFlags
		bootstrap bool
	)
	cmd := &cobra.Command{
		Use:   "inspect <manifest.yaml>",
		Short: "Print the routing table a manifest produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			env, err := runner.Bootstrap(ctx, m, store.options(nil))
			if err != nil {
				return err
			}
			defer env.Close()
			if !bootstrap {
				if _, err := env.Run(ctx, m.Steps); err != nil {
					return err
				}
			}
			facets, err := env.Facets(ctx)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FACET\tADDRESS\tSELECTORS")
			for _, f := range facets {
				sels := make([]string, len(f.Selectors))
				for i, s := range f.Selectors {
					sels[i] = s.String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Label, f.Module, strings.Join(sels, ","))
			}
			return tw.Flush()
		},
	}
	store.register(cmd)
	cmd.Flags().BoolVar(&bootstrap, "bootstrap", false, "Stop after creating the router, skipping steps")
	return cmd
}

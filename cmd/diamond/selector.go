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

	"github.com/spf13/cobra"

	"dirpx.dev/diamond/apis"
	"dirpx.dev/diamond/selector"
)

func newSelectorCmd() *cobra.Command {
	var iface bool
	cmd := &cobra.Command{
		Use:   "selector <signature>...",
		Short: "Print function selectors",
		Example: `  diamond selector "transfer(address,uint256)"
  diamond selector --interface "owner()" "transferOwnership(address)"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sels := make([]apis.Selector, len(args))
			for i, sig := range args {
				sels[i] = selector.Of(sig)
				fmt.Fprintf(out, "%s  %s\n", sels[i], sig)
			}
			if iface {
				fmt.Fprintf(out, "%s  interface id\n", selector.Interface(sels...))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&iface, "interface", false, "Also print the XOR of all selectors")
	return cmd
}

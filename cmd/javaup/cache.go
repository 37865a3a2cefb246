// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = newCacheCommand()

// newCacheCommand creates the `javaup cache` command group.
func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the tool cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "dir",
		Short: "Print the tool cache root directory",
		Long: `Print the resolved tool cache root directory.

The root comes from the JAVAUP_CACHE_DIR environment variable, the
cache_dir config key, or RUNNER_TOOL_CACHE on CI runners, in that
order of precedence.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.CacheDir)
			return nil
		},
	})

	return cmd
}

// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"javaup-cli/internal/distro"
	"javaup-cli/internal/platform"
	"javaup-cli/internal/toolcache"
	"javaup-cli/internal/versionspec"
)

var listCmd = newListCommand()

// newListCommand creates the `javaup list` command, which shows the
// runtimes currently present in the tool cache.
func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show cached Java runtimes",
		Long: `Show the Java runtimes currently installed in the tool cache for a
distribution, newest first.`,
		Example: `  # Cached Temurin JDKs for the host architecture
  javaup list

  # Cached Zulu JREs
  javaup list --distribution zulu --package-type jre`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			distribution, _ := cmd.Flags().GetString("distribution")
			arch, _ := cmd.Flags().GetString("arch")
			packageType, _ := cmd.Flags().GetString("package-type")

			if distribution == "" {
				distribution = cfg.Distribution
			}
			if packageType == "" {
				packageType = cfg.PackageType
			}
			if arch == "" {
				arch = runtime.GOARCH
			}
			arch = platform.NormalizeArch(arch)

			store := toolcache.NewStore(cfg.CacheDir)
			renderList(cmd.OutOrStdout(), store, distribution, packageType, arch)
			return nil
		},
	}

	cmd.Flags().String("distribution", "", "distribution name (temurin or zulu; default from config)")
	cmd.Flags().String("arch", "", "target architecture (default: host architecture)")
	cmd.Flags().String("package-type", "", "package kind: jdk or jre (default from config)")

	return cmd
}

// renderList writes the cached installations for one (distribution,
// package kind, arch) triple, newest version first.
func renderList(w io.Writer, store *toolcache.Store, distribution, packageType, arch string) {
	// Tool folder names are title-cased distribution names; accept the
	// lower-case config/flag spelling.
	name := distribution
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	tool := distro.ToolFolder(name, packageType)

	entries := store.List(tool, arch)
	if len(entries) == 0 {
		fmt.Fprintf(w, "No cached %s %s runtimes for %s.\n", name, packageType, arch)
		return
	}

	slices.SortFunc(entries, func(a, b toolcache.Entry) int {
		return versionspec.Compare(b.Version, a.Version)
	})

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s %s (%s)", name, packageType, arch)))
	for _, e := range entries {
		line := fmt.Sprintf("  %-16s %s", e.Version, SubtitleStyle.Render(e.Path))
		if !e.InstalledAt.IsZero() {
			line += SubtitleStyle.Render("  installed " + e.InstalledAt.Format("2006-01-02"))
		}
		fmt.Fprintln(w, line)
	}
}

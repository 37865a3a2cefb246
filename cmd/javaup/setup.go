// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"javaup-cli/internal/diagnose"
	"javaup-cli/internal/distro"
	"javaup-cli/internal/distro/temurin"
	"javaup-cli/internal/distro/zulu"
	"javaup-cli/internal/hostenv"
	"javaup-cli/internal/setup"
	"javaup-cli/internal/toolcache"
	"javaup-cli/internal/versionspec"
)

var setupCmd = newSetupCommand()

// setupParams bundles the dependencies and flags for the setup command,
// enabling the core logic in runSetup to be tested without a real Cobra
// command or live vendor API calls.
type setupParams struct {
	stdout       io.Writer
	stderr       io.Writer
	orchestrator *setup.Orchestrator
	request      setup.Request
}

// newSetupCommand creates the `javaup setup` command, which resolves a
// version range against a vendor catalog, installs the matching runtime
// into the tool cache, and publishes JAVA_HOME and PATH.
func newSetupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Resolve, install, and activate a Java runtime",
		Long: `Resolve a version range against a vendor catalog, install the
matching runtime into the shared tool cache, and activate it.

A runtime already in the cache is reused without touching the network
unless --check-latest is set. Activation exports JAVA_HOME, prepends
the runtime's bin directory to PATH, and (on GitHub Actions runners)
publishes step outputs and workflow environment updates.`,
		Example: `  # Latest stable Temurin 17
  javaup setup --version 17

  # Early-access builds
  javaup setup --version 21-ea

  # A specific patch from Azul Zulu
  javaup setup --version 11.0.3 --distribution zulu

  # Force a remote freshness check even on a cache hit
  javaup setup --version 17 --check-latest`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			version, _ := cmd.Flags().GetString("version")
			distribution, _ := cmd.Flags().GetString("distribution")
			arch, _ := cmd.Flags().GetString("arch")
			packageType, _ := cmd.Flags().GetString("package-type")
			checkLatest, _ := cmd.Flags().GetBool("check-latest")

			if distribution == "" {
				distribution = cfg.Distribution
			}
			if packageType == "" {
				packageType = cfg.PackageType
			}

			p := setupParams{
				stdout:       cmd.OutOrStdout(),
				stderr:       cmd.ErrOrStderr(),
				orchestrator: newOrchestrator(),
				request: setup.Request{
					Version:      version,
					Distribution: distribution,
					Arch:         arch,
					PackageType:  packageType,
					CheckLatest:  checkLatest,
				},
			}

			if err := runSetup(cmd.Context(), p); err != nil {
				fmt.Fprintln(p.stderr, ErrorStyle.Render("Error: ")+formatSetupError(err))
				return &ExitError{Code: classifySetupExitCode(err), Err: err}
			}

			return nil
		},
	}

	cmd.Flags().String("version", "", "version range to resolve (e.g. 17, 11.0.3, 21-ea)")
	cmd.Flags().String("distribution", "", "distribution name (temurin or zulu; default from config)")
	cmd.Flags().String("arch", "", "target architecture (default: host architecture)")
	cmd.Flags().String("package-type", "", "package kind: jdk or jre (default from config)")
	cmd.Flags().Bool("check-latest", false, "check the vendor catalog even on a cache hit")
	_ = cmd.MarkFlagRequired("version")

	return cmd
}

// newOrchestrator wires the setup orchestrator from the loaded
// configuration: tool cache store, vendor registry, and host environment
// publisher.
func newOrchestrator() *setup.Orchestrator {
	logger := newLogger()
	store := toolcache.NewStore(cfg.CacheDir)
	httpClient := &http.Client{Timeout: 5 * time.Minute}

	temurinOpts := []temurin.Option{
		temurin.WithHTTPClient(httpClient),
		temurin.WithUserAgent(cfg.UserAgent),
	}
	if cfg.Endpoints.Temurin != "" {
		temurinOpts = append(temurinOpts, temurin.WithBaseURL(cfg.Endpoints.Temurin))
	}

	zuluOpts := []zulu.Option{
		zulu.WithHTTPClient(httpClient),
		zulu.WithUserAgent(cfg.UserAgent),
	}
	if cfg.Endpoints.Zulu != "" {
		zuluOpts = append(zuluOpts, zulu.WithBaseURL(cfg.Endpoints.Zulu))
	}

	registry := distro.NewRegistry(
		temurin.New(store, logger, temurinOpts...),
		zulu.New(store, logger, zuluOpts...),
	)

	return setup.New(store, registry, hostenv.NewActionsPublisher(logger), logger)
}

// runSetup is the core setup logic, separated from Cobra for testability.
func runSetup(ctx context.Context, p setupParams) error {
	inst, err := p.orchestrator.Run(ctx, p.request)
	if err != nil {
		return err
	}

	fmt.Fprintln(p.stdout, SuccessStyle.Render(fmt.Sprintf("Java %s (%s) ready", inst.Version, p.request.Distribution)))
	fmt.Fprintf(p.stdout, "  JAVA_HOME: %s\n", CmdStyle.Render(inst.Path))
	return nil
}

// classifySetupExitCode maps a setup error to the appropriate process exit
// code. Invalid input and unsatisfiable ranges use exit code 1
// (user-correctable); all other failures use exit code 2
// (unexpected/transient).
func classifySetupExitCode(err error) int {
	switch {
	case errors.Is(err, versionspec.ErrInvalidSpec):
		return 1
	case errors.Is(err, distro.ErrNoMatchingRelease):
		return 1
	default:
		return 2
	}
}

// formatSetupError produces a user-friendly error message with remediation
// guidance derived from the failure's diagnostic classification.
func formatSetupError(err error) string {
	if errors.Is(err, versionspec.ErrInvalidSpec) {
		return fmt.Sprintf("%s\n\nVersion ranges look like 17, 11.0.3, 17.x, or 21-ea.", err.Error())
	}
	if errors.Is(err, distro.ErrNoMatchingRelease) {
		return fmt.Sprintf("%s\n\nCheck the version range, or try another distribution:\n  javaup setup --version <range> --distribution zulu", err.Error())
	}

	report := diagnose.Classify(err)
	switch report.Category {
	case diagnose.CategoryRateLimited:
		return fmt.Sprintf("%s\n\nThe vendor API is rate limiting this client. Wait a few minutes and retry.", err.Error())
	case diagnose.CategoryPermissionDenied:
		return fmt.Sprintf("%s\n\nThe vendor API refused the request. If behind a proxy, check its configuration.", err.Error())
	case diagnose.CategoryNetwork, diagnose.CategoryAggregate:
		return fmt.Sprintf("%s\n\nCheck your network connection and try again.\n(%s)", err.Error(), report.String())
	default:
		return err.Error()
	}
}

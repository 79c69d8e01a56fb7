// Package cli implements the nuget-inspector command-line interface.
//
// This package provides commands for auditing .NET solutions against the
// NuGet registry, managing the HTTP response cache, and serving a generated
// HTML report. The CLI is built using cobra and supports verbose logging
// via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - audit: Run the dotnet package reports, reconcile them, enrich them
//     with registry metadata, and render a report
//   - cache: Manage the HTTP response cache
//   - serve: Serve a rendered HTML report over HTTP
//   - version: Print build information
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version and the
// version command. Typically called by the main package with values injected
// via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the nuget-inspector CLI and returns an error if any command
// fails. The logger level follows --verbose and the logger is attached to
// the command context, accessible to all commands via loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "nuget-inspector",
		Short:        "nuget-inspector audits NuGet dependencies of .NET solutions",
		Long:         `nuget-inspector runs the dotnet CLI package reports (outdated, deprecated, vulnerable), reconciles them into one status per package, enriches the result with registry metadata from nuget.org, and renders a console, markdown, or HTML report.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("nuget-inspector %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newAuditCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())

	return root.ExecuteContext(ctx)
}

// newVersionCmd creates the version command, a plain-text twin of --version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("nuget-inspector %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
		},
	}
}

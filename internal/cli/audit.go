package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EDemerzel/nuget-inspector/pkg/cache"
	"github.com/EDemerzel/nuget-inspector/pkg/dotnet"
	"github.com/EDemerzel/nuget-inspector/pkg/registry"
	"github.com/EDemerzel/nuget-inspector/pkg/report"
)

// auditOptions holds the audit command's flag values.
type auditOptions struct {
	output            string
	format            string
	includeTransitive bool
	cacheDir          string
	redisURL          string
	noCache           bool
	configPath        string
	concurrency       int
	timeout           time.Duration
	retries           int
}

// newAuditCmd creates the audit command.
func newAuditCmd() *cobra.Command {
	opts := &auditOptions{}

	cmd := &cobra.Command{
		Use:   "audit <solution-or-project>",
		Short: "Audit the NuGet dependencies of a solution or project",
		Long: `Audit runs the dotnet package reports (baseline, outdated, deprecated,
vulnerable) against the given solution or project, reconciles them into one
status per package, fetches registry metadata for every resolved package,
and renders the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "report format: console, markdown, or html (default console)")
	cmd.Flags().BoolVar(&opts.includeTransitive, "include-transitive", false, "include transitive packages in the baseline report")
	cmd.Flags().StringVar(&opts.cacheDir, "cache-dir", "", "directory for cached registry responses")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "redis URL to use as the response cache backend")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable response caching")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a TOML config file")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "maximum concurrent registry requests")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "per-request registry timeout")
	cmd.Flags().IntVar(&opts.retries, "retries", 0, "maximum attempts per registry request")

	return cmd
}

func runAudit(cmd *cobra.Command, target string, opts *auditOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	fc, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	cfg := fc.applyRegistry(registry.DefaultConfig())
	if cmd.Flags().Changed("concurrency") {
		cfg.MaxConcurrentRequests = opts.concurrency
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if cmd.Flags().Changed("retries") {
		cfg.MaxRetryAttempts = opts.retries
	}

	format := report.FormatConsole
	if fc.Audit.Format != "" {
		format = fc.Audit.Format
	}
	if cmd.Flags().Changed("format") {
		format = opts.format
	}
	renderer, err := report.RendererFor(format)
	if err != nil {
		return err
	}

	includeTransitive := fc.Audit.IncludeTransitive
	if cmd.Flags().Changed("include-transitive") {
		includeTransitive = opts.includeTransitive
	}

	responses, err := openCache(ctx, fc, opts)
	if err != nil {
		return err
	}
	defer responses.Close()

	runner := &dotnet.Runner{IncludeTransitive: includeTransitive, Logger: logger}

	spinner := newSpinner(ctx, fmt.Sprintf("Collecting package reports for %s", target))
	spinner.Start()
	collect := newProgress(logger)
	reports, err := runner.Collect(ctx, target)
	spinner.Stop()
	if err != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		return err
	}
	collect.done("Collected dotnet package reports")

	client := registry.NewClient(cfg, responses, logger)
	assembler := &report.Assembler{Fetcher: client, Logger: logger}

	fetch := newProgress(logger)
	run, err := assembler.Assemble(ctx, target, reports)
	if err != nil {
		return err
	}
	fetch.done("Fetched registry metadata")

	if err := report.Write(run, renderer, opts.output); err != nil {
		return err
	}

	outdated, deprecated, vulnerable := run.Counts()
	if opts.output != "" {
		printSuccess("Audit complete")
		printIssueCounts(outdated, deprecated, vulnerable)
		printFile(opts.output)
	}
	return nil
}

// openCache picks the response cache backend from flags and config:
// --no-cache wins, then --redis, then a file cache under --cache-dir or the
// user cache directory.
func openCache(ctx context.Context, fc *fileConfig, opts *auditOptions) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if fc.Cache.Disabled && opts.redisURL == "" && opts.cacheDir == "" {
		return cache.NewNullCache(), nil
	}

	redisURL := fc.Cache.Redis
	if opts.redisURL != "" {
		redisURL = opts.redisURL
	}
	if redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, redisURL)
		if err != nil {
			return nil, err
		}
		return cache.Namespace(rc, "registry"), nil
	}

	dir := fc.Cache.Dir
	if opts.cacheDir != "" {
		dir = opts.cacheDir
	}
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return nil, err
		}
	}
	return cache.NewFileCache(dir)
}

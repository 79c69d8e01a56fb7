package dotnet

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/EDemerzel/nuget-inspector/pkg/errors"
)

// Runner invokes the dotnet CLI to produce package reports.
// It is a thin process wrapper: all report semantics live in the parsed
// documents, not here.
type Runner struct {
	// Timeout bounds each individual dotnet invocation. Zero means no limit
	// beyond the caller's context.
	Timeout time.Duration

	// IncludeTransitive adds --include-transitive to the baseline report.
	IncludeTransitive bool

	Logger *log.Logger
}

// reportFlags maps each report flavor to its extra CLI flag.
var reportFlags = []struct {
	name string
	flag string
}{
	{"baseline", ""},
	{"outdated", "--outdated"},
	{"deprecated", "--deprecated"},
	{"vulnerable", "--vulnerable"},
}

// Collect runs `dotnet list <target> package --format json` four times
// (baseline, outdated, deprecated, vulnerable) and parses the results.
// It probes for the dotnet executable first and runs `dotnet restore`
// best-effort, since list results are unreliable against an unrestored
// solution.
func (r *Runner) Collect(ctx context.Context, target string) (Reports, error) {
	var reports Reports

	if _, err := exec.LookPath("dotnet"); err != nil {
		return reports, errors.Wrap(errors.ErrCodeToolNotFound, err, "dotnet executable not found in PATH")
	}

	if out, err := r.run(ctx, "restore", target); err != nil {
		r.logger().Warn("dotnet restore failed, listing against local state", "target", target, "error", errors.UserMessage(err), "output", truncate(out, 400))
	}

	parsed := make([]*Report, len(reportFlags))
	for i, rf := range reportFlags {
		args := []string{"list", target, "package", "--format", "json"}
		if rf.flag != "" {
			args = append(args, rf.flag)
		}
		if rf.name == "baseline" && r.IncludeTransitive {
			args = append(args, "--include-transitive")
		}

		out, err := r.run(ctx, args...)
		if err != nil {
			return reports, errors.Wrap(errors.ErrCodeToolFailed, err, "dotnet list package (%s) failed", rf.name)
		}

		report, err := ParseReport([]byte(out))
		if err != nil {
			return reports, errors.Wrap(errors.ErrCodeInvalidReport, err, "parse %s report", rf.name)
		}
		parsed[i] = report
		r.logger().Debug("collected report", "flavor", rf.name, "projects", len(report.Projects))
	}

	reports.Baseline = parsed[0]
	reports.Outdated = parsed[1]
	reports.Deprecated = parsed[2]
	reports.Vulnerable = parsed[3]
	return reports, nil
}

// run executes one dotnet invocation and returns its stdout.
// Stderr is folded into the error on failure.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "dotnet", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stdout.String(), ctx.Err()
		}
		return stdout.String(), fmt.Errorf("%w: %s", err, truncate(stderr.String(), 400))
	}
	return stdout.String(), nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

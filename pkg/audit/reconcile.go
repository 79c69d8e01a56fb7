package audit

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/EDemerzel/nuget-inspector/pkg/dotnet"
	"github.com/EDemerzel/nuget-inspector/pkg/errors"
)

// cliErrorStrings are values the dotnet CLI emits in place of a version when
// a source lookup failed. Any latestVersion containing one of these
// (case-insensitively) is discarded rather than treated as a real version.
var cliErrorStrings = []string{
	"not found at the sources",
	"not found",
	"unable to load",
	"error",
	"failed",
}

// Reconciler merges the four report flavors into per-package statuses.
// The zero value is usable; Logger defaults to log.Default().
type Reconciler struct {
	Logger *log.Logger
}

// Reconcile produces one PackageStatus per package id for the given
// (projectPath, framework) pair, keyed by lowercased package id.
//
// The merge runs as an ordered pipeline of passes over the same map, each
// pass restricted to the fields it may overwrite:
//
//  1. baseline:   creates every record, owns all version fields
//  2. outdated:   LatestVersion only (CLI error strings filtered out)
//  3. deprecated: IsDeprecated, DeprecationReasons, Alternative
//  4. vulnerable: HasVulnerabilities, Vulnerabilities
//  5. finalize:   defaults LatestVersion, derives IsOutdated and
//     HasVulnerabilities
//
// The baseline report is the sole authority for which packages exist and
// which versions are installed; later passes never add packages and never
// touch version fields. A project or framework missing from any report
// contributes nothing and is not an error. Blank projectPath or framework
// is a caller contract violation.
func (r *Reconciler) Reconcile(reports dotnet.Reports, projectPath, framework string) (map[string]PackageStatus, error) {
	if strings.TrimSpace(projectPath) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "project path cannot be blank")
	}
	if strings.TrimSpace(framework) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "framework cannot be blank")
	}
	if reports.Baseline == nil || reports.Outdated == nil || reports.Deprecated == nil || reports.Vulnerable == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "all four reports must be provided")
	}

	statuses := r.applyBaseline(reports.Baseline, projectPath, framework)
	if len(statuses) == 0 {
		return statuses, nil
	}

	r.applyOutdated(statuses, reports.Outdated, projectPath, framework)
	r.applyDeprecated(statuses, reports.Deprecated, projectPath, framework)
	r.applyVulnerable(statuses, reports.Vulnerable, projectPath, framework)
	finalize(statuses)

	return statuses, nil
}

// applyBaseline seeds one fresh record per package. Issue flags start at
// their safe defaults: the baseline says what exists, not what is wrong.
func (r *Reconciler) applyBaseline(baseline *dotnet.Report, projectPath, framework string) map[string]PackageStatus {
	statuses := make(map[string]PackageStatus)

	packages := r.frameworkPackages(baseline, projectPath, framework, "baseline")
	if len(packages) == 0 {
		r.logger().Debug("no baseline packages", "project", projectPath, "framework", framework)
		return statuses
	}

	for _, ref := range packages {
		statuses[statusKey(ref.ID)] = PackageStatus{
			ID:               ref.ID,
			RequestedVersion: ref.RequestedVersion,
			ResolvedVersion:  ref.ResolvedVersion,
		}
	}
	return statuses
}

// applyOutdated overwrites LatestVersion for packages the baseline knows.
// CLI error strings masquerading as versions are logged and skipped, and
// packages absent from the baseline are never added.
func (r *Reconciler) applyOutdated(statuses map[string]PackageStatus, outdated *dotnet.Report, projectPath, framework string) {
	for _, ref := range r.frameworkPackages(outdated, projectPath, framework, "outdated") {
		status, ok := statuses[statusKey(ref.ID)]
		if !ok {
			continue
		}
		if isCLIError(ref.LatestVersion) {
			r.logger().Warn("ignoring latest version from CLI error string",
				"package", ref.ID, "value", ref.LatestVersion)
			continue
		}
		status.LatestVersion = ref.LatestVersion
		statuses[statusKey(ref.ID)] = status
	}
}

// applyDeprecated overwrites the CLI-sourced deprecation view: the flag, the
// reason list (wholesale, when non-empty), and the suggested alternative.
func (r *Reconciler) applyDeprecated(statuses map[string]PackageStatus, deprecated *dotnet.Report, projectPath, framework string) {
	for _, ref := range r.frameworkPackages(deprecated, projectPath, framework, "deprecated") {
		status, ok := statuses[statusKey(ref.ID)]
		if !ok {
			continue
		}
		status.IsDeprecated = ref.IsDeprecated
		if len(ref.DeprecationReasons) > 0 {
			status.DeprecationReasons = copyReasons(ref.DeprecationReasons)
		}
		if ref.AlternativePackage != nil {
			status.Alternative = copyAlternative(ref.AlternativePackage)
		}
		statuses[statusKey(ref.ID)] = status
	}
}

// applyVulnerable overwrites the vulnerability flag and list. A flag set
// without backing data is a source inconsistency: the existing list is kept
// and a warning is emitted (finalize re-derives the flag from the list
// anyway, so the two can never diverge in the output).
func (r *Reconciler) applyVulnerable(statuses map[string]PackageStatus, vulnerable *dotnet.Report, projectPath, framework string) {
	for _, ref := range r.frameworkPackages(vulnerable, projectPath, framework, "vulnerable") {
		status, ok := statuses[statusKey(ref.ID)]
		if !ok {
			continue
		}
		status.HasVulnerabilities = ref.HasVulnerabilities
		if len(ref.Vulnerabilities) > 0 {
			status.Vulnerabilities = copyVulnerabilities(ref.Vulnerabilities)
		} else if ref.HasVulnerabilities {
			r.logger().Warn("vulnerable report flags package without advisory data",
				"package", ref.ID, "project", projectPath)
		}
		statuses[statusKey(ref.ID)] = status
	}
}

// finalize enforces the output invariants: a package absent from the
// outdated report is assumed current, IsOutdated is a pure function of the
// two version strings, and HasVulnerabilities strictly tracks the list.
func finalize(statuses map[string]PackageStatus) {
	for key, status := range statuses {
		if status.LatestVersion == "" {
			status.LatestVersion = status.ResolvedVersion
		}
		status.IsOutdated = status.ResolvedVersion != status.LatestVersion
		status.HasVulnerabilities = len(status.Vulnerabilities) > 0
		statuses[key] = status
	}
}

// frameworkPackages extracts the top-level package list for the pair from
// one report. A missing project or framework contributes nothing.
func (r *Reconciler) frameworkPackages(report *dotnet.Report, projectPath, framework, flavor string) []dotnet.PackageReference {
	project := report.Project(projectPath)
	if project == nil {
		r.logger().Debug("project not in report", "flavor", flavor, "project", projectPath)
		return nil
	}
	fw := project.Framework(framework)
	if fw == nil {
		r.logger().Debug("framework not in report", "flavor", flavor, "project", projectPath, "framework", framework)
		return nil
	}
	return fw.TopLevelPackages
}

func (r *Reconciler) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

// statusKey normalizes a package id for case-insensitive identity.
func statusKey(id string) string {
	return strings.ToLower(id)
}

// isCLIError reports whether a latestVersion value is one of the known CLI
// error strings rather than a real version.
func isCLIError(version string) bool {
	if version == "" {
		return false
	}
	lower := strings.ToLower(version)
	for _, s := range cliErrorStrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

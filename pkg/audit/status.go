// Package audit reconciles the four dotnet package reports into one
// consistent per-package status per (project, target framework).
package audit

import "github.com/EDemerzel/nuget-inspector/pkg/dotnet"

// PackageStatus is the reconciled record for one package within one
// (project, framework) pair. Version fields come from the baseline report
// only; issue fields come from their respective issue reports; IsOutdated
// and HasVulnerabilities are derived during finalization and never trusted
// verbatim from any report.
//
// A PackageStatus is fully populated and immutable once Reconcile returns;
// it never aliases memory owned by the input reports.
type PackageStatus struct {
	ID                 string
	RequestedVersion   string
	ResolvedVersion    string
	LatestVersion      string
	IsOutdated         bool
	IsDeprecated       bool
	DeprecationReasons []string
	Alternative        *dotnet.Alternative
	HasVulnerabilities bool
	Vulnerabilities    []dotnet.Vulnerability
}

// copyAlternative deep-copies a suggested replacement so statuses never
// share memory with report references.
func copyAlternative(a *dotnet.Alternative) *dotnet.Alternative {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// copyVulnerabilities deep-copies a vulnerability list.
func copyVulnerabilities(vulns []dotnet.Vulnerability) []dotnet.Vulnerability {
	if len(vulns) == 0 {
		return nil
	}
	cp := make([]dotnet.Vulnerability, len(vulns))
	copy(cp, vulns)
	return cp
}

// copyReasons deep-copies a deprecation reason list.
func copyReasons(reasons []string) []string {
	if len(reasons) == 0 {
		return nil
	}
	cp := make([]string, len(reasons))
	copy(cp, reasons)
	return cp
}

package audit

import (
	"testing"

	"github.com/EDemerzel/nuget-inspector/pkg/dotnet"
	"github.com/EDemerzel/nuget-inspector/pkg/errors"
)

const (
	testProject   = "src/App/App.csproj"
	testFramework = "net8.0"
)

// report builds a single-project, single-framework report from package refs.
func report(refs ...dotnet.PackageReference) *dotnet.Report {
	return &dotnet.Report{
		Projects: []dotnet.Project{
			{
				Path: testProject,
				Frameworks: []dotnet.Framework{
					{Name: testFramework, TopLevelPackages: refs},
				},
			},
		},
	}
}

func emptyReport() *dotnet.Report {
	return &dotnet.Report{}
}

func baselineRef(id, requested, resolved string) dotnet.PackageReference {
	return dotnet.PackageReference{ID: id, RequestedVersion: requested, ResolvedVersion: resolved}
}

func reconcile(t *testing.T, reports dotnet.Reports) map[string]PackageStatus {
	t.Helper()
	var r Reconciler
	statuses, err := r.Reconcile(reports, testProject, testFramework)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	return statuses
}

func fullReports(baseline, outdated, deprecated, vulnerable *dotnet.Report) dotnet.Reports {
	return dotnet.Reports{Baseline: baseline, Outdated: outdated, Deprecated: deprecated, Vulnerable: vulnerable}
}

func TestReconcileBlankArguments(t *testing.T) {
	var r Reconciler
	reports := fullReports(emptyReport(), emptyReport(), emptyReport(), emptyReport())

	if _, err := r.Reconcile(reports, "", testFramework); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("blank project path: error = %v, want INVALID_INPUT", err)
	}
	if _, err := r.Reconcile(reports, testProject, "  "); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("blank framework: error = %v, want INVALID_INPUT", err)
	}
	if _, err := r.Reconcile(dotnet.Reports{}, testProject, testFramework); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil reports: error = %v, want INVALID_INPUT", err)
	}
}

func TestReconcileEmptyBaselineYieldsEmptyMap(t *testing.T) {
	// Non-empty issue reports must not conjure packages the baseline lacks.
	outdated := report(dotnet.PackageReference{ID: "Newtonsoft.Json", ResolvedVersion: "13.0.1", LatestVersion: "13.0.3"})
	statuses := reconcile(t, fullReports(emptyReport(), outdated, emptyReport(), emptyReport()))

	if len(statuses) != 0 {
		t.Errorf("statuses = %d entries, want 0", len(statuses))
	}
}

func TestReconcileMissingFrameworkYieldsEmptyMap(t *testing.T) {
	baseline := &dotnet.Report{
		Projects: []dotnet.Project{
			{Path: testProject, Frameworks: []dotnet.Framework{{Name: "net6.0"}}},
		},
	}
	statuses := reconcile(t, fullReports(baseline, emptyReport(), emptyReport(), emptyReport()))
	if len(statuses) != 0 {
		t.Errorf("statuses = %d entries, want 0", len(statuses))
	}
}

func TestReconcileBaselineOnlyAssumedCurrent(t *testing.T) {
	baseline := report(baselineRef("Newtonsoft.Json", "13.0.1", "13.0.1"))
	statuses := reconcile(t, fullReports(baseline, emptyReport(), emptyReport(), emptyReport()))

	status, ok := statuses["newtonsoft.json"]
	if !ok {
		t.Fatal("package missing from statuses")
	}
	if status.LatestVersion != "13.0.1" {
		t.Errorf("LatestVersion = %q, want resolved version", status.LatestVersion)
	}
	if status.IsOutdated {
		t.Error("IsOutdated = true for package absent from outdated report")
	}
	if status.IsDeprecated || status.HasVulnerabilities {
		t.Error("issue flags set without issue reports")
	}
}

func TestReconcileOutdatedOverwritesLatest(t *testing.T) {
	baseline := report(baselineRef("Newtonsoft.Json", "13.0.1", "13.0.1"))
	outdated := report(dotnet.PackageReference{ID: "Newtonsoft.Json", ResolvedVersion: "13.0.1", LatestVersion: "13.0.3"})

	statuses := reconcile(t, fullReports(baseline, outdated, emptyReport(), emptyReport()))
	status := statuses["newtonsoft.json"]

	if status.LatestVersion != "13.0.3" {
		t.Errorf("LatestVersion = %q, want 13.0.3", status.LatestVersion)
	}
	if !status.IsOutdated {
		t.Error("IsOutdated = false with newer version available")
	}
}

func TestReconcileBaselineVersionWins(t *testing.T) {
	// The outdated report disagrees about the resolved version; the
	// baseline is authoritative for what is installed.
	baseline := report(baselineRef("Newtonsoft.Json", "13.0.0", "1.0.0"))
	outdated := report(dotnet.PackageReference{ID: "Newtonsoft.Json", ResolvedVersion: "1.0.1", LatestVersion: "13.0.3"})

	statuses := reconcile(t, fullReports(baseline, outdated, emptyReport(), emptyReport()))
	status := statuses["newtonsoft.json"]

	if status.ResolvedVersion != "1.0.0" {
		t.Errorf("ResolvedVersion = %q, want baseline value 1.0.0", status.ResolvedVersion)
	}
}

func TestReconcileCLIErrorStringsFiltered(t *testing.T) {
	tests := []string{
		"Not found",
		"Not found at the sources",
		"Unable to load",
		"Error",
		"Failed",
		"error: package not found",
		"NOT FOUND",
	}

	for _, errString := range tests {
		t.Run(errString, func(t *testing.T) {
			baseline := report(baselineRef("Broken.Package", "1.0.0", "1.0.0"))
			outdated := report(dotnet.PackageReference{ID: "Broken.Package", ResolvedVersion: "1.0.0", LatestVersion: errString})

			statuses := reconcile(t, fullReports(baseline, outdated, emptyReport(), emptyReport()))
			status := statuses["broken.package"]

			if status.LatestVersion != "1.0.0" {
				t.Errorf("LatestVersion = %q, want defaulted resolved version", status.LatestVersion)
			}
			if status.IsOutdated {
				t.Error("IsOutdated = true for CLI error string")
			}
		})
	}
}

func TestReconcileOutdatedNeverAddsPackages(t *testing.T) {
	baseline := report(baselineRef("Newtonsoft.Json", "13.0.1", "13.0.1"))
	outdated := report(
		dotnet.PackageReference{ID: "Newtonsoft.Json", ResolvedVersion: "13.0.1", LatestVersion: "13.0.3"},
		dotnet.PackageReference{ID: "Ghost.Package", ResolvedVersion: "1.0.0", LatestVersion: "2.0.0"},
	)

	statuses := reconcile(t, fullReports(baseline, outdated, emptyReport(), emptyReport()))
	if _, ok := statuses["ghost.package"]; ok {
		t.Error("outdated pass added a package absent from the baseline")
	}
	if len(statuses) != 1 {
		t.Errorf("statuses = %d entries, want 1", len(statuses))
	}
}

func TestReconcileDeprecatedPass(t *testing.T) {
	baseline := report(baselineRef("WindowsAzure.Storage", "9.3.3", "9.3.3"))
	alt := &dotnet.Alternative{ID: "Azure.Storage.Blobs", VersionRange: ">= 0.0.0"}
	deprecated := report(dotnet.PackageReference{
		ID:                 "WindowsAzure.Storage",
		ResolvedVersion:    "9.3.3",
		IsDeprecated:       true,
		DeprecationReasons: []string{"Legacy"},
		AlternativePackage: alt,
	})

	statuses := reconcile(t, fullReports(baseline, emptyReport(), deprecated, emptyReport()))
	status := statuses["windowsazure.storage"]

	if !status.IsDeprecated {
		t.Error("IsDeprecated = false")
	}
	if len(status.DeprecationReasons) != 1 || status.DeprecationReasons[0] != "Legacy" {
		t.Errorf("DeprecationReasons = %v", status.DeprecationReasons)
	}
	if status.Alternative == nil || status.Alternative.ID != "Azure.Storage.Blobs" {
		t.Errorf("Alternative = %+v", status.Alternative)
	}
	if status.Alternative == alt {
		t.Error("Alternative aliases report memory, want deep copy")
	}
}

func TestReconcileVulnerablePass(t *testing.T) {
	baseline := report(baselineRef("Newtonsoft.Json", "12.0.1", "12.0.1"))
	vulns := []dotnet.Vulnerability{{Severity: "High", AdvisoryURL: "https://github.com/advisories/GHSA-5crp-9r3c-p9vr"}}
	vulnerable := report(dotnet.PackageReference{
		ID:                 "Newtonsoft.Json",
		ResolvedVersion:    "12.0.1",
		HasVulnerabilities: true,
		Vulnerabilities:    vulns,
	})

	statuses := reconcile(t, fullReports(baseline, emptyReport(), emptyReport(), vulnerable))
	status := statuses["newtonsoft.json"]

	if !status.HasVulnerabilities {
		t.Error("HasVulnerabilities = false")
	}
	if len(status.Vulnerabilities) != 1 || status.Vulnerabilities[0].Severity != "High" {
		t.Errorf("Vulnerabilities = %+v", status.Vulnerabilities)
	}
	if &status.Vulnerabilities[0] == &vulns[0] {
		t.Error("Vulnerabilities alias report memory, want deep copy")
	}
}

func TestReconcileVulnerableFlagWithoutData(t *testing.T) {
	// A flag claiming vulnerabilities with no advisory list is a source
	// inconsistency; the final flag must strictly track the list.
	baseline := report(baselineRef("Newtonsoft.Json", "12.0.1", "12.0.1"))
	vulnerable := report(dotnet.PackageReference{
		ID:                 "Newtonsoft.Json",
		ResolvedVersion:    "12.0.1",
		HasVulnerabilities: true,
	})

	statuses := reconcile(t, fullReports(baseline, emptyReport(), emptyReport(), vulnerable))
	status := statuses["newtonsoft.json"]

	if status.HasVulnerabilities {
		t.Error("HasVulnerabilities = true with empty vulnerability list")
	}
	if len(status.Vulnerabilities) != 0 {
		t.Errorf("Vulnerabilities = %+v, want empty", status.Vulnerabilities)
	}
}

func TestReconcileFlagListConsistencyInvariant(t *testing.T) {
	baseline := report(
		baselineRef("Pkg.A", "1.0.0", "1.0.0"),
		baselineRef("Pkg.B", "2.0.0", "2.0.0"),
	)
	vulnerable := report(
		// Flag false but data present: list wins.
		dotnet.PackageReference{
			ID:              "Pkg.A",
			ResolvedVersion: "1.0.0",
			Vulnerabilities: []dotnet.Vulnerability{{Severity: "Low", AdvisoryURL: "https://example.test/a"}},
		},
		dotnet.PackageReference{ID: "Pkg.B", ResolvedVersion: "2.0.0", HasVulnerabilities: true},
	)

	statuses := reconcile(t, fullReports(baseline, emptyReport(), emptyReport(), vulnerable))
	for key, status := range statuses {
		if status.HasVulnerabilities != (len(status.Vulnerabilities) > 0) {
			t.Errorf("%s: HasVulnerabilities = %v but %d vulnerabilities", key, status.HasVulnerabilities, len(status.Vulnerabilities))
		}
	}
}

func TestReconcileCaseInsensitiveIdentity(t *testing.T) {
	baseline := report(baselineRef("Newtonsoft.Json", "13.0.1", "13.0.1"))
	outdated := report(dotnet.PackageReference{ID: "newtonsoft.json", ResolvedVersion: "13.0.1", LatestVersion: "13.0.3"})

	statuses := reconcile(t, fullReports(baseline, outdated, emptyReport(), emptyReport()))
	status := statuses["newtonsoft.json"]

	if status.LatestVersion != "13.0.3" {
		t.Errorf("LatestVersion = %q; differently-cased ids did not merge", status.LatestVersion)
	}
	if status.ID != "Newtonsoft.Json" {
		t.Errorf("ID = %q, want original baseline casing", status.ID)
	}
}

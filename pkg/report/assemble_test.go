package report

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/EDemerzel/nuget-inspector/pkg/dotnet"
	"github.com/EDemerzel/nuget-inspector/pkg/errors"
	"github.com/EDemerzel/nuget-inspector/pkg/registry"
)

// stubFetcher records lookups and returns canned metadata.
type stubFetcher struct {
	mu      sync.Mutex
	lookups []string
	byID    map[string]*registry.PackageMetadata
}

func (f *stubFetcher) FetchMetadata(ctx context.Context, id, version string) (*registry.PackageMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.lookups = append(f.lookups, strings.ToLower(id)+"/"+version)
	f.mu.Unlock()

	if meta, ok := f.byID[strings.ToLower(id)]; ok {
		return meta, nil
	}
	return &registry.PackageMetadata{
		PackageURL:       "https://www.nuget.org/packages/" + id + "/" + version,
		DependencyGroups: []registry.DependencyGroup{},
	}, nil
}

func testReports() dotnet.Reports {
	baseline := &dotnet.Report{
		Projects: []dotnet.Project{
			{
				Path: "src/App/App.csproj",
				Frameworks: []dotnet.Framework{
					{
						Name: "net8.0",
						TopLevelPackages: []dotnet.PackageReference{
							{ID: "Newtonsoft.Json", RequestedVersion: "13.0.1", ResolvedVersion: "13.0.1"},
							{ID: "Serilog", RequestedVersion: "3.1.1", ResolvedVersion: "3.1.1"},
						},
					},
					{
						Name: "net6.0",
						TopLevelPackages: []dotnet.PackageReference{
							{ID: "Newtonsoft.Json", RequestedVersion: "13.0.1", ResolvedVersion: "13.0.1"},
						},
					},
				},
			},
		},
	}
	outdated := &dotnet.Report{
		Projects: []dotnet.Project{
			{
				Path: "src/App/App.csproj",
				Frameworks: []dotnet.Framework{
					{
						Name: "net8.0",
						TopLevelPackages: []dotnet.PackageReference{
							{ID: "Newtonsoft.Json", ResolvedVersion: "13.0.1", LatestVersion: "13.0.3"},
						},
					},
				},
			},
		},
	}
	return dotnet.Reports{
		Baseline:   baseline,
		Outdated:   outdated,
		Deprecated: &dotnet.Report{},
		Vulnerable: &dotnet.Report{},
	}
}

func TestAssembleBuildsSectionsPerPair(t *testing.T) {
	fetcher := &stubFetcher{}
	a := &Assembler{Fetcher: fetcher}

	run, err := a.Assemble(context.Background(), "App.sln", testReports())
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	if run.ID == "" {
		t.Error("run ID not set")
	}
	if len(run.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(run.Sections))
	}

	first := run.Sections[0]
	if first.ProjectPath != "src/App/App.csproj" || first.Framework != "net8.0" {
		t.Errorf("first section = %s/%s", first.ProjectPath, first.Framework)
	}
	if len(first.Rows) != 2 {
		t.Fatalf("first section rows = %d, want 2", len(first.Rows))
	}
	// Rows sorted by id.
	if first.Rows[0].Status.ID != "Newtonsoft.Json" || first.Rows[1].Status.ID != "Serilog" {
		t.Errorf("row order = %s, %s", first.Rows[0].Status.ID, first.Rows[1].Status.ID)
	}
	if !first.Rows[0].Status.IsOutdated {
		t.Error("Newtonsoft.Json not marked outdated in net8.0 section")
	}
	if first.Rows[0].Metadata == nil {
		t.Error("row missing metadata")
	}
}

func TestAssembleFetchesUniquePackagesOnce(t *testing.T) {
	fetcher := &stubFetcher{}
	a := &Assembler{Fetcher: fetcher}

	if _, err := a.Assemble(context.Background(), "App.sln", testReports()); err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	// Newtonsoft.Json appears in two framework sections at the same
	// resolved version: one lookup, not two.
	counts := make(map[string]int)
	for _, l := range fetcher.lookups {
		counts[l]++
	}
	if counts["newtonsoft.json/13.0.1"] != 1 {
		t.Errorf("newtonsoft.json lookups = %d, want 1", counts["newtonsoft.json/13.0.1"])
	}
	if len(fetcher.lookups) != 2 {
		t.Errorf("total lookups = %d, want 2", len(fetcher.lookups))
	}
}

func TestAssembleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &Assembler{Fetcher: &stubFetcher{}}
	if _, err := a.Assemble(ctx, "App.sln", testReports()); err == nil {
		t.Fatal("Assemble() succeeded with cancelled context")
	}
}

func TestAssembleNilBaseline(t *testing.T) {
	a := &Assembler{Fetcher: &stubFetcher{}}
	_, err := a.Assemble(context.Background(), "App.sln", dotnet.Reports{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestRowDeprecatedPrefersRegistryView(t *testing.T) {
	row := Row{}
	row.Status.IsDeprecated = true
	row.Status.DeprecationReasons = []string{"CLI reason"}
	row.Metadata = &registry.PackageMetadata{
		IsDeprecated:       true,
		DeprecationReasons: []string{"Registry reason"},
		DeprecationMessage: "from registry",
	}

	reasons, message, ok := row.Deprecated()
	if !ok {
		t.Fatal("Deprecated() = false")
	}
	if len(reasons) != 1 || reasons[0] != "Registry reason" {
		t.Errorf("reasons = %v, want registry view", reasons)
	}
	if message != "from registry" {
		t.Errorf("message = %q", message)
	}
}

func TestRowDeprecatedFallsBackToCLIView(t *testing.T) {
	row := Row{}
	row.Status.IsDeprecated = true
	row.Status.DeprecationReasons = []string{"Legacy"}
	row.Metadata = &registry.PackageMetadata{} // registry says nothing

	reasons, message, ok := row.Deprecated()
	if !ok {
		t.Fatal("Deprecated() = false")
	}
	if len(reasons) != 1 || reasons[0] != "Legacy" {
		t.Errorf("reasons = %v, want CLI view", reasons)
	}
	if message != "" {
		t.Errorf("message = %q, want empty for CLI view", message)
	}
}

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/EDemerzel/nuget-inspector/pkg/audit"
	"github.com/EDemerzel/nuget-inspector/pkg/dotnet"
	"github.com/EDemerzel/nuget-inspector/pkg/errors"
	"github.com/EDemerzel/nuget-inspector/pkg/registry"
)

func sampleRun() *Run {
	return &Run{
		ID:          "11111111-2222-3333-4444-555555555555",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Target:      "App.sln",
		Sections: []Section{
			{
				ProjectPath: "src/App/App.csproj",
				Framework:   "net8.0",
				Rows: []Row{
					{
						Status: audit.PackageStatus{
							ID:               "Newtonsoft.Json",
							RequestedVersion: "13.0.1",
							ResolvedVersion:  "13.0.1",
							LatestVersion:    "13.0.3",
							IsOutdated:       true,
						},
						Metadata: &registry.PackageMetadata{
							PackageURL: "https://www.nuget.org/packages/Newtonsoft.Json/13.0.1",
						},
					},
					{
						Status: audit.PackageStatus{
							ID:                 "Old.Http",
							RequestedVersion:   "1.0.0",
							ResolvedVersion:    "1.0.0",
							LatestVersion:      "1.0.0",
							HasVulnerabilities: true,
							Vulnerabilities: []dotnet.Vulnerability{
								{Severity: "High", AdvisoryURL: "https://github.com/advisories/GHSA-xxxx"},
							},
						},
						Metadata: &registry.PackageMetadata{
							IsDeprecated:       true,
							DeprecationReasons: []string{"Legacy"},
							DeprecationMessage: "Use Modern.Http instead.",
							AlternativePackage: &registry.AlternativePackage{ID: "Modern.Http"},
						},
					},
				},
			},
		},
	}
}

func TestRendererFor(t *testing.T) {
	for _, format := range []string{FormatConsole, FormatMarkdown, FormatHTML} {
		if _, err := RendererFor(format); err != nil {
			t.Errorf("RendererFor(%q) error: %v", format, err)
		}
	}

	_, err := RendererFor("xml")
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("RendererFor(xml) error = %v, want INVALID_FORMAT", err)
	}
}

func TestMarkdownRender(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownRenderer{}).Render(&buf, sampleRun()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Package audit: App.sln",
		"src/App/App.csproj (net8.0)",
		"Newtonsoft.Json",
		"13.0.3",
		"Old.Http",
		"**1** outdated, **1** deprecated, **1** vulnerable.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestHTMLRender(t *testing.T) {
	var buf bytes.Buffer
	if err := (&HTMLRenderer{}).Render(&buf, sampleRun()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"Newtonsoft.Json",
		"Old.Http",
		"Use Modern.Http instead.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html output missing %q", want)
		}
	}
}

func TestConsoleRender(t *testing.T) {
	var buf bytes.Buffer
	if err := (&ConsoleRenderer{}).Render(&buf, sampleRun()); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Newtonsoft.Json") || !strings.Contains(out, "Old.Http") {
		t.Error("console output missing package rows")
	}
}

func TestCountsSpanSections(t *testing.T) {
	run := sampleRun()
	run.Sections = append(run.Sections, run.Sections[0])

	outdated, deprecated, vulnerable := run.Counts()
	if outdated != 2 || deprecated != 2 || vulnerable != 2 {
		t.Errorf("Counts() = %d, %d, %d, want 2, 2, 2", outdated, deprecated, vulnerable)
	}
}

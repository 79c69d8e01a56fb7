// Package report assembles reconciled statuses and registry metadata into a
// renderable audit run, and renders it as console, markdown, or HTML output.
package report

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/EDemerzel/nuget-inspector/pkg/audit"
	"github.com/EDemerzel/nuget-inspector/pkg/dotnet"
	"github.com/EDemerzel/nuget-inspector/pkg/errors"
	"github.com/EDemerzel/nuget-inspector/pkg/registry"
)

// MetadataFetcher is the registry capability the assembler needs.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, id, version string) (*registry.PackageMetadata, error)
}

// Row pairs one reconciled package status with its registry metadata.
// Metadata may be nil when the fetch was rejected outright (invalid id);
// a degraded-but-valid metadata value is the normal failure shape.
type Row struct {
	Status   audit.PackageStatus
	Metadata *registry.PackageMetadata
}

// Deprecated reports whether the package should be shown as deprecated,
// preferring the registry-sourced view over the CLI-sourced one. The two
// views are never merged: whichever is chosen supplies all deprecation
// fields shown.
func (r Row) Deprecated() (reasons []string, message string, ok bool) {
	if r.Metadata != nil && r.Metadata.IsDeprecated {
		return r.Metadata.DeprecationReasons, r.Metadata.DeprecationMessage, true
	}
	if r.Status.IsDeprecated {
		return r.Status.DeprecationReasons, "", true
	}
	return nil, "", false
}

// Section is the audit result for one (project, framework) pair.
type Section struct {
	ProjectPath string
	Framework   string
	Rows        []Row
}

// Run is one complete assembled audit.
type Run struct {
	ID          string
	GeneratedAt time.Time
	Target      string
	Sections    []Section
}

// Counts summarizes issue totals across all sections.
func (r *Run) Counts() (outdated, deprecated, vulnerable int) {
	for _, s := range r.Sections {
		for _, row := range s.Rows {
			if row.Status.IsOutdated {
				outdated++
			}
			if _, _, ok := row.Deprecated(); ok {
				deprecated++
			}
			if row.Status.HasVulnerabilities {
				vulnerable++
			}
		}
	}
	return
}

// Assembler turns the four reports into a Run: one Reconcile per
// (project, framework) pair found in the baseline, one metadata fetch per
// unique (id, resolved version) across all pairs. Fetches run concurrently;
// the registry client's own gate bounds them.
type Assembler struct {
	Fetcher MetadataFetcher
	Logger  *log.Logger
}

// Assemble builds the audit run for the given reports. It fails only on
// caller cancellation or argument-contract violations; per-package metadata
// failures surface as degraded rows.
func (a *Assembler) Assemble(ctx context.Context, target string, reports dotnet.Reports) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Target:      target,
	}

	reconciler := audit.Reconciler{Logger: a.Logger}

	statusByPair := make(map[pairKey]map[string]audit.PackageStatus)
	var pairs []pairKey

	if reports.Baseline == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "baseline report must be provided")
	}
	for _, project := range reports.Baseline.Projects {
		for _, fw := range project.Frameworks {
			statuses, err := reconciler.Reconcile(reports, project.Path, fw.Name)
			if err != nil {
				return nil, err
			}
			key := pairKey{project.Path, fw.Name}
			statusByPair[key] = statuses
			pairs = append(pairs, key)
		}
	}

	metadata, err := a.fetchAll(ctx, statusByPair)
	if err != nil {
		return nil, err
	}

	for _, key := range pairs {
		section := Section{ProjectPath: key.project, Framework: key.framework}
		for _, status := range statusByPair[key] {
			section.Rows = append(section.Rows, Row{
				Status:   status,
				Metadata: metadata[metadataKey(status.ID, status.ResolvedVersion)],
			})
		}
		sort.Slice(section.Rows, func(i, j int) bool {
			return strings.ToLower(section.Rows[i].Status.ID) < strings.ToLower(section.Rows[j].Status.ID)
		})
		run.Sections = append(run.Sections, section)
	}

	return run, nil
}

type pairKey struct{ project, framework string }

// fetchAll retrieves metadata for every unique (id, version) once.
// An invalid-input rejection is logged and leaves a nil entry; cancellation
// aborts the whole assembly.
func (a *Assembler) fetchAll(ctx context.Context, statusByPair map[pairKey]map[string]audit.PackageStatus) (map[string]*registry.PackageMetadata, error) {
	type lookup struct{ id, version string }
	seen := make(map[string]lookup)
	for _, statuses := range statusByPair {
		for _, status := range statuses {
			seen[metadataKey(status.ID, status.ResolvedVersion)] = lookup{status.ID, status.ResolvedVersion}
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		metadata = make(map[string]*registry.PackageMetadata, len(seen))
	)

	for key, l := range seen {
		wg.Add(1)
		go func(key string, l lookup) {
			defer wg.Done()
			meta, err := a.Fetcher.FetchMetadata(ctx, l.id, l.version)
			if err != nil {
				if ctx.Err() == nil {
					a.logger().Warn("metadata lookup rejected", "package", l.id, "version", l.version, "error", errors.UserMessage(err))
				}
				return
			}
			mu.Lock()
			metadata[key] = meta
			mu.Unlock()
		}(key, l)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return metadata, nil
}

func (a *Assembler) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.Default()
}

func metadataKey(id, version string) string {
	return strings.ToLower(id) + "/" + version
}

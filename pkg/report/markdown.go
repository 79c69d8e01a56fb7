package report

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownRenderer renders a run as a markdown document with one table per
// (project, framework) section.
type MarkdownRenderer struct{}

// Render writes the run to w.
func (mr *MarkdownRenderer) Render(w io.Writer, run *Run) error {
	outdated, deprecated, vulnerable := run.Counts()

	fmt.Fprintf(w, "# Package audit: %s\n\n", run.Target)
	fmt.Fprintf(w, "Run `%s`, generated %s.\n\n", run.ID, run.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "**%d** outdated, **%d** deprecated, **%d** vulnerable.\n", outdated, deprecated, vulnerable)

	for _, section := range run.Sections {
		fmt.Fprintf(w, "\n## %s (%s)\n\n", section.ProjectPath, section.Framework)

		if len(section.Rows) == 0 {
			fmt.Fprintln(w, "_No packages._")
			continue
		}

		fmt.Fprintln(w, "| Package | Requested | Resolved | Latest | Status | Notes |")
		fmt.Fprintln(w, "|---------|-----------|----------|--------|--------|-------|")
		for _, row := range section.Rows {
			fmt.Fprintln(w, mr.rowLine(row))
		}
	}
	return nil
}

func (mr *MarkdownRenderer) rowLine(row Row) string {
	status := row.Status

	name := escapeCell(status.ID)
	if row.Metadata != nil {
		if row.Metadata.ProjectURL != "" {
			name = fmt.Sprintf("[%s](%s)", name, row.Metadata.ProjectURL)
		} else if row.Metadata.PackageURL != "" {
			name = fmt.Sprintf("[%s](%s)", name, row.Metadata.PackageURL)
		}
	}

	var flags []string
	if status.IsOutdated {
		flags = append(flags, "outdated")
	}
	if _, _, ok := row.Deprecated(); ok {
		flags = append(flags, "deprecated")
	}
	if status.HasVulnerabilities {
		flags = append(flags, "vulnerable")
	}
	state := "current"
	if len(flags) > 0 {
		state = strings.Join(flags, ", ")
	}

	var notes []string
	if reasons, message, ok := row.Deprecated(); ok {
		if len(reasons) > 0 {
			notes = append(notes, strings.Join(reasons, "; "))
		}
		if message != "" {
			notes = append(notes, message)
		}
		if alt := alternativeFor(row); alt != "" {
			notes = append(notes, "use "+alt)
		}
	}
	for _, vuln := range status.Vulnerabilities {
		notes = append(notes, fmt.Sprintf("[%s](%s)", escapeCell(vuln.Severity), vuln.AdvisoryURL))
	}

	return fmt.Sprintf("| %s | %s | %s | %s | %s | %s |",
		name,
		escapeCell(status.RequestedVersion),
		escapeCell(status.ResolvedVersion),
		escapeCell(status.LatestVersion),
		state,
		escapeCell(strings.Join(notes, "; ")))
}

// escapeCell keeps cell content from breaking the table.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	styleSection   = lipgloss.NewStyle().Bold(true)
	styleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleOK        = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	styleOutdated  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleDeprec    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleVuln      = lipgloss.NewStyle().Foreground(lipgloss.Color("167"))
	styleLink      = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Underline(true)
	styleSevByName = map[string]lipgloss.Style{
		"critical": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("167")),
		"high":     styleVuln,
		"moderate": styleOutdated,
		"low":      styleDim,
	}
)

// ConsoleRenderer renders a run as styled terminal text.
type ConsoleRenderer struct{}

// Render writes the run to w.
func (cr *ConsoleRenderer) Render(w io.Writer, run *Run) error {
	outdated, deprecated, vulnerable := run.Counts()

	fmt.Fprintln(w, styleTitle.Render(fmt.Sprintf("Package audit: %s", run.Target)))
	fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("run %s, generated %s", run.ID, run.GeneratedAt.Format("2006-01-02 15:04:05 MST"))))
	fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("%d outdated, %d deprecated, %d vulnerable", outdated, deprecated, vulnerable)))

	for _, section := range run.Sections {
		fmt.Fprintln(w)
		fmt.Fprintln(w, styleSection.Render(fmt.Sprintf("%s [%s]", section.ProjectPath, section.Framework)))

		for _, row := range section.Rows {
			cr.renderRow(w, row)
		}
		if len(section.Rows) == 0 {
			fmt.Fprintln(w, styleDim.Render("  (no packages)"))
		}
	}
	return nil
}

func (cr *ConsoleRenderer) renderRow(w io.Writer, row Row) {
	status := row.Status

	marker := styleOK.Render("✓")
	switch {
	case status.HasVulnerabilities:
		marker = styleVuln.Render("✗")
	case status.IsOutdated:
		marker = styleOutdated.Render("↑")
	}

	line := fmt.Sprintf("  %s %s %s", marker, status.ID, status.ResolvedVersion)
	if status.IsOutdated {
		line += styleOutdated.Render(fmt.Sprintf(" → %s", status.LatestVersion))
	}
	fmt.Fprintln(w, line)

	if reasons, message, ok := row.Deprecated(); ok {
		detail := "deprecated"
		if len(reasons) > 0 {
			detail += ": " + strings.Join(reasons, ", ")
		}
		if message != "" {
			detail += ". " + message
		}
		fmt.Fprintln(w, "      "+styleDeprec.Render(detail))
		if alt := alternativeFor(row); alt != "" {
			fmt.Fprintln(w, "      "+styleDim.Render("use "+alt))
		}
	}

	for _, vuln := range status.Vulnerabilities {
		sev := strings.ToLower(vuln.Severity)
		style, ok := styleSevByName[sev]
		if !ok {
			style = styleVuln
		}
		fmt.Fprintf(w, "      %s %s\n", style.Render(vuln.Severity), styleLink.Render(vuln.AdvisoryURL))
	}

	if row.Metadata != nil && row.Metadata.Description != "" {
		fmt.Fprintln(w, "      "+styleDim.Render(firstLine(row.Metadata.Description)))
	}
}

// alternativeFor formats the suggested replacement, preferring the registry
// view like Row.Deprecated does.
func alternativeFor(row Row) string {
	if row.Metadata != nil && row.Metadata.IsDeprecated && row.Metadata.AlternativePackage != nil {
		alt := row.Metadata.AlternativePackage
		return strings.TrimSpace(alt.ID + " " + alt.VersionRange)
	}
	if row.Status.Alternative != nil {
		alt := row.Status.Alternative
		return strings.TrimSpace(alt.ID + " " + alt.VersionRange)
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Package dotnet models the JSON reports produced by `dotnet list package`
// and runs the CLI to collect them.
//
// A report is a tree: projects, each with target-framework entries, each with
// direct package references (plus transitive ones when requested). Four
// report flavors exist (the full baseline inventory and the outdated,
// deprecated, and vulnerable subsets), all sharing the same shape.
package dotnet

import "strings"

// Report is one parsed `dotnet list package --format json` document.
type Report struct {
	Version    int       `json:"version"`
	Parameters string    `json:"parameters"`
	Sources    []string  `json:"sources"`
	Projects   []Project `json:"projects"`
}

// Project is one project entry inside a report.
type Project struct {
	Path       string      `json:"path"`
	Frameworks []Framework `json:"frameworks"`
}

// Framework is one target-framework entry inside a project.
type Framework struct {
	Name               string             `json:"framework"`
	TopLevelPackages   []PackageReference `json:"topLevelPackages"`
	TransitivePackages []PackageReference `json:"transitivePackages"`
}

// PackageReference is one package row inside a framework entry. Which fields
// are populated depends on the report flavor: the outdated report carries
// LatestVersion, the deprecated report carries the deprecation fields, the
// vulnerable report carries Vulnerabilities. References are owned by the
// report that produced them and are not mutated after parsing.
type PackageReference struct {
	ID                 string          `json:"id"`
	RequestedVersion   string          `json:"requestedVersion"`
	ResolvedVersion    string          `json:"resolvedVersion"`
	LatestVersion      string          `json:"latestVersion"`
	IsDeprecated       bool            `json:"-"`
	DeprecationReasons []string        `json:"deprecationReasons"`
	AlternativePackage *Alternative    `json:"alternativePackage"`
	HasVulnerabilities bool            `json:"-"`
	Vulnerabilities    []Vulnerability `json:"vulnerabilities"`
}

// Alternative is a suggested replacement for a deprecated package.
type Alternative struct {
	ID           string `json:"id"`
	VersionRange string `json:"versionRange"`
}

// Vulnerability is one advisory attached to a vulnerable package.
type Vulnerability struct {
	Severity    string `json:"severity"`
	AdvisoryURL string `json:"advisoryurl"`
}

// Project locates a project by path. Returns nil when absent.
func (r *Report) Project(path string) *Project {
	if r == nil {
		return nil
	}
	for i := range r.Projects {
		if r.Projects[i].Path == path {
			return &r.Projects[i]
		}
	}
	return nil
}

// Framework locates a target-framework entry by name, case-insensitively.
// Returns nil when absent.
func (p *Project) Framework(name string) *Framework {
	if p == nil {
		return nil
	}
	for i := range p.Frameworks {
		if strings.EqualFold(p.Frameworks[i].Name, name) {
			return &p.Frameworks[i]
		}
	}
	return nil
}

// Reports bundles the four flavors produced for one audit target.
type Reports struct {
	Baseline   *Report
	Outdated   *Report
	Deprecated *Report
	Vulnerable *Report
}

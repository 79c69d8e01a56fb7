package registry

// PackageMetadata holds registry metadata for one package version.
// It is keyed by (package id, resolved version) and independent of which
// projects reference the package.
//
// PackageURL is always populated, even when the fetch failed entirely;
// DependencyGroups is never nil. A result with empty ProjectURL,
// Description, and DependencyGroups is the degraded minimal form.
//
// The deprecation fields are the registry's view of deprecation, distinct
// from the CLI-sourced view carried on a package status; the two are kept
// separate and only chosen between at render time.
type PackageMetadata struct {
	PackageURL         string
	ProjectURL         string
	Description        string
	CatalogURL         string
	IsDeprecated       bool
	DeprecationMessage string
	DeprecationReasons []string
	AlternativePackage *AlternativePackage
	DependencyGroups   []DependencyGroup
}

// AlternativePackage is the registry's suggested replacement for a
// deprecated package.
type AlternativePackage struct {
	ID           string
	VersionRange string
}

// DependencyGroup lists the dependencies a package declares for one target
// framework.
type DependencyGroup struct {
	TargetFramework string
	Dependencies    []Dependency
}

// Dependency is one declared dependency inside a group.
type Dependency struct {
	ID           string
	VersionRange string
}

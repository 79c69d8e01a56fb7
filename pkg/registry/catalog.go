package registry

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/EDemerzel/nuget-inspector/pkg/errors"
)

// catalogDocument is the metadata-bearing shape shared by catalog entry
// documents and, in degraded cases, the registration document itself.
type catalogDocument struct {
	ProjectURL       string                    `json:"projectUrl"`
	Description      string                    `json:"description"`
	Deprecation      *deprecationDocument      `json:"deprecation"`
	DependencyGroups []dependencyGroupDocument `json:"dependencyGroups"`
}

type deprecationDocument struct {
	Message          string                    `json:"message"`
	Reasons          []string                  `json:"reasons"`
	AlternatePackage *alternatePackageDocument `json:"alternatePackage"`
}

type alternatePackageDocument struct {
	ID    string `json:"id"`
	Range string `json:"range"`
}

type dependencyGroupDocument struct {
	TargetFramework string               `json:"targetFramework"`
	Dependencies    []dependencyDocument `json:"dependencies"`
}

type dependencyDocument struct {
	ID    string `json:"id"`
	Range string `json:"range"`
}

// registrationDocument is a registration leaf (or index) response. The
// catalog entry may appear at the top level or inside items; the embedded
// catalogDocument fields serve as the fallback metadata source when no
// catalog entry is usable.
type registrationDocument struct {
	catalogDocument
	CatalogEntry catalogEntry       `json:"catalogEntry"`
	Items        []registrationItem `json:"items"`
}

type registrationItem struct {
	CatalogEntry catalogEntry `json:"catalogEntry"`
}

// catalogEntry is the polymorphic catalogEntry value: either an inline
// metadata object or a string URL to a separate catalog document. The two
// shapes are resolved here, in one decoding step, so the extraction code
// never branches on raw JSON kinds.
type catalogEntry struct {
	Inline *catalogDocument
	Remote string
}

// UnmarshalJSON accepts a string (remote URL), an object (inline document),
// or null. Any other shape is treated as an absent entry rather than a
// decode failure, since a single odd entry must not sink the whole lookup.
func (e *catalogEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &e.Remote)
	case '{':
		doc := &catalogDocument{}
		if err := json.Unmarshal(data, doc); err != nil {
			return err
		}
		e.Inline = doc
	}
	return nil
}

// empty reports whether the entry carries neither shape.
func (e catalogEntry) empty() bool {
	return e.Inline == nil && e.Remote == ""
}

// candidates returns every catalog entry present in the document, top-level
// first, then item entries in order.
func (d *registrationDocument) candidates() []catalogEntry {
	entries := make([]catalogEntry, 0, 1+len(d.Items))
	if !d.CatalogEntry.empty() {
		entries = append(entries, d.CatalogEntry)
	}
	for _, item := range d.Items {
		if !item.CatalogEntry.empty() {
			entries = append(entries, item.CatalogEntry)
		}
	}
	return entries
}

// extract populates meta from the catalog document (when one was resolved)
// with the registration root as fallback. Each field is picked
// independently so one malformed value never blanks out the others.
func extract(meta *PackageMetadata, catalog *catalogDocument, root *catalogDocument) {
	meta.ProjectURL = pickProjectURL(catalog, root)
	meta.Description = pickDescription(catalog, root)

	dep := pickDeprecation(catalog, root)
	if dep != nil {
		// Presence of the deprecation block alone marks the package
		// deprecated, even with no message or reasons.
		meta.IsDeprecated = true
		meta.DeprecationMessage = dep.Message
		meta.DeprecationReasons = dep.Reasons
		if dep.AlternatePackage != nil && dep.AlternatePackage.ID != "" {
			meta.AlternativePackage = &AlternativePackage{
				ID:           dep.AlternatePackage.ID,
				VersionRange: dep.AlternatePackage.Range,
			}
		}
	}

	meta.DependencyGroups = extractDependencyGroups(pickGroups(catalog, root))
}

func pickProjectURL(catalog, root *catalogDocument) string {
	if catalog != nil {
		if u := safeWebURL(catalog.ProjectURL); u != "" {
			return u
		}
	}
	if root != nil {
		return safeWebURL(root.ProjectURL)
	}
	return ""
}

func pickDescription(catalog, root *catalogDocument) string {
	if catalog != nil {
		if d := strings.TrimSpace(catalog.Description); d != "" {
			return d
		}
	}
	if root != nil {
		return strings.TrimSpace(root.Description)
	}
	return ""
}

func pickDeprecation(catalog, root *catalogDocument) *deprecationDocument {
	if catalog != nil && catalog.Deprecation != nil {
		return catalog.Deprecation
	}
	if root != nil {
		return root.Deprecation
	}
	return nil
}

func pickGroups(catalog, root *catalogDocument) []dependencyGroupDocument {
	if catalog != nil && len(catalog.DependencyGroups) > 0 {
		return catalog.DependencyGroups
	}
	if root != nil {
		return root.DependencyGroups
	}
	return nil
}

// extractDependencyGroups converts wire groups, silently dropping malformed
// dependency entries (blank or oversized id/range). Never returns nil.
func extractDependencyGroups(groups []dependencyGroupDocument) []DependencyGroup {
	out := make([]DependencyGroup, 0, len(groups))
	for _, g := range groups {
		group := DependencyGroup{TargetFramework: g.TargetFramework}
		for _, d := range g.Dependencies {
			if d.ID == "" || d.Range == "" {
				continue
			}
			if len(d.ID) > errors.MaxPackageIDLength || len(d.Range) > errors.MaxVersionLength {
				continue
			}
			group.Dependencies = append(group.Dependencies, Dependency{
				ID:           d.ID,
				VersionRange: d.Range,
			})
		}
		out = append(out, group)
	}
	return out
}

// safeWebURL returns rawURL when it is an absolute http/https URL, else "".
func safeWebURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return rawURL
}

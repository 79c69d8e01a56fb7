package dotnet

import (
	"encoding/json"

	"github.com/EDemerzel/nuget-inspector/pkg/errors"
)

// ParseReport decodes one `dotnet list package --format json` document.
// The derived IsDeprecated and HasVulnerabilities flags are set from the
// presence of their backing data, since the CLI encodes them only implicitly.
func ParseReport(data []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidReport, err, "malformed dotnet list output")
	}

	for pi := range report.Projects {
		for fi := range report.Projects[pi].Frameworks {
			fw := &report.Projects[pi].Frameworks[fi]
			deriveFlags(fw.TopLevelPackages)
			deriveFlags(fw.TransitivePackages)
		}
	}

	return &report, nil
}

func deriveFlags(refs []PackageReference) {
	for i := range refs {
		refs[i].IsDeprecated = len(refs[i].DeprecationReasons) > 0
		refs[i].HasVulnerabilities = len(refs[i].Vulnerabilities) > 0
	}
}

package report

import (
	"html/template"
	"io"
)

// HTMLRenderer renders a run as a standalone HTML document.
type HTMLRenderer struct{}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"deprecated": func(row Row) bool {
		_, _, ok := row.Deprecated()
		return ok
	},
	"deprecationText": func(row Row) string {
		reasons, message, ok := row.Deprecated()
		if !ok {
			return ""
		}
		text := "Deprecated"
		for i, r := range reasons {
			if i == 0 {
				text += ": " + r
			} else {
				text += ", " + r
			}
		}
		if message != "" {
			text += ". " + message
		}
		return text
	},
	"alternative": alternativeFor,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Package audit: {{.Target}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #24292f; }
  h1 { font-size: 1.4rem; }
  h2 { font-size: 1.1rem; margin-top: 2rem; }
  .meta { color: #57606a; font-size: 0.85rem; }
  table { border-collapse: collapse; width: 100%; margin-top: 0.5rem; }
  th, td { text-align: left; padding: 0.35rem 0.6rem; border-bottom: 1px solid #d0d7de; font-size: 0.9rem; }
  th { background: #f6f8fa; }
  .outdated { color: #9a6700; }
  .deprecated { color: #bc4c00; }
  .vulnerable { color: #cf222e; font-weight: 600; }
  .current { color: #1a7f37; }
  .desc { color: #57606a; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>Package audit: {{.Target}}</h1>
<p class="meta">Run {{.ID}}, generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}</p>
{{range .Sections}}
<h2>{{.ProjectPath}} ({{.Framework}})</h2>
{{if .Rows}}
<table>
<tr><th>Package</th><th>Requested</th><th>Resolved</th><th>Latest</th><th>Issues</th></tr>
{{range .Rows}}
<tr>
  <td>
    {{if .Metadata}}{{if .Metadata.ProjectURL}}<a href="{{.Metadata.ProjectURL}}">{{.Status.ID}}</a>{{else}}<a href="{{.Metadata.PackageURL}}">{{.Status.ID}}</a>{{end}}{{else}}{{.Status.ID}}{{end}}
    {{if .Metadata}}{{if .Metadata.Description}}<div class="desc">{{.Metadata.Description}}</div>{{end}}{{end}}
  </td>
  <td>{{.Status.RequestedVersion}}</td>
  <td>{{.Status.ResolvedVersion}}</td>
  <td>{{if .Status.IsOutdated}}<span class="outdated">{{.Status.LatestVersion}}</span>{{else}}{{.Status.LatestVersion}}{{end}}</td>
  <td>
    {{if deprecated .}}<div class="deprecated">{{deprecationText .}}{{with alternative .}} (use {{.}}){{end}}</div>{{end}}
    {{range .Status.Vulnerabilities}}<div class="vulnerable">{{.Severity}} <a href="{{.AdvisoryURL}}">advisory</a></div>{{end}}
    {{if and (not (deprecated .)) (not .Status.HasVulnerabilities) (not .Status.IsOutdated)}}<span class="current">current</span>{{end}}
  </td>
</tr>
{{end}}
</table>
{{else}}
<p class="meta">No packages.</p>
{{end}}
{{end}}
</body>
</html>
`))

// Render writes the run to w.
func (hr *HTMLRenderer) Render(w io.Writer, run *Run) error {
	return htmlTemplate.Execute(w, run)
}

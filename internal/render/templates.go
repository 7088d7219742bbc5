package render

// Built-in named templates. Event types without an entry here use the
// generic fallback bodies.

var htmlTemplates = map[string]string{
	"schema_drift.html": `<!DOCTYPE html>
<html>
<body>
  <h1>Schema Drift Detected</h1>
  <p><strong>Contract:</strong> {{.Event.ContractName}} {{with .Event.ContractVersion}}(v{{.}}){{end}}</p>
  <p><strong>Publisher Team:</strong> {{.Event.PublisherTeam}}</p>
  {{with .Event.EndpointURL}}<p><strong>Endpoint:</strong> {{.}}</p>{{end}}
  {{if .Event.Errors}}
  <h3>Errors</h3>
  <ul>
    {{range .Event.Errors}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
  {{if .Event.Warnings}}
  <h3>Warnings</h3>
  <ul>
    {{range .Event.Warnings}}<li>{{.}}</li>{{end}}
  </ul>
  {{end}}
  <p>This is an automated alert from DataPact.</p>
  <p><a href="{{.FrontendURL}}">View in Dashboard</a></p>
</body>
</html>`,

	"quality_breach.html": `<!DOCTYPE html>
<html>
<body>
  <h1>Quality SLA Breach</h1>
  <p><strong>Contract:</strong> {{.Event.ContractName}} {{with .Event.ContractVersion}}(v{{.}}){{end}}</p>
  <p><strong>Publisher Team:</strong> {{.Event.PublisherTeam}}</p>
  {{with .Event.MetricType}}<p><strong>Metric:</strong> {{.}}</p>{{end}}
  {{with .Event.Threshold}}<p><strong>Threshold:</strong> {{.}}</p>{{end}}
  {{with .Event.ActualValue}}<p><strong>Actual:</strong> {{.}}</p>{{end}}
  {{if .Event.FailedChecks}}
  <h3>Failed Checks</h3>
  <ul>
    {{range .Event.FailedChecks}}<li>{{index . "message"}}</li>{{end}}
  </ul>
  {{end}}
  <p>This is an automated alert from DataPact.</p>
  <p><a href="{{.FrontendURL}}">View in Dashboard</a></p>
</body>
</html>`,

	"availability_failure.html": `<!DOCTYPE html>
<html>
<body>
  <h1>Service Unavailable</h1>
  <p><strong>Contract:</strong> {{.Event.ContractName}}</p>
  <p><strong>Endpoint:</strong> {{.Event.EndpointURL}}</p>
  {{with .Event.ErrorMessage}}<p><strong>Error:</strong> {{.}}</p>{{end}}
  <p>This is an automated alert from DataPact.</p>
  <p><a href="{{.FrontendURL}}">View in Dashboard</a></p>
</body>
</html>`,
}

var textTemplates = map[string]string{
	"schema_drift.txt": `Schema Drift Detected

Contract: {{.Event.ContractName}}{{with .Event.ContractVersion}} (v{{.}}){{end}}
Publisher Team: {{.Event.PublisherTeam}}
{{if .Event.Errors}}
Errors:
{{range .Event.Errors}}  - {{.}}
{{end}}{{end}}{{if .Event.Warnings}}
Warnings:
{{range .Event.Warnings}}  - {{.}}
{{end}}{{end}}
---
This is an automated alert from DataPact.
View in Dashboard: {{.FrontendURL}}
`,

	"quality_breach.txt": `Quality SLA Breach

Contract: {{.Event.ContractName}}{{with .Event.ContractVersion}} (v{{.}}){{end}}
Publisher Team: {{.Event.PublisherTeam}}
{{with .Event.MetricType}}Metric: {{.}}
{{end}}{{with .Event.Threshold}}Threshold: {{.}}
{{end}}{{with .Event.ActualValue}}Actual: {{.}}
{{end}}{{if .Event.FailedChecks}}
Failed checks:
{{range .Event.FailedChecks}}  - {{index . "message"}}
{{end}}{{end}}
---
This is an automated alert from DataPact.
View in Dashboard: {{.FrontendURL}}
`,

	"availability_failure.txt": `Service Unavailable

Contract: {{.Event.ContractName}}
Endpoint: {{.Event.EndpointURL}}
{{with .Event.ErrorMessage}}Error: {{.}}
{{end}}
---
This is an automated alert from DataPact.
View in Dashboard: {{.FrontendURL}}
`,
}

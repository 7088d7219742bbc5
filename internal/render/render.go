// Package render turns events into notification content: subject, HTML
// body, and plain-text body.
package render

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"datapact/internal/models"
)

var subjects = map[models.EventType]string{
	models.EventSchemaDrift:         "[DataPact] Schema Drift Detected: %s",
	models.EventQualityBreach:       "[DataPact] Quality SLA Breach: %s",
	models.EventPRBlocked:           "[DataPact] PR Blocked: %s",
	models.EventContractUpdated:     "[DataPact] Contract Updated: %s",
	models.EventDeprecationWarning:  "[DataPact] Deprecation Warning: %s",
	models.EventAvailabilityFailure: "[DataPact] Service Unavailable: %s",
}

const genericSubject = "[DataPact] Alert: %s"

// Renderer renders notification templates. Named templates are looked up
// by "{event_type}.html" / "{event_type}.txt"; any lookup or execution
// failure falls back to a generic rendering.
type Renderer struct {
	frontendURL string
	html        map[string]*template.Template
	text        map[string]*texttemplate.Template
}

// New constructs a Renderer with the built-in template set.
func New(frontendURL string) *Renderer {
	r := &Renderer{
		frontendURL: frontendURL,
		html:        make(map[string]*template.Template),
		text:        make(map[string]*texttemplate.Template),
	}
	for name, src := range htmlTemplates {
		if t, err := template.New(name).Parse(src); err == nil {
			r.html[name] = t
		}
	}
	for name, src := range textTemplates {
		if t, err := texttemplate.New(name).Parse(src); err == nil {
			r.text[name] = t
		}
	}
	return r
}

type templateData struct {
	Event       models.Event
	Title       string
	FrontendURL string
}

// Render returns (subject, html body, text body) for an event.
func (r *Renderer) Render(event models.Event) (string, string, string) {
	return r.renderSubject(event), r.renderHTML(event), r.renderText(event)
}

func (r *Renderer) renderSubject(event models.Event) string {
	format, ok := subjects[event.EventType]
	if !ok {
		format = genericSubject
	}
	return fmt.Sprintf(format, event.ContractName)
}

func (r *Renderer) renderHTML(event models.Event) string {
	data := templateData{
		Event:       event,
		Title:       eventTitle(event.EventType),
		FrontendURL: r.frontendURL,
	}

	if t, ok := r.html[string(event.EventType)+".html"]; ok {
		var b strings.Builder
		if err := t.Execute(&b, data); err == nil {
			return b.String()
		}
	}
	return r.fallbackHTML(event)
}

func (r *Renderer) renderText(event models.Event) string {
	data := templateData{
		Event:       event,
		Title:       eventTitle(event.EventType),
		FrontendURL: r.frontendURL,
	}

	if t, ok := r.text[string(event.EventType)+".txt"]; ok {
		var b strings.Builder
		if err := t.Execute(&b, data); err == nil {
			return b.String()
		}
	}
	return r.fallbackText(event)
}

func (r *Renderer) fallbackHTML(event models.Event) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
  <h1>%s</h1>
  <p><strong>Contract:</strong> %s</p>
  <p><strong>Version:</strong> %s</p>
  <p><strong>Publisher Team:</strong> %s</p>
  <p><strong>Time:</strong> %s</p>
  <p>This is an automated alert from DataPact.</p>
  <p><a href="%s">View in Dashboard</a></p>
</body>
</html>`,
		template.HTMLEscapeString(eventTitle(event.EventType)),
		template.HTMLEscapeString(event.ContractName),
		template.HTMLEscapeString(orNA(event.ContractVersion)),
		template.HTMLEscapeString(orNA(event.PublisherTeam)),
		event.Timestamp.Format(time.RFC3339),
		r.frontendURL)
}

func (r *Renderer) fallbackText(event models.Event) string {
	return fmt.Sprintf(`%s

Contract: %s
Version: %s
Publisher Team: %s
Time: %s

---
This is an automated alert from DataPact.
View in Dashboard: %s
`,
		eventTitle(event.EventType),
		event.ContractName,
		orNA(event.ContractVersion),
		orNA(event.PublisherTeam),
		event.Timestamp.Format(time.RFC3339),
		r.frontendURL)
}

// RenderDigest aggregates pending notifications grouped by event type into
// one summary HTML body.
func (r *Renderer) RenderDigest(byType map[string][]models.Notification) string {
	total := 0
	for _, ns := range byType {
		total += len(ns)
	}

	types := make([]string, 0, len(byType))
	for et := range byType {
		types = append(types, et)
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n<body>\n")
	fmt.Fprintf(&b, "<h1>DataPact Digest: %d Notifications</h1>\n", total)
	for _, et := range types {
		ns := byType[et]
		fmt.Fprintf(&b, "<h3>%s (%d)</h3>\n<ul>\n", template.HTMLEscapeString(eventTitle(models.EventType(et))), len(ns))
		for _, n := range ns {
			fmt.Fprintf(&b, "<li><strong>%s</strong> - %s</li>\n",
				template.HTMLEscapeString(n.Subject), n.CreatedAt.Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(&b, "</ul>\n")
	}
	fmt.Fprintf(&b, "<p><a href=\"%s\">View all in Dashboard</a></p>\n</body>\n</html>\n", r.frontendURL)
	return b.String()
}

// eventTitle converts an event type into a human heading, e.g.
// "schema_drift" -> "Schema Drift".
func eventTitle(et models.EventType) string {
	words := strings.Split(string(et), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"identity-service/internal/domain/notification"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns a template name and its parameters into an HTML body.
type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	templates, err := template.New("mail").Option("missingkey=error").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse mail templates: %w", err)
	}
	return &Renderer{templates: templates}, nil
}

func (r *Renderer) Render(name notification.Template, data map[string]string) (string, error) {
	tmpl := r.templates.Lookup(string(name) + ".html")
	if tmpl == nil {
		return "", fmt.Errorf("unknown mail template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Package templates provides the HTML rendering adapter for the provider
// selection page, POST-binding forms, and error pages.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/spauthd/samlchain/internal/core/ports"
)

//go:embed html/*.html
var embeddedTemplates embed.FS

// Engine renders the HTML surfaces of the service provider.
type Engine struct {
	selectTmpl *template.Template
	postTmpl   *template.Template
	errTmpl    *template.Template
}

// NewEngine creates an engine using the embedded templates.
func NewEngine() (*Engine, error) {
	selectTmpl, err := template.ParseFS(embeddedTemplates, "html/select.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded select.html: %w", err)
	}
	postTmpl, err := template.ParseFS(embeddedTemplates, "html/post.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded post.html: %w", err)
	}
	errTmpl, err := template.ParseFS(embeddedTemplates, "html/error.html")
	if err != nil {
		return nil, fmt.Errorf("parse embedded error.html: %w", err)
	}
	return &Engine{
		selectTmpl: selectTmpl,
		postTmpl:   postTmpl,
		errTmpl:    errTmpl,
	}, nil
}

// NewEngineWithDir creates an engine that loads custom templates from the
// given directory, falling back to embedded for missing files.
func NewEngineWithDir(dir string) (*Engine, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates path is not a directory: %s", dir)
	}

	selectTmpl, err := loadTemplate(dir, "select.html")
	if err != nil {
		return nil, fmt.Errorf("load select template: %w", err)
	}
	postTmpl, err := loadTemplate(dir, "post.html")
	if err != nil {
		return nil, fmt.Errorf("load post template: %w", err)
	}
	errTmpl, err := loadTemplate(dir, "error.html")
	if err != nil {
		return nil, fmt.Errorf("load error template: %w", err)
	}

	return &Engine{
		selectTmpl: selectTmpl,
		postTmpl:   postTmpl,
		errTmpl:    errTmpl,
	}, nil
}

// loadTemplate tries to load a template from the custom directory,
// falling back to the embedded version if the file doesn't exist.
func loadTemplate(dir, name string) (*template.Template, error) {
	customPath := filepath.Join(dir, name)

	if _, err := os.Stat(customPath); err == nil {
		tmpl, err := template.ParseFiles(customPath)
		if err != nil {
			return nil, fmt.Errorf("parse custom %s: %w", name, err)
		}
		return tmpl, nil
	}

	tmpl, err := template.ParseFS(embeddedTemplates, "html/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse embedded %s: %w", name, err)
	}
	return tmpl, nil
}

// RenderSelect renders the identity provider selection page.
func (e *Engine) RenderSelect(w io.Writer, data ports.SelectData) error {
	return e.selectTmpl.Execute(w, data)
}

// RenderPost renders an auto-submitting HTTP-POST binding form.
func (e *Engine) RenderPost(w io.Writer, data ports.PostData) error {
	return e.postTmpl.Execute(w, data)
}

// RenderError renders an error page.
func (e *Engine) RenderError(w io.Writer, data ports.ErrorData) error {
	return e.errTmpl.Execute(w, data)
}

// Interface guard
var _ ports.TemplateEngine = (*Engine)(nil)

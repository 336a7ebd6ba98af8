// Package ui renders the portal pages from embedded templates
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the stylesheet directory served under /static
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer executes the page templates
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("portal").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// UserInfo is the signed-in user shown in the top bar
type UserInfo struct {
	Username  string
	RoleLabel string
}

// NavItem is one sidebar link
type NavItem struct {
	Key   string
	Title string
	URL   string
}

// Page contains all data needed to render a complete page
type Page struct {
	Title   string
	Active  string
	User    *UserInfo
	Nav     []NavItem
	Content template.HTML
}

// Fragment executes a named template into HTML that can be embedded in a page
func (r *Renderer) Fragment(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	// Output of html/template is already escaped
	return template.HTML(buf.String()), nil
}

// Page writes a full page around its content
func (r *Renderer) Page(w io.Writer, page Page) error {
	return r.templates.ExecuteTemplate(w, "layout", page)
}

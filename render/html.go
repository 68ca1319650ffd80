// Package render is the markup collaborator: it consumes the board package's
// structured pages and produces HTML. It has no access to the store and can be
// swapped without touching the core.
package render

import (
	"embed"
	"html/template"
	"io"

	"nanoboard/board"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer turns page structures into markup.
type Renderer interface {
	Index(w io.Writer, page board.IndexPage) error
	Thread(w io.Writer, page board.ThreadPage) error
}

// HTMLRenderer renders the board's pages from embedded templates.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded templates. Parse failures are
// programmer errors and surface at boot.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Index renders the top-level listing page.
func (r *HTMLRenderer) Index(w io.Writer, page board.IndexPage) error {
	return r.tmpl.ExecuteTemplate(w, "index.tmpl", page)
}

// Thread renders a single thread page.
func (r *HTMLRenderer) Thread(w io.Writer, page board.ThreadPage) error {
	return r.tmpl.ExecuteTemplate(w, "thread.tmpl", page)
}

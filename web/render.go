package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"

	"github.com/ledgerdesk/admin-console/internal/core/domain"
)

const layoutFile = "templates/layout.html"

// Renderer executes the page templates. Every page is parsed together with the
// layout and rendered through its "layout" definition.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"roleLabel": func(r any) string {
		switch v := r.(type) {
		case domain.Role:
			return v.Label()
		case string:
			return domain.Role(v).Label()
		}
		return fmt.Sprint(r)
	},
	"roles": domain.Roles,
}

// NewRenderer parses every page under templates/.
func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(Templates, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, file := range names {
		if file == layoutFile {
			continue
		}
		t, err := template.New("").Funcs(funcs).ParseFS(Templates, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		name := file[len("templates/") : len(file)-len(".html")]
		r.pages[name] = t
	}
	return r, nil
}

// Render satisfies echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

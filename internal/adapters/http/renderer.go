package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"index.html",
	"add_restaurant.html",
	"restaurant.html",
	"add_review.html",
	"all_reviews.html",
}

// Renderer implements echo.Renderer over the embedded page templates.
// Every page is parsed together with the shared layout.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses all pages
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"pathEscape": url.PathEscape,
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	return &Renderer{templates: templates}, nil
}

// Render executes the layout for the named page
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

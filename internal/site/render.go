package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"github.com/starford/studylog/internal/checksum"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/*
var assetFS embed.FS

var funcs = template.FuncMap{
	"nl2br": nl2br,
}

// nl2br escapes s and turns newlines into <br> tags.
func nl2br(s string) template.HTML {
	escaped := template.HTMLEscapeString(s)
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}

// page is the data passed to the layout.
type page struct {
	Title      string
	SiteTitle  string
	Base       string
	NavToday   string
	TZLabel    string
	LiveReload bool
	Data       any

	versions map[string]string
}

// Asset returns the cache-busted URL of a static asset relative to the page.
func (p page) Asset(name string) string {
	u := p.Base + "assets/" + name
	if v, ok := p.versions[name]; ok {
		u += "?v=" + v
	}
	return u
}

// renderer holds one template set per page kind, each sharing the layout.
type renderer struct {
	pages    map[string]*template.Template
	assets   map[string][]byte
	versions map[string]string
}

func newRenderer() (*renderer, error) {
	layout, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("site: parse layout: %w", err)
	}

	r := &renderer{
		pages:    make(map[string]*template.Template),
		assets:   make(map[string][]byte),
		versions: make(map[string]string),
	}
	for _, name := range []string{"week", "month", "day", "404"} {
		clone, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("site: clone layout: %w", err)
		}
		t, err := clone.ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}

	entries, err := fs.ReadDir(assetFS, "assets")
	if err != nil {
		return nil, fmt.Errorf("site: list assets: %w", err)
	}
	for _, e := range entries {
		data, err := assetFS.ReadFile(path.Join("assets", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("site: read asset %s: %w", e.Name(), err)
		}
		r.assets[e.Name()] = data
		r.versions[e.Name()] = checksum.Short(data)
	}
	return r, nil
}

func (r *renderer) render(name string, p page) ([]byte, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("site: unknown page %q", name)
	}
	p.versions = r.versions
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return nil, fmt.Errorf("site: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/barlyqqyzmet/admin/internal/views"
)

// mdRenderer turns listing descriptions into HTML. Raw HTML in the input is
// dropped by goldmark and the output is sanitized again before use.
var mdRenderer = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
	goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()),
)

var ugcPolicy = bluemonday.UGCPolicy()

// renderer handles template rendering.
type renderer struct {
	baseTemplate *template.Template
	templatesFS  fs.FS
}

func newRenderer(templatesFS fs.FS, apiURL string) (*renderer, error) {
	base, err := template.New("").Funcs(templateFuncs(apiURL)).ParseFS(templatesFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}
	return &renderer{baseTemplate: base, templatesFS: templatesFS}, nil
}

// PageData contains common data for all pages.
type PageData struct {
	Title       string
	CurrentPath string
	User        string
	Flash       *Flash
	Data        any
}

// render clones the base template and parses the page template into it so
// "content" blocks of different pages never collide. Output is buffered so
// a template error still produces a clean 500.
func (r *renderer) render(w http.ResponseWriter, status int, name string, page PageData) error {
	tmpl, err := r.baseTemplate.Clone()
	if err != nil {
		return fmt.Errorf("clone template: %w", err)
	}
	if _, err := tmpl.ParseFS(r.templatesFS, "templates/"+name); err != nil {
		return fmt.Errorf("parse page template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", page); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

func templateFuncs(apiURL string) template.FuncMap {
	return template.FuncMap{
		"asset":      func(p string) string { return assetURL(apiURL, p) },
		"ago":        views.Ago,
		"date":       views.Date,
		"price":      views.Price,
		"markdown":   markdown,
		"comma":      func(n int) string { return humanize.Comma(int64(n)) },
		"active":     active,
		"rowActions": rowActions,
	}
}

// markdown renders untrusted Markdown into sanitized HTML.
func markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

// assetURL resolves an image path returned by the API against its base URL.
func assetURL(base, p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}

// active reports whether the nav entry prefix owns the current path.
func active(current, prefix string) bool {
	if prefix == "/" {
		return current == "/"
	}
	return current == prefix || strings.HasPrefix(current, prefix+"/")
}

// actionSet feeds the "rowactions" template.
type actionSet struct {
	Return  string
	Actions []action
}

func rowActions(r row, ret string) actionSet {
	return actionSet{Return: ret, Actions: r.Actions}
}
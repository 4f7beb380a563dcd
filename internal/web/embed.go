package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed static
var staticFiles embed.FS

//go:embed templates
var templateFiles embed.FS

// StaticFS is the embedded static file system with the "static/" prefix stripped.
var StaticFS fs.FS

// Templates is the compiled template set for all views.
var Templates *template.Template

var funcs = template.FuncMap{
	"reltime": humanize.Time,
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
	"comma": func(n int) string {
		return humanize.Comma(int64(n))
	},
}

func init() {
	var err error

	StaticFS, err = fs.Sub(staticFiles, "static")
	if err != nil {
		slog.Error("web: failed to create static FS", "err", err)
		panic(err)
	}

	Templates, err = template.New("").Funcs(funcs).ParseFS(templateFiles,
		"templates/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		slog.Error("web: failed to parse templates", "err", err)
		panic(err)
	}
}

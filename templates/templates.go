package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html partials/*.html
var files embed.FS

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// Load parses the page and every partial. Templates are addressed by file
// name, e.g. "video_preview.html".
func Load() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "*.html", "partials/*.html")
}

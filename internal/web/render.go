package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin/render"

	"github.com/amirk1998/notes-web/pkg/validator"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageRenderer pairs base.html with each page template, so pages can each
// define the same "title" and "content" blocks.
type pageRenderer struct {
	pages map[string]*template.Template
}

func newPageRenderer() (*pageRenderer, error) {
	funcs := template.FuncMap{
		"formatTime": func(ms int64) string {
			return time.UnixMilli(ms).UTC().Format("Jan 2, 2006 15:04 UTC")
		},
		"maxTitle": func() int { return validator.MaxTitleLength },
		"preview":  preview,
	}

	base, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template: %w", err)
	}

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &pageRenderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		page := path.Base(name)
		if page == "base.html" {
			continue
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := clone.ParseFS(templateFS, name); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", page, err)
		}
		r.pages[page] = clone
	}
	return r, nil
}

const previewLength = 150

// preview cuts content to its first previewLength characters.
func preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLength {
		return content
	}
	return string([]rune(content)[:previewLength]) + "..."
}

// Instance implements gin's render.HTMLRender.
func (r *pageRenderer) Instance(name string, data any) render.Render {
	return render.HTML{
		Template: r.pages[name],
		Name:     "base",
		Data:     data,
	}
}

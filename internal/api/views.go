package api

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// baseLayout wraps every page; pages are rendered through {{embed}}.
const baseLayout = "layouts/base"

// NewViews returns the template engine for the embedded templates. Templates
// are named by their path below templates/ without the extension, such as
// "pages/home" or "partials/messages".
func NewViews() *html.Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("date", func(t time.Time) string { return t.Format("Jan 2, 2006") })
	engine.AddFunc("deref", func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	})
	return engine
}

func pageView(name string) string {
	return "pages/" + name
}

// Package web embeds the storefront templates.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed views
var views embed.FS

// Engine returns the template engine over the embedded views. With reload set
// templates are read from ./web/views on every render instead.
func Engine(reload bool) *html.Engine {
	var engine *html.Engine
	if reload {
		engine = html.New("./web/views", ".html")
		engine.Reload(true)
	} else {
		sub, err := fs.Sub(views, "views")
		if err != nil {
			panic(err)
		}
		engine = html.NewFileSystem(http.FS(sub), ".html")
	}

	engine.AddFunc("default", func(d interface{}, s string) interface{} {
		if s != "" {
			return s
		}
		return d
	})
	return engine
}

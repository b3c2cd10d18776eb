package http

import (
	"embed"
	"io/fs"
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

//go:embed web
var webFiles embed.FS

// StaticHandler serves the embedded map page at /.
func StaticHandler() fiber.Handler {
	root, err := fs.Sub(webFiles, "web")
	if err != nil {
		panic("embedded web assets: " + err.Error())
	}
	return filesystem.New(filesystem.Config{
		Root:   nethttp.FS(root),
		Index:  "index.html",
		MaxAge: 300,
	})
}

// Package views holds the server-rendered HTML templates, embedded into the binary.
package views

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

// Layout wraps every page.
const Layout = "layouts/main"

//go:embed templates
var files embed.FS

// New returns a Fiber view engine over the embedded templates.
func New() (*html.Engine, error) {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}
	return html.NewFileSystem(http.FS(sub), ".html"), nil
}

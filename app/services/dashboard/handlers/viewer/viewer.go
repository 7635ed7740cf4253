// Package viewer serves the page that shows the dashboard events in a
// browser.
package viewer

import (
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/ardanlabs/walletdash/foundation/web"
)

//go:embed assets
var assets embed.FS

// Routes binds the index page and its assets.
func Routes(app *web.App) error {
	static, err := fs.Sub(assets, "assets")
	if err != nil {
		return err
	}

	index, err := fs.ReadFile(static, "index.html")
	if err != nil {
		return err
	}

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		web.SetStatusCode(ctx, http.StatusOK)

		_, err := w.Write(index)
		return err
	}
	app.Handle(http.MethodGet, "", "/", h)

	fsrv := http.StripPrefix("/assets/", http.FileServer(http.FS(static)))
	f := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		fsrv.ServeHTTP(w, r)
		return nil
	}
	app.Handle(http.MethodGet, "", "/assets/*", f)

	return nil
}

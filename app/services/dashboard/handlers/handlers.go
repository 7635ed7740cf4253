// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1/sessiongrp"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/viewer"
	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/business/web/mid"
	"github.com/ardanlabs/walletdash/foundation/events"
	"github.com/ardanlabs/walletdash/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown   chan os.Signal
	Log        *zap.SugaredLogger
	CORSOrigin string
	Session    *session.Controller
	Ledger     *ledger.Ledger
	Router     sessiongrp.Router
	Evts       *events.Events
}

// DashboardMux constructs a http.Handler with all application routes defined.
func DashboardMux(cfg MuxConfig) (http.Handler, error) {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Cors(cfg.CORSOrigin),
		mid.Panics(),
	)

	// Accept CORS 'OPTIONS' preflight requests.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors(cfg.CORSOrigin))

	// Load the v1 routes.
	v1.Routes(app, v1.Config{
		Log:     cfg.Log,
		Session: cfg.Session,
		Ledger:  cfg.Ledger,
		Router:  cfg.Router,
		Evts:    cfg.Evts,
	})

	// Load the page that shows the events in a browser.
	if err := viewer.Routes(app); err != nil {
		return nil, fmt.Errorf("loading viewer: %w", err)
	}

	return app, nil
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. The readiness check reaches out
// to the wallet API.
func DebugMux(build string, log *zap.SugaredLogger, api checkgrp.Pinger) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		API:   api,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}

// Package v1 contains the full set of handler functions and routes
// supported by the v1 dashboard api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1/chaingrp"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1/eventgrp"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1/sessiongrp"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1/walletgrp"
	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/business/web/mid"
	"github.com/ardanlabs/walletdash/foundation/events"
	"github.com/ardanlabs/walletdash/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	Session *session.Controller
	Ledger  *ledger.Ledger
	Router  sessiongrp.Router
	Evts    *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	authen := mid.Authenticate(cfg.Session)

	sgh := sessiongrp.Handlers{
		Session: cfg.Session,
		Router:  cfg.Router,
	}
	app.Handle(http.MethodGet, version, "/session", sgh.View)
	app.Handle(http.MethodPost, version, "/session/login", sgh.Login)
	app.Handle(http.MethodPost, version, "/session/register", sgh.Register)
	app.Handle(http.MethodPost, version, "/session/logout", sgh.Logout)

	wgh := walletgrp.Handlers{
		Session: cfg.Session,
		Ledger:  cfg.Ledger,
	}
	app.Handle(http.MethodGet, version, "/wallet", wgh.Wallet, authen)
	app.Handle(http.MethodGet, version, "/wallet/pending", wgh.Pending, authen)
	app.Handle(http.MethodGet, version, "/wallet/summary", wgh.Summary, authen)
	app.Handle(http.MethodGet, version, "/transactions", wgh.Transactions, authen)
	app.Handle(http.MethodGet, version, "/transactions/history", wgh.History, authen)
	app.Handle(http.MethodPost, version, "/transactions", wgh.Create, authen)

	cgh := chaingrp.Handlers{
		Ledger: cfg.Ledger,
	}
	app.Handle(http.MethodGet, version, "/chain", cgh.Chain, authen)
	app.Handle(http.MethodPost, version, "/chain/mine", cgh.Mine, authen)

	egh := eventgrp.Handlers{
		Log:  cfg.Log,
		WS:   websocket.Upgrader{},
		Evts: cfg.Evts,
	}
	app.Handle(http.MethodGet, version, "/events", egh.Events)
}

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers"
	"github.com/ardanlabs/walletdash/app/services/dashboard/handlers/v1/eventgrp"
	"github.com/ardanlabs/walletdash/business/core/ledger"
	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/foundation/events"
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const sessionCookie = "wallet_session"

func newWalletAPI() *httptest.Server {
	mux := http.NewServeMux()

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if _, err := r.Cookie(sessionCookie); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(walletapi.Response[any]{Status: 401, Message: "Session expired"})
			return false
		}
		return true
	}

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "bill", Path: "/"})
		json.NewEncoder(w).Encode(walletapi.Response[walletapi.AuthData]{Success: true, Status: 200, Message: "Welcome back"})
	})

	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
		json.NewEncoder(w).Encode(walletapi.Response[any]{Success: true, Status: 200})
	})

	wallet := func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		json.NewEncoder(w).Encode(walletapi.Response[walletapi.Wallet]{
			Success: true,
			Status:  200,
			Data:    walletapi.Wallet{Balance: 42.5, WalletAddress: "0xabc"},
		})
	}
	mux.HandleFunc("GET /transaction/wallet", wallet)
	mux.HandleFunc("GET /transaction/pending/balance", wallet)

	mux.HandleFunc("GET /transaction/summary", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		json.NewEncoder(w).Encode(walletapi.Response[walletapi.Summary]{Success: true, Status: 200})
	})

	mux.HandleFunc("GET /transaction", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		json.NewEncoder(w).Encode(walletapi.Response[[]walletapi.Transaction]{Success: true, Status: 200})
	})

	mux.HandleFunc("GET /transaction/history", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		json.NewEncoder(w).Encode(walletapi.Response[walletapi.History]{Success: true, Status: 200})
	})

	return httptest.NewServer(mux)
}

type dashboard struct {
	t   *testing.T
	mux http.Handler
}

func (d dashboard) call(method string, path string, body string) (int, map[string]any) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	w := httptest.NewRecorder()
	d.mux.ServeHTTP(w, req)

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		d.t.Fatalf("\t%s\tShould be able to decode the response for %s %s: %v", failed, method, path, err)
	}

	return w.Code, resp
}

func TestDashboard(t *testing.T) {
	srv := newWalletAPI()
	defer srv.Close()

	api, err := walletapi.New(srv.URL)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a client: %v", failed, err)
	}

	log := zap.NewNop().Sugar()
	cache := query.NewCache(query.WithDelay(func(int) time.Duration { return 0 }))
	evts := events.New()
	bridge := eventgrp.NewBridge(evts)

	ctrl := session.New(session.Config{
		Log:       log,
		API:       api,
		Cache:     cache,
		Notifier:  bridge,
		Navigator: bridge,
	})

	ldg := ledger.New(ledger.Config{
		Log:      log,
		API:      api,
		Cache:    cache,
		Notifier: bridge,
	})
	ctrl.Subscribe(ldg.SessionChanged)

	mux, err := handlers.DashboardMux(handlers.MuxConfig{
		Shutdown:   make(chan os.Signal, 1),
		Log:        log,
		CORSOrigin: "*",
		Session:    ctrl,
		Ledger:     ldg,
		Router:     bridge,
		Evts:       evts,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the mux: %v", failed, err)
	}

	d := dashboard{t: t, mux: mux}

	t.Log("Given the need to drive the session through the dashboard api.")
	{
		ctrl.Refresh(t.Context())

		status, resp := d.call(http.MethodGet, "/v1/session", "")
		data, _ := resp["data"].(map[string]any)
		if status != http.StatusOK || data["isAuthenticated"] != false || data["route"] != session.RouteLogin {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould start without a session on the login route.", failed)
		}
		t.Logf("\t%s\tShould start without a session on the login route.", success)

		status, resp = d.call(http.MethodGet, "/v1/wallet", "")
		if status != http.StatusUnauthorized || resp["message"] != "Unauthorized" {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould reject the wallet without a session.", failed)
		}
		t.Logf("\t%s\tShould reject the wallet without a session.", success)

		status, resp = d.call(http.MethodPost, "/v1/session/login", `{"username":"bill"}`)
		if status != http.StatusBadRequest {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould reject a login without a password.", failed)
		}
		t.Logf("\t%s\tShould reject a login without a password.", success)

		status, resp = d.call(http.MethodPost, "/v1/session/login", `{"username":"bill","password":"secret"}`)
		data, _ = resp["data"].(map[string]any)
		if status != http.StatusOK || data["isAuthenticated"] != true || data["route"] != session.RouteDashboard {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould login and move to the dashboard.", failed)
		}
		t.Logf("\t%s\tShould login and move to the dashboard.", success)

		status, resp = d.call(http.MethodGet, "/v1/wallet", "")
		data, _ = resp["data"].(map[string]any)
		if status != http.StatusOK || data["balance"] != 42.5 || data["walletAddress"] != "0xabc" {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould get the wallet of the session.", failed)
		}
		t.Logf("\t%s\tShould get the wallet of the session.", success)

		status, resp = d.call(http.MethodGet, "/v1/transactions?status=bogus", "")
		if status != http.StatusBadRequest {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould reject an unknown transaction status.", failed)
		}
		t.Logf("\t%s\tShould reject an unknown transaction status.", success)

		status, resp = d.call(http.MethodGet, "/v1/transactions/history?offset=abc", "")
		if status != http.StatusBadRequest {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould reject an offset that is not a number.", failed)
		}
		t.Logf("\t%s\tShould reject an offset that is not a number.", success)

		status, resp = d.call(http.MethodPost, "/v1/session/logout", "")
		data, _ = resp["data"].(map[string]any)
		if status != http.StatusOK || data["isAuthenticated"] != false || data["route"] != session.RouteLogin {
			t.Logf("\t%s\tgot: %d %v", failed, status, resp)
			t.Fatalf("\t%s\tShould logout and move to the login route.", failed)
		}
		t.Logf("\t%s\tShould logout and move to the login route.", success)

		status, _ = d.call(http.MethodGet, "/v1/wallet/pending", "")
		if status != http.StatusUnauthorized {
			t.Fatalf("\t%s\tShould reject the pending balance after logout: %d", failed, status)
		}
		t.Logf("\t%s\tShould reject the pending balance after logout.", success)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		d.mux.ServeHTTP(w, req)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "viewer.js") {
			t.Fatalf("\t%s\tShould serve the viewer page: %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould serve the viewer page.", success)
	}
}

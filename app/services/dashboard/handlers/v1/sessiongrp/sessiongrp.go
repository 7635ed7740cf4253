// Package sessiongrp maintains the group of handlers for the session.
package sessiongrp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/business/web/errs"
	v1 "github.com/ardanlabs/walletdash/business/web/v1"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/ardanlabs/walletdash/foundation/web"
)

// Router provides the route the browser was last sent to.
type Router interface {
	Route() string
}

// Handlers manages the set of session endpoints.
type Handlers struct {
	Session *session.Controller
	Router  Router
}

// state is the session view along with the route the browser should show.
type state struct {
	session.View
	Route string `json:"route"`
}

// View returns the current session and the route to show for it.
func (h Handlers) View(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return v1.Respond(ctx, w, h.state(), "", http.StatusOK)
}

// Login establishes a session with the wallet API.
func (h Handlers) Login(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var cred walletapi.Credentials
	if err := decode(r, &cred); err != nil {
		return err
	}

	if err := h.Session.Login(ctx, cred.Username, cred.Password); err != nil {
		return err
	}

	return v1.Respond(ctx, w, h.state(), "Login successful!", http.StatusOK)
}

// Register creates a new user with the wallet API.
func (h Handlers) Register(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var cred walletapi.Credentials
	if err := decode(r, &cred); err != nil {
		return err
	}

	if err := h.Session.Register(ctx, cred.Username, cred.Password); err != nil {
		return err
	}

	return v1.Respond(ctx, w, h.state(), "Registration successful!", http.StatusCreated)
}

// Logout ends the session with the wallet API.
func (h Handlers) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.Session.Logout(ctx); err != nil {
		return err
	}

	return v1.Respond(ctx, w, h.state(), "Logged out successfully", http.StatusOK)
}

// =============================================================================

func (h Handlers) state() state {
	v := h.Session.View()
	return state{
		View:  v,
		Route: Route(v, h.Router.Route()),
	}
}

// Route returns the route the browser should show for the session. An
// authenticated session never stays on the login or register pages and
// an unauthenticated one never stays on the dashboard pages. While the
// session is being checked the current route is kept.
func Route(v session.View, current string) string {
	switch {
	case v.Authenticated && (current == session.RouteLogin || current == "/register" || current == ""):
		return session.RouteDashboard

	case !v.Authenticated && !v.Loading && current != session.RouteLogin && current != "/register":
		return session.RouteLogin
	}

	return current
}

func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		return errs.NewTrusted(fmt.Errorf("decode: %w", err), http.StatusBadRequest)
	}

	return nil
}

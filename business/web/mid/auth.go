package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/business/web/errs"
	"github.com/ardanlabs/walletdash/foundation/web"
)

// ErrUnauthenticated is returned for protected routes without a session.
var ErrUnauthenticated = errors.New("Unauthorized")

// Viewer provides the current session view.
type Viewer interface {
	View() session.View
}

// Authenticate rejects the request unless the session is authenticated.
// It guards the routes of the dashboard that need a wallet.
func Authenticate(v Viewer) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !v.View().Authenticated {
				return errs.NewTrusted(ErrUnauthenticated, http.StatusUnauthorized)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}

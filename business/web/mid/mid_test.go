package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/business/sys/validate"
	"github.com/ardanlabs/walletdash/business/web/errs"
	"github.com/ardanlabs/walletdash/business/web/mid"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/ardanlabs/walletdash/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

type viewer bool

func (v viewer) View() session.View {
	return session.View{Authenticated: bool(v)}
}

func TestErrors(t *testing.T) {
	type table struct {
		name    string
		err     error
		status  int
		message string
	}

	tt := []table{
		{name: "trusted", err: errs.NewTrusted(errors.New("bad offset"), http.StatusBadRequest), status: http.StatusBadRequest, message: "bad offset"},
		{name: "remote", err: &walletapi.Error{Status: http.StatusConflict, Message: "Insufficient balance"}, status: http.StatusConflict, message: "Insufficient balance"},
		{name: "network", err: &walletapi.NetworkError{Err: errors.New("refused")}, status: http.StatusBadGateway, message: "Network error. Please check your connection."},
		{name: "fields", err: validate.Check(walletapi.Credentials{}), status: http.StatusBadRequest, message: "data validation error"},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, message: "Internal Server Error"},
		{name: "panic", status: http.StatusInternalServerError, message: "Internal Server Error"},
	}

	t.Log("Given the need to render handler errors in the api envelope.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				app := web.NewApp(make(chan os.Signal, 1), mid.Errors(zap.NewNop().Sugar()), mid.Panics())

				h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
					if tst.err == nil {
						panic("handler blew up")
					}
					return tst.err
				}
				app.Handle(http.MethodGet, "v1", "/test", h)

				w := httptest.NewRecorder()
				app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/test", nil))

				var resp errs.Response
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to decode the response: %v", failed, testID, err)
				}

				if w.Code != tst.status || resp.Status != tst.status || resp.Message != tst.message || resp.Success {
					t.Logf("\t%s\tTest %d:\tgot: %d %+v", failed, testID, w.Code, resp)
					t.Logf("\t%s\tTest %d:\texp: %d %s", failed, testID, tst.status, tst.message)
					t.Fatalf("\t%s\tTest %d:\tShould respond with the right envelope.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould respond with the right envelope.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	t.Log("Given the need to guard routes that need a session.")
	{
		for _, authenticated := range []bool{false, true} {
			app := web.NewApp(make(chan os.Signal, 1), mid.Errors(zap.NewNop().Sugar()))

			h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			app.Handle(http.MethodGet, "v1", "/wallet", h, mid.Authenticate(viewer(authenticated)))

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/wallet", nil))

			exp := http.StatusUnauthorized
			if authenticated {
				exp = http.StatusNoContent
			}

			if w.Code != exp {
				t.Fatalf("\t%s\tShould get status %d with authenticated[%v]: %d", failed, exp, authenticated, w.Code)
			}
			t.Logf("\t%s\tShould get status %d with authenticated[%v].", success, exp, authenticated)
		}
	}
}

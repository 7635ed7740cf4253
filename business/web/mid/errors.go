package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/walletdash/business/sys/validate"
	"github.com/ardanlabs/walletdash/business/web/errs"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/ardanlabs/walletdash/foundation/web"
	"go.uber.org/zap"
)

// Errors handles errors coming out of the call chain. It detects normal
// application errors which are used to respond to the client in a uniform way.
// Unexpected errors (status >= 500) are logged.
func Errors(log *zap.SugaredLogger) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Run the next handler and catch any propagated error.
			if err := handler(ctx, w, r); err != nil {

				// Log the error.
				log.Errorw("ERROR", "traceid", web.GetTraceID(ctx), "ERROR", err)

				var apiErr *walletapi.Error
				var netErr *walletapi.NetworkError

				// Build out the error response.
				var er errs.Response
				switch {
				case validate.IsFieldErrors(err):
					fieldErrors := validate.GetFieldErrors(err)
					er = errs.Response{
						Status:  http.StatusBadRequest,
						Message: "data validation error",
						Data:    fieldErrors.Fields(),
					}

				case errs.IsTrusted(err):
					trsErr := errs.GetTrusted(err)
					er = errs.Response{
						Status:  trsErr.Status,
						Message: walletapi.Message(trsErr.Err, trsErr.Err.Error()),
					}

				case errors.As(err, &apiErr):
					er = errs.Response{
						Status:  apiErr.Status,
						Message: apiErr.Message,
					}

				case errors.As(err, &netErr):
					er = errs.Response{
						Status:  http.StatusBadGateway,
						Message: netErr.Error(),
					}

				default:
					er = errs.Response{
						Status:  http.StatusInternalServerError,
						Message: http.StatusText(http.StatusInternalServerError),
					}
				}

				// Respond with the error back to the client.
				if err := web.Respond(ctx, w, er, er.Status); err != nil {
					return err
				}

				// If we receive the shutdown err we need to return it
				// back to the base handler to shut down the service.
				if web.IsShutdown(err) {
					return err
				}
			}

			// The error has been handled so we can stop propagating it.
			return nil
		}

		return h
	}

	return m
}

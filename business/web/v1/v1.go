// Package v1 provides the response envelope for the dashboard api.
package v1

import (
	"context"
	"net/http"

	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/ardanlabs/walletdash/foundation/web"
)

// Respond sends data to the client wrapped in the same envelope the
// wallet API uses.
func Respond[T any](ctx context.Context, w http.ResponseWriter, data T, message string, statusCode int) error {
	resp := walletapi.Response[T]{
		Success: statusCode >= 200 && statusCode <= 299,
		Status:  statusCode,
		Message: message,
		Data:    data,
	}

	return web.Respond(ctx, w, resp, statusCode)
}

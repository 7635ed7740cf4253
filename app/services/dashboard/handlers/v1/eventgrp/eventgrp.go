// Package eventgrp maintains the group of handlers for the dashboard's
// event stream.
package eventgrp

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/walletdash/foundation/events"
	"github.com/ardanlabs/walletdash/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of event endpoints.
type Handlers struct {
	Log  *zap.SugaredLogger
	WS   websocket.Upgrader
	Evts *events.Events
}

// Events handles a web socket to provide dashboard events to a browser.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The status code is not written by Respond for a hijacked connection.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	h.Log.Infow("events", "traceid", v.TraceID, "status", "subscribed")
	defer h.Log.Infow("events", "traceid", v.TraceID, "status", "unsubscribed")

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt, open := <-ch:
			if !open {
				return nil
			}

			if err := c.WriteJSON(evt); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

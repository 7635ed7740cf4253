package eventgrp

import (
	"sync"

	"github.com/ardanlabs/walletdash/business/core/session"
	"github.com/ardanlabs/walletdash/foundation/events"
)

// Bridge delivers the notifications and navigations of the dashboard to
// the connected browsers and remembers the current route.
type Bridge struct {
	evts *events.Events

	mu    sync.RWMutex
	route string
}

// NewBridge constructs a bridge that sends over the events.
func NewBridge(evts *events.Events) *Bridge {
	return &Bridge{
		evts:  evts,
		route: session.RouteLogin,
	}
}

// Notify implements session.Notifier.
func (b *Bridge) Notify(n session.Notification) {
	b.evts.Send(events.Event{Type: events.TypeNotification, Data: n})
}

// Navigate implements session.Navigator.
func (b *Bridge) Navigate(route string) {
	b.mu.Lock()
	b.route = route
	b.mu.Unlock()

	b.evts.Send(events.Event{Type: events.TypeNavigation, Data: route})
}

// Route returns the last route navigated to.
func (b *Bridge) Route() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.route
}

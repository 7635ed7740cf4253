// Package session provides the controller that derives the authentication
// state of the dashboard from the identity query and coordinates the
// login, register and logout actions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/walletdash/business/sys/validate"
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"go.uber.org/zap"
)

// IdentityKey is the cache key of the identity query.
var IdentityKey = query.Key{"wallet"}

// Set of routes the controller navigates to.
const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
)

// ErrNoWallet is returned when there is no wallet for the session.
var ErrNoWallet = errors.New("no wallet for the session")

// Level is the severity of a notification.
type Level string

// Set of notification levels.
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a message for the user.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// Navigator moves the user to a route of the dashboard.
type Navigator interface {
	Navigate(route string)
}

// API is the part of the wallet API the controller needs.
type API interface {
	Register(ctx context.Context, cred walletapi.Credentials) (walletapi.Response[walletapi.AuthData], error)
	Login(ctx context.Context, cred walletapi.Credentials) (walletapi.Response[walletapi.AuthData], error)
	Logout(ctx context.Context) (walletapi.Response[any], error)
	Wallet(ctx context.Context) (walletapi.Response[walletapi.Wallet], error)
}

// Change is published every time an event transitions the session.
type Change struct {
	Event Event
	View  View
}

// ChangeFunc is called with every session change. Functions are called in
// the order they subscribed.
type ChangeFunc func(ctx context.Context, ch Change)

// Config is the set of collaborators the controller needs.
type Config struct {
	Log       *zap.SugaredLogger
	API       API
	Cache     *query.Cache
	Notifier  Notifier
	Navigator Navigator
}

// Controller derives the session from the identity query and performs
// the session actions.
type Controller struct {
	log       *zap.SugaredLogger
	api       API
	cache     *query.Cache
	notifier  Notifier
	navigator Navigator
	identity  *query.Query[walletapi.Response[walletapi.Wallet]]

	mu          sync.Mutex
	enabled     bool
	loggingIn   bool
	registering bool
	loggingOut  bool
	seen        time.Time
	loginAt     time.Time
	subs        []ChangeFunc
}

// New constructs a controller. The identity query starts enabled so the
// first refresh finds out if a session already exists.
func New(cfg Config) *Controller {
	c := Controller{
		log:       cfg.Log,
		api:       cfg.API,
		cache:     cfg.Cache,
		notifier:  cfg.Notifier,
		navigator: cfg.Navigator,
		enabled:   true,
	}

	c.identity = query.New(cfg.Cache, IdentityKey, cfg.API.Wallet, query.WithRetry(identityRetry))
	cfg.Cache.Subscribe(c.identityChanged)

	return &c
}

// identityRetry never retries an unauthorized failure since the session is
// known to be invalid. Anything else is retried once.
func identityRetry(retries int, err error) bool {
	if walletapi.IsUnauthorized(err) {
		return false
	}
	return retries < 1
}

// Subscribe registers a function to be called on every session change.
func (c *Controller) Subscribe(fn ChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs = append(c.subs, fn)
}

// Enabled reports if the identity query is allowed to run.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.enabled
}

// View returns the current session view.
func (c *Controller) View() View {
	c.mu.Lock()
	enabled := c.enabled
	loggingIn, registering, loggingOut := c.loggingIn, c.registering, c.loggingOut
	c.mu.Unlock()

	v := Derive(c.identity.State(), enabled)
	v.LoggingIn = loggingIn
	v.Registering = registering
	v.LoggingOut = loggingOut

	return v
}

// Wallet returns the wallet of the current session. ErrNoWallet is
// returned when the identity query holds no wallet.
func (c *Controller) Wallet() (walletapi.Wallet, error) {
	if !c.Enabled() {
		return walletapi.Wallet{}, ErrNoWallet
	}

	s := c.identity.State()
	if s.Data == nil {
		if s.Err != nil {
			return walletapi.Wallet{}, s.Err
		}
		return walletapi.Wallet{}, ErrNoWallet
	}

	return s.Data.Data, nil
}

// Refresh runs the identity query when it is enabled. Failures of the
// identity query are absorbed into the view.
func (c *Controller) Refresh(ctx context.Context) {
	c.identity.Fetch(ctx)
}

// Watch refreshes the identity on every tick until the context is
// cancelled. Watch never enables a disabled identity query.
func (c *Controller) Watch(ctx context.Context, every time.Duration) {
	c.Refresh(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// =============================================================================

// Login establishes a session. On success the identity query is enabled
// before any cached data is invalidated.
func (c *Controller) Login(ctx context.Context, username string, password string) error {
	cred := walletapi.Credentials{Username: username, Password: password}
	if err := validate.Check(cred); err != nil {
		c.notify(LevelError, err.Error())
		return fmt.Errorf("validate: %w", err)
	}

	c.inFlight(&c.loggingIn, true)
	defer c.inFlight(&c.loggingIn, false)

	resp, err := c.api.Login(ctx, cred)
	if err != nil {
		c.log.Infow("session", "action", "login", "username", username, "ERROR", err)
		c.notify(LevelError, walletapi.Message(err, "Login failed"))
		return fmt.Errorf("login: %w", err)
	}

	c.notify(LevelSuccess, messageOr(resp.Message, "Login successful!"))

	c.apply(LoginSucceeded)
	c.cache.Invalidate(ctx, IdentityKey)
	c.publish(ctx, LoginSucceeded)

	c.navigator.Navigate(RouteDashboard)

	return nil
}

// Register creates a new user. The user is not logged in by a successful
// registration.
func (c *Controller) Register(ctx context.Context, username string, password string) error {
	cred := walletapi.Credentials{Username: username, Password: password}
	if err := validate.Check(cred); err != nil {
		c.notify(LevelError, err.Error())
		return fmt.Errorf("validate: %w", err)
	}

	c.inFlight(&c.registering, true)
	defer c.inFlight(&c.registering, false)

	resp, err := c.api.Register(ctx, cred)
	if err != nil {
		c.log.Infow("session", "action", "register", "username", username, "ERROR", err)
		c.notify(LevelError, walletapi.Message(err, "Registration failed"))
		return fmt.Errorf("register: %w", err)
	}

	c.notify(LevelSuccess, messageOr(resp.Message, "Registration successful!"))
	c.navigator.Navigate(RouteLogin)

	return nil
}

// Logout ends the session. On success the identity query is disabled
// before the cache is cleared. A failed logout leaves the session as is.
func (c *Controller) Logout(ctx context.Context) error {
	c.inFlight(&c.loggingOut, true)
	defer c.inFlight(&c.loggingOut, false)

	if _, err := c.api.Logout(ctx); err != nil {
		c.log.Infow("session", "action", "logout", "ERROR", err)
		c.notify(LevelError, walletapi.Message(err, "Logout failed"))
		return fmt.Errorf("logout: %w", err)
	}

	c.apply(LogoutSucceeded)
	c.cache.Clear()
	c.publish(ctx, LogoutSucceeded)

	c.notify(LevelSuccess, "Logged out successfully")
	c.navigator.Navigate(RouteLogin)

	return nil
}

// =============================================================================

// identityChanged watches the cache for a new unauthorized failure of the
// identity query and disables the query when one shows up. A failure of a
// fetch that began before the last login says nothing about the new session.
func (c *Controller) identityChanged(key query.Key) {
	if key.String() != IdentityKey.String() {
		return
	}

	s := c.identity.State()
	if s.Fetching || !walletapi.IsUnauthorized(s.Err) {
		return
	}

	c.mu.Lock()
	fresh := s.UpdatedAt.After(c.seen) && !s.StartedAt.Before(c.loginAt)
	if fresh {
		c.seen = s.UpdatedAt
	}
	enabled := c.enabled
	c.mu.Unlock()

	if !fresh || !enabled {
		return
	}

	c.apply(UnauthorizedObserved)
	c.publish(context.Background(), UnauthorizedObserved)
}

func (c *Controller) apply(ev Event) {
	c.mu.Lock()
	if ev == LoginSucceeded {
		c.loginAt = time.Now()
	}
	c.enabled = Transition(c.enabled, ev)
	c.identity.SetEnabled(c.enabled)
	enabled := c.enabled
	c.mu.Unlock()

	c.log.Infow("session", "event", ev, "enabled", enabled)
}

func (c *Controller) publish(ctx context.Context, ev Event) {
	c.mu.Lock()
	subs := make([]ChangeFunc, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	ch := Change{
		Event: ev,
		View:  c.View(),
	}

	for _, fn := range subs {
		fn(ctx, ch)
	}
}

func (c *Controller) inFlight(flag *bool, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	*flag = v
}

func (c *Controller) notify(level Level, msg string) {
	c.notifier.Notify(Notification{Level: level, Message: msg})
}

func messageOr(msg string, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

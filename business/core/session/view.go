package session

import (
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
)

// Event is one of the named events allowed to change the enabled flag of
// the identity query.
type Event int

// Set of events that transition the enabled flag.
const (
	LoginSucceeded Event = iota + 1
	LogoutSucceeded
	UnauthorizedObserved
)

// String implements the fmt.Stringer interface.
func (e Event) String() string {
	switch e {
	case LoginSucceeded:
		return "loginSucceeded"
	case LogoutSucceeded:
		return "logoutSucceeded"
	case UnauthorizedObserved:
		return "unauthorizedObserved"
	}
	return "unknown"
}

// Transition returns the enabled flag after the event. Only a successful
// login enables the identity query.
func Transition(enabled bool, ev Event) bool {
	switch ev {
	case LoginSucceeded:
		return true
	case LogoutSucceeded, UnauthorizedObserved:
		return false
	}
	return enabled
}

// =============================================================================

// Phase names where the session is in its lifecycle.
type Phase string

// Set of session phases.
const (
	PhaseUnknown         Phase = "unknown"
	PhaseChecking        Phase = "checking"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseUnauthenticated Phase = "unauthenticated"
)

// View is the derived, read only picture of the session.
type View struct {
	Phase         Phase  `json:"phase"`
	Authenticated bool   `json:"isAuthenticated"`
	WalletAddress string `json:"walletAddress"`
	Loading       bool   `json:"isLoading"`
	LoggingIn     bool   `json:"isLoggingIn"`
	Registering   bool   `json:"isRegistering"`
	LoggingOut    bool   `json:"isLoggingOut"`
}

// Derive computes the session view from the identity query and the
// enabled flag. It does not read or change anything else.
func Derive(qs query.State[walletapi.Response[walletapi.Wallet]], enabled bool) View {
	var v View

	disabledOnError := !enabled && qs.Err != nil

	switch {
	case disabledOnError:
		v.Authenticated = false
	case qs.IsLoading():
		v.Authenticated = false
	default:
		v.Authenticated = qs.Data != nil
	}

	if qs.Data != nil && !disabledOnError {
		v.WalletAddress = qs.Data.Data.WalletAddress
	}

	v.Loading = qs.IsLoading() || (qs.Fetching && enabled)

	switch {
	case v.Authenticated:
		v.Phase = PhaseAuthenticated
	case enabled && (qs.IsLoading() || qs.Status == query.StatusIdle):
		v.Phase = PhaseChecking
		if qs.Status == query.StatusIdle && !qs.Fetching {
			v.Phase = PhaseUnknown
		}
	default:
		v.Phase = PhaseUnauthenticated
	}

	return v
}

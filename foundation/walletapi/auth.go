package walletapi

import (
	"context"
	"net/http"
)

// Register creates a new user and wallet.
func (cln *Client) Register(ctx context.Context, cred Credentials) (Response[AuthData], error) {
	var resp Response[AuthData]
	if err := cln.do(ctx, http.MethodPost, "/auth/register", cred, &resp); err != nil {
		return Response[AuthData]{}, err
	}
	return resp, nil
}

// Login establishes a session. The server answers with a session cookie
// that is stored in the client's cookie jar.
func (cln *Client) Login(ctx context.Context, cred Credentials) (Response[AuthData], error) {
	var resp Response[AuthData]
	if err := cln.do(ctx, http.MethodPost, "/auth/login", cred, &resp); err != nil {
		return Response[AuthData]{}, err
	}
	return resp, nil
}

// Logout invalidates the session on the server.
func (cln *Client) Logout(ctx context.Context) (Response[any], error) {
	var resp Response[any]
	if err := cln.do(ctx, http.MethodPost, "/auth/logout", nil, &resp); err != nil {
		return Response[any]{}, err
	}
	return resp, nil
}

// Package walletapi provides a client for the remote wallet and ledger API.
// The session is carried by a cookie the server sets on login, so every
// request goes out with the client's cookie jar.
package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is used when no base url is configured.
const DefaultBaseURL = "http://localhost:8080/api/v0"

// Logger represents a function that will be called to add information
// to the user's application logs.
type Logger func(v string, args ...any)

// Client provides access to the wallet API.
type Client struct {
	baseURL string
	http    *http.Client
	log     Logger
}

// Option represents a function that can configure the client.
type Option func(*Client)

// WithHTTPClient replaces the http client. The client must carry a cookie
// jar for the session to survive between calls.
func WithHTTPClient(c *http.Client) Option {
	return func(cln *Client) {
		cln.http = c
	}
}

// WithTimeout sets the time limit of a single call.
func WithTimeout(d time.Duration) Option {
	return func(cln *Client) {
		cln.http.Timeout = d
	}
}

// WithLogger sets a logger for request tracing.
func WithLogger(log Logger) Option {
	return func(cln *Client) {
		cln.log = log
	}
}

// New constructs a client for the API at the specified base url.
func New(baseURL string, options ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("constructing cookie jar: %w", err)
	}

	cln := Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		log: func(string, ...any) {},
	}

	for _, option := range options {
		option(&cln)
	}

	return &cln, nil
}

// BaseURL returns the base url of the API.
func (cln *Client) BaseURL() string {
	return cln.baseURL
}

// =============================================================================

// Info returns the application information of the remote service.
func (cln *Client) Info(ctx context.Context) (Response[Info], error) {
	var resp Response[Info]
	if err := cln.do(ctx, http.MethodGet, "/", nil, &resp); err != nil {
		return Response[Info]{}, err
	}
	return resp, nil
}

// =============================================================================

func (cln *Client) do(ctx context.Context, method string, path string, body any, v any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, cln.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("constructing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := cln.http.Do(req)
	if err != nil {
		cln.log("walletapi: %s %s: %s", method, path, err)
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	cln.log("walletapi: %s %s: status[%d] took[%s]", method, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if v == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func decodeError(status int, data []byte) error {
	var env Response[json.RawMessage]
	_ = json.Unmarshal(data, &env)

	msg := env.Message
	if msg == "" {
		msg = msgGeneric
		if status == http.StatusUnauthorized {
			msg = msgUnauthorized
		}
	}

	return &Error{Status: status, Message: msg}
}
